package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/loginflow/loginflow/internal/metrics"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	// Secret signs the cookie value. Must be at least 32 bytes.
	Secret []byte

	TTL time.Duration

	CookieName   string
	CookieDomain string
	CookieSecure bool
	SameSite     http.SameSite
}

type entry struct {
	userID    string
	expiresAt time.Time
}

// CookieManager keeps sessions server-side, keyed by an opaque session
// id. The cookie carries only that id, wrapped in a signed JWT so a
// tampered cookie fails before the store is consulted. Destroying a
// session removes the server-side entry, so a replayed cookie stops
// validating immediately.
type CookieManager struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]entry
}

func NewCookieManager(cfg Config) (*CookieManager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &CookieManager{
		cfg:      cfg,
		sessions: make(map[string]entry),
	}, nil
}

// state is the per-request view of the session, loaded by Middleware
// and mutated by Establish/Destroy during the handler.
type state struct {
	sid    string
	userID string

	setCookie   string // signed value to write after the handler
	clearCookie bool
}

type ctxKey struct{}

func stateFrom(ctx context.Context) (*state, error) {
	st, _ := ctx.Value(ctxKey{}).(*state)
	if st == nil {
		return nil, errNoState
	}
	return st, nil
}

// Middleware loads the session cookie into the request context before
// the handler and applies any cookie change after it.
func (m *CookieManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := &state{}
		if raw, err := c.Cookie(m.cfg.CookieName); err == nil && raw != "" {
			if sid, err := m.decode(raw); err == nil {
				if userID, ok := m.lookup(sid); ok {
					st.sid = sid
					st.userID = userID
				}
			}
		}

		ctx := context.WithValue(c.Request.Context(), ctxKey{}, st)
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		c.SetSameSite(m.cfg.SameSite)
		switch {
		case st.clearCookie && st.setCookie == "":
			c.SetCookie(m.cfg.CookieName, "", -1, "/", m.cfg.CookieDomain, m.cfg.CookieSecure, true)
		case st.setCookie != "":
			c.SetCookie(m.cfg.CookieName, st.setCookie, int(m.cfg.TTL.Seconds()), "/", m.cfg.CookieDomain, m.cfg.CookieSecure, true)
		}
	}
}

func (m *CookieManager) Establish(ctx context.Context, userID string) error {
	st, err := stateFrom(ctx)
	if err != nil {
		return err
	}

	// One login session per request context: replace, don't stack.
	if st.sid != "" {
		m.delete(st.sid)
	}

	sid := uuid.NewString()
	now := time.Now()
	signed, err := m.encode(sid, now)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	m.mu.Lock()
	m.sessions[sid] = entry{userID: userID, expiresAt: now.Add(m.cfg.TTL)}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	st.sid = sid
	st.userID = userID
	st.setCookie = signed
	st.clearCookie = false
	return nil
}

func (m *CookieManager) Current(ctx context.Context) (string, error) {
	st, err := stateFrom(ctx)
	if err != nil {
		return "", err
	}
	if st.userID == "" {
		return "", ErrNoSession
	}
	return st.userID, nil
}

func (m *CookieManager) Destroy(ctx context.Context) error {
	st, err := stateFrom(ctx)
	if err != nil {
		return err
	}
	if st.sid == "" {
		return ErrNoSession
	}

	m.delete(st.sid)
	st.sid = ""
	st.userID = ""
	st.setCookie = ""
	st.clearCookie = true
	return nil
}

// Sweep drops expired entries. Wired to a cron schedule in main.
func (m *CookieManager) Sweep() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for sid, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, sid)
			metrics.SessionsSweptTotal.Inc()
		}
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
}

func (m *CookieManager) lookup(sid string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sid]
	if !ok || !time.Now().Before(e.expiresAt) {
		return "", false
	}
	return e.userID, true
}

func (m *CookieManager) delete(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	metrics.SessionsActive.Set(float64(len(m.sessions)))
}

func (m *CookieManager) encode(sid string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"iat": now.Unix(),
		"exp": now.Add(m.cfg.TTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.cfg.Secret)
}

func (m *CookieManager) decode(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return "", errors.New("unexpected signing method")
		}
		return m.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("parse session cookie: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("missing sid claim")
	}
	return sid, nil
}
