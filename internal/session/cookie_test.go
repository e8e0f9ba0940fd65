package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loginflow/loginflow/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newManager(t *testing.T, ttl time.Duration) *session.CookieManager {
	t.Helper()
	m, err := session.NewCookieManager(session.Config{Secret: testSecret, TTL: ttl})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

// newRouter mounts the middleware with three probe handlers so tests can
// drive the session lifecycle over real HTTP round trips.
func newRouter(m *session.CookieManager) *gin.Engine {
	r := gin.New()
	r.Use(m.Middleware())
	r.POST("/login", func(c *gin.Context) {
		if err := m.Establish(c.Request.Context(), "user-1"); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/whoami", func(c *gin.Context) {
		userID, err := m.Current(c.Request.Context())
		if err != nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.String(http.StatusOK, userID)
	})
	r.POST("/logout", func(c *gin.Context) {
		if err := m.Destroy(c.Request.Context()); err != nil {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func do(r *gin.Engine, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestEstablishSetsCookieAndCurrentSeesIt(t *testing.T) {
	r := newRouter(newManager(t, time.Hour))

	login := do(r, http.MethodPost, "/login", nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login status %d", login.Code)
	}
	cookie := sessionCookie(t, login)
	if cookie.Value == "" {
		t.Fatal("empty session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}

	whoami := do(r, http.MethodGet, "/whoami", cookie)
	if whoami.Code != http.StatusOK {
		t.Fatalf("whoami status %d", whoami.Code)
	}
	if got := whoami.Body.String(); got != "user-1" {
		t.Errorf("whoami %q, want user-1", got)
	}
}

func TestNoCookieMeansNoSession(t *testing.T) {
	r := newRouter(newManager(t, time.Hour))

	if w := do(r, http.MethodGet, "/whoami", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("whoami without cookie status %d, want 401", w.Code)
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	r := newRouter(newManager(t, time.Hour))

	login := do(r, http.MethodPost, "/login", nil)
	cookie := sessionCookie(t, login)
	cookie.Value += "x"

	if w := do(r, http.MethodGet, "/whoami", cookie); w.Code != http.StatusUnauthorized {
		t.Errorf("whoami with tampered cookie status %d, want 401", w.Code)
	}
}

func TestDestroyInvalidatesReplayedCookie(t *testing.T) {
	r := newRouter(newManager(t, time.Hour))

	login := do(r, http.MethodPost, "/login", nil)
	cookie := sessionCookie(t, login)

	logout := do(r, http.MethodPost, "/logout", cookie)
	if logout.Code != http.StatusOK {
		t.Fatalf("logout status %d", logout.Code)
	}
	cleared := sessionCookie(t, logout)
	if cleared.MaxAge >= 0 && cleared.Value != "" {
		t.Errorf("logout did not clear the cookie: MaxAge=%d Value=%q", cleared.MaxAge, cleared.Value)
	}

	// The server-side entry is gone, so the old cookie must not work.
	if w := do(r, http.MethodGet, "/whoami", cookie); w.Code != http.StatusUnauthorized {
		t.Errorf("replayed cookie after logout status %d, want 401", w.Code)
	}
}

func TestDestroyWithoutSession(t *testing.T) {
	r := newRouter(newManager(t, time.Hour))

	if w := do(r, http.MethodPost, "/logout", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("logout without session status %d, want 401", w.Code)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	r := newRouter(newManager(t, 10*time.Millisecond))

	login := do(r, http.MethodPost, "/login", nil)
	cookie := sessionCookie(t, login)

	time.Sleep(25 * time.Millisecond)

	if w := do(r, http.MethodGet, "/whoami", cookie); w.Code != http.StatusUnauthorized {
		t.Errorf("expired session status %d, want 401", w.Code)
	}
}

func TestSweepDropsExpiredEntries(t *testing.T) {
	m := newManager(t, 10*time.Millisecond)
	r := newRouter(m)

	login := do(r, http.MethodPost, "/login", nil)
	cookie := sessionCookie(t, login)

	time.Sleep(25 * time.Millisecond)
	m.Sweep()

	if w := do(r, http.MethodGet, "/whoami", cookie); w.Code != http.StatusUnauthorized {
		t.Errorf("swept session status %d, want 401", w.Code)
	}
}

func TestRequiresMiddlewareContext(t *testing.T) {
	m := newManager(t, time.Hour)

	if err := m.Establish(context.Background(), "user-1"); err == nil {
		t.Error("establish outside the middleware must fail")
	}
	if _, err := m.Current(context.Background()); err == nil {
		t.Error("current outside the middleware must fail")
	}
	if err := m.Destroy(context.Background()); err == nil {
		t.Error("destroy outside the middleware must fail")
	}
}

func TestSecretTooShortRejected(t *testing.T) {
	if _, err := session.NewCookieManager(session.Config{Secret: []byte("short")}); err == nil {
		t.Error("short secret accepted")
	}
}
