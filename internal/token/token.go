package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// Generator issues opaque one-time tokens and computes their expiry.
// Tokens carry no decodable structure; consumers compare them for
// equality only.
type Generator interface {
	Issue() (string, error)
	ExpiryFrom(now time.Time, ttl time.Duration) time.Time
}

// Random draws tokens from crypto/rand.
type Random struct{}

func NewRandom() *Random {
	return &Random{}
}

// Issue returns 32 random bytes hex-encoded (64 characters).
func (Random) Issue() (string, error) {
	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func (Random) ExpiryFrom(now time.Time, ttl time.Duration) time.Time {
	return now.Add(ttl)
}
