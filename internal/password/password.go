package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is a one-way credential hasher. Matches must treat a malformed
// digest as a non-match rather than failing the surrounding workflow.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Matches(plaintext, digest string) bool
}

// Bcrypt hashes passwords with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt clamps cost into bcrypt's supported range.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Matches reports whether plaintext hashes to digest. Any error from
// bcrypt — including a corrupt or truncated digest — is a non-match.
func (b *Bcrypt) Matches(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
