package repository

import (
	"context"
	"time"

	"github.com/loginflow/loginflow/internal/domain"
)

// UserRepository is the persistence contract for the auth workflows.
// Every method is atomic per user record; the two Consume methods pair
// the token check with its effect in a single conditional update so that
// concurrent consumers can never both succeed.
type UserRepository interface {
	// Create persists a new user. Returns domain.ErrUserExists when the
	// email is already taken.
	Create(ctx context.Context, u *domain.User) error

	// FindByEmail returns domain.ErrUserNotFound when no user matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns domain.ErrUserNotFound when no user matches.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// SetConfirmToken replaces the pending confirmation token.
	SetConfirmToken(ctx context.Context, id, token string) error

	// ConsumeConfirmToken marks the matching user confirmed and clears
	// the token in one update. Returns domain.ErrTokenNotFound when no
	// user currently holds the token.
	ConsumeConfirmToken(ctx context.Context, token string) (*domain.User, error)

	// SetResetToken sets the reset token and its expiry together.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error

	// ConsumeResetToken sets the new password hash and clears both reset
	// fields in one update, but only while the token is unexpired at
	// now. Returns domain.ErrTokenNotFound when no user holds the token
	// and domain.ErrTokenExpired when one does but its expiry has
	// passed; the expired row is left untouched.
	ConsumeResetToken(ctx context.Context, token, newHash string, now time.Time) (*domain.User, error)

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
