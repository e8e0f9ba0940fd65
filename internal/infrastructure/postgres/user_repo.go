package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loginflow/loginflow/internal/domain"
)

// Postgres unique_violation.
const pgUniqueViolation = "23505"

const userColumns = `id, email, password_hash, email_confirmed,
	confirm_email_token, reset_password_token, reset_password_expires,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, email, password_hash, email_confirmed, confirm_email_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.EmailConfirmed, u.ConfirmEmailToken,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) SetConfirmToken(ctx context.Context, id, token string) error {
	query := `UPDATE users SET confirm_email_token = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("set confirm token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumeConfirmToken flips email_confirmed and clears the token in one
// statement. Two racing calls with the same token: only one sees a row.
func (r *UserRepository) ConsumeConfirmToken(ctx context.Context, token string) (*domain.User, error) {
	query := `UPDATE users
		SET email_confirmed = true, confirm_email_token = NULL, updated_at = now()
		WHERE confirm_email_token = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	query := `UPDATE users
		SET reset_password_token = $2, reset_password_expires = $3, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumeResetToken applies the new hash and clears both reset fields,
// conditional on the token being present and unexpired. When the update
// matches nothing, a follow-up read tells stale apart from unknown; an
// expired row is deliberately left for the next forgotPassword to
// overwrite.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, newHash string, now time.Time) (*domain.User, error) {
	query := `UPDATE users
		SET password_hash = $2, reset_password_token = NULL, reset_password_expires = NULL, updated_at = now()
		WHERE reset_password_token = $1 AND reset_password_expires > $3
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, token, newHash, now))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	var exists bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM users WHERE reset_password_token = $1)`
	if err := r.pool.QueryRow(ctx, checkQuery, token).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check reset token: %w", err)
	}
	if exists {
		return nil, domain.ErrTokenExpired
	}
	return nil, domain.ErrTokenNotFound
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.EmailConfirmed,
		&u.ConfirmEmailToken, &u.ResetPasswordToken, &u.ResetPasswordExpires,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
