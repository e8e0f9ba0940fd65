package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/loginflow/loginflow/internal/domain"
	"github.com/loginflow/loginflow/internal/email"
	"github.com/loginflow/loginflow/internal/metrics"
	"github.com/loginflow/loginflow/internal/password"
	"github.com/loginflow/loginflow/internal/repository"
	"github.com/loginflow/loginflow/internal/session"
	"github.com/loginflow/loginflow/internal/token"
)

const (
	defaultResetTokenTTL      = 1 * time.Hour
	defaultConfirmEmailRoute  = "confirmEmail"
	defaultResetPasswordRoute = "resetPassword"
)

// Options carries the externally configurable pieces of the workflows:
// where mail links point and how long a reset token lives.
type Options struct {
	// BaseURL is the public origin mail links are built on.
	BaseURL string

	// ConfirmEmailRoute and ResetPasswordRoute are the path segments
	// embedded in mail links, before the token.
	ConfirmEmailRoute  string
	ResetPasswordRoute string

	ResetTokenTTL time.Duration
}

// AuthUsecase orchestrates the credential and token lifecycle: login,
// logout, signup, email confirmation, password change, and forgotten /
// reset password. All collaborators are injected; the engine holds no
// mutable state of its own.
//
// Domain failures come back as the sentinel errors in internal/domain.
// Anything else is an infrastructure error. Mail delivery is best-effort:
// a send failure after the state change is logged and counted, never
// returned, because the persisted mutation is the operation's primary
// effect.
type AuthUsecase struct {
	users    repository.UserRepository
	mailer   email.Sender
	sessions session.Manager
	tokens   token.Generator
	hasher   password.Hasher
	logger   *slog.Logger
	opts     Options
}

func NewAuthUsecase(
	users repository.UserRepository,
	mailer email.Sender,
	sessions session.Manager,
	tokens token.Generator,
	hasher password.Hasher,
	logger *slog.Logger,
	opts Options,
) *AuthUsecase {
	if opts.ConfirmEmailRoute == "" {
		opts.ConfirmEmailRoute = defaultConfirmEmailRoute
	}
	if opts.ResetPasswordRoute == "" {
		opts.ResetPasswordRoute = defaultResetPasswordRoute
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = defaultResetTokenTTL
	}
	return &AuthUsecase{
		users:    users,
		mailer:   mailer,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger.With("component", "auth_usecase"),
		opts:     opts,
	}
}

// Login verifies the credentials and establishes a session bound to the
// user id. Unknown email and wrong password both come back as
// ErrInvalidCredentials so the response can't be used to probe for
// registered addresses. Empty fields collapse the same way.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, plaintext string) (err error) {
	defer func() { count("login", err) }()

	if emailAddr == "" || plaintext == "" {
		return domain.ErrInvalidCredentials
	}

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("find user: %w", err)
	}

	if !u.hasher.Matches(plaintext, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	if err := u.sessions.Establish(ctx, user.ID); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	return nil
}

// Logout destroys the current session.
func (u *AuthUsecase) Logout(ctx context.Context) (err error) {
	defer func() { count("logout", err) }()

	if err := u.sessions.Destroy(ctx); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return domain.ErrNotAuthenticated
		}
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// Signup creates an unconfirmed user, issues a confirmation token, and
// mails the confirmation link. The field checks run before any store
// access.
func (u *AuthUsecase) Signup(ctx context.Context, emailAddr, plaintext string) (user *domain.User, err error) {
	defer func() { count("signup", err) }()

	if emailAddr == "" || plaintext == "" {
		return nil, domain.ErrMissingFields
	}

	hash, err := u.hasher.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	confirmToken, err := u.tokens.Issue()
	if err != nil {
		return nil, err
	}

	user = &domain.User{
		ID:                uuid.NewString(),
		Email:             emailAddr,
		PasswordHash:      hash,
		ConfirmEmailToken: &confirmToken,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("confirm").Inc()

	subject, body := email.ConfirmEmail(u.link(u.opts.ConfirmEmailRoute, confirmToken))
	u.sendMail(ctx, user.Email, email.TemplateConfirmEmail, subject, body)

	return user, nil
}

// ResendConfirmation issues a fresh confirmation token for the logged-in
// user and mails the link again.
func (u *AuthUsecase) ResendConfirmation(ctx context.Context) (err error) {
	defer func() { count("resend_confirmation", err) }()

	userID, err := u.sessions.Current(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return domain.ErrNotAuthenticated
		}
		return fmt.Errorf("read session: %w", err)
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user.EmailConfirmed {
		return domain.ErrAlreadyConfirmed
	}

	confirmToken, err := u.tokens.Issue()
	if err != nil {
		return err
	}
	if err := u.users.SetConfirmToken(ctx, user.ID, confirmToken); err != nil {
		return fmt.Errorf("set confirm token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("confirm").Inc()

	subject, body := email.ConfirmEmail(u.link(u.opts.ConfirmEmailRoute, confirmToken))
	u.sendMail(ctx, user.Email, email.TemplateConfirmEmail, subject, body)

	return nil
}

// ConfirmEmail consumes the confirmation token: marking the user
// confirmed and clearing the token happen in the same store update, so
// the token cannot be spent twice. An unknown and an already-consumed
// token are indistinguishable.
func (u *AuthUsecase) ConfirmEmail(ctx context.Context, confirmToken string) (err error) {
	defer func() { count("confirm_email", err) }()

	if confirmToken == "" {
		return domain.ErrTokenNotFound
	}

	if _, err := u.users.ConsumeConfirmToken(ctx, confirmToken); err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return domain.ErrTokenNotFound
		}
		return fmt.Errorf("consume confirm token: %w", err)
	}
	return nil
}

// ChangePassword re-verifies the current password before storing the new
// hash. Unknown email and wrong password collapse to
// ErrInvalidCredentials, same as Login.
func (u *AuthUsecase) ChangePassword(ctx context.Context, emailAddr, plaintext, newPlaintext string) (err error) {
	defer func() { count("change_password", err) }()

	if emailAddr == "" || plaintext == "" || newPlaintext == "" {
		return domain.ErrMissingFields
	}

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidCredentials
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !u.hasher.Matches(plaintext, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	newHash, err := u.hasher.Hash(newPlaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := u.users.UpdatePasswordHash(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

// ForgotPassword issues a reset token with a fixed TTL and mails the
// reset link. A repeated call supersedes the previous token. Unknown
// email is reported as ErrUserNotFound — unlike Login, this endpoint
// confirms absence; see the design notes.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, emailAddr string) (err error) {
	defer func() { count("forgot_password", err) }()

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	resetToken, err := u.tokens.Issue()
	if err != nil {
		return err
	}
	expiresAt := u.tokens.ExpiryFrom(time.Now(), u.opts.ResetTokenTTL)
	if err := u.users.SetResetToken(ctx, user.ID, resetToken, expiresAt); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("reset").Inc()

	subject, body := email.ResetPassword(u.link(u.opts.ResetPasswordRoute, resetToken))
	u.sendMail(ctx, user.Email, email.TemplateResetPassword, subject, body)

	return nil
}

// ResetPassword consumes the reset token: the expiry check, the new
// hash, and the clearing of both reset fields are one conditional store
// update, so two racing calls cannot both succeed. An expired token
// leaves the password unchanged and sends no mail.
func (u *AuthUsecase) ResetPassword(ctx context.Context, resetToken, newPlaintext string) (err error) {
	defer func() { count("reset_password", err) }()

	if newPlaintext == "" {
		return domain.ErrMissingFields
	}
	if resetToken == "" {
		return domain.ErrTokenNotFound
	}

	newHash, err := u.hasher.Hash(newPlaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.ConsumeResetToken(ctx, resetToken, newHash, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenNotFound):
			return domain.ErrTokenNotFound
		case errors.Is(err, domain.ErrTokenExpired):
			return domain.ErrTokenExpired
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	subject, body := email.PasswordChanged()
	u.sendMail(ctx, user.Email, email.TemplatePasswordChanged, subject, body)

	return nil
}

func (u *AuthUsecase) link(route, tok string) string {
	return u.opts.BaseURL + "/" + route + "/" + tok
}

func (u *AuthUsecase) sendMail(ctx context.Context, to, template, subject, body string) {
	if err := u.mailer.Send(ctx, to, subject, body); err != nil {
		metrics.EmailsSentTotal.WithLabelValues(template, "error").Inc()
		u.logger.ErrorContext(ctx, "send auth email", "template", template, "error", err)
		return
	}
	metrics.EmailsSentTotal.WithLabelValues(template, "success").Inc()
}

func count(op string, err error) {
	metrics.OperationsTotal.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, domain.ErrUserExists):
		return "user_exists"
	case errors.Is(err, domain.ErrAlreadyConfirmed):
		return "already_confirmed"
	case errors.Is(err, domain.ErrTokenNotFound):
		return "token_not_found"
	case errors.Is(err, domain.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}
