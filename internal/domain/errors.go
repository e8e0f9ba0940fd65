package domain

import "errors"

// Domain failures. Each maps to exactly one HTTP status at the transport
// edge; anything else coming out of a workflow is an infrastructure error
// and surfaces as a generic 500.
var (
	// ErrMissingFields means a required input field was absent. Checked
	// before any store access.
	ErrMissingFields = errors.New("missing required fields")

	// ErrInvalidCredentials covers both "no such user" and "wrong
	// password" so responses don't reveal which one happened.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated means a session-gated operation was called
	// without an active session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUserExists means signup collided with an existing email.
	ErrUserExists = errors.New("user already exists")

	// ErrAlreadyConfirmed means a confirmation resend was requested for
	// an account whose email is already confirmed.
	ErrAlreadyConfirmed = errors.New("email already confirmed")

	// ErrTokenNotFound covers both "token never existed" and "token
	// already consumed" — indistinguishable on purpose.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired means the reset token exists but its expiry has
	// passed. The stored token is left in place, not purged.
	ErrTokenExpired = errors.New("token expired")

	// ErrUserNotFound is returned by forgotPassword for an unknown
	// email. Deliberately distinct from ErrInvalidCredentials; see the
	// design notes on the existence-leak asymmetry.
	ErrUserNotFound = errors.New("user not found")
)
