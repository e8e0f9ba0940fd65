package session

import (
	"context"
	"errors"
)

// ErrNoSession is returned by Current and Destroy when the request
// carries no authenticated session.
var ErrNoSession = errors.New("no active session")

// errNoState means the session middleware did not run for this request.
var errNoState = errors.New("session: context has no request state")

// Manager associates an authenticated user id with a request context.
// A valid session implies a previously successful login for that
// context; callers trust it without re-verifying the password.
type Manager interface {
	// Establish binds userID to the current request's session. Any
	// session already bound to the request is replaced.
	Establish(ctx context.Context, userID string) error

	// Current returns the authenticated user id, or ErrNoSession.
	Current(ctx context.Context) (string, error)

	// Destroy ends the current session, or returns ErrNoSession.
	Destroy(ctx context.Context) error
}
