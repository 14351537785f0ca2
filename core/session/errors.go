package session

import "github.com/pkg/errors"

var (
	// ErrAuthenticationFailed is returned when the backend rejects the supplied
	// credentials or signature. The session is left unchanged.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrSessionExpired is returned when an authorized request is rejected by
	// the backend; the session is forcibly cleared when it surfaces.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoActiveSession is returned by operations that require a signed-in
	// identity.
	ErrNoActiveSession = errors.New("no active session")
)
