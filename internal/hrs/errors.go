package hrs

import "errors"

var (
	// ErrAuthentication means a step of the login handshake was refused.
	// Not retried automatically; nothing after the failing step ran.
	ErrAuthentication = errors.New("hrs: authentication failed")

	// ErrTransport wraps DNS/TLS/timeout failures talking to the platform.
	ErrTransport = errors.New("hrs: transport error")

	// ErrNotLoggedIn is returned when an authenticated call is attempted
	// without a usable session.
	ErrNotLoggedIn = errors.New("hrs: not logged in")

	// ErrBadDate is returned for dates in neither platform nor ISO format.
	ErrBadDate = errors.New("hrs: unparseable date")
)
