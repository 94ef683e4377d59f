package activestorage

import "errors"

// Errors returned uniformly by stores and drivers, so callers can branch on
// kind without knowing which backend produced the error. Backend-specific
// failures not otherwise classified are wrapped with %w carrying the
// underlying cause for diagnostics.
var (
	// ErrNotFound is returned when a read or delete targets a path with
	// no content.
	ErrNotFound = errors.New("activestorage: resource not found")

	// ErrInvalidPath is returned when a path is empty or escapes the
	// driver's root.
	ErrInvalidPath = errors.New("activestorage: invalid path")

	// ErrDecode is returned when stored content cannot be decoded into the
	// requested representation.
	ErrDecode = errors.New("activestorage: failed to decode contents")

	// ErrConfiguration is returned when configuration cannot be resolved
	// into a usable driver.
	ErrConfiguration = errors.New("activestorage: invalid driver configuration")

	// ErrConnection is returned on failure communicating with a remote
	// medium.
	ErrConnection = errors.New("activestorage: connection failed")

	// ErrAuthenticationFailed is returned when a remote medium rejects the
	// configured credentials.
	ErrAuthenticationFailed = errors.New("activestorage: authentication failed")

	// ErrUnknownDriver is returned by Open when the driver name is not
	// registered.
	ErrUnknownDriver = errors.New("activestorage: unknown driver")
)

// IsNotFound returns true if the error indicates a path was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConnection returns true if the error indicates a remote communication
// failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsConfiguration returns true if the error indicates a build-time
// configuration failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
