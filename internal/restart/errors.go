package restart

import (
	"errors"
	"fmt"
)

// Sentinel errors for the restart core.
// These can be checked using errors.Is().
var (
	// ErrNotFound is returned when no application matches the search text.
	ErrNotFound = errors.New("restart: no matching application")

	// ErrIdentityUnresolvable is returned when an application matched but no
	// stable identifier could be derived for it.
	ErrIdentityUnresolvable = errors.New("restart: application identity unresolvable")

	// ErrShellNotFound is returned when the command interpreter needed to
	// query the OS is missing.
	ErrShellNotFound = errors.New("restart: command interpreter not found")

	// ErrUnsupportedPlatform is returned by ForOS for operating systems
	// without an implementation.
	ErrUnsupportedPlatform = errors.New("restart: unsupported platform")
)

// LocateError wraps a fatal locate failure with the search text and platform.
type LocateError struct {
	Platform string
	Search   string
	Detail   string
	Err      error
}

func (e *LocateError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %q (%s)", e.Platform, e.Err, e.Search, e.Detail)
	}
	return fmt.Sprintf("[%s] %s: %q", e.Platform, e.Err, e.Search)
}

func (e *LocateError) Unwrap() error {
	return e.Err
}
