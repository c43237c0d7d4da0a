package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers transport failures, timeouts and unexpected HTTP statuses
	ErrNetwork = errors.New("network error")

	// ErrDecode is a malformed response. It matches ErrNetwork with errors.Is.
	ErrDecode = fmt.Errorf("%w: malformed response", ErrNetwork)

	// ErrNotFound is returned when the remote reports that the entity does not exist
	ErrNotFound = errors.New("not found")
)
