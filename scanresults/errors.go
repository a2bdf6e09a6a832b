package scanresults

import "errors"

var (
	// ErrOutOfRange is returned when an index is at or beyond the number of
	// records currently held.
	ErrOutOfRange = errors.New("index out of range")

	// ErrModeMismatch is returned when an operation is invoked on a manager
	// whose current mode disagrees with the operation or record kind.
	ErrModeMismatch = errors.New("search result mode mismatch")

	// ErrInvariant signals a broken internal invariant. Seeing it means a
	// bug in this package, not in the caller.
	ErrInvariant = errors.New("invariant violation")
)
