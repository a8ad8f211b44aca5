// internal/domain/errors.go
//
// Error taxonomy shared by the board, input parsing, and game session.
// Every failure is recoverable and leaves state untouched; callers wrap
// these sentinels with context and classify them with Kind.

package domain

import "errors"

// Input and range errors
var (
	ErrInvalidInput     = errors.New("invalid_input")
	ErrValueOutOfRange  = errors.New("value_out_of_range")
	ErrIndexOutOfBounds = errors.New("index_out_of_bounds")
)

// Search errors
var ErrPatternNotFound = errors.New("pattern_not_found")

// Session lifecycle errors
var (
	ErrSessionTerminal = errors.New("session_terminal")
	ErrNotStarted      = errors.New("not_started")
	ErrSessionNotFound = errors.New("not_found")
)

var kinds = []error{
	ErrInvalidInput,
	ErrValueOutOfRange,
	ErrIndexOutOfBounds,
	ErrPatternNotFound,
	ErrSessionTerminal,
	ErrNotStarted,
	ErrSessionNotFound,
}

// Kind returns the machine-readable name of the sentinel wrapped by err,
// or "internal" when err is not part of the taxonomy.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "internal"
}
