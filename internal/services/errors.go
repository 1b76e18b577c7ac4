package services

import (
	"errors"

	"github.com/novel-catalog/catalog/internal/database"
)

var (
	// ErrNotFound is returned when a referenced work, group or library does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned when a request cannot be applied as given.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Error kinds reported to API and tool callers.
const (
	KindNotFound        = "not_found"
	KindInvalidArgument = "invalid_argument"
	KindInternal        = "internal"
)

// Kind classifies err into one of the Kind constants. A nil error has no kind.
// A row that vanished under a repository update counts as not found.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound), errors.Is(err, database.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	default:
		return KindInternal
	}
}
