package store

import (
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"
)

// ErrNotFound is returned when an operation targets a task or user id that
// does not exist. Distinct from conflict: the row was never there.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a unique-constraint collision that business logic did
// not absorb into a boolean result (see CreateUser, UpdateCredentials).
var ErrConflict = errors.New("conflict")

// ValidationError reports a missing or malformed input field. It is always
// surfaced to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. Routine for username/email/tag collisions, which the credential
// store surfaces as a boolean rather than a fault.
func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode() == sqlite3.CONSTRAINT_UNIQUE
	}
	return false
}
