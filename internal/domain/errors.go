package domain

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrNotFound is returned by store and service functions when the requested
// trip does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule (missing title,
// start date after end date, activity ending before it starts, rating out of
// range). Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrLocationNotFound is returned when a city/state pair cannot be geocoded.
// It wraps ErrNotFound so callers that only care about "missing" can test for that.
var ErrLocationNotFound = fmt.Errorf("location %w", ErrNotFound)

// ErrImportFormat marks a JSON or CSV document that could not be imported.
// The concrete error is always an *ImportError.
var ErrImportFormat = errors.New("import format error")

// ErrProvider is returned when the itinerary generator fails (network, quota,
// or a response that cannot be parsed). It is never fatal to the trip record.
var ErrProvider = errors.New("provider error")

// ImportError describes where an import failed.
// Stage is one of "parse", "decode" or "validate"; Field names the column or
// key involved when one is known.
type ImportError struct {
	Format string
	Stage  string
	Field  string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("import %s: %s %s: %v", e.Format, e.Stage, e.Field, e.Err)
	}
	return fmt.Sprintf("import %s: %s: %v", e.Format, e.Stage, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Is reports true for ErrImportFormat so errors.Is works without callers
// needing errors.As.
func (e *ImportError) Is(target error) bool { return target == ErrImportFormat }

// ValidText rejects s when it is not valid UTF-8. JSON encoding would
// silently replace the bad bytes, so such text could not be exported and
// read back unchanged.
func ValidText(field, s string) error {
	if !utf8.ValidString(s) {
		return validationf("%s is not valid UTF-8", field)
	}
	return nil
}

// finite reports whether every value is a real number (not NaN or ±Inf).
func finite(fs ...float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// validationf builds an ErrValidation-wrapped error with a formatted message.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
