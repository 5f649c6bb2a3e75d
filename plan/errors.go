package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLine is returned for scenario lines with an unknown record
	// type or the wrong number of fields.
	ErrInvalidLine = errors.New("invalid line")
	// ErrInvalidLocation is returned when a coordinate cannot be parsed.
	ErrInvalidLocation = errors.New("can't parse location")
	// ErrDegenerateGeometry is returned when an angle vertex coincides with
	// one of its end points.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)

// ValidationError describes a scenario line that failed validation.
type ValidationError struct {
	Line   int    // 1-based line number in the scenario file
	Text   string // raw line text
	Reason string
	Err    error // ErrInvalidLine or ErrInvalidLocation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("line %d: %v: %s: %q", e.Line, e.Err, e.Reason, e.Text)
}

func (e *ValidationError) Unwrap() error { return e.Err }
