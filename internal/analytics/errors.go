package analytics

import (
	"errors"
	"fmt"

	"retail-dashboard/internal/dataset"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrSchema is re-exported so callers of the engine need a single import.
	ErrSchema = dataset.ErrSchema
)

type SchemaError = dataset.SchemaError

// NotFoundError reports a product or country without matching history.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q has no matching rows", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DegenerateInputError rejects parameters that would otherwise produce NaN
// or infinite results.
type DegenerateInputError struct {
	Field  string
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}
