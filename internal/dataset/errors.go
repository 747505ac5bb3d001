package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var ErrSchema = errors.New("schema error")

// SchemaError reports required columns that are missing from a source.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}
