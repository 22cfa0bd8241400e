package diet

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a request field that could not be parsed.
type InvalidInputError struct {
	Field string
	Value string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// ErrMissingHealthConditions is returned when no condition survives
// splitting and trimming the comma separated input.
var ErrMissingHealthConditions = errors.New("at least one health condition is required")
