package extractor

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when required field selector matched nothing or matched empty element.
var ErrMissingField = errors.New("missing field")

// MissingFieldError describes which required field is missing.
type MissingFieldError struct {
	Field string
}

// Error returns error message.
func (e MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

// Is makes MissingFieldError match ErrMissingField.
func (e MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
