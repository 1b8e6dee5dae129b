package intake

import (
	"errors"
	"strings"
)

// ErrStore marks a persistence failure. The underlying repository error is wrapped with it.
var ErrStore = errors.New("intake: store failure")

// ValidationError reports missing required fields. It is user-correctable.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "all fields are required"
	}
	return "all fields are required: missing " + strings.Join(e.Fields, ", ")
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
