package errors

import (
	stdErrors "errors"

	"go.uber.org/multierr"
)

// FieldError is a single failed rule bound to an input field. Message is a
// catalog message id, translated at the response boundary.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Field returns a FieldError for the given field and message id.
func Field(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// FormField is the pseudo field carrying errors that span several inputs.
const FormField = "form"

// FromFieldErrors folds an aggregate of FieldErrors into one validation error.
// The first failure becomes the message; details map each field to its first
// failure. Any error that is not a FieldError is returned as internal.
func FromFieldErrors(err error) error {
	if err == nil {
		return nil
	}

	details := map[string]string{}
	first := ""
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if !stdErrors.As(e, &fe) {
			return Wrap(CodeInternal, err, "validation failed unexpectedly")
		}
		if first == "" {
			first = fe.Message
		}
		if _, seen := details[fe.Field]; !seen {
			details[fe.Field] = fe.Message
		}
	}

	return New(CodeValidation, first).WithDetails(details)
}

// FieldDetails returns the field map carried by a validation error.
func FieldDetails(err error) map[string]string {
	typed := As(err)
	if typed == nil {
		return nil
	}
	details, _ := typed.Details().(map[string]string)
	return details
}
