// Package validators decodes request input into typed values and reports
// failures as validation errors carrying catalog message ids.
package validators

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
)

const (
	msgInvalidBody   = "request.invalid_body"
	msgFieldRequired = "request.field.required"
	msgFieldInvalid  = "request.field.invalid"

	maxJSONBody = 1 << 20
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields under their json names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}()

// DecodeJSONBody decodes a single JSON object into dest and runs its
// `validate` tags. Unknown fields and trailing data are rejected.
func DecodeJSONBody(r *http.Request, dest any) error {
	body := http.MaxBytesReader(nil, r.Body, maxJSONBody)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidBody)
	}
	if dec.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidBody)
	}

	err := validate.Struct(dest)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		var all error
		for _, fe := range fieldErrs {
			msg := msgFieldInvalid
			if fe.Tag() == "required" {
				msg = msgFieldRequired
			}
			all = multierr.Append(all, pkgerrors.Field(fe.Field(), msg))
		}
		return pkgerrors.FromFieldErrors(all)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidBody)
	}
	return nil
}
