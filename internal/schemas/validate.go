package schemas

import (
	"reflect"
	"strings"

	"rental/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks v against its validate tags and reports every violated
// field, named by its JSON key, in a Validation error with message msg.
func Validate(msg string, v any) error {
	if err := validate.Struct(v); err != nil {
		return apperrors.Validation(msg, asFieldErrors(err, nil)...)
	}
	return nil
}
