// Package validate wires go-playground/validator into echo and converts its
// failures into per-field apperr validation errors.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/postosaude/clinic/internal/platform/apperr"
)

var messages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s characters long",
	"max":      "must be at most %s characters long",
	"len":      "must be %s characters long",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"gt":       "must be greater than %s",
	"oneof":    "must be one of [%s]",
	"uuid":     "must be a valid uuid",
	"numeric":  "must contain only digits",
}

// numeric tags read as values, not lengths.
var numericKinds = map[reflect.Kind]bool{
	reflect.Int: true, reflect.Int8: true, reflect.Int16: true, reflect.Int32: true, reflect.Int64: true,
	reflect.Uint: true, reflect.Uint8: true, reflect.Uint16: true, reflect.Uint32: true, reflect.Uint64: true,
	reflect.Float32: true, reflect.Float64: true,
}

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks i against its `validate` tags.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperr.Validation(Fields(verrs))
	}
	return apperr.Internal(err)
}

// Fields renders every validation failure as "field -> message".
func Fields(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	tag := fe.Tag()
	msg, ok := messages[tag]
	if !ok {
		return "is invalid"
	}
	if tag == "min" || tag == "max" {
		kind := fe.Kind()
		if kind == reflect.Ptr {
			kind = fe.Type().Elem().Kind()
		}
		if numericKinds[kind] {
			if tag == "min" {
				msg = "must be greater than or equal to %s"
			} else {
				msg = "must be less than or equal to %s"
			}
		}
	}
	if !strings.Contains(msg, "%s") {
		return msg
	}
	param := fe.Param()
	if tag == "oneof" {
		param = strings.Join(strings.Fields(param), ", ")
	}
	return strings.Replace(msg, "%s", param, 1)
}
