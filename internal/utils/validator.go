// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/collab-backend/internal/apperror"
	"github.com/javajoker/collab-backend/internal/negotiation"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	negotiation.RegisterValidations(validate)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// GetValidationErrors converts validator failures into field errors keyed by json path.
func GetValidationErrors(err error) []apperror.FieldError {
	var fields []apperror.FieldError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			fields = append(fields, apperror.FieldError{
				Field:   negotiation.FieldPath(e),
				Message: negotiation.FieldMessage(e),
			})
		}
	}

	return fields
}

// ValidateRequest validates s and reports failures as an apperror validation
// error carrying one entry per rejected field.
func ValidateRequest(s interface{}, message string) error {
	err := ValidateStruct(s)
	if err == nil {
		return nil
	}
	fields := GetValidationErrors(err)
	if len(fields) == 0 {
		return apperror.Internal("request validation failed", err)
	}
	return apperror.Validation(message, fields...)
}
