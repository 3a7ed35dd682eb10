package dto

import (
	"errors"
	"reflect"
	"strings"

	"leadtrack/internal/utils"

	"github.com/go-playground/validator/v10"
)

const usernameMessage = "Enter a valid username. It must start with a letter and may contain only letters, numbers, and @/-/_ characters."

// NewValidator reports fields by their json names and registers the
// "username" rule.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return utils.ValidUsername(fl.Field().String())
	})
	return validate
}

// FieldErrors flattens validator output into field -> message.
func FieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "oneof":
		return "Select one of: " + fe.Param() + "."
	case "username":
		return usernameMessage
	default:
		return "Invalid value."
	}
}
