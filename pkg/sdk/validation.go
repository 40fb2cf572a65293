package sdk

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// phonePattern matches the backend's phone number validator.
var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names so client-side errors look like server ones.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// An empty number clears the field.
		_ = validate.RegisterValidation("portal_phone", func(fl validator.FieldLevel) bool {
			phone := fl.Field().String()
			return phone == "" || phonePattern.MatchString(phone)
		})
	})
	return validate
}

// validateInput runs struct validation and converts failures into an
// ErrValidation APIError with per-field messages.
func validateInput(v any) error {
	err := inputValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &APIError{Kind: ErrValidation, Err: err}
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return &APIError{Kind: ErrValidation, Fields: fields, Err: err}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "eqfield":
		return "Password fields didn't match."
	case "portal_phone":
		return "Phone number must be entered in the format: '+999999999'. Up to 15 digits allowed."
	default:
		return "Invalid value."
	}
}
