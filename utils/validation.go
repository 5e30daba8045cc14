package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate   *validator.Validate
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

func init() {
	validate = validator.New()
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidatePhone accepts local (0772...) and international (+256772...) numbers.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// IsValidAge reports whether someone born on dob is at least 18 at now.
func IsValidAge(dob, now time.Time) bool {
	return !dob.AddDate(18, 0, 0).After(now)
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

func FormatValidationError(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		if err != nil {
			errs["request"] = err.Error()
		}
		return errs
	}

	for _, fieldError := range validationErrors {
		field := strings.ToLower(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			errs[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errs[field] = "Invalid email format"
		case "uuid":
			errs[field] = fmt.Sprintf("%s must be a UUID", field)
		case "oneof":
			errs[field] = fmt.Sprintf("%s must be one of: %s", field, fieldError.Param())
		case "min":
			errs[field] = fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
		case "max":
			errs[field] = fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
		case "len":
			errs[field] = fmt.Sprintf("%s must be exactly %s characters", field, fieldError.Param())
		case "gtfield", "gtefield":
			errs[field] = fmt.Sprintf("%s must not be before %s", field, strings.ToLower(fieldError.Param()))
		default:
			errs[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return errs
}
