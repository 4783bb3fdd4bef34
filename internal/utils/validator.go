// internal/utils/validator.go
package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("user_type", validateUserType)
	validate.RegisterValidation("ads_status", validateAdsStatus)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Self-registration may only pick customer or seller. Empty means customer.
func validateUserType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "customer", "seller":
		return true
	}
	return false
}

func validateAdsStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "yes", "no":
		return true
	}
	return false
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   lowerFirst(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "url":
		return e.Field() + " must be a valid URL"
	case "user_type":
		return "userType must be customer or seller"
	case "ads_status":
		return "adsStatus must be yes or no"
	default:
		return e.Field() + " is invalid"
	}
}
