package validator

import (
	"github.com/SAP-F-2025/quiz-engine/internal/errors"
)

// Use shared validation errors from errors package
type ValidationError = errors.ValidationError
type ValidationErrors = errors.ValidationErrors

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	return errors.ToValidationErrors(err)
}

func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return errors.NewValidationErrorWithRule(field, message, rule, value)
}
