package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-engine/internal/errors"
	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Session specific errors
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrSessionClosed   = errors.New("quiz session is closed")
	ErrNoticeNotFound  = errors.New("notice not found")

	// Result specific errors
	ErrResultNotFound  = errors.New("quiz result not found")
	ErrResultDuplicate = errors.New("result for this attempt was already recorded")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// Unwrap exposes the navigator error a rule violation was built from.
func (bre *BusinessRuleError) Unwrap() error {
	if cause, ok := bre.Context["cause"].(error); ok {
		return cause
	}
	return nil
}

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// navigationError turns a rejected transition into a business rule error
// named after the operation.
func navigationError(operation string, err error) error {
	if !quiz.IsNavigationError(err) {
		return err
	}
	return NewBusinessRuleError(operation, err.Error(), map[string]interface{}{"cause": err})
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrNoticeNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsNavigation checks if error is a rejected quiz transition
func IsNavigation(err error) bool {
	return quiz.IsNavigationError(err)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrResultDuplicate) ||
		errors.Is(err, repositories.ErrDuplicateAttempt)
}
