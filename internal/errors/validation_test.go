package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	// Test NewValidationError
	err := NewValidationError("quiz_id", "test message", "test_value")

	if err.Field != "quiz_id" {
		t.Errorf("Expected field to be 'quiz_id', got '%s'", err.Field)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message to be 'test message', got '%s'", err.Message)
	}

	if err.Value != "test_value" {
		t.Errorf("Expected value to be 'test_value', got '%v'", err.Value)
	}

	// Test Error method
	expected := "validation error on field 'quiz_id': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Test empty ValidationErrors
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	// Test single ValidationError
	errs = append(errs, *NewValidationError("score", "must be at most 100", 140))
	expected := "validation failed: score must be at most 100"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	// Test multiple ValidationErrors
	errs = append(errs, *NewValidationError("quiz_id", "is required", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("type", "must be a valid question type", "question_type", "essay")

	if err.Rule != "question_type" {
		t.Errorf("Expected rule to be 'question_type', got '%s'", err.Rule)
	}

	if err.Field != "type" {
		t.Errorf("Expected field to be 'type', got '%s'", err.Field)
	}
}

func TestToValidationErrors(t *testing.T) {
	type payload struct {
		QuizID string `validate:"required"`
		Score  int    `validate:"min=0,max=100"`
	}

	err := validator.New().Struct(payload{Score: 140})
	errs := ToValidationErrors(err)

	if len(errs) != 2 {
		t.Fatalf("Expected 2 validation errors, got %d", len(errs))
	}

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}

	if byField["QuizID"].Message != "is required" {
		t.Errorf("Expected 'is required' for QuizID, got '%s'", byField["QuizID"].Message)
	}

	if byField["Score"].Rule != "max" || byField["Score"].Message != "must be at most 100" {
		t.Errorf("Unexpected Score error: %+v", byField["Score"])
	}
}

func TestToValidationErrors_NonValidatorError(t *testing.T) {
	if errs := ToValidationErrors(fmt.Errorf("boom")); len(errs) != 0 {
		t.Errorf("Expected no validation errors, got %d", len(errs))
	}
}
