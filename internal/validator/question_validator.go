package validator

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// QuestionValidator checks the load-time invariants of a question bank
type QuestionValidator struct {
	validator *Validator
}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator(v *Validator) *QuestionValidator {
	return &QuestionValidator{validator: v}
}

// ValidateQuestion validates a single question: struct tags first, then
// the option rules of its type
func (v *QuestionValidator) ValidateQuestion(question models.Question) error {
	if err := v.validator.Validate(question); err != nil {
		return err
	}

	var errs ValidationErrors

	optionIDs := make(map[string]bool, len(question.Options))
	for _, option := range question.Options {
		if optionIDs[option.ID] {
			errs = append(errs, *NewValidationErrorWithRule("options", fmt.Sprintf("duplicate option id '%s'", option.ID), "unique", option.ID))
		}
		optionIDs[option.ID] = true
	}

	switch question.Type {
	case models.SingleChoice:
		if len(question.Options) < 2 {
			errs = append(errs, *NewValidationErrorWithRule("options", "must have at least 2 options", "min", len(question.Options)))
		}
		if correct := len(question.FlaggedOptionIDs()); correct != 1 {
			errs = append(errs, *NewValidationErrorWithRule("options", fmt.Sprintf("must have exactly 1 correct option, found %d", correct), "single_correct", correct))
		}
	case models.MultiSelectPositive, models.MultiSelectNegative:
		if len(question.Options) == 0 {
			errs = append(errs, *NewValidationErrorWithRule("options", "must have at least 1 option", "min", 0))
		}
	case models.Matching:
		if question.Matching != nil && (len(question.Matching.Prompts) == 0 || len(question.Matching.Categories) == 0) {
			errs = append(errs, *NewValidationErrorWithRule("matching", "must have prompts and categories", "required", nil))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateBank validates an ordered question bank. The bank must be
// non-empty and question ids must be unique. Every problem is reported,
// with fields prefixed by the question's position, e.g. "questions[2].options".
func (v *QuestionValidator) ValidateBank(questions []models.Question) error {
	if len(questions) == 0 {
		return ValidationErrors{*NewValidationErrorWithRule("questions", "must not be empty", "required", 0)}
	}

	var errs ValidationErrors
	ids := make(map[int]int, len(questions))
	for i, question := range questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if prev, exists := ids[question.ID]; exists {
			errs = append(errs, *NewValidationErrorWithRule(prefix+".id",
				fmt.Sprintf("id %d already used by questions[%d]", question.ID, prev), "unique", question.ID))
		} else {
			ids[question.ID] = i
		}

		err := v.ValidateQuestion(question)
		if err == nil {
			continue
		}
		var questionErrs ValidationErrors
		if !errors.As(err, &questionErrs) {
			return fmt.Errorf("validation failed for %s (id %d): %w", prefix, question.ID, err)
		}
		for _, e := range questionErrs {
			e.Field = prefix + "." + e.Field
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
