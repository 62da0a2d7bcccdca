package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBank = errors.New("question bank is empty")

	// Navigation violations. The session is left untouched when one of
	// these is returned.
	ErrQuestionNotAnswered = errors.New("current question is not answered")
	ErrAtFirstQuestion     = errors.New("already at the first question")
	ErrQuizCompleted       = errors.New("quiz is already completed")
	ErrQuizNotCompleted    = errors.New("quiz is not completed")
	ErrQuestionMismatch    = errors.New("answer is not for the current question")
	ErrAnswerTypeMismatch  = errors.New("answer shape does not match the question type")
	ErrUnknownOption       = errors.New("option does not belong to the question")
)

type DuplicateQuestionError struct {
	QuestionID int
}

func (e *DuplicateQuestionError) Error() string {
	return fmt.Sprintf("duplicate question id %d in bank", e.QuestionID)
}

// IsNavigationError reports whether err is a rejected navigator transition.
func IsNavigationError(err error) bool {
	return errors.Is(err, ErrQuestionNotAnswered) ||
		errors.Is(err, ErrAtFirstQuestion) ||
		errors.Is(err, ErrQuizCompleted) ||
		errors.Is(err, ErrQuizNotCompleted) ||
		errors.Is(err, ErrQuestionMismatch) ||
		errors.Is(err, ErrAnswerTypeMismatch) ||
		errors.Is(err, ErrUnknownOption)
}
