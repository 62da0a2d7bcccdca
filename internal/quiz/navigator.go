package quiz

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/google/uuid"
)

// Transition is what Advance did.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionNext
	TransitionCompleted
)

func CanAdvance(s *Session) bool {
	return s.Phase == PhaseInProgress && s.Answers.IsAnswered(s.Current().ID)
}

func CanReveal(s *Session) bool {
	return s.Phase == PhaseInProgress && !s.ExplanationVisible && s.Answers.IsAnswered(s.Current().ID)
}

func CanRetreat(s *Session) bool {
	return s.Phase == PhaseInProgress && s.CurrentIndex > 0
}

func CanRestart(s *Session) bool {
	return s.Phase == PhaseShowingResults
}

// RecordAnswer stores the answer for the current question. It does not
// move the cursor or hide the explanation.
func RecordAnswer(s *Session, questionID int, answer models.Answer) error {
	if s.Phase != PhaseInProgress {
		return ErrQuizCompleted
	}
	q, err := targetQuestion(s, questionID)
	if err != nil {
		return err
	}
	if answer == nil || !answer.Accepts(q.Type) {
		return fmt.Errorf("%w: %s", ErrAnswerTypeMismatch, q.Type)
	}
	if err := checkOptions(q, answer); err != nil {
		return err
	}
	s.Answers.Set(questionID, answer)
	return nil
}

// targetQuestion returns the current question if questionID names it.
func targetQuestion(s *Session, questionID int) (models.Question, error) {
	q := s.Current()
	if q.ID == questionID {
		return q, nil
	}
	if _, ok := s.Bank.ByID(questionID); !ok {
		return q, fmt.Errorf("%w: question %d is not in the bank", ErrQuestionMismatch, questionID)
	}
	return q, fmt.Errorf("%w: got %d, current is %d", ErrQuestionMismatch, questionID, q.ID)
}

// ToggleOption flips one option in the current multi-select answer.
func ToggleOption(s *Session, questionID int, optionID string) error {
	if s.Phase != PhaseInProgress {
		return ErrQuizCompleted
	}
	q, err := targetQuestion(s, questionID)
	if err != nil {
		return err
	}
	if !q.Type.IsMultiSelect() {
		return fmt.Errorf("%w: %s", ErrAnswerTypeMismatch, q.Type)
	}

	var current models.MultiSelectAnswer
	if a, ok := s.Answers.Get(questionID); ok {
		current, _ = a.(models.MultiSelectAnswer)
	}
	return RecordAnswer(s, questionID, current.Toggle(optionID))
}

// Reveal shows the explanation of the current, answered question.
func Reveal(s *Session) error {
	if s.Phase != PhaseInProgress {
		return ErrQuizCompleted
	}
	if !s.Answers.IsAnswered(s.Current().ID) {
		return ErrQuestionNotAnswered
	}
	s.ExplanationVisible = true
	return nil
}

// Advance moves past the current question once it is answered. On the last
// question the session completes and TransitionCompleted is returned; the
// caller scores the attempt and fires the submission on that event.
func Advance(s *Session) (Transition, error) {
	if s.Phase != PhaseInProgress {
		return TransitionNone, ErrQuizCompleted
	}
	if !s.Answers.IsAnswered(s.Current().ID) {
		return TransitionNone, ErrQuestionNotAnswered
	}

	s.ExplanationVisible = false
	if s.CurrentIndex+1 < s.Bank.Len() {
		s.CurrentIndex++
		return TransitionNext, nil
	}

	now := time.Now()
	s.Phase = PhaseShowingResults
	s.CompletedAt = &now
	return TransitionCompleted, nil
}

// Retreat moves back one question and hides the explanation.
func Retreat(s *Session) error {
	if s.Phase != PhaseInProgress {
		return ErrQuizCompleted
	}
	if s.CurrentIndex == 0 {
		return ErrAtFirstQuestion
	}
	s.CurrentIndex--
	s.ExplanationVisible = false
	return nil
}

// Restart starts a new attempt over the same bank. The previous attempt's
// answers, result and submission outcome are dropped.
func Restart(s *Session) error {
	if s.Phase != PhaseShowingResults {
		return ErrQuizNotCompleted
	}
	s.Answers.Clear()
	s.CurrentIndex = 0
	s.ExplanationVisible = false
	s.Phase = PhaseInProgress
	s.Submission = SubmissionNotStarted
	s.Result = nil
	s.CompletedAt = nil
	s.Attempt++
	s.AttemptID = uuid.NewString()
	return nil
}

// ScoreSession computes the result of a completed attempt once and keeps
// it on the session; later calls return the stored result.
func ScoreSession(s *Session, scorer *scoring.Scorer) (*scoring.Result, error) {
	if s.Phase != PhaseShowingResults {
		return nil, ErrQuizNotCompleted
	}
	if s.Result != nil {
		return s.Result, nil
	}
	result, err := scorer.Evaluate(s.Bank.questions, s.Answers)
	if err != nil {
		return nil, err
	}
	s.Result = result
	return result, nil
}

func checkOptions(q models.Question, answer models.Answer) error {
	switch a := answer.(type) {
	case models.SingleChoiceAnswer:
		if a.OptionID != "" && !q.HasOption(a.OptionID) {
			return fmt.Errorf("%w: %s", ErrUnknownOption, a.OptionID)
		}
	case models.MultiSelectAnswer:
		for _, id := range a.OptionIDs {
			if !q.HasOption(id) {
				return fmt.Errorf("%w: %s", ErrUnknownOption, id)
			}
		}
	}
	return nil
}
