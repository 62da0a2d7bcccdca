package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

var (
	ErrEmptyBank           = errors.New("question bank is empty")
	ErrUnknownQuestionType = errors.New("no credit rule registered for question type")
)

// Credit is the share of a question's value earned by an answer.
type Credit float64

const (
	NoCredit   Credit = 0
	HalfCredit Credit = 0.5
	FullCredit Credit = 1
)

// CreditFunc computes the credit of one question. answer is nil when the
// question has no recorded answer.
type CreditFunc func(question models.Question, answer models.Answer) Credit

// Answers is the read side of an answer store.
type Answers interface {
	Get(questionID int) (models.Answer, bool)
}

// QuestionCredit is one line of a score breakdown.
type QuestionCredit struct {
	QuestionID int                 `json:"question_id"`
	Type       models.QuestionType `json:"type"`
	Credit     Credit              `json:"credit"`
	Answered   bool                `json:"answered"`
}

type Result struct {
	Score   int              `json:"score"`
	Earned  float64          `json:"earned"`
	Total   int              `json:"total"`
	Credits []QuestionCredit `json:"credits"`
}

// Scorer dispatches each question to the credit rule registered for its type.
type Scorer struct {
	rules map[models.QuestionType]CreditFunc
}

// NewScorer returns a scorer with the rules for every built-in question type.
func NewScorer() *Scorer {
	s := &Scorer{rules: make(map[models.QuestionType]CreditFunc)}
	s.Register(models.SingleChoice, singleChoiceCredit)
	s.Register(models.MultiSelectPositive, multiSelectCredit)
	s.Register(models.MultiSelectNegative, multiSelectCredit)
	s.Register(models.Matching, matchingPlaceholderCredit)
	return s
}

// Register installs (or replaces) the credit rule for a question type.
func (s *Scorer) Register(t models.QuestionType, fn CreditFunc) {
	s.rules[t] = fn
}

func (s *Scorer) Supports(t models.QuestionType) bool {
	_, ok := s.rules[t]
	return ok
}

// CheckBank fails on an empty bank or on a question type without a rule.
// It is meant to run when a bank is loaded, before any session starts.
func (s *Scorer) CheckBank(bank []models.Question) error {
	if len(bank) == 0 {
		return ErrEmptyBank
	}
	for _, q := range bank {
		if !s.Supports(q.Type) {
			return fmt.Errorf("%w: question %d has type %q", ErrUnknownQuestionType, q.ID, q.Type)
		}
	}
	return nil
}

// Credit scores a single question.
func (s *Scorer) Credit(q models.Question, answer models.Answer) (Credit, error) {
	rule, ok := s.rules[q.Type]
	if !ok {
		return NoCredit, fmt.Errorf("%w: question %d has type %q", ErrUnknownQuestionType, q.ID, q.Type)
	}
	if answer != nil && !answer.Accepts(q.Type) {
		return NoCredit, nil
	}
	return rule(q, answer), nil
}

// Evaluate scores the whole bank and returns the per-question breakdown.
// The result only depends on the final contents of answers.
func (s *Scorer) Evaluate(bank []models.Question, answers Answers) (*Result, error) {
	if err := s.CheckBank(bank); err != nil {
		return nil, err
	}

	result := &Result{
		Total:   len(bank),
		Credits: make([]QuestionCredit, len(bank)),
	}
	for i, q := range bank {
		answer, ok := answers.Get(q.ID)
		if !ok {
			answer = nil
		}
		credit, err := s.Credit(q, answer)
		if err != nil {
			return nil, err
		}
		result.Earned += float64(credit)
		result.Credits[i] = QuestionCredit{
			QuestionID: q.ID,
			Type:       q.Type,
			Credit:     credit,
			Answered:   answer != nil && answer.Answered(),
		}
	}
	result.Score = roundHalfUp(100 * result.Earned / float64(len(bank)))
	return result, nil
}

// Score returns the normalized 0..100 score of the bank.
func (s *Scorer) Score(bank []models.Question, answers Answers) (int, error) {
	result, err := s.Evaluate(bank, answers)
	if err != nil {
		return 0, err
	}
	return result.Score, nil
}

var defaultScorer = NewScorer()

// Score scores bank with the built-in rules.
func Score(bank []models.Question, answers Answers) (int, error) {
	return defaultScorer.Score(bank, answers)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
