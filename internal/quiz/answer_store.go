package quiz

import "github.com/SAP-F-2025/quiz-engine/internal/models"

// AnswerStore maps question ids to their recorded answer.
type AnswerStore struct {
	answers map[int]models.Answer
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{answers: make(map[int]models.Answer)}
}

func (s *AnswerStore) Get(questionID int) (models.Answer, bool) {
	a, ok := s.answers[questionID]
	return a, ok
}

func (s *AnswerStore) Set(questionID int, answer models.Answer) {
	s.answers[questionID] = answer
}

// IsAnswered applies the answered predicate of the stored variant; a
// question without a recorded answer is unanswered.
func (s *AnswerStore) IsAnswered(questionID int) bool {
	a, ok := s.answers[questionID]
	return ok && a != nil && a.Answered()
}

func (s *AnswerStore) Len() int {
	return len(s.answers)
}

func (s *AnswerStore) Clear() {
	s.answers = make(map[int]models.Answer)
}

// Snapshot returns the answers in wire form, keyed by question id.
func (s *AnswerStore) Snapshot() map[int]models.AnswerPayload {
	out := make(map[int]models.AnswerPayload, len(s.answers))
	for id, a := range s.answers {
		out[id] = models.EncodeAnswer(a)
	}
	return out
}
