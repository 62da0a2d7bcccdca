package quiz

import (
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// Bank is an immutable, ordered question sequence.
type Bank struct {
	questions []models.Question
	positions map[int]int
}

// NewBank copies questions into a bank. It rejects an empty sequence and
// duplicate ids; content rules are checked by the loader before this.
func NewBank(questions []models.Question) (*Bank, error) {
	if len(questions) == 0 {
		return nil, ErrEmptyBank
	}

	b := &Bank{
		questions: make([]models.Question, len(questions)),
		positions: make(map[int]int, len(questions)),
	}
	copy(b.questions, questions)
	for i, q := range b.questions {
		if _, dup := b.positions[q.ID]; dup {
			return nil, &DuplicateQuestionError{QuestionID: q.ID}
		}
		b.positions[q.ID] = i
	}
	return b, nil
}

func (b *Bank) Len() int {
	return len(b.questions)
}

func (b *Bank) At(i int) models.Question {
	return b.questions[i]
}

func (b *Bank) ByID(id int) (models.Question, bool) {
	i, ok := b.positions[id]
	if !ok {
		return models.Question{}, false
	}
	return b.questions[i], true
}

// Questions returns a copy of the ordered questions.
func (b *Bank) Questions() []models.Question {
	out := make([]models.Question, len(b.questions))
	copy(out, b.questions)
	return out
}
