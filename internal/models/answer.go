package models

import (
	"encoding/json"
	"errors"
)

// Answer is the value recorded for one question. The concrete type depends
// on the question type; the set of variants is closed.
type Answer interface {
	// Answered reports whether the answer is enough to move past the question.
	Answered() bool
	// Accepts reports whether the variant is the right shape for the question type.
	Accepts(t QuestionType) bool
	isAnswer()
}

type SingleChoiceAnswer struct {
	OptionID string `json:"option_id"`
}

func (a SingleChoiceAnswer) Answered() bool              { return a.OptionID != "" }
func (a SingleChoiceAnswer) Accepts(t QuestionType) bool { return t == SingleChoice }
func (SingleChoiceAnswer) isAnswer()                     {}

// MultiSelectAnswer is a set of selected option ids. An explicitly empty
// selection counts as unanswered.
type MultiSelectAnswer struct {
	OptionIDs []string `json:"option_ids"`
}

// NewMultiSelectAnswer builds a selection, dropping duplicates and keeping
// first-seen order.
func NewMultiSelectAnswer(optionIDs ...string) MultiSelectAnswer {
	seen := make(map[string]bool, len(optionIDs))
	ids := make([]string, 0, len(optionIDs))
	for _, id := range optionIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return MultiSelectAnswer{OptionIDs: ids}
}

func (a MultiSelectAnswer) Answered() bool              { return len(a.OptionIDs) > 0 }
func (a MultiSelectAnswer) Accepts(t QuestionType) bool { return t.IsMultiSelect() }
func (MultiSelectAnswer) isAnswer()                     {}

func (a MultiSelectAnswer) Contains(optionID string) bool {
	for _, id := range a.OptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}

// Toggle returns a copy of the selection with optionID added or removed.
func (a MultiSelectAnswer) Toggle(optionID string) MultiSelectAnswer {
	if a.Contains(optionID) {
		ids := make([]string, 0, len(a.OptionIDs))
		for _, id := range a.OptionIDs {
			if id != optionID {
				ids = append(ids, id)
			}
		}
		return MultiSelectAnswer{OptionIDs: ids}
	}
	return NewMultiSelectAnswer(append(append([]string{}, a.OptionIDs...), optionID)...)
}

// MatchingAnswer records prompt -> category pairs. The pairing is not
// evaluated yet, so any recorded matching answer counts as answered.
type MatchingAnswer struct {
	Pairs map[string]string `json:"pairs,omitempty"`
}

func (a MatchingAnswer) Answered() bool              { return true }
func (a MatchingAnswer) Accepts(t QuestionType) bool { return t == Matching }
func (MatchingAnswer) isAnswer()                     {}

// AnswerPayload is the wire form of an answer. Exactly one field is set and
// it names the variant.
type AnswerPayload struct {
	OptionID  *string           `json:"option_id,omitempty"`
	OptionIDs []string          `json:"option_ids,omitempty"`
	Pairs     map[string]string `json:"pairs,omitempty"`
}

var (
	ErrEmptyAnswerPayload     = errors.New("answer payload has no option_id, option_ids or pairs")
	ErrAmbiguousAnswerPayload = errors.New("answer payload sets more than one of option_id, option_ids and pairs")
)

// DecodeAnswer turns a wire payload into the answer variant named by the
// field it carries. Exactly one field must be present; whether the variant
// fits the question is checked when the answer is recorded.
func DecodeAnswer(payload AnswerPayload) (Answer, error) {
	present := 0
	if payload.OptionID != nil {
		present++
	}
	if payload.OptionIDs != nil {
		present++
	}
	if payload.Pairs != nil {
		present++
	}

	switch {
	case present == 0:
		return nil, ErrEmptyAnswerPayload
	case present > 1:
		return nil, ErrAmbiguousAnswerPayload
	case payload.OptionID != nil:
		return SingleChoiceAnswer{OptionID: *payload.OptionID}, nil
	case payload.OptionIDs != nil:
		return NewMultiSelectAnswer(payload.OptionIDs...), nil
	default:
		return MatchingAnswer{Pairs: payload.Pairs}, nil
	}
}

// EncodeAnswer is the inverse of DecodeAnswer.
func EncodeAnswer(a Answer) AnswerPayload {
	switch v := a.(type) {
	case SingleChoiceAnswer:
		id := v.OptionID
		return AnswerPayload{OptionID: &id}
	case MultiSelectAnswer:
		return AnswerPayload{OptionIDs: append([]string{}, v.OptionIDs...)}
	case MatchingAnswer:
		return AnswerPayload{Pairs: v.Pairs}
	default:
		return AnswerPayload{}
	}
}

func (p AnswerPayload) String() string {
	b, _ := json.Marshal(p)
	return string(b)
}
