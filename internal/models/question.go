package models

type QuestionType string

const (
	// SingleChoice covers plain multiple choice and the content/data analysis
	// and content improvement variants: one answer from the options.
	SingleChoice QuestionType = "single-choice"
	// MultiSelectPositive asks for every relevant option (keyword selection).
	MultiSelectPositive QuestionType = "multi-select-positive"
	// MultiSelectNegative asks for every negative/undesirable option.
	MultiSelectNegative QuestionType = "multi-select-negative"
	// Matching pairs prompts to categories.
	Matching QuestionType = "matching"
)

// QuestionTypes lists every question type the engine understands, in display order.
var QuestionTypes = []QuestionType{
	SingleChoice,
	MultiSelectPositive,
	MultiSelectNegative,
	Matching,
}

func (t QuestionType) IsValid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsMultiSelect reports whether answers for this type are option sets.
func (t QuestionType) IsMultiSelect() bool {
	return t == MultiSelectPositive || t == MultiSelectNegative
}

type Option struct {
	ID         string `json:"id" validate:"required,max=64"`
	Text       string `json:"text" validate:"required"`
	IsCorrect  bool   `json:"isCorrect,omitempty"`
	IsRelevant bool   `json:"isRelevant,omitempty"`
	IsNegative bool   `json:"isNegative,omitempty"`
}

// Flagged returns the type-specific flag of the option: isCorrect for
// single choice, isRelevant for keyword selection and isNegative for
// negative keywords. Matching options are never flagged.
func (o Option) Flagged(t QuestionType) bool {
	switch t {
	case SingleChoice:
		return o.IsCorrect
	case MultiSelectPositive:
		return o.IsRelevant
	case MultiSelectNegative:
		return o.IsNegative
	default:
		return false
	}
}

// MatchingContent holds the prompts and categories of a matching question.
type MatchingContent struct {
	Prompts    []string `json:"prompts"`
	Categories []string `json:"categories"`
}

type Question struct {
	ID          int              `json:"id" validate:"required,min=1"`
	Type        QuestionType     `json:"type" validate:"required,question_type"`
	Text        string           `json:"text" validate:"required"`
	Options     []Option         `json:"options" validate:"omitempty,dive"`
	Matching    *MatchingContent `json:"matching,omitempty"`
	Explanation string           `json:"explanation"`
}

// FlaggedOptionIDs returns the ids of the options carrying the flag that
// matters for the question's type.
func (q Question) FlaggedOptionIDs() []string {
	ids := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.Flagged(q.Type) {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

func (q Question) HasOption(id string) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}

// QuestionView is a question as shown to the learner: no flags, and the
// explanation only once it has been revealed.
type QuestionView struct {
	ID          int              `json:"id"`
	Type        QuestionType     `json:"type"`
	Text        string           `json:"text"`
	Options     []OptionView     `json:"options"`
	Matching    *MatchingContent `json:"matching,omitempty"`
	Explanation *string          `json:"explanation,omitempty"`
}

type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (q Question) View(showExplanation bool) QuestionView {
	view := QuestionView{
		ID:       q.ID,
		Type:     q.Type,
		Text:     q.Text,
		Options:  make([]OptionView, len(q.Options)),
		Matching: q.Matching,
	}
	for i, opt := range q.Options {
		view.Options[i] = OptionView{ID: opt.ID, Text: opt.Text}
	}
	if showExplanation {
		explanation := q.Explanation
		view.Explanation = &explanation
	}
	return view
}
