package scoring

import "github.com/SAP-F-2025/quiz-engine/internal/models"

func singleChoiceCredit(q models.Question, answer models.Answer) Credit {
	selected, ok := answer.(models.SingleChoiceAnswer)
	if !ok || !selected.Answered() {
		return NoCredit
	}
	for _, opt := range q.Options {
		if opt.Flagged(q.Type) {
			if opt.ID == selected.OptionID {
				return FullCredit
			}
			return NoCredit
		}
	}
	return NoCredit
}

// multiSelectCredit serves both keyword selection and negative keywords;
// Option.Flagged picks isRelevant or isNegative from the question type.
// Any wrong pick forfeits the question, a strict non-empty subset of the
// flagged set earns half.
func multiSelectCredit(q models.Question, answer models.Answer) Credit {
	selected, ok := answer.(models.MultiSelectAnswer)
	if !ok {
		return NoCredit
	}

	flagged := make(map[string]bool)
	for _, id := range q.FlaggedOptionIDs() {
		flagged[id] = true
	}

	var correct, incorrect int
	for _, id := range models.NewMultiSelectAnswer(selected.OptionIDs...).OptionIDs {
		if flagged[id] {
			correct++
		} else {
			incorrect++
		}
	}

	switch {
	case incorrect > 0:
		return NoCredit
	case correct == len(flagged) && correct > 0:
		return FullCredit
	case correct > 0:
		return HalfCredit
	default:
		return NoCredit
	}
}

// matchingPlaceholderCredit grants a fixed half credit. Pairings are not
// evaluated yet; replace this rule with Scorer.Register once they are.
func matchingPlaceholderCredit(models.Question, models.Answer) Credit {
	return HalfCredit
}
