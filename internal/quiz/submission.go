package quiz

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
)

// SubmissionTicket carries everything needed to write one attempt's result
// without touching the session while the write is in flight.
type SubmissionTicket struct {
	SessionID   string
	QuizID      string
	Attempt     int
	AttemptID   string
	Score       int
	Credits     []scoring.QuestionCredit
	CompletedAt time.Time
}

// BeginSubmission claims the submission of the current attempt. It returns
// false when the attempt is not completed and scored, or when a submission
// is already in flight or done.
func BeginSubmission(s *Session) (*SubmissionTicket, bool) {
	if s.Phase != PhaseShowingResults || s.Result == nil {
		return nil, false
	}
	if s.Submission == SubmissionInFlight || s.Submission == SubmissionDone {
		return nil, false
	}

	s.Submission = SubmissionInFlight
	ticket := &SubmissionTicket{
		SessionID: s.ID,
		QuizID:    s.QuizID,
		Attempt:   s.Attempt,
		AttemptID: s.AttemptID,
		Score:     s.Result.Score,
		Credits:   s.Result.Credits,
	}
	if s.CompletedAt != nil {
		ticket.CompletedAt = *s.CompletedAt
	}
	return ticket, true
}

// FinishSubmission records the outcome of a ticket's write and adds a
// notice. Outcomes of a superseded attempt are discarded; the return value
// reports whether the outcome was applied.
func FinishSubmission(s *Session, ticket *SubmissionTicket, writeErr error) (Notice, bool) {
	if ticket == nil || s.Attempt != ticket.Attempt || s.Submission != SubmissionInFlight {
		return Notice{}, false
	}

	if writeErr != nil {
		s.Submission = SubmissionFailed
		return addNotice(s, NoticeFailure, "Your score could not be saved. You can still review it or restart the quiz."), true
	}

	s.Submission = SubmissionDone
	return addNotice(s, NoticeSuccess, fmt.Sprintf("Your score of %d%% was saved.", ticket.Score)), true
}
