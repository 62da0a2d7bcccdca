package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/client"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
)

// ResultSubmitter performs the single result write of a completed attempt.
// It never touches a session: the caller claims a ticket with
// quiz.BeginSubmission and applies the returned error with
// quiz.FinishSubmission.
type ResultSubmitter struct {
	writer    client.ResultWriter
	publisher events.EventPublisher
	timeout   time.Duration
	logger    *ServiceLogger
}

func NewResultSubmitter(writer client.ResultWriter, publisher events.EventPublisher, timeout time.Duration, logger *slog.Logger) *ResultSubmitter {
	return &ResultSubmitter{
		writer:    writer,
		publisher: publisher,
		timeout:   timeout,
		logger: NewServiceLogger(logger, LogConfig{
			Service:   "quiz-engine",
			Component: "result-submitter",
		}),
	}
}

// Deliver writes the ticket's score once, bounded by the configured
// timeout. There is no retry; the returned error is the outcome.
func (s *ResultSubmitter) Deliver(ctx context.Context, ticket *quiz.SubmissionTicket) error {
	op := s.logger.WithOperation(ctx, "submit_result")
	start := time.Now()

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload := client.ResultPayload{
		QuizIdentifier: ticket.QuizID,
		Score:          ticket.Score,
		AttemptID:      ticket.AttemptID,
		Breakdown:      ticket.Credits,
	}
	if !ticket.CompletedAt.IsZero() {
		completedAt := ticket.CompletedAt
		payload.CompletedAt = &completedAt
	}

	err := s.writer.WriteResult(writeCtx, payload)
	op.LogResult(ticket.AttemptID, "attempt", err)

	var event *events.QuizEvent
	if err != nil {
		event = events.NewResultSubmissionFailedEvent(events.ResultSubmissionFailedEvent{
			SessionID: ticket.SessionID,
			QuizID:    ticket.QuizID,
			AttemptID: ticket.AttemptID,
			Score:     ticket.Score,
			Reason:    err.Error(),
		})
	} else {
		event = events.NewResultSubmittedEvent(events.ResultSubmittedEvent{
			SessionID: ticket.SessionID,
			QuizID:    ticket.QuizID,
			AttemptID: ticket.AttemptID,
			Score:     ticket.Score,
			Duration:  time.Since(start),
		})
	}
	if pubErr := s.publisher.PublishQuizEvent(ctx, event); pubErr != nil {
		s.logger.Logger().Warn("Failed to publish submission event",
			"attempt_id", ticket.AttemptID,
			"error", pubErr)
	}

	return err
}
