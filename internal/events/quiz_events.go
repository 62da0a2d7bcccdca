package events

import (
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/google/uuid"
)

// EventType represents the kinds of quiz events
type EventType string

const (
	// Attempt events
	EventAttemptCompleted EventType = "quiz.attempt_completed"

	// Submission events
	EventResultSubmitted        EventType = "quiz.result_submitted"
	EventResultSubmissionFailed EventType = "quiz.result_submission_failed"

	// Ingestion events
	EventResultRecorded EventType = "quiz.result_recorded"
)

const (
	eventSource  = "quiz-engine"
	eventVersion = "1.0"
)

// QuizEvent is the envelope shared by all quiz events
type QuizEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AttemptCompletedEvent struct {
	SessionID   string                   `json:"session_id"`
	QuizID      string                   `json:"quiz_id"`
	Attempt     int                      `json:"attempt"`
	AttemptID   string                   `json:"attempt_id"`
	Score       int                      `json:"score"`
	Breakdown   []scoring.QuestionCredit `json:"breakdown"`
	CompletedAt time.Time                `json:"completed_at"`
}

type ResultSubmittedEvent struct {
	SessionID string        `json:"session_id"`
	QuizID    string        `json:"quiz_id"`
	AttemptID string        `json:"attempt_id"`
	Score     int           `json:"score"`
	Duration  time.Duration `json:"duration_ns"`
}

type ResultSubmissionFailedEvent struct {
	SessionID string `json:"session_id"`
	QuizID    string `json:"quiz_id"`
	AttemptID string `json:"attempt_id"`
	Score     int    `json:"score"`
	Reason    string `json:"reason"`
}

type ResultRecordedEvent struct {
	ResultID  uint    `json:"result_id"`
	QuizID    string  `json:"quiz_id"`
	AttemptID *string `json:"attempt_id,omitempty"`
	Score     int     `json:"score"`
}

// Event factory functions

func NewAttemptCompletedEvent(payload AttemptCompletedEvent) *QuizEvent {
	return newEvent(EventAttemptCompleted, payload)
}

func NewResultSubmittedEvent(payload ResultSubmittedEvent) *QuizEvent {
	return newEvent(EventResultSubmitted, payload)
}

func NewResultSubmissionFailedEvent(payload ResultSubmissionFailedEvent) *QuizEvent {
	return newEvent(EventResultSubmissionFailed, payload)
}

func NewResultRecordedEvent(payload ResultRecordedEvent) *QuizEvent {
	return newEvent(EventResultRecorded, payload)
}

func newEvent(eventType EventType, data interface{}) *QuizEvent {
	return &QuizEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}
