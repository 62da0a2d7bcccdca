package quiz

import (
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/google/uuid"
)

// Phase is the coarse phase of a session.
type Phase string

const (
	PhaseInProgress     Phase = "in-progress"
	PhaseShowingResults Phase = "showing-results"
)

// SubmissionState guards the at-most-once result write of an attempt.
type SubmissionState string

const (
	SubmissionNotStarted SubmissionState = "not-started"
	SubmissionInFlight   SubmissionState = "in-flight"
	SubmissionDone       SubmissionState = "done"
	SubmissionFailed     SubmissionState = "failed"
)

// State is the navigator state derived from a session.
type State string

const (
	StateAnswering        State = "answering"
	StateExplanationShown State = "explanation-shown"
	StateCompleted        State = "completed"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeFailure NoticeLevel = "failure"
)

// Notice is a dismissible, non-blocking message for the learner.
type Notice struct {
	ID        string      `json:"id"`
	Level     NoticeLevel `json:"level"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
}

// Session is the mutable state of one quiz view. It is created when the
// view mounts and dropped when it unmounts; nothing in it is persisted.
type Session struct {
	ID     string
	QuizID string
	Bank   *Bank

	CurrentIndex       int
	Answers            *AnswerStore
	ExplanationVisible bool
	Phase              Phase
	Submission         SubmissionState

	// Attempt counts restarts; AttemptID identifies the current attempt
	// towards the result endpoint.
	Attempt     int
	AttemptID   string
	Result      *scoring.Result
	CompletedAt *time.Time
	Notices     []Notice

	StartedAt time.Time
}

func NewSession(quizID string, bank *Bank) *Session {
	return &Session{
		ID:         uuid.NewString(),
		QuizID:     quizID,
		Bank:       bank,
		Answers:    NewAnswerStore(),
		Phase:      PhaseInProgress,
		Submission: SubmissionNotStarted,
		Attempt:    1,
		AttemptID:  uuid.NewString(),
		StartedAt:  time.Now(),
	}
}

func (s *Session) State() State {
	switch {
	case s.Phase == PhaseShowingResults:
		return StateCompleted
	case s.ExplanationVisible:
		return StateExplanationShown
	default:
		return StateAnswering
	}
}

// Current returns the question under the cursor.
func (s *Session) Current() models.Question {
	return s.Bank.At(s.CurrentIndex)
}

func (s *Session) IsLast() bool {
	return s.CurrentIndex == s.Bank.Len()-1
}

// Progress returns how many questions of the bank have an answer that
// satisfies the answered predicate.
func (s *Session) Progress() (answered, total int) {
	for i := 0; i < s.Bank.Len(); i++ {
		if s.Answers.IsAnswered(s.Bank.At(i).ID) {
			answered++
		}
	}
	return answered, s.Bank.Len()
}

// DismissNotice removes a notice; it reports whether one was removed.
func DismissNotice(s *Session, noticeID string) bool {
	for i, n := range s.Notices {
		if n.ID == noticeID {
			s.Notices = append(s.Notices[:i], s.Notices[i+1:]...)
			return true
		}
	}
	return false
}

func addNotice(s *Session, level NoticeLevel, message string) Notice {
	n := Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
	s.Notices = append(s.Notices, n)
	return n
}
