package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
)

// SessionView is what a quiz client renders for one session.
type SessionView struct {
	ID             string                `json:"id"`
	QuizID         string                `json:"quiz_id"`
	Attempt        int                   `json:"attempt"`
	State          quiz.State            `json:"state"`
	CurrentIndex   int                   `json:"current_index"`
	TotalQuestions int                   `json:"total_questions"`
	AnsweredCount  int                   `json:"answered_count"`
	IsLast         bool                  `json:"is_last"`
	Question       *models.QuestionView  `json:"question,omitempty"`
	Answer         *models.AnswerPayload `json:"answer,omitempty"`
	CanAdvance     bool                  `json:"can_advance"`
	CanRetreat     bool                  `json:"can_retreat"`
	CanReveal      bool                  `json:"can_reveal"`
	CanRestart     bool                  `json:"can_restart"`
	Result         *scoring.Result       `json:"result,omitempty"`
	Submission     quiz.SubmissionState  `json:"submission"`
	Notices        []quiz.Notice         `json:"notices"`

	// Answers is the full answer sheet, shown once the attempt is completed.
	Answers map[int]models.AnswerPayload `json:"answers,omitempty"`
}

type QuizSessionService interface {
	Create(ctx context.Context) (*SessionView, error)
	Get(ctx context.Context, sessionID string) (*SessionView, error)
	RecordAnswer(ctx context.Context, sessionID string, questionID int, payload models.AnswerPayload) (*SessionView, error)
	ToggleOption(ctx context.Context, sessionID string, questionID int, optionID string) (*SessionView, error)
	Reveal(ctx context.Context, sessionID string) (*SessionView, error)
	Advance(ctx context.Context, sessionID string) (*SessionView, error)
	Retreat(ctx context.Context, sessionID string) (*SessionView, error)
	Restart(ctx context.Context, sessionID string) (*SessionView, error)
	DismissNotice(ctx context.Context, sessionID, noticeID string) (*SessionView, error)
	Close(ctx context.Context, sessionID string) error
	// Drain waits for in-flight result writes.
	Drain(ctx context.Context) error
	// SweepIdle drops sessions idle for longer than the idle TTL and
	// returns how many were removed.
	SweepIdle() int
	// RunSweeper calls SweepIdle every interval until ctx is done.
	RunSweeper(ctx context.Context, interval time.Duration)
}

type sessionEntry struct {
	mu       sync.Mutex
	session  *quiz.Session
	closed   bool
	lastSeen atomic.Int64 // unix nanos
}

func (e *sessionEntry) touch(now time.Time) {
	e.lastSeen.Store(now.UnixNano())
}

func (e *sessionEntry) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, e.lastSeen.Load()))
}

type quizSessionService struct {
	quizID    string
	bank      *quiz.Bank
	scorer    *scoring.Scorer
	submitter *ResultSubmitter
	publisher events.EventPublisher
	logger    *ServiceLogger
	// idleTTL of zero keeps sessions until they are closed
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	inflight sync.WaitGroup
}

func NewQuizSessionService(quizID string, bank *quiz.Bank, scorer *scoring.Scorer, submitter *ResultSubmitter, publisher events.EventPublisher, idleTTL time.Duration, logger *slog.Logger) QuizSessionService {
	return &quizSessionService{
		quizID:    quizID,
		bank:      bank,
		scorer:    scorer,
		submitter: submitter,
		publisher: publisher,
		logger: NewServiceLogger(logger, LogConfig{
			Service:   "quiz-engine",
			Component: "quiz-session",
		}),
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *quizSessionService) Create(ctx context.Context) (*SessionView, error) {
	session := quiz.NewSession(s.quizID, s.bank)
	entry := &sessionEntry{session: session}
	entry.touch(s.now())

	s.mu.Lock()
	s.sessions[session.ID] = entry
	s.mu.Unlock()

	s.logger.WithOperation(ctx, "create_session").LogResult(session.ID, "session", nil)
	return buildView(session), nil
}

func (s *quizSessionService) Get(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.withSession(ctx, "get_session", sessionID, func(*quiz.Session) error { return nil })
}

func (s *quizSessionService) RecordAnswer(ctx context.Context, sessionID string, questionID int, payload models.AnswerPayload) (*SessionView, error) {
	return s.withSession(ctx, "record_answer", sessionID, func(session *quiz.Session) error {
		answer, err := models.DecodeAnswer(payload)
		if err != nil {
			return ValidationErrors{*NewValidationError("answer", err.Error(), payload.String())}
		}
		return navigationError("record_answer", quiz.RecordAnswer(session, questionID, answer))
	})
}

func (s *quizSessionService) ToggleOption(ctx context.Context, sessionID string, questionID int, optionID string) (*SessionView, error) {
	return s.withSession(ctx, "toggle_option", sessionID, func(session *quiz.Session) error {
		return navigationError("toggle_option", quiz.ToggleOption(session, questionID, optionID))
	})
}

func (s *quizSessionService) Reveal(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.withSession(ctx, "reveal", sessionID, func(session *quiz.Session) error {
		return navigationError("reveal", quiz.Reveal(session))
	})
}

// Advance moves to the next question. Completing the last question scores
// the attempt, announces it and starts the result write in the background.
func (s *quizSessionService) Advance(ctx context.Context, sessionID string) (*SessionView, error) {
	var ticket *quiz.SubmissionTicket
	view, err := s.withSession(ctx, "advance", sessionID, func(session *quiz.Session) error {
		transition, err := quiz.Advance(session)
		if err != nil {
			return navigationError("advance", err)
		}
		if transition != quiz.TransitionCompleted {
			return nil
		}

		result, err := quiz.ScoreSession(session, s.scorer)
		if err != nil {
			return err
		}
		s.publishAttemptCompleted(ctx, session, result)
		ticket, _ = quiz.BeginSubmission(session)
		return nil
	})
	if ticket != nil {
		s.startSubmission(ctx, sessionID, ticket)
	}
	return view, err
}

func (s *quizSessionService) Retreat(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.withSession(ctx, "retreat", sessionID, func(session *quiz.Session) error {
		return navigationError("retreat", quiz.Retreat(session))
	})
}

func (s *quizSessionService) Restart(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.withSession(ctx, "restart", sessionID, func(session *quiz.Session) error {
		return navigationError("restart", quiz.Restart(session))
	})
}

func (s *quizSessionService) DismissNotice(ctx context.Context, sessionID, noticeID string) (*SessionView, error) {
	return s.withSession(ctx, "dismiss_notice", sessionID, func(session *quiz.Session) error {
		if !quiz.DismissNotice(session, noticeID) {
			return ErrNoticeNotFound
		}
		return nil
	})
}

// Close drops the session. A result write still in flight completes but
// its outcome is discarded.
func (s *quizSessionService) Close(ctx context.Context, sessionID string) error {
	op := s.logger.WithOperation(ctx, "close_session")

	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		op.LogResult(sessionID, "session", ErrSessionNotFound)
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	entry.closed = true
	entry.mu.Unlock()

	op.LogResult(sessionID, "session", nil)
	return nil
}

func (s *quizSessionService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *quizSessionService) withSession(ctx context.Context, operation, sessionID string, fn func(*quiz.Session) error) (*SessionView, error) {
	op := s.logger.WithOperation(ctx, operation)

	entry, err := s.lookup(sessionID)
	if err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.closed {
		op.LogResult(sessionID, "session", ErrSessionNotFound)
		return nil, ErrSessionNotFound
	}
	entry.touch(s.now())
	if err := fn(entry.session); err != nil {
		op.LogResult(sessionID, "session", err)
		return nil, err
	}

	op.LogResult(sessionID, "session", nil)
	return buildView(entry.session), nil
}

// lookup finds a live session. An expired one is treated as gone even
// before the sweeper removes it.
func (s *quizSessionService) lookup(sessionID string) (*sessionEntry, error) {
	s.mu.RLock()
	entry, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || s.expired(entry, s.now()) {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (s *quizSessionService) expired(entry *sessionEntry, now time.Time) bool {
	return s.idleTTL > 0 && entry.idleSince(now) > s.idleTTL
}

func (s *quizSessionService) SweepIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}
	now := s.now()

	var expired []*sessionEntry
	s.mu.Lock()
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			expired = append(expired, entry)
		}
	}
	s.mu.Unlock()

	for _, entry := range expired {
		entry.mu.Lock()
		entry.closed = true
		entry.mu.Unlock()
	}
	if len(expired) > 0 {
		s.logger.Logger().Info("Expired idle quiz sessions",
			"count", len(expired),
			"idle_ttl", s.idleTTL)
	}
	return len(expired)
}

func (s *quizSessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle()
		}
	}
}

// startSubmission writes the result outside the session lock so the
// session stays usable while the write is pending.
func (s *quizSessionService) startSubmission(ctx context.Context, sessionID string, ticket *quiz.SubmissionTicket) {
	bg := context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		err := s.submitter.Deliver(bg, ticket)

		entry, lookupErr := s.lookup(sessionID)
		if lookupErr != nil {
			return
		}
		entry.mu.Lock()
		defer entry.mu.Unlock()
		if entry.closed {
			return
		}
		if _, applied := quiz.FinishSubmission(entry.session, ticket, err); !applied {
			s.logger.Logger().Info("Discarded submission outcome of a superseded attempt",
				"session_id", sessionID,
				"attempt_id", ticket.AttemptID)
		}
	}()
}

func (s *quizSessionService) publishAttemptCompleted(ctx context.Context, session *quiz.Session, result *scoring.Result) {
	payload := events.AttemptCompletedEvent{
		SessionID: session.ID,
		QuizID:    session.QuizID,
		Attempt:   session.Attempt,
		AttemptID: session.AttemptID,
		Score:     result.Score,
		Breakdown: result.Credits,
	}
	if session.CompletedAt != nil {
		payload.CompletedAt = *session.CompletedAt
	}
	if err := s.publisher.PublishQuizEvent(ctx, events.NewAttemptCompletedEvent(payload)); err != nil {
		s.logger.Logger().Warn("Failed to publish attempt completed event",
			"session_id", session.ID,
			"error", err)
	}
}

func buildView(session *quiz.Session) *SessionView {
	answered, total := session.Progress()
	view := &SessionView{
		ID:             session.ID,
		QuizID:         session.QuizID,
		Attempt:        session.Attempt,
		State:          session.State(),
		CurrentIndex:   session.CurrentIndex,
		TotalQuestions: total,
		AnsweredCount:  answered,
		IsLast:         session.IsLast(),
		CanAdvance:     quiz.CanAdvance(session),
		CanRetreat:     quiz.CanRetreat(session),
		CanReveal:      quiz.CanReveal(session),
		CanRestart:     quiz.CanRestart(session),
		Result:         session.Result,
		Submission:     session.Submission,
		Notices:        append([]quiz.Notice{}, session.Notices...),
	}

	if session.Phase == quiz.PhaseInProgress {
		current := session.Current()
		question := current.View(session.ExplanationVisible)
		view.Question = &question
		if answer, ok := session.Answers.Get(current.ID); ok {
			payload := models.EncodeAnswer(answer)
			view.Answer = &payload
		}
	} else {
		view.Answers = session.Answers.Snapshot()
	}
	return view
}
