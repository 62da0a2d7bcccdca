package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/client"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResultWriter is a mock implementation of client.ResultWriter
type MockResultWriter struct {
	mock.Mock
}

func (m *MockResultWriter) WriteResult(ctx context.Context, payload client.ResultPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBank(t *testing.T) *quiz.Bank {
	t.Helper()
	bank, err := quiz.NewBank([]models.Question{
		{
			ID: 1, Type: models.SingleChoice, Text: "Which CTA converts best?", Explanation: "Urgency works.",
			Options: []models.Option{{ID: "a", Text: "Shop today", IsCorrect: true}, {ID: "b", Text: "Learn more"}},
		},
		{
			ID: 2, Type: models.MultiSelectPositive, Text: "Relevant keywords",
			Options: []models.Option{{ID: "k1", Text: "shoes", IsRelevant: true}, {ID: "k2", Text: "boots", IsRelevant: true}, {ID: "k3", Text: "pasta"}},
		},
	})
	require.NoError(t, err)
	return bank
}

type sessionFixture struct {
	service   QuizSessionService
	writer    *MockResultWriter
	publisher *events.MockEventPublisher
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	logger := testLogger()
	writer := &MockResultWriter{}
	publisher := events.NewMockEventPublisher(logger)
	submitter := NewResultSubmitter(writer, publisher, time.Second, logger)
	return &sessionFixture{
		service:   NewQuizSessionService("ads-basics", testBank(t), scoring.NewScorer(), submitter, publisher, 0, logger),
		writer:    writer,
		publisher: publisher,
	}
}

func optionID(id string) models.AnswerPayload {
	return models.AnswerPayload{OptionID: &id}
}

// completeQuiz answers both questions (full + half credit) and advances
// past the last one.
func completeQuiz(t *testing.T, svc QuizSessionService, sessionID string) *SessionView {
	t.Helper()
	ctx := context.Background()
	_, err := svc.RecordAnswer(ctx, sessionID, 1, optionID("a"))
	require.NoError(t, err)
	_, err = svc.Advance(ctx, sessionID)
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, sessionID, 2, models.AnswerPayload{OptionIDs: []string{"k1"}})
	require.NoError(t, err)
	view, err := svc.Advance(ctx, sessionID)
	require.NoError(t, err)
	return view
}

func TestQuizSessionService_CompleteAndSubmit(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.writer.On("WriteResult", mock.Anything, mock.MatchedBy(func(p client.ResultPayload) bool {
		return p.QuizIdentifier == "ads-basics" && p.Score == 75 && p.AttemptID != "" && len(p.Breakdown) == 2
	})).Return(nil).Once()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateAnswering, created.State)
	assert.Equal(t, 2, created.TotalQuestions)
	require.NotNil(t, created.Question)
	assert.Nil(t, created.Question.Explanation)

	view := completeQuiz(t, f.service, created.ID)
	assert.Equal(t, quiz.StateCompleted, view.State)
	require.NotNil(t, view.Result)
	assert.Equal(t, 75, view.Result.Score)
	assert.Nil(t, view.Question)
	assert.True(t, view.CanRestart)
	require.Len(t, view.Answers, 2)
	assert.Equal(t, "a", *view.Answers[1].OptionID)
	assert.Equal(t, []string{"k1"}, view.Answers[2].OptionIDs)

	require.NoError(t, f.service.Drain(ctx))

	view, err = f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.SubmissionDone, view.Submission)
	require.Len(t, view.Notices, 1)
	assert.Equal(t, quiz.NoticeSuccess, view.Notices[0].Level)

	f.writer.AssertExpectations(t)
	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptCompleted), 1)
	assert.Len(t, f.publisher.EventsOfType(events.EventResultSubmitted), 1)
}

func TestQuizSessionService_SubmitFailure(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.writer.On("WriteResult", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	completeQuiz(t, f.service, created.ID)
	require.NoError(t, f.service.Drain(ctx))

	view, err := f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.SubmissionFailed, view.Submission)
	assert.Equal(t, 75, view.Result.Score)
	require.Len(t, view.Notices, 1)
	assert.Equal(t, quiz.NoticeFailure, view.Notices[0].Level)
	assert.Len(t, f.publisher.EventsOfType(events.EventResultSubmissionFailed), 1)

	view, err = f.service.DismissNotice(ctx, created.ID, view.Notices[0].ID)
	require.NoError(t, err)
	assert.Empty(t, view.Notices)

	_, err = f.service.DismissNotice(ctx, created.ID, "missing")
	assert.ErrorIs(t, err, ErrNoticeNotFound)

	view, err = f.service.Restart(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Attempt)
	assert.Equal(t, quiz.SubmissionNotStarted, view.Submission)
	assert.Empty(t, view.Answers)

	f.writer.AssertNumberOfCalls(t, "WriteResult", 1)
}

func TestQuizSessionService_SingleWritePerAttempt(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	f.writer.On("WriteResult", mock.Anything, mock.Anything).Return(nil)

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	completeQuiz(t, f.service, created.ID)

	_, err = f.service.Advance(ctx, created.ID)
	assert.ErrorIs(t, err, quiz.ErrQuizCompleted)
	assert.True(t, IsNavigation(err))
	require.NoError(t, f.service.Drain(ctx))

	f.writer.AssertNumberOfCalls(t, "WriteResult", 1)
}

func TestQuizSessionService_RestartWhileInFlight(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	release := make(chan struct{})
	f.writer.On("WriteResult", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	view := completeQuiz(t, f.service, created.ID)
	assert.Equal(t, quiz.SubmissionInFlight, view.Submission)

	// The session stays usable while the write is pending.
	view, err = f.service.Restart(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateAnswering, view.State)

	close(release)
	require.NoError(t, f.service.Drain(ctx))

	view, err = f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.SubmissionNotStarted, view.Submission)
	assert.Empty(t, view.Notices)
	assert.Nil(t, view.Result)
}

func TestQuizSessionService_NavigationRejected(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)

	_, err = f.service.Advance(ctx, created.ID)
	assert.ErrorIs(t, err, quiz.ErrQuestionNotAnswered)
	assert.True(t, IsNavigation(err))
	assert.True(t, IsBusinessRule(err))

	_, err = f.service.Retreat(ctx, created.ID)
	assert.ErrorIs(t, err, quiz.ErrAtFirstQuestion)

	_, err = f.service.Reveal(ctx, created.ID)
	assert.ErrorIs(t, err, quiz.ErrQuestionNotAnswered)

	_, err = f.service.RecordAnswer(ctx, created.ID, 2, models.AnswerPayload{OptionIDs: []string{"k1"}})
	assert.ErrorIs(t, err, quiz.ErrQuestionMismatch)

	_, err = f.service.RecordAnswer(ctx, created.ID, 99, optionID("a"))
	assert.ErrorIs(t, err, quiz.ErrQuestionMismatch)
	assert.ErrorContains(t, err, "question 99 is not in the bank")

	_, err = f.service.ToggleOption(ctx, created.ID, 1, "a")
	assert.ErrorIs(t, err, quiz.ErrAnswerTypeMismatch)

	view, err := f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.CurrentIndex)
	assert.Equal(t, 0, view.AnsweredCount)
}

func TestQuizSessionService_RevealAndToggle(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)

	_, err = f.service.RecordAnswer(ctx, created.ID, 1, optionID("b"))
	require.NoError(t, err)
	view, err := f.service.Reveal(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateExplanationShown, view.State)
	require.NotNil(t, view.Question.Explanation)
	assert.Equal(t, "Urgency works.", *view.Question.Explanation)
	require.NotNil(t, view.Answer)
	assert.Equal(t, "b", *view.Answer.OptionID)

	view, err = f.service.Advance(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Question.Explanation)
	assert.True(t, view.IsLast)
	assert.True(t, view.CanRetreat)

	view, err = f.service.ToggleOption(ctx, created.ID, 2, "k2")
	require.NoError(t, err)
	assert.Equal(t, []string{"k2"}, view.Answer.OptionIDs)
	assert.True(t, view.CanAdvance)

	view, err = f.service.ToggleOption(ctx, created.ID, 2, "k2")
	require.NoError(t, err)
	assert.False(t, view.CanAdvance)
}

func TestQuizSessionService_Close(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.service.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsNotFound(err))

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, f.service.Close(ctx, created.ID))

	_, err = f.service.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.service.Close(ctx, created.ID), ErrSessionNotFound)
}

func TestQuizSessionService_RecordAnswerWrongShapeKeepsStoredAnswer(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx)
	require.NoError(t, err)
	_, err = f.service.RecordAnswer(ctx, created.ID, 1, optionID("a"))
	require.NoError(t, err)

	_, err = f.service.RecordAnswer(ctx, created.ID, 1, models.AnswerPayload{OptionIDs: []string{"a"}})
	assert.ErrorIs(t, err, quiz.ErrAnswerTypeMismatch)
	assert.True(t, IsNavigation(err))

	_, err = f.service.RecordAnswer(ctx, created.ID, 1, models.AnswerPayload{})
	assert.True(t, IsValidation(err))
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "answer", verrs[0].Field)

	a := "a"
	_, err = f.service.RecordAnswer(ctx, created.ID, 1, models.AnswerPayload{OptionID: &a, OptionIDs: []string{"a"}})
	assert.True(t, IsValidation(err))

	view, err := f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Answer)
	require.NotNil(t, view.Answer.OptionID)
	assert.Equal(t, "a", *view.Answer.OptionID)
	assert.Equal(t, 1, view.AnsweredCount)
	assert.True(t, view.CanAdvance)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newIdleFixture(t *testing.T, ttl time.Duration) (QuizSessionService, *fakeClock) {
	t.Helper()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	submitter := NewResultSubmitter(&MockResultWriter{}, publisher, time.Second, logger)
	svc := NewQuizSessionService("ads-basics", testBank(t), scoring.NewScorer(), submitter, publisher, ttl, logger)
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	svc.(*quizSessionService).now = clock.Now
	return svc, clock
}

func TestQuizSessionService_IdleSessionExpires(t *testing.T) {
	svc, clock := newIdleFixture(t, 10*time.Minute)
	ctx := context.Background()

	idle, err := svc.Create(ctx)
	require.NoError(t, err)
	active, err := svc.Create(ctx)
	require.NoError(t, err)

	clock.Advance(8 * time.Minute)
	_, err = svc.RecordAnswer(ctx, active.ID, 1, optionID("a"))
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	_, err = svc.Get(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, IsNotFound(err))

	view, err := svc.Get(ctx, active.ID)
	require.NoError(t, err, "activity refreshes the idle timer")
	assert.Equal(t, 1, view.AnsweredCount)

	assert.Equal(t, 1, svc.SweepIdle())
	assert.ErrorIs(t, svc.Close(ctx, idle.ID), ErrSessionNotFound)

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 1, svc.SweepIdle())
	_, err = svc.Get(ctx, active.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestQuizSessionService_ZeroIdleTTLNeverExpires(t *testing.T) {
	svc, clock := newIdleFixture(t, 0)
	ctx := context.Background()

	created, err := svc.Create(ctx)
	require.NoError(t, err)

	clock.Advance(72 * time.Hour)
	assert.Zero(t, svc.SweepIdle())
	_, err = svc.Get(ctx, created.ID)
	assert.NoError(t, err)
}

func TestQuizSessionService_RunSweeperStopsOnCancel(t *testing.T) {
	svc, clock := newIdleFixture(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	created, err := svc.Create(ctx)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return svc.(*quizSessionService).sessionCount() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func (s *quizSessionService) sessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
