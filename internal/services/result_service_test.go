package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/quiz-engine/internal/cache"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByID(ctx context.Context, id uint) (*models.QuizResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.QuizResult), args.Error(1)
}

func (m *MockResultRepository) ExistsByAttemptID(ctx context.Context, attemptID string) (bool, error) {
	args := m.Called(ctx, attemptID)
	return args.Bool(0), args.Error(1)
}

func (m *MockResultRepository) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.QuizResult), args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) BestScore(ctx context.Context, quizID string) (*int, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(*int), args.Error(1)
}

func intPtr(v int) *int { return &v }

func newRedisCache(t *testing.T) cache.CacheService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisCache(client, testLogger())
}

func TestResultService_Record(t *testing.T) {
	repo := &MockResultRepository{}
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewResultService(repo, newRedisCache(t), publisher, validator.New(), testLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(r *models.QuizResult) bool {
		return r.QuizID == "ads-basics" && r.Score == 75 && r.AttemptID != nil && *r.AttemptID == "att-1"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.QuizResult).ID = 42
	}).Return(nil).Once()

	req := &SubmitResultRequest{
		QuizIdentifier: "ads-basics",
		Score:          intPtr(75),
		AttemptID:      "att-1",
		Breakdown:      []scoring.QuestionCredit{{QuestionID: 1, Credit: scoring.FullCredit}},
	}
	result, err := svc.Record(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, uint(42), result.ID)
	assert.JSONEq(t, `[{"question_id":1,"type":"","credit":1,"answered":false}]`, string(result.Breakdown))

	recorded := publisher.EventsOfType(events.EventResultRecorded)
	require.Len(t, recorded, 1)
	assert.Equal(t, uint(42), recorded[0].Data.(events.ResultRecordedEvent).ResultID)

	// same attempt again: rejected by the redis guard before the database
	_, err = svc.Record(ctx, req)
	assert.ErrorIs(t, err, ErrResultDuplicate)
	assert.True(t, IsConflict(err))

	repo.AssertExpectations(t)
}

func TestResultService_Record_Validation(t *testing.T) {
	repo := &MockResultRepository{}
	svc := NewResultService(repo, nil, events.NewMockEventPublisher(testLogger()), validator.New(), testLogger())

	tests := []struct {
		name string
		req  *SubmitResultRequest
	}{
		{name: "missing quiz", req: &SubmitResultRequest{Score: intPtr(10)}},
		{name: "missing score", req: &SubmitResultRequest{QuizIdentifier: "ads-basics"}},
		{name: "score too high", req: &SubmitResultRequest{QuizIdentifier: "ads-basics", Score: intPtr(101)}},
		{name: "negative score", req: &SubmitResultRequest{QuizIdentifier: "ads-basics", Score: intPtr(-1)}},
		{name: "bad identifier", req: &SubmitResultRequest{QuizIdentifier: "ads basics!", Score: intPtr(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), tt.req)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResultService_Record_WithoutCache(t *testing.T) {
	repo := &MockResultRepository{}
	svc := NewResultService(repo, nil, events.NewMockEventPublisher(testLogger()), validator.New(), testLogger())
	ctx := context.Background()

	repo.On("ExistsByAttemptID", ctx, "att-9").Return(true, nil).Once()

	_, err := svc.Record(ctx, &SubmitResultRequest{QuizIdentifier: "ads-basics", Score: intPtr(0), AttemptID: "att-9"})
	assert.ErrorIs(t, err, ErrResultDuplicate)

	repo.On("Create", ctx, mock.Anything).Return(repositories.ErrDuplicateAttempt).Once()
	repo.On("ExistsByAttemptID", ctx, "att-10").Return(false, nil).Once()

	_, err = svc.Record(ctx, &SubmitResultRequest{QuizIdentifier: "ads-basics", Score: intPtr(0), AttemptID: "att-10"})
	assert.ErrorIs(t, err, ErrResultDuplicate)

	repo.AssertExpectations(t)
}

func TestResultService_Record_StoreFailureReleasesGuard(t *testing.T) {
	repo := &MockResultRepository{}
	svc := NewResultService(repo, newRedisCache(t), events.NewMockEventPublisher(testLogger()), validator.New(), testLogger())
	ctx := context.Background()

	req := &SubmitResultRequest{QuizIdentifier: "ads-basics", Score: intPtr(50), AttemptID: "att-2"}

	repo.On("Create", ctx, mock.Anything).Return(errors.New("connection reset")).Once()
	_, err := svc.Record(ctx, req)
	require.Error(t, err)
	assert.False(t, IsConflict(err))

	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	_, err = svc.Record(ctx, req)
	assert.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestResultService_List(t *testing.T) {
	repo := &MockResultRepository{}
	svc := NewResultService(repo, newRedisCache(t), events.NewMockEventPublisher(testLogger()), validator.New(), testLogger())
	ctx := context.Background()

	filters := repositories.ResultFilters{QuizID: "ads-basics", Limit: 10}
	stored := []*models.QuizResult{{ID: 1, QuizID: "ads-basics", Score: 80}}
	repo.On("List", ctx, filters).Return(stored, int64(1), nil).Once()
	repo.On("BestScore", ctx, "ads-basics").Return(intPtr(80), nil).Once()

	list, err := svc.List(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 80, *list.BestScore)

	// served from cache
	cached, err := svc.List(ctx, filters)
	require.NoError(t, err)
	require.Len(t, cached.Results, 1)
	assert.Equal(t, 80, cached.Results[0].Score)

	_, err = svc.List(ctx, repositories.ResultFilters{})
	assert.True(t, IsValidation(err))

	repo.AssertExpectations(t)
}

func TestResultService_RecordInvalidatesList(t *testing.T) {
	repo := &MockResultRepository{}
	svc := NewResultService(repo, newRedisCache(t), events.NewMockEventPublisher(testLogger()), validator.New(), testLogger())
	ctx := context.Background()

	filters := repositories.ResultFilters{QuizID: "ads-basics"}
	repo.On("List", ctx, filters).Return([]*models.QuizResult{}, int64(0), nil).Once()
	repo.On("BestScore", ctx, "ads-basics").Return((*int)(nil), nil).Once()

	list, err := svc.List(ctx, filters)
	require.NoError(t, err)
	assert.Nil(t, list.BestScore)

	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	_, err = svc.Record(ctx, &SubmitResultRequest{QuizIdentifier: "ads-basics", Score: intPtr(90)})
	require.NoError(t, err)

	repo.On("List", ctx, filters).Return([]*models.QuizResult{{ID: 1, QuizID: "ads-basics", Score: 90}}, int64(1), nil).Once()
	repo.On("BestScore", ctx, "ads-basics").Return(intPtr(90), nil).Once()

	list, err = svc.List(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	repo.AssertExpectations(t)
}

func TestResultService_Get(t *testing.T) {
	repo := &MockResultRepository{}
	svc := NewResultService(repo, nil, events.NewMockEventPublisher(testLogger()), validator.New(), testLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, uint(7)).Return(&models.QuizResult{ID: 7, QuizID: "ads-basics", Score: 60}, nil).Once()
	repo.On("GetByID", ctx, uint(8)).Return((*models.QuizResult)(nil), gorm.ErrRecordNotFound).Once()

	result, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 60, result.Score)

	_, err = svc.Get(ctx, 8)
	assert.ErrorIs(t, err, ErrResultNotFound)
	assert.True(t, IsNotFound(err))

	repo.AssertExpectations(t)
}
