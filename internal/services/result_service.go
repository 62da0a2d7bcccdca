package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/cache"
	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	attemptGuardTTL = 24 * time.Hour
	resultListTTL   = time.Minute
)

// SubmitResultRequest is the body a quiz client posts once per attempt.
type SubmitResultRequest struct {
	QuizIdentifier string                   `json:"quizIdentifier" validate:"required,max=100,quiz_identifier"`
	Score          *int                     `json:"score" validate:"required,min=0,max=100"`
	AttemptID      string                   `json:"attemptId,omitempty" validate:"omitempty,max=64"`
	CompletedAt    *time.Time               `json:"completedAt,omitempty"`
	Breakdown      []scoring.QuestionCredit `json:"breakdown,omitempty"`
}

type ResultList struct {
	Results   []*models.QuizResult `json:"results"`
	Total     int64                `json:"total"`
	BestScore *int                 `json:"best_score,omitempty"`
}

type ResultService interface {
	Record(ctx context.Context, req *SubmitResultRequest) (*models.QuizResult, error)
	Get(ctx context.Context, id uint) (*models.QuizResult, error)
	List(ctx context.Context, filters repositories.ResultFilters) (*ResultList, error)
}

type resultService struct {
	repo      repositories.ResultRepository
	cache     cache.CacheService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *ServiceLogger
}

// NewResultService builds the ingestion side of result writes. cache may
// be nil, in which case duplicates are only caught by the database.
func NewResultService(repo repositories.ResultRepository, cacheService cache.CacheService, publisher events.EventPublisher, v *validator.Validator, logger *slog.Logger) ResultService {
	return &resultService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		validator: v,
		logger: NewServiceLogger(logger, LogConfig{
			Service:   "quiz-engine",
			Component: "quiz-result",
		}),
	}
}

func (s *resultService) Record(ctx context.Context, req *SubmitResultRequest) (result *models.QuizResult, err error) {
	op := s.logger.WithOperation(ctx, "record_result")
	defer func() {
		resourceID := req.AttemptID
		if result != nil {
			resourceID = fmt.Sprint(result.ID)
		}
		op.LogResult(resourceID, "quiz_result", err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	guardKey := attemptGuardKey(req.AttemptID)
	if req.AttemptID != "" {
		if err := s.claimAttempt(ctx, guardKey, req.AttemptID); err != nil {
			return nil, err
		}
	}

	result = &models.QuizResult{
		QuizID:      req.QuizIdentifier,
		Score:       *req.Score,
		CompletedAt: req.CompletedAt,
	}
	if req.AttemptID != "" {
		attemptID := req.AttemptID
		result.AttemptID = &attemptID
	}
	if len(req.Breakdown) > 0 {
		breakdown, err := json.Marshal(req.Breakdown)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal breakdown: %w", err)
		}
		result.Breakdown = datatypes.JSON(breakdown)
	}

	if err := s.repo.Create(ctx, result); err != nil {
		if errors.Is(err, repositories.ErrDuplicateAttempt) {
			return nil, ErrResultDuplicate
		}
		// let the client write again
		if req.AttemptID != "" && s.cache != nil {
			_ = s.cache.Delete(ctx, guardKey)
		}
		return nil, fmt.Errorf("failed to store quiz result: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, resultListPattern(result.QuizID)); err != nil {
			s.logger.Logger().Warn("Failed to invalidate result lists", "quiz_id", result.QuizID, "error", err)
		}
	}

	event := events.NewResultRecordedEvent(events.ResultRecordedEvent{
		ResultID:  result.ID,
		QuizID:    result.QuizID,
		AttemptID: result.AttemptID,
		Score:     result.Score,
	})
	if err := s.publisher.PublishQuizEvent(ctx, event); err != nil {
		s.logger.Logger().Warn("Failed to publish result recorded event", "result_id", result.ID, "error", err)
	}

	return result, nil
}

// claimAttempt makes sure an attempt is recorded at most once. Redis is
// the fast path; the database answers when redis is absent or failing.
func (s *resultService) claimAttempt(ctx context.Context, key, attemptID string) error {
	if s.cache != nil {
		claimed, err := s.cache.SetNX(ctx, key, true, attemptGuardTTL)
		if err == nil {
			if !claimed {
				return ErrResultDuplicate
			}
			return nil
		}
		s.logger.Logger().Warn("Attempt guard unavailable, checking database", "attempt_id", attemptID, "error", err)
	}

	exists, err := s.repo.ExistsByAttemptID(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("failed to check attempt: %w", err)
	}
	if exists {
		return ErrResultDuplicate
	}
	return nil
}

func (s *resultService) Get(ctx context.Context, id uint) (result *models.QuizResult, err error) {
	op := s.logger.WithOperation(ctx, "get_result")
	defer func() { op.LogResult(fmt.Sprint(id), "quiz_result", err) }()

	result, err = s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get quiz result: %w", err)
	}
	return result, nil
}

func (s *resultService) List(ctx context.Context, filters repositories.ResultFilters) (list *ResultList, err error) {
	op := s.logger.WithOperation(ctx, "list_results")
	defer func() { op.LogResult(filters.QuizID, "quiz_result", err) }()

	if filters.QuizID == "" {
		return nil, ValidationErrors{*NewValidationError("quiz_id", "is required", "")}
	}

	key := resultListKey(filters)
	if s.cache != nil {
		var cached ResultList
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	results, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	best, err := s.repo.BestScore(ctx, filters.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to read best score: %w", err)
	}

	list = &ResultList{Results: results, Total: total, BestScore: best}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, list, resultListTTL); err != nil {
			s.logger.Logger().Warn("Failed to cache result list", "quiz_id", filters.QuizID, "error", err)
		}
	}
	return list, nil
}

func attemptGuardKey(attemptID string) string {
	return "quiz-result:attempt:" + attemptID
}

func resultListPattern(quizID string) string {
	return "quiz-result:list:" + quizID + ":*"
}

func resultListKey(f repositories.ResultFilters) string {
	key := fmt.Sprintf("quiz-result:list:%s:%d:%d:%s:%s", f.QuizID, f.Limit, f.Offset, f.SortBy, f.SortOrder)
	if f.DateFrom != nil {
		key += ":from=" + f.DateFrom.UTC().Format(time.RFC3339)
	}
	if f.DateTo != nil {
		key += ":to=" + f.DateTo.UTC().Format(time.RFC3339)
	}
	return key
}
