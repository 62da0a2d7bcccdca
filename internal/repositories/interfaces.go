package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// ErrDuplicateAttempt is returned when a result for the same attempt id
// has already been stored.
var ErrDuplicateAttempt = errors.New("result for attempt already recorded")

type ResultFilters struct {
	QuizID    string     `json:"quiz_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "score"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

// ResultRepository stores quiz results received from quiz clients.
type ResultRepository interface {
	Create(ctx context.Context, result *models.QuizResult) error
	GetByID(ctx context.Context, id uint) (*models.QuizResult, error)
	ExistsByAttemptID(ctx context.Context, attemptID string) (bool, error)
	List(ctx context.Context, filters ResultFilters) ([]*models.QuizResult, int64, error)
	// BestScore returns the highest recorded score of a quiz, or nil when
	// nothing has been recorded yet.
	BestScore(ctx context.Context, quizID string) (*int, error)
}
