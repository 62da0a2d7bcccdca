package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"gorm.io/gorm"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

var resultSortColumns = map[string]string{
	"created_at": "created_at",
	"score":      "score",
}

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r ResultPostgreSQL) Create(ctx context.Context, result *models.QuizResult) error {
	err := r.db.WithContext(ctx).Create(result).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repositories.ErrDuplicateAttempt
	}
	return err
}

func (r ResultPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuizResult, error) {
	var result models.QuizResult
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r ResultPostgreSQL) ExistsByAttemptID(ctx context.Context, attemptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuizResult{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count > 0, err
}

func (r ResultPostgreSQL) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	var results []*models.QuizResult
	var total int64

	// apply filter first
	query := r.db.WithContext(ctx).Model(&models.QuizResult{})
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = r.applyPaginationAndSort(query, filters)

	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r ResultPostgreSQL) BestScore(ctx context.Context, quizID string) (*int, error) {
	var best struct{ Score *int }
	err := r.db.WithContext(ctx).
		Model(&models.QuizResult{}).
		Select("MAX(score) AS score").
		Where("quiz_id = ?", quizID).
		Scan(&best).Error
	if err != nil {
		return nil, err
	}
	return best.Score, nil
}

func (r ResultPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.QuizID != "" {
		query = query.Where("quiz_id = ?", filters.QuizID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (r ResultPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	column, ok := resultSortColumns[filters.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		order = "ASC"
	}
	query = query.Order(column + " " + order).Order("id " + order)

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	query = query.Limit(limit)
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
