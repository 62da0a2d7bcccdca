package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.QuizResult{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestResultPostgreSQL_CreateAndGet(t *testing.T) {
	repo := NewResultPostgreSQL(newTestDB(t))
	ctx := context.Background()

	completed := time.Now().UTC().Truncate(time.Second)
	result := &models.QuizResult{
		QuizID:      "ads-basics",
		AttemptID:   strPtr("att-1"),
		Score:       75,
		Breakdown:   datatypes.JSON(`[{"question_id":1,"credit":1}]`),
		CompletedAt: &completed,
	}
	require.NoError(t, repo.Create(ctx, result))
	require.NotZero(t, result.ID)

	got, err := repo.GetByID(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, got.Score)
	assert.Equal(t, "att-1", *got.AttemptID)
	assert.JSONEq(t, `[{"question_id":1,"credit":1}]`, string(got.Breakdown))

	exists, err := repo.ExistsByAttemptID(ctx, "att-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByAttemptID(ctx, "att-2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestResultPostgreSQL_DuplicateAttempt(t *testing.T) {
	repo := NewResultPostgreSQL(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.QuizResult{QuizID: "q", AttemptID: strPtr("dup"), Score: 10}))
	err := repo.Create(ctx, &models.QuizResult{QuizID: "q", AttemptID: strPtr("dup"), Score: 20})
	assert.ErrorIs(t, err, repositories.ErrDuplicateAttempt)

	// Results without an attempt id are never deduplicated.
	require.NoError(t, repo.Create(ctx, &models.QuizResult{QuizID: "q", Score: 30}))
	require.NoError(t, repo.Create(ctx, &models.QuizResult{QuizID: "q", Score: 30}))
}

func TestResultPostgreSQL_ListAndBest(t *testing.T) {
	repo := NewResultPostgreSQL(newTestDB(t))
	ctx := context.Background()

	for _, score := range []int{40, 90, 65} {
		require.NoError(t, repo.Create(ctx, &models.QuizResult{QuizID: "ads-basics", Score: score}))
	}
	require.NoError(t, repo.Create(ctx, &models.QuizResult{QuizID: "other", Score: 100}))

	results, total, err := repo.List(ctx, repositories.ResultFilters{QuizID: "ads-basics", SortBy: "score", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, results, 3)
	assert.Equal(t, []int{40, 65, 90}, []int{results[0].Score, results[1].Score, results[2].Score})

	page, total, err := repo.List(ctx, repositories.ResultFilters{QuizID: "ads-basics", SortBy: "score", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, 65, page[0].Score)

	best, err := repo.BestScore(ctx, "ads-basics")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 90, *best)

	none, err := repo.BestScore(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}
