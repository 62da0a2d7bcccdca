package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuizResult is one persisted attempt score as received from a quiz client.
type QuizResult struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	QuizID      string         `json:"quiz_id" gorm:"not null;size:100;index"`
	AttemptID   *string        `json:"attempt_id,omitempty" gorm:"size:64;uniqueIndex"`
	Score       int            `json:"score" gorm:"not null"`
	Breakdown   datatypes.JSON `json:"breakdown,omitempty" gorm:"type:jsonb"` // []scoring.QuestionCredit
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
