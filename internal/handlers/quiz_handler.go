package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-engine/internal/bank"
	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type QuizInfo struct {
	QuizID         string `json:"quiz_id"`
	TotalQuestions int    `json:"total_questions"`
}

// QuizHandler exposes the loaded question bank
type QuizHandler struct {
	BaseHandler
	quizID string
	bank   *quiz.Bank
}

func NewQuizHandler(quizID string, bank *quiz.Bank, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizID:      quizID,
		bank:        bank,
	}
}

// GetQuiz
// GET /api/v1/quiz
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	c.JSON(http.StatusOK, QuizInfo{QuizID: h.quizID, TotalQuestions: h.bank.Len()})
}

// ExportBank downloads the bank in the import sheet layout
// GET /api/v1/quiz/bank.xlsx
func (h *QuizHandler) ExportBank(c *gin.Context) {
	data, err := bank.ExportExcel(h.bank.Questions())
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to export question bank", err)
		return
	}

	h.LogInfo(c, "Question bank exported", "quiz_id", h.quizID, "questions", h.bank.Len())
	c.Header("Content-Disposition", `attachment; filename="`+h.quizID+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
