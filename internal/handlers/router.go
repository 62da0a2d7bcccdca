package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	resultHandler  *ResultHandler
	quizHandler    *QuizHandler
}

func NewHandlerManager(
	quizID string,
	bank *quiz.Bank,
	sessionService services.QuizSessionService,
	resultService services.ResultService,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	hm := &HandlerManager{
		sessionHandler: NewSessionHandler(sessionService, validator, logger),
		quizHandler:    NewQuizHandler(quizID, bank, logger),
	}
	// result ingestion needs a database
	if resultService != nil {
		hm.resultHandler = NewResultHandler(resultService, logger)
	}
	return hm
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quiz-engine",
		})
	})

	v1 := router.Group("/api/v1")
	{
		quizRoutes := v1.Group("/quiz")
		{
			quizRoutes.GET("", hm.quizHandler.GetQuiz)
			quizRoutes.GET("/bank.xlsx", hm.quizHandler.ExportBank)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.CloseSession)
			sessions.POST("/:id/answers", hm.sessionHandler.RecordAnswer)
			sessions.POST("/:id/toggle", hm.sessionHandler.ToggleOption)
			sessions.POST("/:id/reveal", hm.sessionHandler.Reveal)
			sessions.POST("/:id/advance", hm.sessionHandler.Advance)
			sessions.POST("/:id/retreat", hm.sessionHandler.Retreat)
			sessions.POST("/:id/restart", hm.sessionHandler.Restart)
			sessions.DELETE("/:id/notices/:notice_id", hm.sessionHandler.DismissNotice)
		}

		if hm.resultHandler != nil {
			results := v1.Group("/quiz-results")
			{
				results.POST("", hm.resultHandler.SubmitResult)
				results.GET("", hm.resultHandler.ListResults)
				results.GET("/:id", hm.resultHandler.GetResult)
			}
		}
	}
}
