package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
	"github.com/gin-gonic/gin"
)

type RecordAnswerRequest struct {
	QuestionID int                  `json:"question_id" validate:"required,min=1"`
	Answer     models.AnswerPayload `json:"answer"`
}

type ToggleOptionRequest struct {
	QuestionID int    `json:"question_id" validate:"required,min=1"`
	OptionID   string `json:"option_id" validate:"required,max=64"`
}

type SessionHandler struct {
	BaseHandler
	service   services.QuizSessionService
	validator *validator.Validator
}

func NewSessionHandler(service services.QuizSessionService, validator *validator.Validator, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// CreateSession mounts a new quiz session over the loaded bank
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	view, err := h.service.Create(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Quiz session created", view, "session_id", view.ID)
}

// GetSession returns the current view of a session
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RecordAnswer stores the answer to the current question
// POST /api/v1/sessions/:id/answers
func (h *SessionHandler) RecordAnswer(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	view, err := h.service.RecordAnswer(c.Request.Context(), id, req.QuestionID, req.Answer)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ToggleOption flips one option of a multi-select answer
// POST /api/v1/sessions/:id/toggle
func (h *SessionHandler) ToggleOption(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req ToggleOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	view, err := h.service.ToggleOption(c.Request.Context(), id, req.QuestionID, req.OptionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Reveal shows the explanation of the current question
// POST /api/v1/sessions/:id/reveal
func (h *SessionHandler) Reveal(c *gin.Context) {
	h.transition(c, h.service.Reveal)
}

// Advance moves forward; on the last question it completes the quiz
// POST /api/v1/sessions/:id/advance
func (h *SessionHandler) Advance(c *gin.Context) {
	h.transition(c, h.service.Advance)
}

// Retreat moves back one question
// POST /api/v1/sessions/:id/retreat
func (h *SessionHandler) Retreat(c *gin.Context) {
	h.transition(c, h.service.Retreat)
}

// Restart starts a new attempt of a completed quiz
// POST /api/v1/sessions/:id/restart
func (h *SessionHandler) Restart(c *gin.Context) {
	h.transition(c, h.service.Restart)
}

// DismissNotice removes a submission notice
// DELETE /api/v1/sessions/:id/notices/:notice_id
func (h *SessionHandler) DismissNotice(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	noticeID := ParseStringIDParam(c, "notice_id")
	if noticeID == "" {
		return
	}

	view, err := h.service.DismissNotice(c.Request.Context(), id, noticeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CloseSession unmounts a session
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.service.Close(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogInfo(c, "Quiz session closed", "session_id", id)
	c.Status(http.StatusNoContent)
}

type sessionTransition func(ctx context.Context, sessionID string) (*services.SessionView, error)

func (h *SessionHandler) transition(c *gin.Context, fn sessionTransition) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	view, err := fn(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
