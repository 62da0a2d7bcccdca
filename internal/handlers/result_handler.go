package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	BaseHandler
	service services.ResultService
}

func NewResultHandler(service services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// SubmitResult records the score of a finished attempt
// POST /api/v1/quiz-results
func (h *ResultHandler) SubmitResult(c *gin.Context) {
	var req services.SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	result, err := h.service.Record(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "Quiz result recorded", result,
		"result_id", result.ID,
		"quiz_id", result.QuizID)
}

// GetResult returns one stored result
// GET /api/v1/quiz-results/:id
func (h *ResultHandler) GetResult(c *gin.Context) {
	raw := ParseStringIDParam(c, "id")
	if raw == "" {
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid id", err, "ID must be a positive integer")
		return
	}

	result, err := h.service.Get(c.Request.Context(), uint(id))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListResults returns recent results of one quiz with its best score
// GET /api/v1/quiz-results?quiz_id=&limit=&offset=&sort_by=&sort_order=&date_from=&date_to=
func (h *ResultHandler) ListResults(c *gin.Context) {
	filters := repositories.ResultFilters{
		QuizID:    strings.TrimSpace(c.Query("quiz_id")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	var ok bool
	if filters.Limit, ok = parseIntQuery(c, "limit"); !ok {
		return
	}
	if filters.Offset, ok = parseIntQuery(c, "offset"); !ok {
		return
	}
	if filters.DateFrom, ok = parseTimeQuery(c, "date_from"); !ok {
		return
	}
	if filters.DateTo, ok = parseTimeQuery(c, "date_to"); !ok {
		return
	}

	list, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + key,
			Details: "must be an RFC3339 timestamp",
		})
		return nil, false
	}
	return &t, true
}
