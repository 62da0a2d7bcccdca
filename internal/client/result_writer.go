package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
)

// ResultPayload is the body of one result write.
type ResultPayload struct {
	QuizIdentifier string                   `json:"quizIdentifier"`
	Score          int                      `json:"score"`
	AttemptID      string                   `json:"attemptId,omitempty"`
	CompletedAt    *time.Time               `json:"completedAt,omitempty"`
	Breakdown      []scoring.QuestionCredit `json:"breakdown,omitempty"`
}

// ResultWriter persists a final score somewhere outside the engine.
type ResultWriter interface {
	WriteResult(ctx context.Context, payload ResultPayload) error
}

// StatusError is returned for a non-2xx answer of the result endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("result endpoint error %d: %s", e.StatusCode, e.Body)
}

// HTTPResultWriter posts results as JSON to a fixed endpoint.
type HTTPResultWriter struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPResultWriter(endpoint string, httpClient *http.Client) *HTTPResultWriter {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPResultWriter{endpoint: endpoint, httpClient: httpClient}
}

func (c *HTTPResultWriter) WriteResult(ctx context.Context, payload ResultPayload) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return nil
}
