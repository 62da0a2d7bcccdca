package bank

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
	"github.com/SAP-F-2025/quiz-engine/internal/scoring"
	"github.com/SAP-F-2025/quiz-engine/internal/validator"
)

// Loader reads question banks and refuses any bank that a session could
// not run: invalid questions, duplicate ids or types without a credit rule.
type Loader struct {
	validator *validator.Validator
	scorer    *scoring.Scorer
}

func NewLoader(v *validator.Validator, scorer *scoring.Scorer) *Loader {
	return &Loader{validator: v, scorer: scorer}
}

// Load picks the format from the file extension (.json, .xlsx).
func (l *Loader) Load(path string) (*quiz.Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open question bank: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return l.LoadJSON(f)
	case ".xlsx":
		return l.LoadExcel(f)
	default:
		return nil, fmt.Errorf("unsupported question bank format %q", ext)
	}
}

// LoadJSON reads an array of question records.
func (l *Loader) LoadJSON(r io.Reader) (*quiz.Bank, error) {
	var questions []models.Question
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&questions); err != nil {
		return nil, fmt.Errorf("failed to decode question bank: %w", err)
	}
	return l.Build(questions)
}

// Build validates questions and freezes them into a bank.
func (l *Loader) Build(questions []models.Question) (*quiz.Bank, error) {
	if err := l.validator.Question().ValidateBank(questions); err != nil {
		return nil, err
	}
	if err := l.scorer.CheckBank(questions); err != nil {
		return nil, err
	}
	return quiz.NewBank(questions)
}
