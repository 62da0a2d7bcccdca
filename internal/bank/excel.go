package bank

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/quiz"
	"github.com/xuri/excelize/v2"
)

// Sheet layout. Options are written as "id=text" pairs separated by "|",
// flags as a comma separated list of option ids, prompts and categories
// as "|" separated lists.
var excelHeaders = []string{"id", "type", "text", "options", "flags", "explanation", "prompts", "categories"}

const (
	listSeparator = "|"
	flagSeparator = ","
)

// RowError points at the sheet cell that could not be read.
type RowError struct {
	Row     int
	Column  string
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// RowErrors collects every unreadable row of a sheet.
type RowErrors []RowError

func (re RowErrors) Error() string {
	if len(re) == 0 {
		return ""
	}
	msgs := make([]string, len(re))
	for i, e := range re {
		msgs[i] = e.Error()
	}
	return "invalid question sheet: " + strings.Join(msgs, "; ")
}

// LoadExcel reads the first sheet of an xlsx workbook.
func (l *Loader) LoadExcel(r io.Reader) (*quiz.Bank, error) {
	questions, err := ReadExcel(r)
	if err != nil {
		return nil, err
	}
	return l.Build(questions)
}

// ReadExcel parses question rows without validating them as a bank.
func ReadExcel(r io.Reader) ([]models.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("excel must have a header row and at least one question row")
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"id", "type", "text"} {
		if _, ok := headerMap[required]; !ok {
			return nil, fmt.Errorf("excel header is missing column %q", required)
		}
	}

	var questions []models.Question
	var rowErrs RowErrors
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		q, errs := parseExcelRow(row, headerMap, i+2)
		if len(errs) > 0 {
			rowErrs = append(rowErrs, errs...)
			continue
		}
		questions = append(questions, q)
	}
	if len(rowErrs) > 0 {
		return nil, rowErrs
	}
	return questions, nil
}

func parseExcelRow(row []string, headerMap map[string]int, rowNum int) (models.Question, RowErrors) {
	cell := func(column string) string {
		idx, ok := headerMap[column]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var errs RowErrors
	q := models.Question{
		Type:        models.QuestionType(cell("type")),
		Text:        cell("text"),
		Explanation: cell("explanation"),
	}

	id, err := strconv.Atoi(cell("id"))
	if err != nil {
		errs = append(errs, RowError{Row: rowNum, Column: "id", Message: "must be an integer"})
	}
	q.ID = id

	if raw := cell("options"); raw != "" {
		for _, pair := range strings.Split(raw, listSeparator) {
			optID, text, ok := strings.Cut(pair, "=")
			if !ok {
				errs = append(errs, RowError{Row: rowNum, Column: "options", Message: fmt.Sprintf("option %q is not id=text", pair)})
				continue
			}
			q.Options = append(q.Options, models.Option{ID: strings.TrimSpace(optID), Text: strings.TrimSpace(text)})
		}
	}

	if raw := cell("flags"); raw != "" {
		for _, flagged := range strings.Split(raw, flagSeparator) {
			flagged = strings.TrimSpace(flagged)
			if !setFlag(&q, flagged) {
				errs = append(errs, RowError{Row: rowNum, Column: "flags", Message: fmt.Sprintf("unknown option %q", flagged)})
			}
		}
	}

	prompts, categories := splitList(cell("prompts")), splitList(cell("categories"))
	if len(prompts) > 0 || len(categories) > 0 {
		q.Matching = &models.MatchingContent{Prompts: prompts, Categories: categories}
	}

	return q, errs
}

// setFlag sets the flag that matters for the question type on one option.
func setFlag(q *models.Question, optionID string) bool {
	for i := range q.Options {
		if q.Options[i].ID != optionID {
			continue
		}
		switch q.Type {
		case models.SingleChoice:
			q.Options[i].IsCorrect = true
		case models.MultiSelectPositive:
			q.Options[i].IsRelevant = true
		case models.MultiSelectNegative:
			q.Options[i].IsNegative = true
		default:
			return false
		}
		return true
	}
	return false
}

// ExportExcel writes questions in the layout ReadExcel understands.
func ExportExcel(questions []models.Question) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Questions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(sheetName, "A1", &excelHeaders); err != nil {
		return nil, fmt.Errorf("failed to write Excel header: %w", err)
	}
	for i, q := range questions {
		row := questionToRow(q)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write question %d: %w", q.ID, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func questionToRow(q models.Question) []interface{} {
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = opt.ID + "=" + opt.Text
	}
	var prompts, categories string
	if q.Matching != nil {
		prompts = strings.Join(q.Matching.Prompts, listSeparator)
		categories = strings.Join(q.Matching.Categories, listSeparator)
	}
	return []interface{}{
		q.ID,
		string(q.Type),
		q.Text,
		strings.Join(options, listSeparator),
		strings.Join(q.FlaggedOptionIDs(), flagSeparator),
		q.Explanation,
		prompts,
		categories,
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
