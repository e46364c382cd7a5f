package sheetsclient

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jakechorley/shift-roster/internal/config"
	"github.com/jakechorley/shift-roster/pkg/core/model"
)

// Expected column names in the workers sheet
var workerFields = []string{
	"ID",
	"Name",
	"Email",
	"Grade",
	"Role",
}

// ListWorkers retrieves and parses workers from the configured spreadsheet
func (c *Client) ListWorkers(cfg *config.Config) ([]model.Worker, error) {
	if cfg.WorkerSheetID == "" {
		return nil, fmt.Errorf("workerSheetID is not configured")
	}

	values, err := c.readRange(cfg.WorkerSheetID, cfg.WorkerTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get worker data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	workers, err := parseWorkers(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workers: %w", err)
	}

	return workers, nil
}

// parseWorkers converts raw spreadsheet data into workers. Rows without an
// ID are skipped.
func parseWorkers(raw [][]interface{}) ([]model.Worker, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	fieldIndexes := make(map[string]int)
	for _, field := range workerFields {
		index := findColumnIndex(raw[0], field)
		if index == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		fieldIndexes[field] = index
	}

	getField := func(field string, row []interface{}) string {
		index := fieldIndexes[field]
		if index >= len(row) {
			return ""
		}
		switch v := row[index].(type) {
		case string:
			return strings.TrimSpace(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return ""
	}

	workers := make([]model.Worker, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		id := getField("ID", row)
		if id == "" {
			continue
		}

		grade, err := strconv.Atoi(getField("Grade", row))
		if err != nil || !model.ValidGrade(grade) {
			return nil, fmt.Errorf("invalid grade for worker %s in row %d", id, i+1)
		}

		role := model.Role(getField("Role", row))
		if !role.IsValid() {
			return nil, fmt.Errorf("invalid role for worker %s in row %d", id, i+1)
		}

		workers = append(workers, model.Worker{
			ID:    id,
			Name:  getField("Name", row),
			Email: getField("Email", row),
			Grade: grade,
			Role:  role,
		})
	}

	return workers, nil
}

// findColumnIndex finds the index of a column by its header name
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && strings.TrimSpace(str) == columnName {
			return i
		}
	}
	return -1
}
