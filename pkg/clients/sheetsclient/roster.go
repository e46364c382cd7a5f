package sheetsclient

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/sheets/v4"
)

const displayDateLayout = "Mon Jan 02 2006"

// PublishedRosterRow is one (date, location, shift) slot
type PublishedRosterRow struct {
	Date     string // Format: "2006-01-02"
	Location string
	Shift    string
	Workers  []string // Display names
	OnLeave  []string // Display names, set on the first row of each date only
}

// PublishedRoster is the roster for a date range ready to be written to a sheet
type PublishedRoster struct {
	StartDate string // Format: "2006-01-02"
	EndDate   string
	Rows      []PublishedRosterRow
}

// PublishRoster writes the roster to a tab named after its date range, e.g.
// "Sat Mar 01 2025 - Mon Mar 03 2025". An existing tab is rewritten but any
// columns added by hand to the right of the roster are kept.
func (c *Client) PublishRoster(spreadsheetID string, roster *PublishedRoster) error {
	tabTitle, err := generateTabTitle(roster.StartDate, roster.EndDate)
	if err != nil {
		return fmt.Errorf("failed to generate tab title: %w", err)
	}

	exists, err := c.ensureTab(spreadsheetID, tabTitle)
	if err != nil {
		return err
	}

	var existing [][]interface{}
	if exists {
		existing, err = c.readRange(spreadsheetID, fmt.Sprintf("%s!A1:ZZ", tabTitle))
		if err != nil {
			return fmt.Errorf("failed to read existing tab data: %w", err)
		}
		if _, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, tabTitle, &sheets.ClearValuesRequest{}).Do(); err != nil {
			return fmt.Errorf("failed to clear existing tab: %w", err)
		}
	}

	_, err = c.service.Spreadsheets.Values.Update(
		spreadsheetID,
		fmt.Sprintf("%s!A1", tabTitle),
		&sheets.ValueRange{Values: buildRosterValues(roster, existing)},
	).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write roster tab: %w", err)
	}

	return nil
}

// generateTabTitle creates a tab title in the format "Sat Mar 01 2025 - Mon Mar 03 2025"
func generateTabTitle(startDate, endDate string) (string, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return "", fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return "", fmt.Errorf("invalid end date: %w", err)
	}

	return fmt.Sprintf("%s - %s", start.Format(displayDateLayout), end.Format(displayDateLayout)), nil
}

// buildRosterValues lays out the tab with a 2-row gap and the header on row 3.
// Columns of existing that the roster does not own are carried over by row.
func buildRosterValues(roster *PublishedRoster, existing [][]interface{}) [][]interface{} {
	maxWorkers := 0
	for _, row := range roster.Rows {
		if len(row.Workers) > maxWorkers {
			maxWorkers = len(row.Workers)
		}
	}

	header := []interface{}{"Date", "Location", "Shift"}
	for i := 0; i < maxWorkers; i++ {
		header = append(header, fmt.Sprintf("Worker %d", i+1))
	}
	header = append(header, "On leave")

	var extraCols []int
	if len(existing) >= 3 {
		for i, cell := range existing[2] {
			if name, ok := cell.(string); ok && name != "" && !isRosterColumn(name) {
				extraCols = append(extraCols, i)
				header = append(header, name)
			}
		}
	}

	values := [][]interface{}{
		{}, // Row 1 (empty)
		{}, // Row 2 (empty)
		header,
	}

	for rowIdx, row := range roster.Rows {
		date := row.Date
		if t, err := time.Parse("2006-01-02", row.Date); err == nil {
			date = t.Format(displayDateLayout)
		}

		sheetRow := []interface{}{date, row.Location, row.Shift}
		for i := 0; i < maxWorkers; i++ {
			if i < len(row.Workers) {
				sheetRow = append(sheetRow, row.Workers[i])
			} else {
				sheetRow = append(sheetRow, "")
			}
		}
		sheetRow = append(sheetRow, strings.Join(row.OnLeave, ", "))

		var existingRow []interface{}
		if rowIdx+3 < len(existing) {
			existingRow = existing[rowIdx+3]
		}
		for _, col := range extraCols {
			if col < len(existingRow) {
				sheetRow = append(sheetRow, existingRow[col])
			} else {
				sheetRow = append(sheetRow, "")
			}
		}

		values = append(values, sheetRow)
	}

	return values
}

func isRosterColumn(name string) bool {
	switch name {
	case "Date", "Location", "Shift", "On leave":
		return true
	}
	return strings.HasPrefix(name, "Worker ")
}
