package services

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/clients/sheetsclient"
	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/db"
)

// PublishRosterStore defines the database operations needed to build a published roster
type PublishRosterStore interface {
	ListWorkers(ctx context.Context) ([]db.Worker, error)
	ListAssignments(ctx context.Context, filter db.AssignmentFilter) ([]db.Assignment, error)
	ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error)
}

// RosterPublisher writes a roster somewhere people can read it
type RosterPublisher interface {
	PublishRoster(spreadsheetID string, roster *sheetsclient.PublishedRoster) error
}

// BuildPublishedRoster lays out the stored roster for a range with worker
// names. Workers missing from the store are shown by id.
func BuildPublishedRoster(ctx context.Context, database PublishRosterStore, logger *zap.Logger, start, end string) (*sheetsclient.PublishedRoster, error) {
	if _, _, err := validateSpan(start, end); err != nil {
		return nil, err
	}

	workers, err := database.ListWorkers(ctx)
	if err != nil {
		return nil, storeErr(err, "fetch workers")
	}
	assignments, err := database.ListAssignments(ctx, db.AssignmentFilter{Start: start, End: end})
	if err != nil {
		return nil, storeErr(err, "fetch assignments")
	}
	approved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{Start: start, End: end})
	if err != nil {
		return nil, storeErr(err, "fetch approved leave")
	}

	names := make(map[string]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.Name
	}
	displayName := func(id string) string {
		if name := names[id]; name != "" {
			return name
		}
		return id
	}

	onLeave := make(map[string][]string)
	for _, l := range approved {
		onLeave[l.Date] = append(onLeave[l.Date], displayName(l.WorkerID))
	}
	for date := range onLeave {
		sort.Strings(onLeave[date])
	}

	roster := model.Roster{}
	for _, a := range assignments {
		roster.Add(a.Date, model.Location(a.Location), model.Shift(a.Shift), a.WorkerID)
	}

	published := &sheetsclient.PublishedRoster{StartDate: start, EndDate: end}
	leaveShown := make(map[string]bool)
	var current *sheetsclient.PublishedRosterRow
	for _, entry := range roster.Entries() {
		if current == nil || current.Date != entry.Date || current.Location != string(entry.Location) || current.Shift != string(entry.Shift) {
			published.Rows = append(published.Rows, sheetsclient.PublishedRosterRow{
				Date:     entry.Date,
				Location: string(entry.Location),
				Shift:    string(entry.Shift),
			})
			current = &published.Rows[len(published.Rows)-1]
			if !leaveShown[entry.Date] {
				current.OnLeave = onLeave[entry.Date]
				leaveShown[entry.Date] = true
			}
		}
		current.Workers = append(current.Workers, displayName(entry.WorkerID))
	}

	logger.Debug("Built published roster",
		zap.String("start_date", start),
		zap.String("end_date", end),
		zap.Int("rows", len(published.Rows)))

	return published, nil
}

// PublishRoster builds the roster for a range and hands it to the publisher
func PublishRoster(ctx context.Context, database PublishRosterStore, publisher RosterPublisher, logger *zap.Logger, spreadsheetID, start, end string) (*sheetsclient.PublishedRoster, error) {
	published, err := BuildPublishedRoster(ctx, database, logger, start, end)
	if err != nil {
		return nil, err
	}

	if err := publisher.PublishRoster(spreadsheetID, published); err != nil {
		return nil, apperr.Upstream(err, "failed to publish roster")
	}

	logger.Info("Published roster",
		zap.String("start_date", start),
		zap.String("end_date", end),
		zap.Int("rows", len(published.Rows)))

	return published, nil
}
