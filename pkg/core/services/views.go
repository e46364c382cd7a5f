package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/db"
)

// ViewRosterStore defines the database operations needed for roster views
type ViewRosterStore interface {
	ListAssignments(ctx context.Context, filter db.AssignmentFilter) ([]db.Assignment, error)
	ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error)
}

// LeaveDay describes one worker's approved leave on one day
type LeaveDay struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

// PlannerView is the full roster matrix plus approved leave for a range
type PlannerView struct {
	StartDate     string                         `json:"start_date"`
	EndDate       string                         `json:"end_date"`
	Assignments   model.Roster                   `json:"assignments"`
	ApprovedLeave map[string]map[string]LeaveDay `json:"approved_leave"`
}

// ViewForPlanner returns every assignment and approved leave day in the range
func ViewForPlanner(ctx context.Context, database ViewRosterStore, logger *zap.Logger, start, end string) (*PlannerView, error) {
	if _, _, err := validateSpan(start, end); err != nil {
		return nil, err
	}

	assignments, err := database.ListAssignments(ctx, db.AssignmentFilter{Start: start, End: end})
	if err != nil {
		return nil, storeErr(err, "fetch assignments")
	}
	approved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{Start: start, End: end})
	if err != nil {
		return nil, storeErr(err, "fetch approved leave")
	}

	roster := model.Roster{}
	for _, a := range assignments {
		roster.Add(a.Date, model.Location(a.Location), model.Shift(a.Shift), a.WorkerID)
	}

	leave := make(map[string]map[string]LeaveDay)
	for _, l := range approved {
		if leave[l.Date] == nil {
			leave[l.Date] = make(map[string]LeaveDay)
		}
		leave[l.Date][l.WorkerID] = LeaveDay{Category: l.Category, Subcategory: l.Subcategory}
	}

	logger.Debug("Built planner view",
		zap.String("start_date", start),
		zap.String("end_date", end),
		zap.Int("assignments", len(assignments)),
		zap.Int("leave_days", len(approved)))

	return &PlannerView{StartDate: start, EndDate: end, Assignments: roster, ApprovedLeave: leave}, nil
}

// ViewForWorker returns the worker's status per day: "On Leave" for an
// approved leave day, otherwise the earliest shift that day such as
// "Morning (A)". Days with neither are absent.
func ViewForWorker(ctx context.Context, database ViewRosterStore, logger *zap.Logger, workerID, start, end string) (map[string]string, error) {
	if strings.TrimSpace(workerID) == "" {
		return nil, apperr.InvalidArgument("worker id is required")
	}
	if _, _, err := validateSpan(start, end); err != nil {
		return nil, err
	}

	assignments, err := database.ListAssignments(ctx, db.AssignmentFilter{WorkerID: workerID, Start: start, End: end})
	if err != nil {
		return nil, storeErr(err, "fetch assignments")
	}
	approved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{WorkerID: workerID, Start: start, End: end})
	if err != nil {
		return nil, storeErr(err, "fetch approved leave")
	}

	first := make(map[string]db.Assignment)
	for _, a := range assignments {
		current, ok := first[a.Date]
		if !ok || earlierShift(a, current) {
			first[a.Date] = a
		}
	}

	status := make(map[string]string, len(first)+len(approved))
	for date, a := range first {
		status[date] = model.ShiftLabel(model.Shift(a.Shift), model.Location(a.Location))
	}
	// leave wins over any shift on the same day
	for _, l := range approved {
		status[l.Date] = model.OnLeaveLabel
	}

	logger.Debug("Built worker view", zap.String("worker_id", workerID), zap.Int("days", len(status)))

	return status, nil
}

func earlierShift(a, b db.Assignment) bool {
	ao, bo := model.Shift(a.Shift).Order(), model.Shift(b.Shift).Order()
	if ao != bo {
		return ao < bo
	}
	return a.Location < b.Location
}

// RosterView is what a caller is allowed to see. Planners get the full
// matrix, contributors get only their own schedule.
type RosterView struct {
	Role     model.Role        `json:"role"`
	Planner  *PlannerView      `json:"planner,omitempty"`
	Schedule map[string]string `json:"schedule,omitempty"`
}

// ViewRoster picks the view for the caller's role
func ViewRoster(ctx context.Context, database ViewRosterStore, logger *zap.Logger, caller model.Caller, start, end string) (*RosterView, error) {
	switch caller.Role {
	case model.RolePlanner:
		view, err := ViewForPlanner(ctx, database, logger, start, end)
		if err != nil {
			return nil, err
		}
		return &RosterView{Role: caller.Role, Planner: view}, nil
	case model.RoleContributor:
		schedule, err := ViewForWorker(ctx, database, logger, caller.WorkerID, start, end)
		if err != nil {
			return nil, err
		}
		return &RosterView{Role: caller.Role, Schedule: schedule}, nil
	}
	return nil, apperr.InvalidArgument("unknown role %q", caller.Role)
}
