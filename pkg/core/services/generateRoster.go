package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/internal/config"
	"github.com/jakechorley/shift-roster/pkg/clients/solverclient"
	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/dates"
	"github.com/jakechorley/shift-roster/pkg/core/demand"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/db"
)

// Solver decides which workers fill which slots
type Solver interface {
	Solve(ctx context.Context, req solverclient.Request) (*solverclient.Response, error)
}

// GenerateRosterStore defines the database operations needed for generating a roster
type GenerateRosterStore interface {
	ListWorkers(ctx context.Context) ([]db.Worker, error)
	ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error)
	ReplaceAssignments(ctx context.Context, dates []string, rows []db.Assignment) error
}

// GenerateRosterRequest asks for every day in [StartDate, EndDate] to be staffed
// at each location in Requirements
type GenerateRosterRequest struct {
	StartDate    string              `json:"start_date" validate:"required,date"`
	EndDate      string              `json:"end_date" validate:"required,date"`
	Requirements demand.Requirements `json:"requirements"`
}

// GenerateRosterResult contains the persisted roster and the solver's log
type GenerateRosterResult struct {
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Roster      model.Roster    `json:"roster"`
	Logs        []string        `json:"logs"`
	Assignments []db.Assignment `json:"assignments"`
}

// GenerateRoster builds the demand for the range, asks the solver to fill it
// and replaces every assignment in the range with the solver's answer.
// Nothing is written unless the solver succeeds.
func GenerateRoster(
	ctx context.Context,
	database GenerateRosterStore,
	solver Solver,
	logger *zap.Logger,
	overrides []config.RequirementOverride,
	req GenerateRosterRequest,
) (*GenerateRosterResult, error) {
	logger.Debug("Starting generateRoster",
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate))

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	_, days, err := validateSpan(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := req.Requirements.Validate(); err != nil {
		return nil, apperr.InvalidArgument("invalid requirements: %v", err)
	}

	demandOverrides, err := buildDemandOverrides(overrides, req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperr.InvalidArgument("%v", err)
	}

	// Step 1: Contributors offered to the solver
	logger.Debug("Fetching workers")
	workers, err := database.ListWorkers(ctx)
	if err != nil {
		return nil, storeErr(err, "fetch workers")
	}
	solverWorkers := make([]solverclient.Worker, 0, len(workers))
	for _, w := range workers {
		if model.Role(w.Role) == model.RoleContributor {
			solverWorkers = append(solverWorkers, solverclient.Worker{ID: w.ID, Grade: w.Grade})
		}
	}
	logger.Debug("Found contributors", zap.Int("count", len(solverWorkers)))

	// Step 2: Approved leave per worker
	logger.Debug("Fetching approved leave")
	approved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{})
	if err != nil {
		return nil, storeErr(err, "fetch approved leave")
	}
	leaveData := leaveDaysByWorker(approved)

	// Step 3: One demand line per day, location and shift
	lines := demand.BuildLines(days, req.Requirements, demandOverrides)
	requests := make([]solverclient.DemandLine, 0, len(lines))
	for _, line := range lines {
		requests = append(requests, solverclient.DemandLine{
			Date:                  line.Date,
			Location:              line.Location,
			Shift:                 line.Shift,
			RequiredProficiencies: line.RequiredByGrade,
		})
	}
	logger.Debug("Built demand",
		zap.Int("days", len(days)),
		zap.Int("demand_lines", len(requests)),
		zap.Int("overrides", len(demandOverrides)))

	// Step 4: Solve
	resp, err := solver.Solve(ctx, solverclient.Request{
		Workers:   solverWorkers,
		Requests:  requests,
		LeaveData: leaveData,
	})
	if err != nil {
		logger.Warn("Solver failed, roster left unchanged", zap.Error(err))
		return nil, apperr.Upstream(err, "solver failed")
	}

	// Step 5: Replace the range
	rows := assignmentsFromRoster(resp.Roster)
	if err := database.ReplaceAssignments(ctx, days, rows); err != nil {
		return nil, storeErr(err, "save roster")
	}

	logger.Info("Roster generated",
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.Int("assignments", len(rows)))

	return &GenerateRosterResult{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Roster:      resp.Roster,
		Logs:        resp.Logs,
		Assignments: rows,
	}, nil
}

// ApproveRosterStore defines the database operations needed for approving an edited roster
type ApproveRosterStore interface {
	ReplaceAssignments(ctx context.Context, dates []string, rows []db.Assignment) error
}

// ApproveRosterResult lists the days that were overwritten
type ApproveRosterResult struct {
	Dates       []string        `json:"dates"`
	Assignments []db.Assignment `json:"assignments"`
}

// ApproveRoster saves a planner-edited roster without calling the solver.
// Each calendar day present in the roster is overwritten; other days are untouched.
func ApproveRoster(ctx context.Context, database ApproveRosterStore, logger *zap.Logger, roster model.Roster) (*ApproveRosterResult, error) {
	if len(roster) == 0 {
		return nil, apperr.InvalidArgument("roster has no dates")
	}

	for date, byLocation := range roster {
		if _, err := dates.Parse(date); err != nil {
			return nil, apperr.InvalidArgument("%v", err)
		}
		for location, byShift := range byLocation {
			if !location.IsValid() {
				return nil, apperr.InvalidArgument("unknown location %q on %s", location, date)
			}
			for shift, workerIDs := range byShift {
				if !shift.IsValid() {
					return nil, apperr.InvalidArgument("unknown shift %q on %s", shift, date)
				}
				for _, id := range workerIDs {
					if id == "" {
						return nil, apperr.InvalidArgument("empty worker id in %s %s %s", date, location, shift)
					}
				}
			}
		}
	}

	days := roster.Dates()
	rows := assignmentsFromRoster(roster)
	logger.Debug("Approving roster", zap.Strings("dates", days), zap.Int("assignments", len(rows)))

	if err := database.ReplaceAssignments(ctx, days, rows); err != nil {
		return nil, storeErr(err, "save approved roster")
	}

	logger.Info("Roster approved", zap.Int("dates", len(days)), zap.Int("assignments", len(rows)))

	return &ApproveRosterResult{Dates: days, Assignments: rows}, nil
}

func assignmentsFromRoster(roster model.Roster) []db.Assignment {
	entries := roster.Entries()
	rows := make([]db.Assignment, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, db.Assignment{
			ID:       uuid.New().String(),
			WorkerID: e.WorkerID,
			Date:     e.Date,
			Location: string(e.Location),
			Shift:    string(e.Shift),
		})
	}
	return rows
}

// buildDemandOverrides expands each configured rrule over the requested range
// and turns it into a date matcher
func buildDemandOverrides(overrides []config.RequirementOverride, start, end string) ([]demand.Override, error) {
	if len(overrides) == 0 {
		return nil, nil
	}

	startTime, err := dates.Parse(start)
	if err != nil {
		return nil, err
	}
	endTime, err := dates.Parse(end)
	if err != nil {
		return nil, err
	}

	result := make([]demand.Override, 0, len(overrides))
	for i, override := range overrides {
		rule, err := rrule.StrToRRule(override.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}

		// anchor a week early so weekly rules without DTSTART still land inside the range
		rule.DTStart(startTime.AddDate(0, 0, -7))
		matches := make(map[string]bool)
		for _, occurrence := range rule.Between(startTime, endTime, true) {
			matches[dates.Format(occurrence)] = true
		}

		o := demand.Override{
			AppliesTo:    func(date string) bool { return matches[date] },
			Location:     override.OverrideLocation(),
			Requirements: override.Requirements,
		}
		if err := demand.ValidateOverride(o); err != nil {
			return nil, fmt.Errorf("override %d: %w", i, err)
		}
		result = append(result, o)
	}

	return result, nil
}
