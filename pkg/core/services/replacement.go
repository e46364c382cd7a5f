package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/dates"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/core/ranking"
	"github.com/jakechorley/shift-roster/pkg/db"
)

// FindReplacementsStore defines the database operations needed for ranking replacements
type FindReplacementsStore interface {
	ListWorkers(ctx context.Context) ([]db.Worker, error)
	ListAssignments(ctx context.Context, filter db.AssignmentFilter) ([]db.Assignment, error)
	ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error)
}

// FindReplacements lists the contributors who could cover a shift on date,
// best candidate first. An empty list means nobody is available.
func FindReplacements(ctx context.Context, database FindReplacementsStore, logger *zap.Logger, date string, minGrade int) ([]ranking.Candidate, error) {
	if _, err := dates.Parse(date); err != nil {
		return nil, apperr.InvalidArgument("%v", err)
	}
	if !model.ValidGrade(minGrade) {
		return nil, apperr.InvalidArgument("minimum grade must be between %d and %d, got %d", model.MinGrade, model.MaxGrade, minGrade)
	}

	logger.Debug("Finding replacements", zap.String("date", date), zap.Int("min_grade", minGrade))

	workers, err := database.ListWorkers(ctx)
	if err != nil {
		return nil, storeErr(err, "fetch workers")
	}

	assignments, err := database.ListAssignments(ctx, db.AssignmentFilter{Start: date, End: date})
	if err != nil {
		return nil, storeErr(err, "fetch assignments for %s", date)
	}
	busy := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		busy[a.WorkerID] = true
	}

	approved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{Start: date, End: date})
	if err != nil {
		return nil, storeErr(err, "fetch approved leave for %s", date)
	}
	onLeave := make(map[string]bool, len(approved))
	for _, l := range approved {
		onLeave[l.WorkerID] = true
	}

	pool := make([]model.Worker, 0, len(workers))
	for _, w := range workers {
		pool = append(pool, toModelWorker(w))
	}

	candidates := ranking.Rank(pool, busy, onLeave, minGrade)
	if len(candidates) == 0 {
		logger.Warn("No replacement available", zap.String("date", date), zap.Int("min_grade", minGrade))
	} else {
		logger.Info("Replacements ranked", zap.String("date", date), zap.Int("candidates", len(candidates)))
	}

	return candidates, nil
}

// Steps of the replacement saga, in execution order
const (
	StepSwapAssignment      = "swap_assignment"
	StepApproveLeave        = "approve_leave"
	StepIncrementDeployment = "increment_deployment"
	StepNotify              = "notify"
)

// Step statuses
const (
	StepDone    = "done"
	StepSkipped = "skipped"
	StepFailed  = "failed"
)

// StepOutcome records what one saga step did
type StepOutcome struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ReplacementStepError reports the step that failed and the steps that had
// already taken effect. Completed steps are not undone.
type ReplacementStepError struct {
	Step      string
	Completed []string
	Err       error
}

func (e *ReplacementStepError) Error() string {
	completed := "none"
	if len(e.Completed) > 0 {
		completed = strings.Join(e.Completed, ", ")
	}
	return fmt.Sprintf("replacement step %s failed (completed: %s): %v", e.Step, completed, e.Err)
}

func (e *ReplacementStepError) Unwrap() error {
	return e.Err
}

// Notifier delivers a message to a worker
type Notifier interface {
	SendEmail(to, subject, body string) error
}

// ReplaceShiftStore defines the database operations needed for replacing a shift
type ReplaceShiftStore interface {
	GetWorker(ctx context.Context, id string) (*db.Worker, error)
	ReassignWorker(ctx context.Context, date, from, to string) (*db.Assignment, error)
	GetPendingLeave(ctx context.Context, id string) (*db.PendingLeave, error)
	ApprovePendingLeave(ctx context.Context, pendingID string, days []db.ApprovedLeave) error
	ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error)
	IncrementDeploymentCount(ctx context.Context, workerID string) (*db.Worker, error)
}

// ReplaceShiftRequest hands the applicant's shift on Date to the replacement
// and settles the leave application that vacated it
type ReplaceShiftRequest struct {
	LeaveID       string `json:"leave_id" validate:"required"`
	ApplicantID   string `json:"applicant_id" validate:"required"`
	ReplacementID string `json:"replacement_id" validate:"required,nefield=ApplicantID"`
	Date          string `json:"date" validate:"required,date"`
}

// ReplaceShiftResult contains the moved assignment and every step's outcome
type ReplaceShiftResult struct {
	Assignment   *db.Assignment     `json:"assignment"`
	ApprovedDays []db.ApprovedLeave `json:"approved_days,omitempty"`
	Replacement  *db.Worker         `json:"replacement"`
	Steps        []StepOutcome      `json:"steps"`
}

// ReplaceShift runs the replacement as a sequence of steps with no rollback:
// move the assignment, approve the leave, count the deployment, then notify
// the replacement. A failing step returns *ReplacementStepError naming the
// steps that already took effect. Notification failures are recorded but
// never fail the replacement.
func ReplaceShift(ctx context.Context, database ReplaceShiftStore, notifier Notifier, logger *zap.Logger, req ReplaceShiftRequest) (*ReplaceShiftResult, error) {
	logger.Debug("Starting replaceShift",
		zap.String("leave_id", req.LeaveID),
		zap.String("applicant_id", req.ApplicantID),
		zap.String("replacement_id", req.ReplacementID),
		zap.String("date", req.Date))

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	replacement, err := database.GetWorker(ctx, req.ReplacementID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("replacement worker %s not found", req.ReplacementID)
	}
	if err != nil {
		return nil, storeErr(err, "fetch worker %s", req.ReplacementID)
	}
	if model.Role(replacement.Role) != model.RoleContributor {
		return nil, apperr.InvalidArgument("replacement worker %s is not a contributor", req.ReplacementID)
	}

	pending, err := resolveLeave(ctx, database, req)
	if err != nil {
		return nil, err
	}

	result := &ReplaceShiftResult{}
	var completed []string
	fail := func(step string, err error) (*ReplaceShiftResult, error) {
		result.Steps = append(result.Steps, StepOutcome{Step: step, Status: StepFailed, Detail: err.Error()})
		logger.Warn("Replacement step failed",
			zap.String("step", step),
			zap.Strings("completed", completed),
			zap.Error(err))
		return result, &ReplacementStepError{Step: step, Completed: completed, Err: err}
	}
	done := func(step, detail string) {
		completed = append(completed, step)
		result.Steps = append(result.Steps, StepOutcome{Step: step, Status: StepDone, Detail: detail})
		logger.Debug("Replacement step done", zap.String("step", step))
	}

	// swap_assignment
	assignment, err := database.ReassignWorker(ctx, req.Date, req.ApplicantID, req.ReplacementID)
	if errors.Is(err, db.ErrNotFound) {
		return fail(StepSwapAssignment, apperr.NotFound("worker %s has no assignment on %s", req.ApplicantID, req.Date))
	}
	if err != nil {
		return fail(StepSwapAssignment, storeErr(err, "reassign shift"))
	}
	result.Assignment = assignment
	done(StepSwapAssignment, model.ShiftLabel(model.Shift(assignment.Shift), model.Location(assignment.Location)))

	// approve_leave
	if pending == nil {
		result.Steps = append(result.Steps, StepOutcome{Step: StepApproveLeave, Status: StepSkipped, Detail: "leave already approved"})
	} else {
		days, err := explodeLeave(*pending)
		if err != nil {
			return fail(StepApproveLeave, err)
		}
		err = database.ApprovePendingLeave(ctx, pending.ID, days)
		switch {
		case errors.Is(err, db.ErrNotFound):
			// approved concurrently; accept it if the day is now covered
			if ok, lookupErr := approvedFromApplication(ctx, database, req); lookupErr != nil {
				return fail(StepApproveLeave, lookupErr)
			} else if !ok {
				return fail(StepApproveLeave, apperr.NotFound("leave %s no longer pending and not approved for %s", req.LeaveID, req.Date))
			}
			result.Steps = append(result.Steps, StepOutcome{Step: StepApproveLeave, Status: StepSkipped, Detail: "leave approved concurrently"})
		case err != nil:
			return fail(StepApproveLeave, storeErr(err, "approve leave %s", pending.ID))
		default:
			result.ApprovedDays = days
			done(StepApproveLeave, fmt.Sprintf("%d days approved", len(days)))
		}
	}

	// increment_deployment
	updated, err := database.IncrementDeploymentCount(ctx, req.ReplacementID)
	if errors.Is(err, db.ErrNotFound) {
		return fail(StepIncrementDeployment, apperr.NotFound("replacement worker %s not found", req.ReplacementID))
	}
	if err != nil {
		return fail(StepIncrementDeployment, storeErr(err, "increment deployment count"))
	}
	result.Replacement = updated
	done(StepIncrementDeployment, fmt.Sprintf("deployment count %d", updated.DeploymentCount))

	// notify, best effort
	result.Steps = append(result.Steps, notifyReplacement(notifier, logger, updated, assignment))

	logger.Info("Shift replaced",
		zap.String("date", req.Date),
		zap.String("applicant_id", req.ApplicantID),
		zap.String("replacement_id", req.ReplacementID),
		zap.String("assignment_id", assignment.ID))

	return result, nil
}

// resolveLeave returns the pending application to approve, or nil when the
// application has already been approved for the applicant on the date
func resolveLeave(ctx context.Context, database ReplaceShiftStore, req ReplaceShiftRequest) (*db.PendingLeave, error) {
	pending, err := database.GetPendingLeave(ctx, req.LeaveID)
	if err == nil {
		if pending.WorkerID != req.ApplicantID {
			return nil, apperr.InvalidArgument("leave %s belongs to %s, not %s", req.LeaveID, pending.WorkerID, req.ApplicantID)
		}
		if !dates.Within(req.Date, pending.StartDate, pending.EndDate) {
			return nil, apperr.InvalidArgument("leave %s does not cover %s", req.LeaveID, req.Date)
		}
		return pending, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, storeErr(err, "fetch pending leave %s", req.LeaveID)
	}

	ok, err := approvedFromApplication(ctx, database, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("leave %s not found for worker %s on %s", req.LeaveID, req.ApplicantID, req.Date)
	}
	return nil, nil
}

func approvedFromApplication(ctx context.Context, database ReplaceShiftStore, req ReplaceShiftRequest) (bool, error) {
	approved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{WorkerID: req.ApplicantID, Start: req.Date, End: req.Date})
	if err != nil {
		return false, storeErr(err, "fetch approved leave")
	}
	for _, l := range approved {
		if l.ApplicationID == req.LeaveID {
			return true, nil
		}
	}
	return false, nil
}

func notifyReplacement(notifier Notifier, logger *zap.Logger, worker *db.Worker, assignment *db.Assignment) StepOutcome {
	if notifier == nil {
		return StepOutcome{Step: StepNotify, Status: StepSkipped, Detail: "no notifier configured"}
	}
	if worker.Email == "" {
		return StepOutcome{Step: StepNotify, Status: StepSkipped, Detail: "worker has no email"}
	}

	label := model.ShiftLabel(model.Shift(assignment.Shift), model.Location(assignment.Location))
	subject := fmt.Sprintf("Shift assigned: %s %s", assignment.Date, label)
	body := fmt.Sprintf("Hi %s,\n\nYou have been assigned to cover the %s shift on %s.\n", worker.Name, label, assignment.Date)

	if err := notifier.SendEmail(worker.Email, subject, body); err != nil {
		logger.Warn("Failed to notify replacement", zap.String("worker_id", worker.ID), zap.Error(err))
		return StepOutcome{Step: StepNotify, Status: StepFailed, Detail: err.Error()}
	}
	return StepOutcome{Step: StepNotify, Status: StepDone, Detail: worker.Email}
}
