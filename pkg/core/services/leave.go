package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/leaveguard"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/db"
)

// ApplyLeaveStore defines the database operations needed for applying for leave
type ApplyLeaveStore interface {
	GetWorker(ctx context.Context, id string) (*db.Worker, error)
	ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error)
	ListPendingLeave(ctx context.Context, workerID string) ([]db.PendingLeave, error)
	InsertPendingLeave(ctx context.Context, leave db.PendingLeave) error
}

// ApplyLeaveRequest is a worker's application for an inclusive range of days
type ApplyLeaveRequest struct {
	WorkerID    string `json:"worker_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"required,date"`
	EndDate     string `json:"end_date" validate:"required,date"`
	Category    string `json:"category" validate:"required,oneof=Block Advance"`
	Subcategory string `json:"subcategory,omitempty" validate:"required_if=Category Advance"`
	Remarks     string `json:"remarks,omitempty" validate:"max=500"`
}

// ApplyLeaveResult contains the stored application and any quota warning
type ApplyLeaveResult struct {
	Leave             db.PendingLeave `json:"leave"`
	QuotaWarningDates []string        `json:"quota_warning_dates,omitempty"`
	Warning           string          `json:"warning,omitempty"`
}

// ApplyLeave records a pending leave application.
// It rejects ranges that clash with the worker's approved days or pending
// applications. A day whose approved count has reached quota only produces a warning.
func ApplyLeave(ctx context.Context, database ApplyLeaveStore, logger *zap.Logger, quota int, req ApplyLeaveRequest) (*ApplyLeaveResult, error) {
	logger.Debug("Applying for leave",
		zap.String("worker_id", req.WorkerID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.String("category", req.Category))

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	span, _, err := validateSpan(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if quota <= 0 {
		quota = leaveguard.DefaultDailyQuota
	}

	if _, err := database.GetWorker(ctx, req.WorkerID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("worker %s not found", req.WorkerID)
		}
		return nil, storeErr(err, "fetch worker %s", req.WorkerID)
	}

	// Already approved days inside the range
	ownApproved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{WorkerID: req.WorkerID, Start: span.Start, End: span.End})
	if err != nil {
		return nil, storeErr(err, "fetch approved leave")
	}
	approvedDays := make([]string, 0, len(ownApproved))
	for _, l := range ownApproved {
		approvedDays = append(approvedDays, l.Date)
	}
	if clash := leaveguard.ApprovedWithin(span, approvedDays); len(clash) > 0 {
		logger.Warn("Leave application rejected, approved leave already exists",
			zap.String("worker_id", req.WorkerID),
			zap.Strings("dates", clash))
		return nil, apperr.Conflict("worker %s already has approved leave on %s", req.WorkerID, strings.Join(clash, ", "))
	}

	// Pending applications overlapping the range
	pending, err := database.ListPendingLeave(ctx, req.WorkerID)
	if err != nil {
		return nil, storeErr(err, "fetch pending leave")
	}
	if existing, ok := leaveguard.FindOverlap(span, pendingSpans(pending)); ok {
		logger.Warn("Leave application rejected, overlaps pending application",
			zap.String("worker_id", req.WorkerID),
			zap.String("existing_start", existing.Start),
			zap.String("existing_end", existing.End))
		return nil, apperr.Conflict("overlaps pending application %s to %s", existing.Start, existing.End)
	}

	// Advisory daily quota
	allApproved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{Start: span.Start, End: span.End})
	if err != nil {
		return nil, storeErr(err, "count approved leave")
	}
	counts := make(map[string]int)
	for _, l := range allApproved {
		counts[l.Date]++
	}
	breaches, err := leaveguard.QuotaBreaches(span, counts, quota)
	if err != nil {
		return nil, apperr.InvalidArgument("%v", err)
	}
	warning := leaveguard.FormatQuotaWarning(breaches, quota)
	if warning != "" {
		logger.Warn("Daily leave quota reached", zap.Strings("dates", breaches), zap.Int("quota", quota))
	}

	leave := db.PendingLeave{
		ID:          uuid.New().String(),
		WorkerID:    req.WorkerID,
		StartDate:   span.Start,
		EndDate:     span.End,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Remarks:     req.Remarks,
		AppliedAt:   now(),
	}
	if err := database.InsertPendingLeave(ctx, leave); err != nil {
		if errors.Is(err, db.ErrLeaveOverlap) {
			logger.Warn("Leave application lost race with overlapping application", zap.String("worker_id", req.WorkerID))
			return nil, apperr.Conflict("overlaps a pending application for worker %s", req.WorkerID)
		}
		return nil, storeErr(err, "save leave application")
	}

	logger.Info("Leave application submitted",
		zap.String("leave_id", leave.ID),
		zap.String("worker_id", leave.WorkerID),
		zap.Int("quota_warnings", len(breaches)))

	return &ApplyLeaveResult{
		Leave:             leave,
		QuotaWarningDates: breaches,
		Warning:           warning,
	}, nil
}

func pendingSpans(pending []db.PendingLeave) []leaveguard.Span {
	spans := make([]leaveguard.Span, 0, len(pending))
	for _, p := range pending {
		spans = append(spans, leaveguard.Span{Start: p.StartDate, End: p.EndDate})
	}
	return spans
}

// ApproveLeaveStore defines the database operations needed for approving leave
type ApproveLeaveStore interface {
	GetPendingLeave(ctx context.Context, id string) (*db.PendingLeave, error)
	ApprovePendingLeave(ctx context.Context, pendingID string, days []db.ApprovedLeave) error
}

// ApproveLeaveResult lists the approved days created from the application
type ApproveLeaveResult struct {
	PendingID string             `json:"pending_id"`
	WorkerID  string             `json:"worker_id"`
	Days      []db.ApprovedLeave `json:"days"`
}

// ApproveLeave turns a pending application into one approved row per day
func ApproveLeave(ctx context.Context, database ApproveLeaveStore, logger *zap.Logger, pendingID string) (*ApproveLeaveResult, error) {
	if strings.TrimSpace(pendingID) == "" {
		return nil, apperr.InvalidArgument("leave id is required")
	}

	logger.Debug("Approving leave", zap.String("leave_id", pendingID))

	pending, err := loadPending(ctx, database, pendingID)
	if err != nil {
		return nil, err
	}
	days, err := explodeLeave(*pending)
	if err != nil {
		return nil, err
	}

	if err := database.ApprovePendingLeave(ctx, pendingID, days); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("pending leave %s not found", pendingID)
		}
		return nil, storeErr(err, "approve leave %s", pendingID)
	}

	logger.Info("Leave approved",
		zap.String("leave_id", pendingID),
		zap.String("worker_id", pending.WorkerID),
		zap.Int("days", len(days)))

	return &ApproveLeaveResult{PendingID: pendingID, WorkerID: pending.WorkerID, Days: days}, nil
}

type pendingGetter interface {
	GetPendingLeave(ctx context.Context, id string) (*db.PendingLeave, error)
}

func loadPending(ctx context.Context, database pendingGetter, pendingID string) (*db.PendingLeave, error) {
	pending, err := database.GetPendingLeave(ctx, pendingID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.NotFound("pending leave %s not found", pendingID)
	}
	if err != nil {
		return nil, storeErr(err, "fetch pending leave %s", pendingID)
	}
	return pending, nil
}

// explodeLeave produces one approved row per calendar day of the application
func explodeLeave(p db.PendingLeave) ([]db.ApprovedLeave, error) {
	span := leaveguard.Span{Start: p.StartDate, End: p.EndDate}
	days, err := span.Days()
	if err != nil {
		return nil, apperr.Internal(err, "stored leave %s has an invalid range", p.ID)
	}

	approvedAt := now()
	label := model.LeaveCategory(p.Category).Label()
	rows := make([]db.ApprovedLeave, 0, len(days))
	for _, day := range days {
		rows = append(rows, db.ApprovedLeave{
			ID:            uuid.New().String(),
			ApplicationID: p.ID,
			WorkerID:      p.WorkerID,
			Date:          day,
			Category:      label,
			Subcategory:   p.Subcategory,
			ApprovedAt:    approvedAt,
		})
	}
	return rows, nil
}

// RejectLeaveStore defines the database operations needed for rejecting leave
type RejectLeaveStore interface {
	GetPendingLeave(ctx context.Context, id string) (*db.PendingLeave, error)
	RejectPendingLeave(ctx context.Context, pendingID string, rejected db.RejectedLeave) error
}

// RejectLeave records the planner's reason and closes the application
func RejectLeave(ctx context.Context, database RejectLeaveStore, logger *zap.Logger, pendingID, reason string) (*db.RejectedLeave, error) {
	if strings.TrimSpace(pendingID) == "" {
		return nil, apperr.InvalidArgument("leave id is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.InvalidArgument("rejection reason is required")
	}

	logger.Debug("Rejecting leave", zap.String("leave_id", pendingID))

	pending, err := loadPending(ctx, database, pendingID)
	if err != nil {
		return nil, err
	}

	rejected := db.RejectedLeave{
		ID:              uuid.New().String(),
		WorkerID:        pending.WorkerID,
		StartDate:       pending.StartDate,
		EndDate:         pending.EndDate,
		Category:        pending.Category,
		Subcategory:     pending.Subcategory,
		Remarks:         pending.Remarks,
		RejectionReason: reason,
		AppliedAt:       pending.AppliedAt,
		RejectedAt:      now(),
	}

	if err := database.RejectPendingLeave(ctx, pendingID, rejected); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("pending leave %s not found", pendingID)
		}
		return nil, storeErr(err, "reject leave %s", pendingID)
	}

	logger.Info("Leave rejected", zap.String("leave_id", pendingID), zap.String("worker_id", pending.WorkerID))

	return &rejected, nil
}

// ListPendingLeaveStore defines the database operations needed for the planner's inbox
type ListPendingLeaveStore interface {
	ListPendingLeave(ctx context.Context, workerID string) ([]db.PendingLeave, error)
}

// ListPendingLeave returns pending applications oldest first. An empty
// workerID lists every worker.
func ListPendingLeave(ctx context.Context, database ListPendingLeaveStore, logger *zap.Logger, workerID string) ([]db.PendingLeave, error) {
	pending, err := database.ListPendingLeave(ctx, workerID)
	if err != nil {
		return nil, storeErr(err, "fetch pending leave")
	}
	logger.Debug("Listed pending leave", zap.String("worker_id", workerID), zap.Int("count", len(pending)))
	if pending == nil {
		pending = []db.PendingLeave{}
	}
	return pending, nil
}

// LeaveHistoryStore defines the database operations needed for a worker's leave history
type LeaveHistoryStore interface {
	ListPendingLeave(ctx context.Context, workerID string) ([]db.PendingLeave, error)
	ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error)
	ListRejectedLeave(ctx context.Context, workerID string) ([]db.RejectedLeave, error)
}

// LeaveHistory groups a worker's applications by state
type LeaveHistory struct {
	WorkerID string             `json:"worker_id"`
	Pending  []db.PendingLeave  `json:"pending"`
	Approved []db.ApprovedLeave `json:"approved"`
	Rejected []db.RejectedLeave `json:"rejected"`
}

// GetLeaveHistory returns every application a worker has made in each state
func GetLeaveHistory(ctx context.Context, database LeaveHistoryStore, logger *zap.Logger, workerID string) (*LeaveHistory, error) {
	if strings.TrimSpace(workerID) == "" {
		return nil, apperr.InvalidArgument("worker id is required")
	}

	pending, err := database.ListPendingLeave(ctx, workerID)
	if err != nil {
		return nil, storeErr(err, "fetch pending leave")
	}
	approved, err := database.ListApprovedLeave(ctx, db.LeaveFilter{WorkerID: workerID})
	if err != nil {
		return nil, storeErr(err, "fetch approved leave")
	}
	rejected, err := database.ListRejectedLeave(ctx, workerID)
	if err != nil {
		return nil, storeErr(err, "fetch rejected leave")
	}

	logger.Debug("Fetched leave history",
		zap.String("worker_id", workerID),
		zap.Int("pending", len(pending)),
		zap.Int("approved", len(approved)),
		zap.Int("rejected", len(rejected)))

	return &LeaveHistory{WorkerID: workerID, Pending: pending, Approved: approved, Rejected: rejected}, nil
}
