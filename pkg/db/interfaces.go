package db

import "context"

// Database defines the interface for all database operations.
// Both the in-memory db.Memory and postgres.DB implement this interface.
type Database interface {
	ListWorkers(ctx context.Context) ([]Worker, error)
	GetWorker(ctx context.Context, id string) (*Worker, error)
	UpsertWorkers(ctx context.Context, workers []Worker) error
	IncrementDeploymentCount(ctx context.Context, workerID string) (*Worker, error)

	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	// ReplaceAssignments deletes every assignment on the given dates and inserts
	// rows in a single unit of work
	ReplaceAssignments(ctx context.Context, dates []string, rows []Assignment) error
	// ReassignWorker hands from's earliest shift on date to worker to
	ReassignWorker(ctx context.Context, date, from, to string) (*Assignment, error)

	ListPendingLeave(ctx context.Context, workerID string) ([]PendingLeave, error)
	GetPendingLeave(ctx context.Context, id string) (*PendingLeave, error)
	// InsertPendingLeave stores the application unless the worker already holds
	// an overlapping pending application, in which case it returns ErrLeaveOverlap
	InsertPendingLeave(ctx context.Context, leave PendingLeave) error
	// ApprovePendingLeave inserts the approved days and removes the pending row
	ApprovePendingLeave(ctx context.Context, pendingID string, days []ApprovedLeave) error
	// RejectPendingLeave inserts the rejected record and removes the pending row
	RejectPendingLeave(ctx context.Context, pendingID string, rejected RejectedLeave) error

	ListApprovedLeave(ctx context.Context, filter LeaveFilter) ([]ApprovedLeave, error)
	ListRejectedLeave(ctx context.Context, workerID string) ([]RejectedLeave, error)
}
