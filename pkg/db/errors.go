package db

import "errors"

var (
	// ErrNotFound is returned when a record addressed by id does not exist
	ErrNotFound = errors.New("record not found")

	// ErrLeaveOverlap is returned by InsertPendingLeave when the worker already
	// holds a pending application overlapping the new one
	ErrLeaveOverlap = errors.New("overlapping pending leave")
)
