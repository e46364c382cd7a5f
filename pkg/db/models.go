package db

import (
	"sort"
	"time"

	"github.com/jakechorley/shift-roster/pkg/core/model"
)

// Worker represents a database worker record
type Worker struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email,omitempty"`
	Grade           int    `json:"grade"`
	Role            string `json:"role"`
	DeploymentCount int    `json:"deployment_count"`
}

// Assignment represents one worker placed in one (date, location, shift) slot.
// A worker may hold more than one assignment on the same date.
type Assignment struct {
	ID       string `json:"id"`
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Shift    string `json:"shift"`
}

// PendingLeave represents a leave application awaiting a planner decision
type PendingLeave struct {
	ID          string    `json:"id"`
	WorkerID    string    `json:"worker_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Remarks     string    `json:"remarks,omitempty"`
	AppliedAt   time.Time `json:"applied_at"`
}

// ApprovedLeave represents a single approved day of leave. Category holds the
// display label ("Block Leave", "Advance Leave").
type ApprovedLeave struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	WorkerID      string    `json:"worker_id"`
	Date          string    `json:"date"`
	Category      string    `json:"category"`
	Subcategory   string    `json:"subcategory,omitempty"`
	ApprovedAt    time.Time `json:"approved_at"`
}

// RejectedLeave represents a rejected leave application
type RejectedLeave struct {
	ID              string    `json:"id"`
	WorkerID        string    `json:"worker_id"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory,omitempty"`
	Remarks         string    `json:"remarks,omitempty"`
	RejectionReason string    `json:"rejection_reason"`
	AppliedAt       time.Time `json:"applied_at"`
	RejectedAt      time.Time `json:"rejected_at"`
}

// AssignmentFilter narrows ListAssignments. Empty fields match everything;
// Start and End are inclusive.
type AssignmentFilter struct {
	WorkerID string
	Start    string
	End      string
}

// LeaveFilter narrows approved and rejected leave listings
type LeaveFilter struct {
	WorkerID string
	Start    string
	End      string
}

func inRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

// Matches reports whether an assignment satisfies the filter
func (f AssignmentFilter) Matches(a Assignment) bool {
	if f.WorkerID != "" && a.WorkerID != f.WorkerID {
		return false
	}
	return inRange(a.Date, f.Start, f.End)
}

// Matches reports whether an approved day satisfies the filter
func (f LeaveFilter) Matches(l ApprovedLeave) bool {
	if f.WorkerID != "" && l.WorkerID != f.WorkerID {
		return false
	}
	return inRange(l.Date, f.Start, f.End)
}

func assignmentLess(a, b Assignment) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.Location != b.Location {
		return a.Location < b.Location
	}
	return model.Shift(a.Shift).Order() < model.Shift(b.Shift).Order()
}

// earlierInDay orders one worker's assignments within a day by shift, then location
func earlierInDay(a, b Assignment) bool {
	ao, bo := model.Shift(a.Shift).Order(), model.Shift(b.Shift).Order()
	if ao != bo {
		return ao < bo
	}
	return a.Location < b.Location
}

// SortAssignments orders assignments by date, location and shift within the
// day, keeping the existing order inside a slot
func SortAssignments(assignments []Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		return assignmentLess(assignments[i], assignments[j])
	})
}
