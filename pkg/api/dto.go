package api

import (
	"github.com/jakechorley/shift-roster/pkg/core/services"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string                 `json:"error"`
	Kind  string                 `json:"kind"`
	Step  string                 `json:"step,omitempty"`
	Steps []services.StepOutcome `json:"steps,omitempty"`
}

// RejectLeaveRequest is the body of POST /api/leave/{id}/reject
type RejectLeaveRequest struct {
	Reason string `json:"reason"`
}
