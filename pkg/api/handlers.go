package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/internal/config"
	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/core/services"
	"github.com/jakechorley/shift-roster/pkg/db"
)

const (
	headerWorkerID = "X-Worker-ID"
	headerRole     = "X-Role"
)

// Handler holds the dependencies shared by every route.
// Notifier may be nil, in which case replacements are not emailed.
type Handler struct {
	Store    db.Database
	Solver   services.Solver
	Notifier services.Notifier
	Config   *config.Config
	Logger   *zap.Logger
}

func (h *Handler) GenerateRoster(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateRosterRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := services.GenerateRoster(r.Context(), h.Store, h.Solver, h.Logger, h.Config.RequirementOverrides, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ApproveRoster(w http.ResponseWriter, r *http.Request) {
	var roster model.Roster
	if !decode(w, r, &roster) {
		return
	}
	result, err := services.ApproveRoster(r.Context(), h.Store, h.Logger, roster)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ViewRoster(w http.ResponseWriter, r *http.Request) {
	caller := model.Caller{
		WorkerID: r.Header.Get(headerWorkerID),
		Role:     model.Role(r.Header.Get(headerRole)),
	}
	if caller.Role == "" {
		h.writeError(w, apperr.InvalidArgument("%s header is required", headerRole))
		return
	}

	q := r.URL.Query()
	view, err := services.ViewRoster(r.Context(), h.Store, h.Logger, caller, q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) ViewSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	schedule, err := services.ViewForWorker(r.Context(), h.Store, h.Logger, chi.URLParam(r, "id"), q.Get("start"), q.Get("end"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req services.ApplyLeaveRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := services.ApplyLeave(r.Context(), h.Store, h.Logger, h.Config.Quota(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) ListPendingLeave(w http.ResponseWriter, r *http.Request) {
	pending, err := services.ListPendingLeave(r.Context(), h.Store, h.Logger, r.URL.Query().Get("workerId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	result, err := services.ApproveLeave(r.Context(), h.Store, h.Logger, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	var req RejectLeaveRequest
	if !decode(w, r, &req) {
		return
	}
	rejected, err := services.RejectLeave(r.Context(), h.Store, h.Logger, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}

func (h *Handler) LeaveHistory(w http.ResponseWriter, r *http.Request) {
	history, err := services.GetLeaveHistory(r.Context(), h.Store, h.Logger, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *Handler) FindReplacements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minGrade, err := strconv.Atoi(q.Get("minGrade"))
	if err != nil {
		h.writeError(w, apperr.InvalidArgument("minGrade must be an integer"))
		return
	}
	candidates, err := services.FindReplacements(r.Context(), h.Store, h.Logger, q.Get("date"), minGrade)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (h *Handler) ReplaceShift(w http.ResponseWriter, r *http.Request) {
	var req services.ReplaceShiftRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := services.ReplaceShift(r.Context(), h.Store, h.Notifier, h.Logger, req)
	if err != nil {
		var stepErr *services.ReplacementStepError
		if errors.As(err, &stepErr) && result != nil {
			kind := apperr.KindOf(err)
			writeJSON(w, statusFor(kind), ErrorResponse{
				Error: err.Error(),
				Kind:  string(kind),
				Step:  stepErr.Step,
				Steps: result.Steps,
			})
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decode reads a JSON body into dst, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON body: " + err.Error(),
			Kind:  string(apperr.KindInvalidArgument),
		})
		return false
	}
	return true
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUpstreamFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError maps the error's kind to a status. Internal details are logged
// and not returned to the caller.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	message := err.Error()
	if status == http.StatusInternalServerError {
		h.Logger.Error("Request failed", zap.Error(err))
		message = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Error: message, Kind: string(kind)})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
