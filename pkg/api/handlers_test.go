package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/internal/config"
	"github.com/jakechorley/shift-roster/pkg/clients/solverclient"
	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/core/services"
	"github.com/jakechorley/shift-roster/pkg/db"
)

type stubSolver struct {
	roster model.Roster
	err    error
}

func (s *stubSolver) Solve(ctx context.Context, req solverclient.Request) (*solverclient.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &solverclient.Response{Roster: s.roster, Logs: []string{"ok"}}, nil
}

func newTestServer(t *testing.T, solver services.Solver) (http.Handler, *db.Memory) {
	t.Helper()
	store := db.NewMemory()
	require.NoError(t, store.UpsertWorkers(t.Context(), []db.Worker{
		{ID: "W1", Name: "Ana", Grade: 3, Role: "Contributor"},
		{ID: "W2", Name: "Ben", Grade: 3, Role: "Contributor"},
		{ID: "P1", Name: "Pat", Grade: 9, Role: "Planner"},
	}))

	h := &Handler{
		Store:  store,
		Solver: solver,
		Config: &config.Config{Store: config.StoreMemory},
		Logger: zap.NewNop(),
	}
	return NewRouter(h, config.ServerConfig{RequestsPerSecond: 1000, Burst: 1000}, zap.NewNop()), store
}

func do(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGenerateAndViewRoster(t *testing.T) {
	roster := model.Roster{}
	roster.Add("2025-03-02", model.LocationA, model.ShiftMorning, "W1")
	handler, _ := newTestServer(t, &stubSolver{roster: roster})

	rec := do(t, handler, http.MethodPost, "/api/rosters/generate", map[string]any{
		"start_date":   "2025-03-02",
		"end_date":     "2025-03-02",
		"requirements": map[string]map[string]int{"A": {"3": 1}},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, handler, http.MethodGet, "/api/rosters?start=2025-03-01&end=2025-03-03", nil,
		map[string]string{headerWorkerID: "P1", headerRole: "Planner"})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[services.RosterView](t, rec)
	require.NotNil(t, view.Planner)
	assert.Equal(t, []string{"W1"}, view.Planner.Assignments["2025-03-02"][model.LocationA][model.ShiftMorning])

	rec = do(t, handler, http.MethodGet, "/api/rosters?start=2025-03-01&end=2025-03-03", nil,
		map[string]string{headerWorkerID: "W1", headerRole: "Contributor"})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decodeBody[services.RosterView](t, rec)
	assert.Nil(t, view.Planner)
	assert.Equal(t, map[string]string{"2025-03-02": "Morning (A)"}, view.Schedule)

	rec = do(t, handler, http.MethodGet, "/api/workers/W1/schedule?start=2025-03-01&end=2025-03-03", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"2025-03-02": "Morning (A)"}, decodeBody[map[string]string](t, rec))
}

func TestViewRoster_MissingRole(t *testing.T) {
	handler, _ := newTestServer(t, &stubSolver{})

	rec := do(t, handler, http.MethodGet, "/api/rosters?start=2025-03-01&end=2025-03-03", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRoster_SolverFailureIsBadGateway(t *testing.T) {
	handler, _ := newTestServer(t, &stubSolver{err: errors.New("timeout")})

	rec := do(t, handler, http.MethodPost, "/api/rosters/generate", map[string]any{
		"start_date":   "2025-03-02",
		"end_date":     "2025-03-02",
		"requirements": map[string]map[string]int{"A": {"3": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(apperr.KindUpstreamFailure), decodeBody[ErrorResponse](t, rec).Kind)
}

func TestLeaveAndReplacementFlow(t *testing.T) {
	handler, store := newTestServer(t, &stubSolver{})
	require.NoError(t, store.ReplaceAssignments(t.Context(), []string{"2025-03-02"}, []db.Assignment{
		{ID: "a1", WorkerID: "W1", Date: "2025-03-02", Location: "A", Shift: "Morning"},
	}))

	rec := do(t, handler, http.MethodPost, "/api/leave", services.ApplyLeaveRequest{
		WorkerID: "W1", StartDate: "2025-03-01", EndDate: "2025-03-03", Category: "Block",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	applied := decodeBody[services.ApplyLeaveResult](t, rec)

	// overlapping application
	rec = do(t, handler, http.MethodPost, "/api/leave", services.ApplyLeaveRequest{
		WorkerID: "W1", StartDate: "2025-03-03", EndDate: "2025-03-04", Category: "Block",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, handler, http.MethodGet, "/api/leave/pending", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]db.PendingLeave](t, rec), 1)

	rec = do(t, handler, http.MethodGet, "/api/replacements?date=2025-03-02&minGrade=3", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	candidates := decodeBody[[]map[string]any](t, rec)
	require.Len(t, candidates, 1)
	assert.Equal(t, "W2", candidates[0]["worker_id"])

	rec = do(t, handler, http.MethodPost, "/api/replacements", services.ReplaceShiftRequest{
		LeaveID: applied.Leave.ID, ApplicantID: "W1", ReplacementID: "W2", Date: "2025-03-02",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[services.ReplaceShiftResult](t, rec)
	assert.Equal(t, "W2", result.Assignment.WorkerID)
	assert.Equal(t, 1, result.Replacement.DeploymentCount)

	rec = do(t, handler, http.MethodGet, "/api/workers/W1/leave", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[services.LeaveHistory](t, rec)
	assert.Len(t, history.Approved, 3)
	assert.Empty(t, history.Pending)
}

func TestReplaceShift_StepFailureBody(t *testing.T) {
	handler, store := newTestServer(t, &stubSolver{})

	rec := do(t, handler, http.MethodPost, "/api/leave", services.ApplyLeaveRequest{
		WorkerID: "W1", StartDate: "2025-03-02", EndDate: "2025-03-02", Category: "Block",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	applied := decodeBody[services.ApplyLeaveResult](t, rec)

	// W1 has no shift to hand over
	rec = do(t, handler, http.MethodPost, "/api/replacements", services.ReplaceShiftRequest{
		LeaveID: applied.Leave.ID, ApplicantID: "W1", ReplacementID: "W2", Date: "2025-03-02",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, services.StepSwapAssignment, body.Step)
	require.Len(t, body.Steps, 1)
	assert.Equal(t, services.StepFailed, body.Steps[0].Status)

	_, err := store.GetPendingLeave(t.Context(), applied.Leave.ID)
	assert.NoError(t, err)
}

func TestApproveAndRejectLeave(t *testing.T) {
	handler, _ := newTestServer(t, &stubSolver{})

	rec := do(t, handler, http.MethodPost, "/api/leave/missing/approve", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, handler, http.MethodPost, "/api/leave", services.ApplyLeaveRequest{
		WorkerID: "W1", StartDate: "2025-03-02", EndDate: "2025-03-02", Category: "Block",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	applied := decodeBody[services.ApplyLeaveResult](t, rec)

	rec = do(t, handler, http.MethodPost, "/api/leave/"+applied.Leave.ID+"/reject", RejectLeaveRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodPost, "/api/leave/"+applied.Leave.ID+"/reject", RejectLeaveRequest{Reason: "no cover"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no cover", decodeBody[db.RejectedLeave](t, rec).RejectionReason)

	rec = do(t, handler, http.MethodPost, "/api/leave/"+applied.Leave.ID+"/approve", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveRoster(t *testing.T) {
	handler, store := newTestServer(t, &stubSolver{})

	rec := do(t, handler, http.MethodPost, "/api/rosters/approve", map[string]any{
		"2025-03-02": map[string]any{"B": map[string][]string{"Night": {"W2"}}},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := store.ListAssignments(t.Context(), db.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Night", stored[0].Shift)
}

func TestBadRequests(t *testing.T) {
	handler, _ := newTestServer(t, &stubSolver{})

	req := httptest.NewRequest(http.MethodPost, "/api/leave", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, handler, http.MethodGet, "/api/replacements?date=2025-03-02&minGrade=high", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(apperr.KindInvalidArgument))
	assert.Equal(t, http.StatusNotFound, statusFor(apperr.KindNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(apperr.KindConflict))
	assert.Equal(t, http.StatusBadGateway, statusFor(apperr.KindUpstreamFailure))
	assert.Equal(t, http.StatusInternalServerError, statusFor(apperr.KindInternal))
}
