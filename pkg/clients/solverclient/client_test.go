package solverclient

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/model"
)

// TestHelperProcess is not a real test. It stands in for the solver process
// when re-executed by helperClient.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		fmt.Fprintln(os.Stderr, "bad request:", err)
		os.Exit(2)
	}

	switch os.Getenv("HELPER_MODE") {
	case "echo":
		// place the first worker in every requested slot
		roster := model.Roster{}
		for _, line := range req.Requests {
			roster.Add(line.Date, line.Location, line.Shift, req.Workers[0].ID)
		}
		fmt.Fprintln(os.Stderr, "solved", len(req.Requests), "lines")
		json.NewEncoder(os.Stdout).Encode(Response{Roster: roster, Logs: []string{"optimal"}})
	case "fail":
		fmt.Fprintln(os.Stderr, "infeasible")
		os.Exit(3)
	case "garbage":
		fmt.Fprint(os.Stdout, "not json")
	case "stray":
		roster := model.Roster{}
		roster.Add("1999-01-01", model.LocationA, model.ShiftMorning, req.Workers[0].ID)
		json.NewEncoder(os.Stdout).Encode(Response{Roster: roster})
	case "sleep":
		time.Sleep(5 * time.Second)
	default:
		io.Copy(io.Discard, os.Stdin)
	}
}

func helperClient(t *testing.T, mode string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode},
		Timeout: timeout,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func sampleRequest() Request {
	return Request{
		Workers: []Worker{{ID: "w1", Grade: 3}},
		Requests: []DemandLine{
			{Date: "2025-03-01", Location: model.LocationA, Shift: model.ShiftMorning, RequiredProficiencies: map[int]int{3: 1}},
			{Date: "2025-03-01", Location: model.LocationA, Shift: model.ShiftNight, RequiredProficiencies: map[int]int{3: 1}},
		},
		LeaveData: map[string][]string{},
	}
}

func TestNewClient_RequiresCommand(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)

	c, err := NewClient(Config{Command: "solver"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.cfg.Timeout)
}

func TestSolve_ReturnsRosterAndLogs(t *testing.T) {
	resp, err := helperClient(t, "echo", 10*time.Second).Solve(t.Context(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"w1"}, resp.Roster["2025-03-01"][model.LocationA][model.ShiftMorning])
	assert.Equal(t, []string{"w1"}, resp.Roster["2025-03-01"][model.LocationA][model.ShiftNight])
	assert.Equal(t, []string{"optimal", "solved 2 lines"}, resp.Logs)
}

func TestSolve_NonZeroExit(t *testing.T) {
	_, err := helperClient(t, "fail", 10*time.Second).Solve(t.Context(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 3")
	assert.Contains(t, err.Error(), "infeasible")
}

func TestSolve_MalformedOutput(t *testing.T) {
	_, err := helperClient(t, "garbage", 10*time.Second).Solve(t.Context(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse solver response")
}

func TestSolve_UnrequestedSlot(t *testing.T) {
	_, err := helperClient(t, "stray", 10*time.Second).Solve(t.Context(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was not requested")
}

func TestSolve_Timeout(t *testing.T) {
	_, err := helperClient(t, "sleep", 200*time.Millisecond).Solve(t.Context(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestSolve_TimeoutWithChildProcess(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// the sleeping child holds stdout open after sh itself is killed
	c, err := NewClient(Config{
		Command: "sh",
		Args:    []string{"-c", "sleep 5 | cat"},
		Timeout: 200 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	start := time.Now()
	_, err = c.Solve(t.Context(), sampleRequest())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, elapsed, 3*time.Second)
}

func TestValidateResponse_UnknownWorker(t *testing.T) {
	roster := model.Roster{}
	roster.Add("2025-03-01", model.LocationA, model.ShiftMorning, "ghost")

	err := ValidateResponse(sampleRequest(), roster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown worker")
}
