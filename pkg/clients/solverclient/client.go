// Package solverclient runs the external assignment solver as a child process.
//
// The request is written to the solver's stdin as JSON. The solver answers on
// stdout with {"roster": {date: {location: {shift: [worker ids]}}}, "logs": [...]}.
// Anything the solver writes to stderr is kept as additional log lines.
package solverclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/model"
)

// DefaultTimeout bounds a single solver run
const DefaultTimeout = 300 * time.Second

// pipeWaitDelay bounds how long Solve waits for the solver's output pipes to
// close once the process has been killed
const pipeWaitDelay = time.Second

// Worker is a contributor the solver may place
type Worker struct {
	ID    string `json:"id"`
	Grade int    `json:"proficiency_grade"`
}

// DemandLine asks for a headcount per grade in one slot
type DemandLine struct {
	Date                  string         `json:"date"`
	Location              model.Location `json:"location"`
	Shift                 model.Shift    `json:"shiftType"`
	RequiredProficiencies map[int]int    `json:"required_proficiencies"`
}

// Request is the full problem handed to the solver
type Request struct {
	Workers   []Worker            `json:"workers"`
	Requests  []DemandLine        `json:"requests"`
	LeaveData map[string][]string `json:"leaveData"`
}

// Response is the solver's answer
type Response struct {
	Roster model.Roster `json:"roster"`
	Logs   []string     `json:"logs"`
}

// Config describes how to start the solver
type Config struct {
	Command string
	Args    []string
	// Env is appended to the current process environment
	Env     []string
	Timeout time.Duration
}

// Client runs the solver process
type Client struct {
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a solver client. A zero timeout means DefaultTimeout.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, fmt.Errorf("solver command is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// Solve runs the solver once and returns its validated response.
// The solver and any processes it started are killed if it outlives the
// configured timeout.
func (c *Client) Solve(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode solver request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.cfg.Command, c.cfg.Args...)
	cmd.Env = append(os.Environ(), c.cfg.Env...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = pipeWaitDelay
	killProcessGroup(cmd)

	c.logger.Debug("Starting solver",
		zap.String("command", c.cfg.Command),
		zap.Int("workers", len(req.Workers)),
		zap.Int("demand_lines", len(req.Requests)),
		zap.Duration("timeout", c.cfg.Timeout))

	start := time.Now()
	runErr := cmd.Run()
	stderrLines := splitLines(stderr.String())
	for _, line := range stderrLines {
		c.logger.Debug("solver", zap.String("line", line))
	}

	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("solver timed out after %s", c.cfg.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("solver exited with code %d: %s", exitErr.ExitCode(), lastLine(stderrLines))
		}
		return nil, fmt.Errorf("failed to run solver: %w", runErr)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse solver response: %w", err)
	}
	if resp.Roster == nil {
		return nil, fmt.Errorf("solver response has no roster")
	}
	if err := ValidateResponse(req, resp.Roster); err != nil {
		return nil, fmt.Errorf("invalid solver response: %w", err)
	}
	resp.Logs = append(resp.Logs, stderrLines...)

	c.logger.Info("Solver finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("dates", len(resp.Roster)))

	return &resp, nil
}

// ValidateResponse checks that every slot in the roster was requested and that
// every placed worker was offered to the solver
func ValidateResponse(req Request, roster model.Roster) error {
	requested := make(map[model.Slot]bool, len(req.Requests))
	for _, line := range req.Requests {
		requested[model.Slot{Date: line.Date, Location: line.Location, Shift: line.Shift}] = true
	}
	known := make(map[string]bool, len(req.Workers))
	for _, w := range req.Workers {
		known[w.ID] = true
	}

	for _, entry := range roster.Entries() {
		if !requested[entry.Slot] {
			return fmt.Errorf("slot %s %s %s was not requested", entry.Date, entry.Location, entry.Shift)
		}
		if !known[entry.WorkerID] {
			return fmt.Errorf("unknown worker %q in slot %s %s %s", entry.WorkerID, entry.Date, entry.Location, entry.Shift)
		}
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return "no output"
	}
	return lines[len(lines)-1]
}
