package db

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-memory Database for tests and local development.
// A single mutex serialises every operation, which makes the conditional
// pending leave insert and the multi-row replacements atomic.
type Memory struct {
	mu          sync.RWMutex
	workers     map[string]Worker
	assignments []Assignment
	pending     map[string]PendingLeave
	approved    []ApprovedLeave
	rejected    []RejectedLeave
}

var _ Database = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		workers: make(map[string]Worker),
		pending: make(map[string]PendingLeave),
	}
}

// ListWorkers returns every worker ordered by ID
func (m *Memory) ListWorkers(_ context.Context) ([]Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	workers := make([]Worker, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })
	return workers, nil
}

func (m *Memory) GetWorker(_ context.Context, id string) (*Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.workers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

// UpsertWorkers inserts new workers and updates existing ones. The
// deployment count of an existing worker is preserved.
func (m *Memory) UpsertWorkers(_ context.Context, workers []Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range workers {
		if existing, ok := m.workers[w.ID]; ok {
			w.DeploymentCount = existing.DeploymentCount
		}
		m.workers[w.ID] = w
	}
	return nil
}

func (m *Memory) IncrementDeploymentCount(_ context.Context, workerID string) (*Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workers[workerID]
	if !ok {
		return nil, ErrNotFound
	}
	w.DeploymentCount++
	m.workers[workerID] = w
	return &w, nil
}

// ListAssignments returns matching assignments ordered by date, location and
// shift. Insertion order is kept within a slot.
func (m *Memory) ListAssignments(_ context.Context, filter AssignmentFilter) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Assignment
	for _, a := range m.assignments {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	SortAssignments(out)
	return out, nil
}

func (m *Memory) ReplaceAssignments(_ context.Context, dates []string, rows []Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]bool, len(dates))
	for _, d := range dates {
		drop[d] = true
	}

	kept := make([]Assignment, 0, len(m.assignments)+len(rows))
	for _, a := range m.assignments {
		if !drop[a.Date] {
			kept = append(kept, a)
		}
	}
	m.assignments = append(kept, rows...)
	return nil
}

func (m *Memory) ReassignWorker(_ context.Context, date, from, to string) (*Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i, a := range m.assignments {
		if a.Date != date || a.WorkerID != from {
			continue
		}
		if idx == -1 || earlierInDay(a, m.assignments[idx]) {
			idx = i
		}
	}
	if idx == -1 {
		return nil, ErrNotFound
	}

	m.assignments[idx].WorkerID = to
	a := m.assignments[idx]
	return &a, nil
}

// ListPendingLeave returns pending applications ordered by application time.
// An empty workerID lists every worker's applications.
func (m *Memory) ListPendingLeave(_ context.Context, workerID string) ([]PendingLeave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []PendingLeave
	for _, p := range m.pending {
		if workerID == "" || p.WorkerID == workerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.Before(out[j].AppliedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetPendingLeave(_ context.Context, id string) (*PendingLeave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pending[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) InsertPendingLeave(_ context.Context, leave PendingLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.pending {
		if p.WorkerID != leave.WorkerID {
			continue
		}
		if p.StartDate <= leave.EndDate && p.EndDate >= leave.StartDate {
			return ErrLeaveOverlap
		}
	}
	m.pending[leave.ID] = leave
	return nil
}

func (m *Memory) ApprovePendingLeave(_ context.Context, pendingID string, days []ApprovedLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[pendingID]; !ok {
		return ErrNotFound
	}
	m.approved = append(m.approved, days...)
	delete(m.pending, pendingID)
	return nil
}

func (m *Memory) RejectPendingLeave(_ context.Context, pendingID string, rejected RejectedLeave) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pending[pendingID]; !ok {
		return ErrNotFound
	}
	m.rejected = append(m.rejected, rejected)
	delete(m.pending, pendingID)
	return nil
}

// ListApprovedLeave returns matching approved days ordered by date then worker
func (m *Memory) ListApprovedLeave(_ context.Context, filter LeaveFilter) ([]ApprovedLeave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []ApprovedLeave
	for _, l := range m.approved {
		if filter.Matches(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].WorkerID < out[j].WorkerID
	})
	return out, nil
}

func (m *Memory) ListRejectedLeave(_ context.Context, workerID string) ([]RejectedLeave, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []RejectedLeave
	for _, r := range m.rejected {
		if workerID == "" || r.WorkerID == workerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RejectedAt.Before(out[j].RejectedAt) })
	return out, nil
}
