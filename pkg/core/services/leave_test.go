package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/leaveguard"
	"github.com/jakechorley/shift-roster/pkg/db"
)

func blockLeave(workerID, start, end string) ApplyLeaveRequest {
	return ApplyLeaveRequest{WorkerID: workerID, StartDate: start, EndDate: end, Category: "Block"}
}

func TestApplyLeave_Success(t *testing.T) {
	applied := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	fixNow(t, applied)
	store := newStore(t, contributor("w1", 3, 0))

	result, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, ApplyLeaveRequest{
		WorkerID:    "w1",
		StartDate:   "2025-03-01",
		EndDate:     "2025-03-03",
		Category:    "Advance",
		Subcategory: "Family",
		Remarks:     "wedding",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warning)
	assert.Empty(t, result.QuotaWarningDates)
	assert.NotEmpty(t, result.Leave.ID)
	assert.Equal(t, applied, result.Leave.AppliedAt)

	pending, err := store.ListPendingLeave(t.Context(), "w1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Family", pending[0].Subcategory)
}

func TestApplyLeave_UnknownWorker(t *testing.T) {
	_, err := ApplyLeave(t.Context(), newStore(t), zap.NewNop(), 10, blockLeave("ghost", "2025-03-01", "2025-03-01"))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestApplyLeave_InvalidRange(t *testing.T) {
	store := newStore(t, contributor("w1", 3, 0))
	_, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-03", "2025-03-01"))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestApplyLeave_OverlapsPending(t *testing.T) {
	store := newStore(t, contributor("w1", 3, 0), contributor("w2", 3, 0))

	_, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-01", "2025-03-05"))
	require.NoError(t, err)

	_, err = ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-05", "2025-03-07"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// adjacent ranges and other workers are fine
	_, err = ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-06", "2025-03-07"))
	assert.NoError(t, err)
	_, err = ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w2", "2025-03-01", "2025-03-05"))
	assert.NoError(t, err)
}

func TestApplyLeave_OverlapsApproved(t *testing.T) {
	store := newStore(t, contributor("w1", 3, 0))
	seedApprovedLeave(t, store, "l1", "w1", "2025-03-02")

	_, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-01", "2025-03-03"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "2025-03-02")
}

func TestApplyLeave_QuotaIsAdvisory(t *testing.T) {
	workers := []db.Worker{contributor("w0", 3, 0)}
	for i := 1; i <= 2; i++ {
		workers = append(workers, contributor(fmt.Sprintf("w%d", i), 3, 0))
	}
	store := newStore(t, workers...)
	seedApprovedLeave(t, store, "l1", "w1", "2025-03-02")
	seedApprovedLeave(t, store, "l2", "w2", "2025-03-02")

	result, err := ApplyLeave(t.Context(), store, zap.NewNop(), 2, blockLeave("w0", "2025-03-01", "2025-03-03"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-02"}, result.QuotaWarningDates)
	assert.Equal(t, "daily leave quota of 2 already reached on: 2025-03-02", result.Warning)

	pending, err := store.GetPendingLeave(t.Context(), result.Leave.ID)
	require.NoError(t, err)
	assert.Equal(t, "w0", pending.WorkerID)
}

func TestApplyLeave_DefaultQuotaIsAdvisory(t *testing.T) {
	workers := []db.Worker{contributor("applicant", 3, 0)}
	for i := 1; i <= leaveguard.DefaultDailyQuota; i++ {
		workers = append(workers, contributor(fmt.Sprintf("w%d", i), 3, 0))
	}
	store := newStore(t, workers...)
	for i := 1; i <= leaveguard.DefaultDailyQuota; i++ {
		seedApprovedLeave(t, store, fmt.Sprintf("l%d", i), fmt.Sprintf("w%d", i), "2025-03-02")
	}

	// a non-positive quota falls back to the default of 10
	result, err := ApplyLeave(t.Context(), store, zap.NewNop(), 0, blockLeave("applicant", "2025-03-02", "2025-03-02"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-02"}, result.QuotaWarningDates)
	assert.Equal(t, "daily leave quota of 10 already reached on: 2025-03-02", result.Warning)

	pending, err := store.ListPendingLeave(t.Context(), "applicant")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestApplyLeave_BelowDefaultQuotaHasNoWarning(t *testing.T) {
	workers := []db.Worker{contributor("applicant", 3, 0)}
	for i := 1; i < leaveguard.DefaultDailyQuota; i++ {
		workers = append(workers, contributor(fmt.Sprintf("w%d", i), 3, 0))
	}
	store := newStore(t, workers...)
	for i := 1; i < leaveguard.DefaultDailyQuota; i++ {
		seedApprovedLeave(t, store, fmt.Sprintf("l%d", i), fmt.Sprintf("w%d", i), "2025-03-02")
	}

	result, err := ApplyLeave(t.Context(), store, zap.NewNop(), 0, blockLeave("applicant", "2025-03-02", "2025-03-02"))
	require.NoError(t, err)
	assert.Empty(t, result.QuotaWarningDates)
	assert.Empty(t, result.Warning)
}

// raceStore reports no pending leave but refuses the insert, as when a
// concurrent application wins between the check and the write
type raceStore struct {
	*db.Memory
}

func (r raceStore) ListPendingLeave(ctx context.Context, workerID string) ([]db.PendingLeave, error) {
	return nil, nil
}

func (r raceStore) InsertPendingLeave(ctx context.Context, leave db.PendingLeave) error {
	return db.ErrLeaveOverlap
}

func TestApplyLeave_LostRace(t *testing.T) {
	store := raceStore{newStore(t, contributor("w1", 3, 0))}

	_, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-01", "2025-03-01"))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestApproveLeave(t *testing.T) {
	store := newStore(t, contributor("w1", 3, 0))
	applied, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-01", "2025-03-03"))
	require.NoError(t, err)

	result, err := ApproveLeave(t.Context(), store, zap.NewNop(), applied.Leave.ID)
	require.NoError(t, err)
	require.Len(t, result.Days, 3)
	for i, day := range []string{"2025-03-01", "2025-03-02", "2025-03-03"} {
		assert.Equal(t, day, result.Days[i].Date)
		assert.Equal(t, "Block Leave", result.Days[i].Category)
		assert.Equal(t, applied.Leave.ID, result.Days[i].ApplicationID)
	}

	_, err = store.GetPendingLeave(t.Context(), applied.Leave.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	// already actioned
	_, err = ApproveLeave(t.Context(), store, zap.NewNop(), applied.Leave.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestApproveLeave_Errors(t *testing.T) {
	_, err := ApproveLeave(t.Context(), newStore(t), zap.NewNop(), " ")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = ApproveLeave(t.Context(), newStore(t), zap.NewNop(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

// failingApproveStore returns a storage error on approval
type failingApproveStore struct {
	pending db.PendingLeave
}

func (f *failingApproveStore) GetPendingLeave(ctx context.Context, id string) (*db.PendingLeave, error) {
	return &f.pending, nil
}

func (f *failingApproveStore) ApprovePendingLeave(ctx context.Context, pendingID string, days []db.ApprovedLeave) error {
	return errors.New("connection refused")
}

func TestApproveLeave_StoreFailure(t *testing.T) {
	store := &failingApproveStore{pending: db.PendingLeave{ID: "l1", WorkerID: "w1", StartDate: "2025-03-01", EndDate: "2025-03-01", Category: "Block"}}

	_, err := ApproveLeave(t.Context(), store, zap.NewNop(), "l1")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestRejectLeave(t *testing.T) {
	rejectedAt := time.Date(2025, 2, 2, 9, 0, 0, 0, time.UTC)
	store := newStore(t, contributor("w1", 3, 0))
	applied, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-01", "2025-03-02"))
	require.NoError(t, err)

	_, err = RejectLeave(t.Context(), store, zap.NewNop(), applied.Leave.ID, "  ")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	fixNow(t, rejectedAt)
	rejected, err := RejectLeave(t.Context(), store, zap.NewNop(), applied.Leave.ID, "short staffed")
	require.NoError(t, err)
	assert.Equal(t, "short staffed", rejected.RejectionReason)
	assert.Equal(t, rejectedAt, rejected.RejectedAt)
	assert.Equal(t, "2025-03-01", rejected.StartDate)

	_, err = RejectLeave(t.Context(), store, zap.NewNop(), applied.Leave.ID, "again")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	approved, err := store.ListApprovedLeave(t.Context(), db.LeaveFilter{WorkerID: "w1"})
	require.NoError(t, err)
	assert.Empty(t, approved)
}

func TestListPendingLeave(t *testing.T) {
	store := newStore(t, contributor("w1", 3, 0), contributor("w2", 3, 0))

	pending, err := ListPendingLeave(t.Context(), store, zap.NewNop(), "")
	require.NoError(t, err)
	assert.NotNil(t, pending)
	assert.Empty(t, pending)

	fixNow(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	_, err = ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w2", "2025-03-01", "2025-03-01"))
	require.NoError(t, err)
	fixNow(t, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC))
	_, err = ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-01", "2025-03-01"))
	require.NoError(t, err)

	pending, err = ListPendingLeave(t.Context(), store, zap.NewNop(), "")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "w2", pending[0].WorkerID)

	pending, err = ListPendingLeave(t.Context(), store, zap.NewNop(), "w1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "w1", pending[0].WorkerID)
}

func TestGetLeaveHistory(t *testing.T) {
	store := newStore(t, contributor("w1", 3, 0))
	seedApprovedLeave(t, store, "l1", "w1", "2025-01-10", "2025-01-11")

	rejected, err := ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-02-01", "2025-02-01"))
	require.NoError(t, err)
	_, err = RejectLeave(t.Context(), store, zap.NewNop(), rejected.Leave.ID, "no cover")
	require.NoError(t, err)
	_, err = ApplyLeave(t.Context(), store, zap.NewNop(), 10, blockLeave("w1", "2025-03-01", "2025-03-01"))
	require.NoError(t, err)

	history, err := GetLeaveHistory(t.Context(), store, zap.NewNop(), "w1")
	require.NoError(t, err)
	assert.Len(t, history.Pending, 1)
	assert.Len(t, history.Approved, 2)
	require.Len(t, history.Rejected, 1)
	assert.Equal(t, "no cover", history.Rejected[0].RejectionReason)

	_, err = GetLeaveHistory(t.Context(), store, zap.NewNop(), "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}
