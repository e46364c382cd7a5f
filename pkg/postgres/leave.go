package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-roster/pkg/db"
)

const pendingColumns = `id, worker_id, start_date, end_date, category, subcategory, remarks, applied_at`

func scanPending(row pgx.Row) (db.PendingLeave, error) {
	var p db.PendingLeave
	var start, end time.Time
	if err := row.Scan(&p.ID, &p.WorkerID, &start, &end, &p.Category, &p.Subcategory, &p.Remarks, &p.AppliedAt); err != nil {
		return p, fmt.Errorf("failed to scan pending leave: %w", err)
	}
	p.StartDate = start.Format(dateLayout)
	p.EndDate = end.Format(dateLayout)
	p.AppliedAt = p.AppliedAt.UTC()
	return p, nil
}

// ListPendingLeave retrieves pending applications ordered by application
// time. An empty workerID lists every worker.
func (d *DB) ListPendingLeave(ctx context.Context, workerID string) ([]db.PendingLeave, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+pendingColumns+`
		FROM pending_leave
		WHERE ($1::text = '' OR worker_id = $1::text)
		ORDER BY applied_at, id
	`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending leave: %w", err)
	}
	defer rows.Close()

	var pending []db.PendingLeave
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending leave: %w", err)
	}

	return pending, nil
}

func (d *DB) GetPendingLeave(ctx context.Context, id string) (*db.PendingLeave, error) {
	p, err := scanPending(d.pool.QueryRow(ctx, `
		SELECT `+pendingColumns+`
		FROM pending_leave
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending leave %s: %w", id, err)
	}
	return &p, nil
}

// InsertPendingLeave takes a transaction-scoped advisory lock on the worker so
// the overlap check and the insert cannot interleave with another application
// from the same worker
func (d *DB) InsertPendingLeave(ctx context.Context, leave db.PendingLeave) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, leave.WorkerID); err != nil {
			return fmt.Errorf("failed to lock worker %s: %w", leave.WorkerID, err)
		}

		var overlapping bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM pending_leave
				WHERE worker_id = $1 AND start_date <= $3::date AND end_date >= $2::date
			)
		`, leave.WorkerID, leave.StartDate, leave.EndDate).Scan(&overlapping)
		if err != nil {
			return fmt.Errorf("failed to check pending leave overlap: %w", err)
		}
		if overlapping {
			return db.ErrLeaveOverlap
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO pending_leave (`+pendingColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, leave.ID, leave.WorkerID, leave.StartDate, leave.EndDate, leave.Category, leave.Subcategory, leave.Remarks, leave.AppliedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert pending leave: %w", err)
		}
		return nil
	})
}

// deletePending removes the pending row, reporting ErrNotFound when another
// caller has already actioned it
func deletePending(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM pending_leave WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending leave %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func (d *DB) ApprovePendingLeave(ctx context.Context, pendingID string, days []db.ApprovedLeave) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if err := deletePending(ctx, tx, pendingID); err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, l := range days {
			batch.Queue(`
				INSERT INTO approved_leave (id, application_id, worker_id, date, category, subcategory, approved_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, l.ID, l.ApplicationID, l.WorkerID, l.Date, l.Category, l.Subcategory, l.ApprovedAt.UTC())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert approved leave: %w", err)
		}
		return nil
	})
}

func (d *DB) RejectPendingLeave(ctx context.Context, pendingID string, r db.RejectedLeave) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if err := deletePending(ctx, tx, pendingID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO rejected_leave (id, worker_id, start_date, end_date, category, subcategory, remarks, rejection_reason, applied_at, rejected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, r.ID, r.WorkerID, r.StartDate, r.EndDate, r.Category, r.Subcategory, r.Remarks, r.RejectionReason, r.AppliedAt.UTC(), r.RejectedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert rejected leave: %w", err)
		}
		return nil
	})
}

// ListApprovedLeave retrieves approved days matching the filter ordered by
// date then worker
func (d *DB) ListApprovedLeave(ctx context.Context, filter db.LeaveFilter) ([]db.ApprovedLeave, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, application_id, worker_id, date, category, subcategory, approved_at
		FROM approved_leave
		WHERE ($1::text = '' OR worker_id = $1::text)
		  AND date >= COALESCE(NULLIF($2::text, '')::date, date)
		  AND date <= COALESCE(NULLIF($3::text, '')::date, date)
		ORDER BY date, worker_id
	`, filter.WorkerID, filter.Start, filter.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved leave: %w", err)
	}
	defer rows.Close()

	var approved []db.ApprovedLeave
	for rows.Next() {
		var l db.ApprovedLeave
		var date time.Time
		if err := rows.Scan(&l.ID, &l.ApplicationID, &l.WorkerID, &date, &l.Category, &l.Subcategory, &l.ApprovedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approved leave: %w", err)
		}
		l.Date = date.Format(dateLayout)
		l.ApprovedAt = l.ApprovedAt.UTC()
		approved = append(approved, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approved leave: %w", err)
	}

	return approved, nil
}

func (d *DB) ListRejectedLeave(ctx context.Context, workerID string) ([]db.RejectedLeave, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, worker_id, start_date, end_date, category, subcategory, remarks, rejection_reason, applied_at, rejected_at
		FROM rejected_leave
		WHERE ($1::text = '' OR worker_id = $1::text)
		ORDER BY rejected_at
	`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejected leave: %w", err)
	}
	defer rows.Close()

	var rejected []db.RejectedLeave
	for rows.Next() {
		var r db.RejectedLeave
		var start, end time.Time
		if err := rows.Scan(&r.ID, &r.WorkerID, &start, &end, &r.Category, &r.Subcategory, &r.Remarks, &r.RejectionReason, &r.AppliedAt, &r.RejectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rejected leave: %w", err)
		}
		r.StartDate = start.Format(dateLayout)
		r.EndDate = end.Format(dateLayout)
		rejected = append(rejected, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rejected leave: %w", err)
	}

	return rejected, nil
}
