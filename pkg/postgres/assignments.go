package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-roster/pkg/db"
)

const shiftOrderSQL = `CASE shift WHEN 'Morning' THEN 0 WHEN 'Afternoon' THEN 1 ELSE 2 END`

// ListAssignments retrieves assignments matching the filter ordered by date,
// location, shift and insertion order
func (d *DB) ListAssignments(ctx context.Context, filter db.AssignmentFilter) ([]db.Assignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, worker_id, date, location, shift
		FROM assignment
		WHERE ($1::text = '' OR worker_id = $1::text)
		  AND date >= COALESCE(NULLIF($2::text, '')::date, date)
		  AND date <= COALESCE(NULLIF($3::text, '')::date, date)
		ORDER BY date, location, `+shiftOrderSQL+`, seq
	`, filter.WorkerID, filter.Start, filter.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}

func scanAssignment(row pgx.Row) (db.Assignment, error) {
	var a db.Assignment
	var date time.Time
	if err := row.Scan(&a.ID, &a.WorkerID, &date, &a.Location, &a.Shift); err != nil {
		return a, fmt.Errorf("failed to scan assignment: %w", err)
	}
	a.Date = date.Format(dateLayout)
	return a, nil
}

// ReplaceAssignments deletes the given dates' assignments and inserts rows in
// one transaction, so a failure leaves the previous roster in place
func (d *DB) ReplaceAssignments(ctx context.Context, dates []string, rows []db.Assignment) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if len(dates) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM assignment WHERE date = ANY($1::text[]::date[])`, dates); err != nil {
				return fmt.Errorf("failed to delete assignments: %w", err)
			}
		}

		if len(rows) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, a := range rows {
			batch.Queue(`
				INSERT INTO assignment (id, worker_id, date, location, shift)
				VALUES ($1, $2, $3, $4, $5)
			`, a.ID, a.WorkerID, a.Date, a.Location, a.Shift)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert assignments: %w", err)
		}
		return nil
	})
}

// ReassignWorker moves the earliest of from's assignments on date to to
func (d *DB) ReassignWorker(ctx context.Context, date, from, to string) (*db.Assignment, error) {
	row := d.pool.QueryRow(ctx, `
		UPDATE assignment SET worker_id = $3
		WHERE id = (
			SELECT id FROM assignment
			WHERE date = $1::date AND worker_id = $2
			ORDER BY `+shiftOrderSQL+`, location, seq
			LIMIT 1
			FOR UPDATE
		)
		RETURNING id, worker_id, date, location, shift
	`, date, from, to)

	a, err := scanAssignment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reassign %s on %s: %w", from, date, err)
	}
	return &a, nil
}
