package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shift-roster/pkg/db"
)

// ListWorkers retrieves every worker ordered by ID
func (d *DB) ListWorkers(ctx context.Context) ([]db.Worker, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, email, grade, role, deployment_count
		FROM worker
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []db.Worker
	for rows.Next() {
		var w db.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Email, &w.Grade, &w.Role, &w.DeploymentCount); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workers: %w", err)
	}

	return workers, nil
}

func (d *DB) GetWorker(ctx context.Context, id string) (*db.Worker, error) {
	var w db.Worker
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, email, grade, role, deployment_count
		FROM worker
		WHERE id = $1
	`, id).Scan(&w.ID, &w.Name, &w.Email, &w.Grade, &w.Role, &w.DeploymentCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker %s: %w", id, err)
	}
	return &w, nil
}

// UpsertWorkers inserts or updates workers. Deployment counts of existing
// workers are left as they are.
func (d *DB) UpsertWorkers(ctx context.Context, workers []db.Worker) error {
	if len(workers) == 0 {
		return nil
	}

	return d.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, w := range workers {
			batch.Queue(`
				INSERT INTO worker (id, name, email, grade, role, deployment_count)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name, email = EXCLUDED.email, grade = EXCLUDED.grade, role = EXCLUDED.role
			`, w.ID, w.Name, w.Email, w.Grade, w.Role, w.DeploymentCount)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert workers: %w", err)
		}
		return nil
	})
}

func (d *DB) IncrementDeploymentCount(ctx context.Context, workerID string) (*db.Worker, error) {
	var w db.Worker
	err := d.pool.QueryRow(ctx, `
		UPDATE worker SET deployment_count = deployment_count + 1
		WHERE id = $1
		RETURNING id, name, email, grade, role, deployment_count
	`, workerID).Scan(&w.ID, &w.Name, &w.Email, &w.Grade, &w.Role, &w.DeploymentCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment deployment count for %s: %w", workerID, err)
	}
	return &w, nil
}
