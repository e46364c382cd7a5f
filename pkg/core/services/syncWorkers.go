package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/internal/config"
	"github.com/jakechorley/shift-roster/pkg/core/apperr"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/db"
)

// WorkerSource provides the authoritative worker list
type WorkerSource interface {
	ListWorkers(cfg *config.Config) ([]model.Worker, error)
}

// SyncWorkersStore defines the database operations needed to sync workers
type SyncWorkersStore interface {
	UpsertWorkers(ctx context.Context, workers []db.Worker) error
}

// SyncWorkers copies workers from the source into the store. Existing
// workers keep their deployment count. Nothing is written if any worker is
// invalid or an id appears twice.
func SyncWorkers(ctx context.Context, database SyncWorkersStore, source WorkerSource, cfg *config.Config, logger *zap.Logger) ([]db.Worker, error) {
	logger.Debug("Fetching workers from source")
	workers, err := source.ListWorkers(cfg)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to fetch workers")
	}

	rows := make([]db.Worker, 0, len(workers))
	seen := make(map[string]bool, len(workers))
	for _, w := range workers {
		id := strings.TrimSpace(w.ID)
		if id == "" {
			return nil, apperr.InvalidArgument("worker with empty id")
		}
		if seen[id] {
			return nil, apperr.InvalidArgument("duplicate worker id %q", id)
		}
		seen[id] = true

		if !model.ValidGrade(w.Grade) {
			return nil, apperr.InvalidArgument("worker %s has invalid grade %d", id, w.Grade)
		}
		if !w.Role.IsValid() {
			return nil, apperr.InvalidArgument("worker %s has invalid role %q", id, w.Role)
		}

		rows = append(rows, db.Worker{
			ID:    id,
			Name:  w.Name,
			Email: w.Email,
			Grade: w.Grade,
			Role:  string(w.Role),
		})
	}

	if err := database.UpsertWorkers(ctx, rows); err != nil {
		return nil, storeErr(err, "upsert workers")
	}

	logger.Info("Synced workers", zap.Int("count", len(rows)))
	return rows, nil
}
