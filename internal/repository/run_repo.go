package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/judev-jbg/confirmation-invoice/internal/models"
	"github.com/judev-jbg/confirmation-invoice/internal/pipeline"
	"go.uber.org/zap"
)

// RunRepository persists batch run history
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// RunStarted records the start of a batch run and returns its id
func (r *RunRepository) RunStarted(ctx context.Context, startedAt time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (started_at, status) VALUES (?, ?)",
		startedAt, models.RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// OrderProcessed records one order's terminal result
func (r *RunRepository) OrderProcessed(ctx context.Context, runID int64, result pipeline.OrderResult) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_results (run_id, order_id, reference, status, error)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, result.OrderID, result.Reference, string(result.Status), result.Error)
	if err != nil {
		return fmt.Errorf("failed to insert order result: %w", err)
	}
	return nil
}

// RunFinished closes a run with its final counters. failure is empty
// for runs that completed, even with per-order errors.
func (r *RunRepository) RunFinished(ctx context.Context, runID int64, outcome pipeline.Outcome, failure string) error {
	status := models.RunStatusCompleted
	if failure != "" {
		status = models.RunStatusFailed
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE runs
		 SET finished_at = ?, status = ?, processed = ?, succeeded = ?, errored = ?, skipped = ?, failure = ?
		 WHERE id = ?`,
		time.Now(), status,
		outcome.Processed, outcome.Succeeded, outcome.Errored, outcome.Skipped,
		failure, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, processed, succeeded, errored, skipped, failure
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finished, &run.Status,
			&run.Processed, &run.Succeeded, &run.Errored, &run.Skipped, &run.Failure); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
