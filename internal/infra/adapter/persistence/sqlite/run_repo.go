package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// RunRepo persists one Run record per aggregator execution, used for
// operator visibility of failed runs.
type RunRepo struct{ db *sql.DB }

func NewRunRepo(db *sql.DB) repository.RunRepository {
	return &RunRepo{db: db}
}

func (r *RunRepo) Create(ctx context.Context, run *entity.Run) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("marshal run stats: %w", err)
	}
	const q = `
INSERT INTO runs (id, feed_id, started_at, finished_at, success, reason, stats)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET finished_at = excluded.finished_at,
	success = excluded.success, reason = excluded.reason, stats = excluded.stats`
	_, err = r.db.ExecContext(ctx, q, run.ID, run.FeedID, formatTime(run.StartedAt),
		formatTime(run.FinishedAt), run.Success, run.Reason, string(stats))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *RunRepo) ListRecentByFeed(ctx context.Context, feedID int64, limit int) ([]*entity.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, feed_id, started_at, finished_at, success, reason, stats
		 FROM runs WHERE feed_id = ? ORDER BY started_at DESC LIMIT ?`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*entity.Run, 0, limit)
	for rows.Next() {
		var run entity.Run
		var started, finished string
		var success int
		var stats string
		if err := rows.Scan(&run.ID, &run.FeedID, &started, &finished,
			&success, &run.Reason, &stats); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		run.Success = success != 0
		if stats != "" {
			if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
				return nil, fmt.Errorf("unmarshal run stats: %w", err)
			}
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
