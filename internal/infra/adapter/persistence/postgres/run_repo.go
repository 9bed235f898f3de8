package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"yana/internal/domain/entity"
	"yana/internal/repository"
)

// RunRepo persists one Run record per aggregator execution, used for
// operator visibility of failed runs and by the daily-quota distributor's
// historical lookups (the live "posts today" count itself comes from
// ArticleRepo.CountByFeedSince).
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
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET finished_at = EXCLUDED.finished_at,
	success = EXCLUDED.success, reason = EXCLUDED.reason, stats = EXCLUDED.stats`
	_, err = r.db.ExecContext(ctx, q, run.ID, run.FeedID, run.StartedAt, run.FinishedAt,
		run.Success, run.Reason, stats)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *RunRepo) ListRecentByFeed(ctx context.Context, feedID int64, limit int) ([]*entity.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, feed_id, started_at, finished_at, success, reason, stats
		 FROM runs WHERE feed_id = $1 ORDER BY started_at DESC LIMIT $2`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*entity.Run, 0, limit)
	for rows.Next() {
		var run entity.Run
		var stats []byte
		if err := rows.Scan(&run.ID, &run.FeedID, &run.StartedAt, &run.FinishedAt,
			&run.Success, &run.Reason, &stats); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if len(stats) > 0 {
			if err := json.Unmarshal(stats, &run.Stats); err != nil {
				return nil, fmt.Errorf("unmarshal run stats: %w", err)
			}
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
