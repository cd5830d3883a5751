package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maltedev/shopee-product-scraper/internal/models"
)

const attemptsSchema = `
CREATE TABLE IF NOT EXISTS scrape_attempts (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL,
	attempt     INT NOT NULL,
	target_url  TEXT NOT NULL,
	proxy       TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (run_id, attempt)
);
CREATE INDEX IF NOT EXISTS idx_scrape_attempts_run ON scrape_attempts (run_id);
CREATE INDEX IF NOT EXISTS idx_scrape_attempts_outcome ON scrape_attempts (outcome);
`

// AttemptStore persists finished attempts. It implements the scraper's Sink
// interface; write failures are logged, never surfaced into the loop.
type AttemptStore struct {
	db     *DB
	logger *slog.Logger
}

func NewAttemptStore(db *DB, logger *slog.Logger) *AttemptStore {
	return &AttemptStore{
		db:     db,
		logger: logger.With("component", "attempt_store"),
	}
}

// EnsureSchema creates the attempts table when missing.
func (s *AttemptStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.pool.Exec(ctx, attemptsSchema); err != nil {
		return fmt.Errorf("creating scrape_attempts schema: %w", err)
	}
	return nil
}

func (s *AttemptStore) AttemptFinished(ctx context.Context, runID, targetURL string, res models.AttemptResult) {
	// Writes get their own deadline; a slow database must not stall the
	// attempt loop.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.db.pool.Exec(ctx,
		`INSERT INTO scrape_attempts (run_id, attempt, target_url, proxy, outcome, error)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, attempt) DO NOTHING`,
		runID, res.Attempt, targetURL, res.Proxy, res.Outcome, res.Error,
	)
	if err != nil {
		s.logger.Warn("failed to record attempt",
			"run_id", runID, "attempt", res.Attempt, "error", err)
	}
}

// OutcomeCounts returns how many attempts ended in each outcome, most recent
// window first.
func (s *AttemptStore) OutcomeCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT outcome, COUNT(*) FROM scrape_attempts
		 WHERE created_at >= $1 GROUP BY outcome`, since)
	if err != nil {
		return nil, fmt.Errorf("querying outcome counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}
