// Package sqlite implements the repository interfaces (internal/repository)
// against an embedded SQLite database via database/sql and the pure-Go
// modernc.org/sqlite driver (WAL pragma dsn, single-connection pool,
// RFC3339-text timestamps). It is the embedded/test ContentStore backend:
// the postgres package remains the production backend, and both implement
// the exact same internal/repository interfaces so the enrichment, storage
// and stream layers stay storage-agnostic.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at path, configured for WAL
// journaling, a busy timeout, and foreign-key enforcement. Use ":memory:"
// for tests. SQLite supports only one concurrent writer, so the pool is
// capped at a single connection.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %q: %w", dir, err)
		}
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database %q: %w", path, err)
	}
	return db, nil
}

// MigrateUp creates the same logical schema as
// internal/infra/db.MigrateUp, adapted to SQLite types: INTEGER PRIMARY
// KEY AUTOINCREMENT instead of SERIAL, TEXT instead of JSONB, and
// RFC3339-text timestamp columns instead of TIMESTAMPTZ.
func MigrateUp(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS feeds (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id               INTEGER,
			kind                  TEXT NOT NULL,
			identifier            TEXT NOT NULL,
			name                  TEXT NOT NULL,
			icon                  TEXT NOT NULL DEFAULT '',
			enabled               INTEGER NOT NULL DEFAULT 1,
			options               TEXT NOT NULL DEFAULT '{}',
			last_crawled_at       TEXT,
			last_icon_identifier  TEXT NOT NULL DEFAULT '',
			created_at            TEXT NOT NULL,
			UNIQUE(user_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			feed_id        INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			url            TEXT NOT NULL,
			canonical_url  TEXT NOT NULL,
			name           TEXT NOT NULL,
			content        TEXT NOT NULL DEFAULT '',
			published_at   TEXT NOT NULL,
			created_at     TEXT NOT NULL,
			author         TEXT NOT NULL DEFAULT '',
			external_id    TEXT NOT NULL DEFAULT '',
			thumbnail_url  TEXT NOT NULL DEFAULT '',
			media_url      TEXT NOT NULL DEFAULT '',
			media_type     TEXT NOT NULL DEFAULT '',
			score          INTEGER NOT NULL DEFAULT 0,
			view_count     INTEGER NOT NULL DEFAULT 0,
			UNIQUE(feed_id, canonical_url)
		)`,
		`CREATE TABLE IF NOT EXISTS user_article_states (
			user_id     INTEGER NOT NULL,
			article_id  INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			is_read     INTEGER NOT NULL DEFAULT 0,
			is_saved    INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT NOT NULL,
			PRIMARY KEY (user_id, article_id)
		)`,
		`CREATE TABLE IF NOT EXISTS content_cache (
			url          TEXT PRIMARY KEY,
			html         TEXT NOT NULL,
			inserted_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			feed_id      INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			started_at   TEXT NOT NULL,
			finished_at  TEXT,
			success      INTEGER NOT NULL DEFAULT 0,
			reason       TEXT NOT NULL DEFAULT '',
			stats        TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS auth_tokens (
			token_hash  TEXT PRIMARY KEY,
			user_id     INTEGER NOT NULL,
			created_at  TEXT NOT NULL,
			expires_at  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feed_groups (
			feed_id  INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
			user_id  INTEGER NOT NULL,
			label    TEXT NOT NULL,
			UNIQUE(feed_id, user_id, label)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(feed_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_enabled ON feeds(enabled) WHERE enabled = 1`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_user_id ON feeds(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_article_states_article_id ON user_article_states(article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_feed_id ON runs(feed_id, started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_tokens_expires_at ON auth_tokens(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_groups_label ON feed_groups(user_id, label)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}
	return nil
}

// MigrateDown drops every table MigrateUp creates, in dependency order.
func MigrateDown(db *sql.DB) error {
	statements := []string{
		`DROP TABLE IF EXISTS feed_groups`,
		`DROP TABLE IF EXISTS auth_tokens`,
		`DROP TABLE IF EXISTS runs`,
		`DROP TABLE IF EXISTS content_cache`,
		`DROP TABLE IF EXISTS user_article_states`,
		`DROP TABLE IF EXISTS articles`,
		`DROP TABLE IF EXISTS feeds`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	}
	return nil
}

// formatTime renders t as the RFC3339 text our TEXT timestamp columns
// store, paired with parseTime for reading it back.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses an RFC3339 timestamp column, returning the zero time
// for garbage input rather than failing the whole row scan.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
