package db

import "database/sql"

// MigrateUp creates the schema backing the domain entities in
// internal/domain/entity: feeds (aggregator configuration), articles
// (persisted content), user_article_states (per-user read/saved flags),
// content_cache (the advisory fetch cache) and runs (per-execution audit
// trail). Every statement uses CREATE TABLE/INDEX IF NOT EXISTS, so
// MigrateUp is safe to run on every process start.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (id SERIAL PRIMARY KEY,
 user_id BIGINT,
 kind VARCHAR(32) NOT NULL,
 identifier TEXT NOT NULL,
 name TEXT NOT NULL,
 icon TEXT NOT NULL DEFAULT '',
 enabled BOOLEAN NOT NULL DEFAULT TRUE,
 options JSONB NOT NULL DEFAULT '{}',
 last_crawled_at TIMESTAMPTZ,
 last_icon_identifier TEXT NOT NULL DEFAULT '',
 created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
 UNIQUE(user_id, name))`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS articles (id SERIAL PRIMARY KEY,
 feed_id INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
 url TEXT NOT NULL,
 canonical_url TEXT NOT NULL,
 name TEXT NOT NULL,
 content TEXT NOT NULL DEFAULT '',
 published_at TIMESTAMPTZ NOT NULL,
 created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
 author TEXT NOT NULL DEFAULT '',
 external_id TEXT NOT NULL DEFAULT '',
 thumbnail_url TEXT NOT NULL DEFAULT '',
 media_url TEXT NOT NULL DEFAULT '',
 media_type TEXT NOT NULL DEFAULT '',
 score INTEGER NOT NULL DEFAULT 0,
 view_count BIGINT NOT NULL DEFAULT 0,
 UNIQUE(feed_id, canonical_url))`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS user_article_states (user_id BIGINT NOT NULL,
 article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
 is_read BOOLEAN NOT NULL DEFAULT FALSE,
 is_saved BOOLEAN NOT NULL DEFAULT FALSE,
 updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
 PRIMARY KEY (user_id, article_id))`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS content_cache (url TEXT PRIMARY KEY,
 html TEXT NOT NULL,
 inserted_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (id TEXT PRIMARY KEY,
 feed_id INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
 started_at TIMESTAMPTZ NOT NULL,
 finished_at TIMESTAMPTZ,
 success BOOLEAN NOT NULL DEFAULT FALSE,
 reason TEXT NOT NULL DEFAULT '',
 stats JSONB NOT NULL DEFAULT '{}')`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS auth_tokens (token_hash TEXT PRIMARY KEY,
 user_id BIGINT NOT NULL,
 created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
 expires_at TIMESTAMPTZ NOT NULL)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feed_groups (feed_id INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
 user_id BIGINT NOT NULL,
 label TEXT NOT NULL,
 UNIQUE(feed_id, user_id, label))`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(feed_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_enabled ON feeds(enabled) WHERE enabled = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_user_id ON feeds(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_article_states_article_id ON user_article_states(article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_feed_id ON runs(feed_id, started_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_tokens_expires_at ON auth_tokens(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feed_groups_label ON feed_groups(user_id, label)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// ILIKE 検索高速化用の pg_trgm 拡張。権限不足や既存環境ではエラーを無視する。
	_, _ = db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`)
	searchIndexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_articles_name_gin ON articles USING gin(name gin_trgm_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_content_gin ON articles USING gin(content gin_trgm_ops)`,
	}
	for _, idx := range searchIndexes {
		_, _ = db.Exec(idx)
	}

	return nil
}

// MigrateDown drops every table MigrateUp creates, in dependency order.
// Destructive: intended for test/dev environments only.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS feed_groups CASCADE`,
		`DROP TABLE IF EXISTS auth_tokens CASCADE`,
		`DROP TABLE IF EXISTS runs CASCADE`,
		`DROP TABLE IF EXISTS content_cache CASCADE`,
		`DROP TABLE IF EXISTS user_article_states CASCADE`,
		`DROP TABLE IF EXISTS articles CASCADE`,
		`DROP TABLE IF EXISTS feeds CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
