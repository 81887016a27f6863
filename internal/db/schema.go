package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup. Statements are idempotent so every service
// instance can run them on boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          SERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		code        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'active',
		archived_at TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS project_phases (
		id         SERIAL PRIMARY KEY,
		project_id INT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		kind       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'pending',
		ordering   INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		id           SERIAL PRIMARY KEY,
		phase_id     INT NOT NULL REFERENCES project_phases(id) ON DELETE CASCADE,
		category     TEXT NOT NULL,
		mandatory    BOOLEAN NOT NULL DEFAULT FALSE,
		status       TEXT NOT NULL DEFAULT 'pending',
		build_id     TEXT,
		download_url TEXT,
		checklist    JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS artifact_versions (
		id                 SERIAL PRIMARY KEY,
		artifact_id        INT NOT NULL REFERENCES artifacts(id) ON DELETE CASCADE,
		number             INT NOT NULL,
		author             TEXT NOT NULL,
		change_description TEXT NOT NULL,
		content            TEXT,
		blob_key           TEXT,
		file_name          TEXT,
		content_type       TEXT,
		size_bytes         BIGINT,
		repo_link          TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (artifact_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS project_closures (
		id                  SERIAL PRIMARY KEY,
		project_id          INT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		closed_by           TEXT NOT NULL,
		closed_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		forced              BOOLEAN NOT NULL DEFAULT FALSE,
		justification       TEXT,
		validation_snapshot JSONB NOT NULL,
		artifact_snapshot   JSONB NOT NULL,
		team_snapshot       JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS defects (
		id         SERIAL PRIMARY KEY,
		project_id INT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		severity   TEXT NOT NULL DEFAULT 'minor',
		status     TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS project_members (
		id         SERIAL PRIMARY KEY,
		project_id INT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		role       TEXT NOT NULL DEFAULT 'member',
		status     TEXT NOT NULL DEFAULT 'invited',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS project_audit_log (
		id         SERIAL PRIMARY KEY,
		project_id INT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		action     TEXT NOT NULL,
		actor      TEXT NOT NULL,
		reason     TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS blobs (
		key          TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		content_type TEXT NOT NULL,
		data         BYTEA NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id             BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id   BIGINT,
		routing_key    TEXT NOT NULL,
		payload        JSONB NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		retry_count    INT NOT NULL DEFAULT 0,
		next_retry_at  TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS notification_log (
		id         SERIAL PRIMARY KEY,
		project_id INT NOT NULL,
		event      TEXT NOT NULL,
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// InitSchema creates all tables if they do not exist yet.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
