package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		guild_id TEXT PRIMARY KEY,
		log_channel_id TEXT,
		managers_role_id TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		id BIGSERIAL PRIMARY KEY,
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		checkin_at TIMESTAMPTZ NOT NULL,
		checkout_at TIMESTAMPTZ,
		duration_ms BIGINT,
		checkin_date TEXT NOT NULL,
		checkout_date TEXT,
		UNIQUE (guild_id, user_id, seq)
	)`,
	// At most one open session per (guild, member). Concurrent check-ins
	// race on this index instead of corrupting state.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_sessions_open
		ON attendance_sessions (guild_id, user_id) WHERE checkout_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_sessions_checkout_date
		ON attendance_sessions (guild_id, checkout_date)`,
	`CREATE TABLE IF NOT EXISTS attendance_stats (
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		total_duration_ms BIGINT NOT NULL DEFAULT 0,
		total_entries BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (guild_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		at TIMESTAMPTZ NOT NULL,
		at_date TEXT NOT NULL,
		at_time TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_date ON audit_logs (guild_id, at_date)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
