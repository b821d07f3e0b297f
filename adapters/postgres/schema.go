package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the session and trial tables if they do not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS experiment_sessions (
			id UUID PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			policy TEXT NOT NULL,
			prior_mean DOUBLE PRECISION NOT NULL,
			prior_sd DOUBLE PRECISION NOT NULL,
			criterion DOUBLE PRECISION NOT NULL,
			beta DOUBLE PRECISION NOT NULL,
			delta DOUBLE PRECISION NOT NULL,
			gamma DOUBLE PRECISION NOT NULL,
			grain DOUBLE PRECISION NOT NULL,
			grid_range DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_trials (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES experiment_sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			intensity DOUBLE PRECISION NOT NULL,
			response INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_trials_session
			ON session_trials (session_id, seq)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
