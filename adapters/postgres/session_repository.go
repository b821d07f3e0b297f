package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"questkit/domain/core"
	"questkit/models"
	"questkit/ports"
)

// SessionRepositoryImpl implements SessionRepository for PostgreSQL
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// CreateSession inserts a new experiment session
func (r *SessionRepositoryImpl) CreateSession(ctx context.Context, session *models.ExperimentSession) error {
	session.FlattenParams()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO experiment_sessions
			(id, label, state, policy, prior_mean, prior_sd, criterion, beta, delta, gamma, grain, grid_range, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, session.ID, session.Label, session.State, session.Policy,
		session.PriorMean, session.PriorSD, session.Criterion, session.Beta,
		session.Delta, session.Gamma, session.Grain, session.Range,
		session.CreatedAt, session.UpdatedAt)
	return err
}

// GetSession retrieves a session by ID
func (r *SessionRepositoryImpl) GetSession(ctx context.Context, id core.SessionID) (*models.ExperimentSession, error) {
	var session models.ExperimentSession
	err := r.db.GetContext(ctx, &session, `
		SELECT id, label, state, policy, prior_mean, prior_sd, criterion, beta, delta, gamma, grain, grid_range, created_at, updated_at
		FROM experiment_sessions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session.RestoreParams()
	return &session, nil
}

// UpdateSessionState updates the lifecycle state of a session
func (r *SessionRepositoryImpl) UpdateSessionState(ctx context.Context, id core.SessionID, state models.SessionState) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE experiment_sessions
		SET state = $2, updated_at = $3
		WHERE id = $1
	`, id, state, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrSessionNotFound
	}
	return nil
}

// ListSessions returns sessions ordered by creation time, newest first
func (r *SessionRepositoryImpl) ListSessions(ctx context.Context, limit int) ([]*models.ExperimentSession, error) {
	query := `
		SELECT id, label, state, policy, prior_mean, prior_sd, criterion, beta, delta, gamma, grain, grid_range, created_at, updated_at
		FROM experiment_sessions
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var sessions []*models.ExperimentSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		s.RestoreParams()
	}
	return sessions, nil
}
