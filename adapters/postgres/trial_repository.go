package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"questkit/domain/core"
	"questkit/models"
	"questkit/ports"
)

// TrialRepositoryImpl implements TrialRepository for PostgreSQL
type TrialRepositoryImpl struct {
	db *sqlx.DB
}

// NewTrialRepository creates a new PostgreSQL trial repository
func NewTrialRepository(db *sqlx.DB) ports.TrialRepository {
	return &TrialRepositoryImpl{db: db}
}

// AppendTrial inserts one trial row
func (r *TrialRepositoryImpl) AppendTrial(ctx context.Context, trial *models.TrialRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_trials (id, session_id, seq, intensity, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, trial.ID, trial.SessionID, trial.Seq, trial.Intensity, trial.Response, trial.CreatedAt)
	return err
}

// ListTrials returns the session's trials in observation order. Replay
// correctness depends on this ordering, so it is enforced in the query.
func (r *TrialRepositoryImpl) ListTrials(ctx context.Context, sessionID core.SessionID) ([]*models.TrialRecord, error) {
	var trials []*models.TrialRecord
	err := r.db.SelectContext(ctx, &trials, `
		SELECT id, session_id, seq, intensity, response, created_at
		FROM session_trials
		WHERE session_id = $1
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return trials, nil
}
