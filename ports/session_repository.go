package ports

import (
	"context"

	"questkit/domain/core"
	"questkit/models"
)

// SessionRepository persists experiment sessions
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.ExperimentSession) error
	GetSession(ctx context.Context, id core.SessionID) (*models.ExperimentSession, error)
	UpdateSessionState(ctx context.Context, id core.SessionID, state models.SessionState) error
	ListSessions(ctx context.Context, limit int) ([]*models.ExperimentSession, error)
}

// TrialRepository persists per-session trial histories in observation order
type TrialRepository interface {
	AppendTrial(ctx context.Context, trial *models.TrialRecord) error
	ListTrials(ctx context.Context, sessionID core.SessionID) ([]*models.TrialRecord, error)
}
