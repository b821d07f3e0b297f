package app

import (
	"context"

	"questkit/domain/core"
	"questkit/domain/quest"
	"questkit/internal"
	"questkit/internal/errors"
	"questkit/models"
	"questkit/ports"
)

// SessionService orchestrates experiment sessions: it owns no estimator state
// between calls, rebuilding the posterior from the persisted trial history by
// replay. Replay determinism makes sessions survive restarts with the exact
// posterior they would have had in memory.
type SessionService struct {
	sessions ports.SessionRepository
	trials   ports.TrialRepository
	exporter ports.SessionExporter
	logger   *internal.Logger
}

// NewSessionService creates a session service over the given repositories
func NewSessionService(sessions ports.SessionRepository, trials ports.TrialRepository, exporter ports.SessionExporter, logger *internal.Logger) *SessionService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SessionService{
		sessions: sessions,
		trials:   trials,
		exporter: exporter,
		logger:   logger,
	}
}

// CreateSession validates the parameters by building an estimator once, then
// persists the session
func (s *SessionService) CreateSession(ctx context.Context, label string, params quest.Params, policy quest.Policy) (*models.ExperimentSession, error) {
	if _, err := quest.ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = quest.PolicyQuantile
	}
	est, err := quest.New(params, quest.WithWarnFunc(s.logger.Warn))
	if err != nil {
		return nil, err
	}
	// keep a possibly clamped gamma so replays see the same parameters
	session := models.NewExperimentSession(label, est.Params(), policy)
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	s.logger.Info("session %s created (policy=%s)", session.ID, policy)
	return session, nil
}

// Recommend returns the next intensity to present for the session. An empty
// policy uses the session's configured policy.
func (s *SessionService) Recommend(ctx context.Context, id core.SessionID, policy quest.Policy) (float64, error) {
	session, est, err := s.load(ctx, id)
	if err != nil {
		return 0, err
	}
	if policy == "" {
		policy = session.Policy
	}
	return est.Recommend(policy)
}

// SubmitResponse feeds one observed trial into the session and persists it
func (s *SessionService) SubmitResponse(ctx context.Context, id core.SessionID, intensity float64, response int) (*models.SessionEstimates, error) {
	session, est, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.State != models.SessionStateActive {
		return nil, core.ErrSessionFinished
	}
	seq := est.TrialCount()
	if err := est.Update(intensity, response); err != nil {
		return nil, err
	}
	record := models.NewTrialRecord(id, seq, quest.Trial{Intensity: intensity, Response: response})
	if err := s.trials.AppendTrial(ctx, record); err != nil {
		return nil, errors.Wrap(err, "failed to persist trial")
	}
	return s.estimates(id, est)
}

// Estimates returns the session's current posterior summary
func (s *SessionService) Estimates(ctx context.Context, id core.SessionID) (*models.SessionEstimates, error) {
	_, est, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.estimates(id, est)
}

// Finish marks the session finished and returns the final estimates
func (s *SessionService) Finish(ctx context.Context, id core.SessionID) (*models.SessionEstimates, error) {
	_, est, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateSessionState(ctx, id, models.SessionStateFinished); err != nil {
		return nil, err
	}
	s.logger.Info("session %s finished after %d trials", id, est.TrialCount())
	return s.estimates(id, est)
}

// Export writes the session's trial log and estimates through the configured
// exporter and returns the artifact location
func (s *SessionService) Export(ctx context.Context, id core.SessionID) (string, error) {
	if s.exporter == nil {
		return "", errors.New("EXPORT_UNAVAILABLE", "no exporter configured")
	}
	session, est, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	trials, err := s.trials.ListTrials(ctx, id)
	if err != nil {
		return "", err
	}
	estimates, err := s.estimates(id, est)
	if err != nil {
		return "", err
	}
	return s.exporter.ExportSession(ctx, session, trials, estimates)
}

// ListSessions returns recent sessions
func (s *SessionService) ListSessions(ctx context.Context, limit int) ([]*models.ExperimentSession, error) {
	return s.sessions.ListSessions(ctx, limit)
}

// Session returns one session with its trial history
func (s *SessionService) Session(ctx context.Context, id core.SessionID) (*models.ExperimentSession, []*models.TrialRecord, error) {
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	trials, err := s.trials.ListTrials(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return session, trials, nil
}

// load rebuilds the session's estimator from its persisted history
func (s *SessionService) load(ctx context.Context, id core.SessionID) (*models.ExperimentSession, *quest.Estimator, error) {
	session, records, err := s.Session(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	trials := make([]quest.Trial, len(records))
	for i, r := range records {
		trials[i] = r.Trial()
	}
	est, err := quest.Replay(session.Params, trials, quest.WithWarnFunc(s.logger.Warn))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to rebuild estimator for session %s", id)
	}
	return session, est, nil
}

func (s *SessionService) estimates(id core.SessionID, est *quest.Estimator) (*models.SessionEstimates, error) {
	median, err := est.Quantile(0.5)
	if err != nil {
		return nil, err
	}
	mode, density := est.Mode()
	return &models.SessionEstimates{
		SessionID:   id,
		TrialCount:  est.TrialCount(),
		Mean:        est.Mean(),
		SD:          est.SD(),
		Mode:        mode,
		ModeDensity: density,
		Median:      median,
	}, nil
}
