package models

import (
	"time"

	"questkit/domain/core"
	"questkit/domain/quest"
)

// SessionState tracks the lifecycle of an experiment session
type SessionState string

const (
	SessionStateActive   SessionState = "active"
	SessionStateFinished SessionState = "finished"
)

// ExperimentSession is one observer's adaptive threshold run: the estimator
// parameters it was started with plus its lifecycle metadata. The trial
// history lives in TrialRecord rows so a session can be rebuilt by replay.
type ExperimentSession struct {
	ID        core.SessionID `json:"id" db:"id"`
	Label     string         `json:"label" db:"label"`
	State     SessionState   `json:"state" db:"state"`
	Params    quest.Params   `json:"params" db:"-"`
	Policy    quest.Policy   `json:"policy" db:"policy"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`

	// flattened parameter columns for persistence
	PriorMean float64 `json:"-" db:"prior_mean"`
	PriorSD   float64 `json:"-" db:"prior_sd"`
	Criterion float64 `json:"-" db:"criterion"`
	Beta      float64 `json:"-" db:"beta"`
	Delta     float64 `json:"-" db:"delta"`
	Gamma     float64 `json:"-" db:"gamma"`
	Grain     float64 `json:"-" db:"grain"`
	Range     float64 `json:"-" db:"grid_range"`
}

// NewExperimentSession creates an active session with a fresh ID
func NewExperimentSession(label string, params quest.Params, policy quest.Policy) *ExperimentSession {
	now := time.Now().UTC()
	s := &ExperimentSession{
		ID:        core.SessionID(core.NewID()),
		Label:     label,
		State:     SessionStateActive,
		Params:    params,
		Policy:    policy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.FlattenParams()
	return s
}

// FlattenParams copies Params into the persistence columns
func (s *ExperimentSession) FlattenParams() {
	s.PriorMean = s.Params.PriorMean
	s.PriorSD = s.Params.PriorSD
	s.Criterion = s.Params.Criterion
	s.Beta = s.Params.Beta
	s.Delta = s.Params.Delta
	s.Gamma = s.Params.Gamma
	s.Grain = s.Params.Grain
	s.Range = s.Params.Range
}

// RestoreParams rebuilds Params from the persistence columns
func (s *ExperimentSession) RestoreParams() {
	s.Params = quest.Params{
		PriorMean: s.PriorMean,
		PriorSD:   s.PriorSD,
		Criterion: s.Criterion,
		Beta:      s.Beta,
		Delta:     s.Delta,
		Gamma:     s.Gamma,
		Grain:     s.Grain,
		Range:     s.Range,
	}
}

// TrialRecord is one persisted (intensity, response) observation
type TrialRecord struct {
	ID        core.TrialID   `json:"id" db:"id"`
	SessionID core.SessionID `json:"session_id" db:"session_id"`
	Seq       int            `json:"seq" db:"seq"`
	Intensity float64        `json:"intensity" db:"intensity"`
	Response  int            `json:"response" db:"response"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// NewTrialRecord creates a trial row for the given session and sequence number
func NewTrialRecord(sessionID core.SessionID, seq int, trial quest.Trial) *TrialRecord {
	return &TrialRecord{
		ID:        core.TrialID(core.NewID()),
		SessionID: sessionID,
		Seq:       seq,
		Intensity: trial.Intensity,
		Response:  trial.Response,
		CreatedAt: time.Now().UTC(),
	}
}

// Trial converts the record back into a domain trial
func (r *TrialRecord) Trial() quest.Trial {
	return quest.Trial{Intensity: r.Intensity, Response: r.Response}
}

// SessionEstimates is a read-only summary of a session's posterior
type SessionEstimates struct {
	SessionID   core.SessionID `json:"session_id"`
	TrialCount  int            `json:"trial_count"`
	Mean        float64        `json:"mean"`
	SD          float64        `json:"sd"`
	Mode        float64        `json:"mode"`
	ModeDensity float64        `json:"mode_density"`
	Median      float64        `json:"median"`
}
