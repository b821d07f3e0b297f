package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questkit/domain/core"
	"questkit/domain/quest"
	"questkit/models"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := models.NewExperimentSession("pilot", quest.DefaultParams(), quest.PolicyQuantile)
	require.NoError(t, store.CreateSession(ctx, session))

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, models.SessionStateActive, got.State)
	assert.Equal(t, 3.5, got.Params.Beta)

	require.NoError(t, store.UpdateSessionState(ctx, session.ID, models.SessionStateFinished))
	got, err = store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateFinished, got.State)
}

func TestSessionStoreUnknownSession(t *testing.T) {
	store := NewSessionStore()
	_, err := store.GetSession(context.Background(), core.SessionID(core.NewID()))
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	err = store.UpdateSessionState(context.Background(), core.SessionID(core.NewID()), models.SessionStateFinished)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestTrialOrderPreserved(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := models.NewExperimentSession("", quest.DefaultParams(), quest.PolicyQuantile)
	require.NoError(t, store.CreateSession(ctx, session))

	for i, intensity := range []float64{0.9, 1.0, 0.8} {
		tr := models.NewTrialRecord(session.ID, i, quest.Trial{Intensity: intensity, Response: i % 2})
		require.NoError(t, store.AppendTrial(ctx, tr))
	}

	trials, err := store.ListTrials(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, trials, 3)
	assert.Equal(t, 0.9, trials[0].Intensity)
	assert.Equal(t, 1.0, trials[1].Intensity)
	assert.Equal(t, 0.8, trials[2].Intensity)
	for i, tr := range trials {
		assert.Equal(t, i, tr.Seq)
	}
}
