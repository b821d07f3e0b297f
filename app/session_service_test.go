package app

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questkit/adapters/memory"
	"questkit/domain/core"
	"questkit/domain/quest"
	"questkit/models"
)

func newTestService(t *testing.T) (*SessionService, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	return NewSessionService(store, store, nil, nil), store
}

func testParams() quest.Params {
	p := quest.DefaultParams()
	p.PriorMean = 0.9
	return p
}

func TestCreateSessionValidatesParams(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "pilot", testParams(), quest.PolicyQuantile)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStateActive, session.State)

	bad := testParams()
	bad.Range = -2
	_, err = svc.CreateSession(ctx, "", bad, quest.PolicyQuantile)
	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))

	_, err = svc.CreateSession(ctx, "", testParams(), quest.Policy("bogus"))
	require.Error(t, err)
}

func TestSessionLoopRecommendRespond(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "loop", testParams(), quest.PolicyQuantile)
	require.NoError(t, err)

	// drive a short adaptive loop against a simulated observer
	ref, err := quest.New(testParams())
	require.NoError(t, err)
	obs := quest.NewSimulatedObserver(ref, 1.3, rand.New(rand.NewSource(5)))

	var lastSD float64 = 2.0
	for i := 0; i < 20; i++ {
		next, err := svc.Recommend(ctx, session.ID, "")
		require.NoError(t, err)
		est, err := svc.SubmitResponse(ctx, session.ID, next, obs.Respond(next))
		require.NoError(t, err)
		assert.Equal(t, i+1, est.TrialCount)
		lastSD = est.SD
	}
	assert.Less(t, lastSD, 1.0, "posterior should tighten over 20 trials")

	final, err := svc.Finish(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, final.TrialCount)

	// a finished session rejects further responses
	_, err = svc.SubmitResponse(ctx, session.ID, 1.0, 1)
	assert.ErrorIs(t, err, core.ErrSessionFinished)
}

func TestSubmitResponseRejectsBadResponse(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "", testParams(), quest.PolicyQuantile)
	require.NoError(t, err)

	_, err = svc.SubmitResponse(ctx, session.ID, 0.9, 2)
	require.Error(t, err)
	assert.True(t, core.IsInputError(err))

	// the rejected trial must not be persisted
	est, err := svc.Estimates(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, est.TrialCount)
}

func TestEstimatesSurviveReload(t *testing.T) {
	// the service keeps no estimator in memory, so estimates after a
	// "restart" (a second service over the same store) must match exactly
	store := memory.NewSessionStore()
	svc1 := NewSessionService(store, store, nil, nil)
	ctx := context.Background()

	session, err := svc1.CreateSession(ctx, "", testParams(), quest.PolicyQuantile)
	require.NoError(t, err)
	for _, tr := range []quest.Trial{{Intensity: 0.9, Response: 1}, {Intensity: 1.0, Response: 0}, {Intensity: 0.8, Response: 1}} {
		_, err := svc1.SubmitResponse(ctx, session.ID, tr.Intensity, tr.Response)
		require.NoError(t, err)
	}
	before, err := svc1.Estimates(ctx, session.ID)
	require.NoError(t, err)

	svc2 := NewSessionService(store, store, nil, nil)
	after, err := svc2.Estimates(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// pinned against classic QUEST on the same trial sequence: the miss at
	// 1.0 under guess rate 0.5 pushes the estimate above the tested range
	assert.InDelta(t, 1.9602560484642395, before.Mean, 1e-9)
	assert.Less(t, before.SD, 2.0)
}

func TestUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Recommend(context.Background(), core.SessionID(core.NewID()), "")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}
