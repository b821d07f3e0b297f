package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3.5, cfg.Estimator.Beta)
	assert.Equal(t, 0.82, cfg.Estimator.Criterion)
	assert.Equal(t, 0.01, cfg.Estimator.Grain)
}

func TestLoadEstimatorOverrides(t *testing.T) {
	t.Setenv("QUEST_BETA", "2.5")
	t.Setenv("QUEST_PRIOR_MEAN", "0.9")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Estimator.Beta)
	assert.Equal(t, 0.9, cfg.Estimator.PriorMean)
}

func TestLoadRejectsGarbageOverride(t *testing.T) {
	t.Setenv("QUEST_BETA", "steep")
	_, err := Load()
	require.Error(t, err)
}
