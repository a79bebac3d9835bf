package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Optimization.WorkerCount)

	assert.Equal(t, 1.0, cfg.Optimization.Anneal.InitialTemp)
	assert.Equal(t, 0.1, cfg.Optimization.Anneal.FinalTemp)
	assert.Equal(t, 1000, cfg.Optimization.Anneal.MaxIterations)
	assert.Equal(t, 100*time.Second, cfg.Optimization.Anneal.MaxTime)

	assert.Equal(t, 100, cfg.Optimization.Colony.PopulationSize)
	assert.Equal(t, 100, cfg.Optimization.Colony.AbandonmentLimit)
	assert.Equal(t, 0.01, cfg.Optimization.Colony.ConvergenceThreshold)
	assert.Equal(t, 10, cfg.Optimization.Colony.StagnationRounds)
	assert.Equal(t, 100000, cfg.Optimization.Colony.MaxIterations)
	assert.Equal(t, "fitness", cfg.Optimization.Colony.Weighting)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("OPT_WORKER_COUNT", "3")
	t.Setenv("OPT_ANNEAL_MAX_TIME", "250ms")
	t.Setenv("OPT_COLONY_WEIGHTING", "RANK")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
	assert.Equal(t, 3, cfg.Optimization.WorkerCount)
	assert.Equal(t, 250*time.Millisecond, cfg.Optimization.Anneal.MaxTime)
	assert.Equal(t, "rank", cfg.Optimization.Colony.Weighting)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown database", map[string]string{"DB_TYPE": "postgres"}},
		{"no workers", map[string]string{"DB_TYPE": "memory", "OPT_WORKER_COUNT": "0"}},
		{"malformed duration", map[string]string{"DB_TYPE": "memory", "OPT_ANNEAL_MAX_TIME": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
