package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATASET_PATH": "data/base.json",
	}))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "data/base.json", cfg.DatasetPath)
	assert.Equal(t, 0.5, cfg.DefaultThreshold)
	assert.True(t, cfg.OptimizeThresholds)
	assert.Equal(t, 20, cfg.PerClassLimit)
	assert.Equal(t, 30*time.Second, cfg.PredictorTimeout)
	assert.Equal(t, 3, cfg.PredictorRetryMax)
	assert.Equal(t, 500*time.Millisecond, cfg.PredictorRetryWait)
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 168*time.Hour, cfg.ThresholdCacheTTL)
	assert.Empty(t, cfg.RedisHost)
	assert.Empty(t, cfg.RunDBPath)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8888, cfg.ServerPort)
	assert.Equal(t, 4*1024*1024, cfg.ServerBodyLimit)
	assert.NoError(t, cfg.RequireDataset())
}

func TestRequireDataset(t *testing.T) {
	cfg, err := LoadConfigFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)
	require.ErrorIs(t, cfg.RequireDataset(), ErrInvalidConfig)
}

func TestLoadConfigFromOverrides(t *testing.T) {
	cfg, err := LoadConfigFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENVIRONMENT":           "prod",
		"DATASET_PATH":          "base.json.zst",
		"ENHANCED_DATASET_PATH": "enhanced.json",
		"DEFAULT_THRESHOLD":     "0.35",
		"OPTIMIZE_THRESHOLDS":   "false",
		"PREDICTOR_URL":         "http://localhost:9000",
		"REDIS_HOST":            "127.0.0.1",
		"THRESHOLD_CACHE_TTL":   "1h",
		"RUN_DB_PATH":           "runs.db",
	}))
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "enhanced.json", cfg.EnhancedDatasetPath)
	assert.Equal(t, 0.35, cfg.DefaultThreshold)
	assert.False(t, cfg.OptimizeThresholds)
	assert.Equal(t, "http://localhost:9000", cfg.PredictorURL)
	assert.Equal(t, "127.0.0.1", cfg.RedisHost)
	assert.Equal(t, time.Hour, cfg.ThresholdCacheTTL)
	assert.Equal(t, "runs.db", cfg.RunDBPath)
}

func TestLoadConfigFromValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "threshold above one", env: map[string]string{"DATASET_PATH": "d.json", "DEFAULT_THRESHOLD": "1.2"}},
		{name: "negative threshold", env: map[string]string{"DATASET_PATH": "d.json", "DEFAULT_THRESHOLD": "-0.1"}},
		{name: "negative per-class limit", env: map[string]string{"DATASET_PATH": "d.json", "PER_CLASS_LIMIT": "-1"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFrom(context.Background(), envconfig.MapLookuper(tt.env))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := LoadConfigFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATASET_PATH":      "d.json",
		"DEFAULT_THRESHOLD": "not-a-number",
	}))
	require.Error(t, err)
}
