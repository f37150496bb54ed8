// Package config defines environment configuration structs and loaders.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-envconfig"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type AppConfig struct {
	Environment string `env:"ENVIRONMENT, default=dev"`
	LogLevel    string `env:"LOG_LEVEL"`

	EvalEnvConfig
	PredictorEnvConfig
	RedisEnvConfig
	RunStoreEnvConfig
	ServerEnvConfig
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(ctx context.Context) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file, using process environment only")
	}
	return LoadConfigFrom(ctx, envconfig.OsLookuper())
}

// LoadConfigFrom resolves the configuration from the given lookuper.
func LoadConfigFrom(ctx context.Context, lookuper envconfig.Lookuper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.DefaultThreshold < 0 || c.DefaultThreshold > 1 {
		return fmt.Errorf("%w: DEFAULT_THRESHOLD %v outside [0,1]", ErrInvalidConfig, c.DefaultThreshold)
	}
	if c.PerClassLimit < 0 {
		return fmt.Errorf("%w: PER_CLASS_LIMIT must not be negative", ErrInvalidConfig)
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: SERVER_PORT %d out of range", ErrInvalidConfig, c.ServerPort)
	}
	if c.PredictorRetryMax < 0 {
		return fmt.Errorf("%w: PREDICTOR_RETRY_MAX must not be negative", ErrInvalidConfig)
	}
	return nil
}

// RequireDataset reports an error when no dataset is configured. Only the
// batch evaluation needs one.
func (c *AppConfig) RequireDataset() error {
	if c.DatasetPath == "" {
		return fmt.Errorf("%w: DATASET_PATH is required", ErrInvalidConfig)
	}
	return nil
}

// EvalEnvConfig configures the evaluation run.
type EvalEnvConfig struct {
	DatasetPath         string  `env:"DATASET_PATH"`
	EnhancedDatasetPath string  `env:"ENHANCED_DATASET_PATH"`
	DefaultThreshold    float64 `env:"DEFAULT_THRESHOLD, default=0.5"`
	OptimizeThresholds  bool    `env:"OPTIMIZE_THRESHOLDS, default=true"`
	ReportPath          string  `env:"REPORT_PATH"`
	PerClassLimit       int     `env:"PER_CLASS_LIMIT, default=20"`
}

// PredictorEnvConfig configures the remote model server. An empty URL means
// scores are read from the dataset files.
type PredictorEnvConfig struct {
	PredictorURL       string        `env:"PREDICTOR_URL"`
	PredictorTimeout   time.Duration `env:"PREDICTOR_TIMEOUT, default=30s"`
	PredictorRetryMax  int           `env:"PREDICTOR_RETRY_MAX, default=3"`
	PredictorRetryWait time.Duration `env:"PREDICTOR_RETRY_WAIT, default=500ms"`
}

// RedisEnvConfig configures the threshold cache. An empty host disables it.
type RedisEnvConfig struct {
	RedisHost         string        `env:"REDIS_HOST"`
	RedisPort         int           `env:"REDIS_PORT, default=6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB, default=0"`
	ThresholdCacheTTL time.Duration `env:"THRESHOLD_CACHE_TTL, default=168h"`
}

// RunStoreEnvConfig configures the evaluation history database. An empty
// path disables it.
type RunStoreEnvConfig struct {
	RunDBPath string `env:"RUN_DB_PATH"`
}

// ServerEnvConfig configures the evaluation HTTP API.
type ServerEnvConfig struct {
	ServerHost      string `env:"SERVER_HOST, default=0.0.0.0"`
	ServerPort      int    `env:"SERVER_PORT, default=8888"`
	ServerBodyLimit int    `env:"SERVER_BODY_LIMIT, default=4194304"`
}
