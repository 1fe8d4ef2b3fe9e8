package main

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/23skdu/eigencmc/internal/core"
	"github.com/23skdu/eigencmc/internal/distance"
	"github.com/23skdu/eigencmc/internal/logging"
	"github.com/23skdu/eigencmc/internal/rank"
	"github.com/23skdu/eigencmc/internal/sweep"
)

const envPrefix = "EIGENCMC"

// Config is the runtime configuration, read from EIGENCMC_* variables.
type Config struct {
	Dimensions     string `envconfig:"DIMENSIONS" default:"10:100:10"`
	MaxRank        int    `envconfig:"MAX_RANK" default:"100"`
	DistanceMetric string `envconfig:"DISTANCE_METRIC" default:"euclidean"`
	Policy         string `envconfig:"POLICY" default:"continue"`
	Workers        int    `envconfig:"WORKERS" default:"1"`
	EngineWorkers  int    `envconfig:"ENGINE_WORKERS" default:"0"` // 0 means GOMAXPROCS
	OutputDir      string `envconfig:"OUTPUT_DIR" default:"./outputs"`
	Parquet        bool   `envconfig:"PARQUET" default:"true"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsAddr    string `envconfig:"METRICS_ADDR" default:""`
}

// Config validation errors
var (
	ErrInvalidMaxRank   = errors.New("max_rank must be positive")
	ErrNoDimensions     = errors.New("dimensions cannot be empty")
	ErrInvalidDimension = errors.New("dimensions must be positive integers or start:stop:step")
	ErrInvalidPolicy    = errors.New("policy must be 'abort' or 'continue'")
	ErrInvalidMetric    = errors.New("distance_metric is not registered")
	ErrInvalidLogFormat = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel  = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidWorkers   = errors.New("workers must be positive")
	ErrInvalidOutputDir = errors.New("output_dir cannot be empty")
)

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Dimensions:     "10:100:10",
		MaxRank:        rank.DefaultMaxRank,
		DistanceMetric: string(core.MetricEuclidean),
		Policy:         string(sweep.ContinueOnError),
		Workers:        1,
		OutputDir:      "./outputs",
		Parquet:        true,
		LogFormat:      "json",
		LogLevel:       "info",
	}
}

// ValidateConfig validates the configuration and returns an error if invalid
func ValidateConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.Dimensions) == "" {
		return ErrNoDimensions
	}
	if _, err := sweep.ParseDimensions(cfg.Dimensions); err != nil {
		return ErrInvalidDimension
	}
	if cfg.MaxRank <= 0 {
		return ErrInvalidMaxRank
	}
	if _, err := sweep.ParsePolicy(cfg.Policy); err != nil {
		return ErrInvalidPolicy
	}
	if _, err := distance.Lookup(core.DistanceMetric(cfg.DistanceMetric)); err != nil {
		return ErrInvalidMetric
	}
	if cfg.Workers <= 0 || cfg.EngineWorkers < 0 {
		return ErrInvalidWorkers
	}
	if cfg.OutputDir == "" {
		return ErrInvalidOutputDir
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil || cfg.LogLevel == "" {
		return ErrInvalidLogLevel
	}
	return nil
}

// LoadConfig reads an optional .env file, then the environment, and
// validates the result.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}
	if err := ValidateConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Dims returns the parsed dimension list. Call after ValidateConfig.
func (c *Config) Dims() []int {
	dims, _ := sweep.ParseDimensions(c.Dimensions)
	return dims
}
