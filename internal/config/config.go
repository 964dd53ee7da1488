package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the config file consulted when no --config flag is given.
// A missing file is fine; defaults and environment variables still apply.
const DefaultPath = "binwise.toml"

// Config holds all binwise configuration.
type Config struct {
	ModelPath   string            `toml:"model_path"`
	TablePath   string            `toml:"table_path"`
	Calibration CalibrationConfig `toml:"calibration"`
	Runtime     RuntimeConfig     `toml:"runtime"`
}

// CalibrationConfig holds the calibration settings.
type CalibrationConfig struct {
	Bins int `toml:"bins"`
}

// RuntimeConfig holds batching and process-level settings.
type RuntimeConfig struct {
	BatchSize int    `toml:"batch_size"`
	Workers   int    `toml:"workers"` // 0 = GOMAXPROCS
	LogLevel  string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ModelPath: "models/classifier.onnx",
		TablePath: "calibration/table.mp",
		Calibration: CalibrationConfig{
			Bins: 15,
		},
		Runtime: RuntimeConfig{
			BatchSize: 256,
			Workers:   0,
			LogLevel:  "info",
		},
	}
}

// Load builds the configuration in three layers: defaults, then the TOML
// file at path (skipped silently when it's the default path and absent),
// then BINWISE_* environment variable overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		if err != nil && !(path == DefaultPath && errors.Is(err, fs.ErrNotExist)) {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	cfg.ModelPath = getenv("BINWISE_MODEL_PATH", cfg.ModelPath)
	cfg.TablePath = getenv("BINWISE_TABLE_PATH", cfg.TablePath)
	cfg.Calibration.Bins = getenvInt("BINWISE_BINS", cfg.Calibration.Bins)
	cfg.Runtime.BatchSize = getenvInt("BINWISE_BATCH_SIZE", cfg.Runtime.BatchSize)
	cfg.Runtime.Workers = getenvInt("BINWISE_WORKERS", cfg.Runtime.Workers)
	cfg.Runtime.LogLevel = getenv("BINWISE_LOG_LEVEL", cfg.Runtime.LogLevel)

	if cfg.Calibration.Bins < 1 {
		return Config{}, fmt.Errorf("config: bins must be >= 1, got %d", cfg.Calibration.Bins)
	}
	if cfg.Runtime.BatchSize < 1 {
		return Config{}, fmt.Errorf("config: batch_size must be >= 1, got %d", cfg.Runtime.BatchSize)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
