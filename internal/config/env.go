package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays DURAQ_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("DURAQ_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("DURAQ_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("DURAQ_FSYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.FsyncInterval = d
		}
	}
	if v := os.Getenv("DURAQ_CHUNK_MAX_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChunkMaxBytes = n
		}
	}
	if v := os.Getenv("DURAQ_DEFAULT_WAIT_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.DefaultWaitMs = n
		}
	}
	if v := os.Getenv("DURAQ_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SweepInterval = d
		}
	}
	if v := os.Getenv("DURAQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
