package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	pebblestore "github.com/duraq/duraq/internal/storage/pebble"
)

// Config is the top-level configuration for a duraq queue instance.
type Config struct {
	DataDir       string        `json:"dataDir" yaml:"dataDir"`
	Fsync         string        `json:"fsync" yaml:"fsync"` // "always", "interval", "never"
	FsyncInterval time.Duration `json:"fsyncInterval" yaml:"fsyncInterval"`
	ChunkMaxBytes int           `json:"chunkMaxBytes" yaml:"chunkMaxBytes"`
	DefaultWaitMs int64         `json:"defaultWaitMs" yaml:"defaultWaitMs"`
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
	LogLevel      string        `json:"logLevel" yaml:"logLevel"`
}

// Default returns built-in defaults; Default() alone is a complete, working
// configuration. These are config-level defaults only: queue.Open does not
// fall back to them when its Options fields are left zero.
func Default() Config {
	return Config{
		DataDir:       "./data",
		Fsync:         "always",
		FsyncInterval: 200 * time.Millisecond,
		ChunkMaxBytes: 1 << 20,
		DefaultWaitMs: 0,
		SweepInterval: 30 * time.Second,
		LogLevel:      "info",
	}
}

// Load reads configuration from a JSON or YAML file, selected by the
// file extension. If path is empty, it returns Default(). Fields absent
// from the file keep their default value.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// FsyncMode translates the textual Fsync setting into the storage
// layer's enum, defaulting to FsyncModeAlways for unrecognized values.
func (c Config) FsyncMode() pebblestore.FsyncMode {
	switch c.Fsync {
	case "interval":
		return pebblestore.FsyncModeInterval
	case "never":
		return pebblestore.FsyncModeNever
	default:
		return pebblestore.FsyncModeAlways
	}
}
