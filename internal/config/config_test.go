package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	pebblestore "github.com/duraq/duraq/internal/storage/pebble"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Fsync != "always" {
		t.Fatalf("default fsync mode")
	}
	if cfg.ChunkMaxBytes != 1<<20 {
		t.Fatalf("default chunk max bytes")
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("default sweep interval")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "duraq.json")
	data := []byte(`{"dataDir":"/var/lib/duraq","fsync":"never","chunkMaxBytes":2048,"defaultWaitMs":500}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/duraq" {
		t.Fatalf("expected data dir override")
	}
	if cfg.Fsync != "never" {
		t.Fatalf("expected fsync override")
	}
	if cfg.ChunkMaxBytes != 2048 {
		t.Fatalf("expected chunk max bytes override")
	}
	if cfg.DefaultWaitMs != 500 {
		t.Fatalf("expected wait ms override")
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "duraq.yaml")
	data := []byte("dataDir: /tmp/duraq\nfsync: interval\nfsyncInterval: 500ms\nchunkMaxBytes: 4096\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/duraq" {
		t.Fatalf("expected data dir override, got %q", cfg.DataDir)
	}
	if cfg.Fsync != "interval" {
		t.Fatalf("expected fsync override, got %q", cfg.Fsync)
	}
	if cfg.FsyncInterval != 500*time.Millisecond {
		t.Fatalf("expected fsync interval override, got %v", cfg.FsyncInterval)
	}
	if cfg.ChunkMaxBytes != 4096 {
		t.Fatalf("expected chunk max bytes override, got %d", cfg.ChunkMaxBytes)
	}
}

func TestFsyncMode(t *testing.T) {
	cases := map[string]pebblestore.FsyncMode{
		"always":   pebblestore.FsyncModeAlways,
		"interval": pebblestore.FsyncModeInterval,
		"never":    pebblestore.FsyncModeNever,
		"":         pebblestore.FsyncModeAlways,
	}
	for in, want := range cases {
		cfg := Config{Fsync: in}
		if got := cfg.FsyncMode(); got != want {
			t.Fatalf("FsyncMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	os.Setenv("DURAQ_DATA_DIR", "/data/duraq")
	os.Setenv("DURAQ_FSYNC", "never")
	os.Setenv("DURAQ_CHUNK_MAX_BYTES", "8192")
	t.Cleanup(func() {
		os.Unsetenv("DURAQ_DATA_DIR")
		os.Unsetenv("DURAQ_FSYNC")
		os.Unsetenv("DURAQ_CHUNK_MAX_BYTES")
	})
	FromEnv(&cfg)
	if cfg.DataDir != "/data/duraq" {
		t.Fatalf("env override data dir")
	}
	if cfg.Fsync != "never" {
		t.Fatalf("env override fsync")
	}
	if cfg.ChunkMaxBytes != 8192 {
		t.Fatalf("env override chunk max bytes")
	}
}
