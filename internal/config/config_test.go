package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromRcAndEnv(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, ".sbmigraterc")
	if err := os.WriteFile(rc, []byte("token=rc-token\n"), 0o644); err != nil {
		t.Fatalf("write rc: %v", err)
	}
	old := RC_PATH
	RC_PATH = rc
	defer func() { RC_PATH = old }()

	t.Setenv("SB_TOKEN", "")
	t.Setenv("SB_SPACE_ID", "123")
	t.Setenv("MIGRATION_DIR", filepath.Join(dir, "snap"))
	t.Setenv("SB_DELAY_MS", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SourceToken != "rc-token" {
		t.Fatalf("want rc token, got %q", cfg.SourceToken)
	}
	if cfg.SpaceID != 123 {
		t.Fatalf("want space 123, got %d", cfg.SpaceID)
	}
	if cfg.SourceDelay != 50*time.Millisecond {
		t.Fatalf("want 50ms delay, got %v", cfg.SourceDelay)
	}
}

func TestEnvOverridesRc(t *testing.T) {
	old := RC_PATH
	RC_PATH = filepath.Join(t.TempDir(), "missing")
	defer func() { RC_PATH = old }()

	t.Setenv("SB_TOKEN", "env-token")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SourceToken != "env-token" {
		t.Fatalf("want env token, got %q", cfg.SourceToken)
	}
}

func TestValidate(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}
	c = Config{SourceToken: "t", SpaceID: 1}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.ValidateImport(); err == nil {
		t.Fatal("expected error for missing sanity credentials")
	}
}

func TestInvalidSpaceID(t *testing.T) {
	old := RC_PATH
	RC_PATH = filepath.Join(t.TempDir(), "missing")
	defer func() { RC_PATH = old }()

	t.Setenv("SB_SPACE_ID", "abc")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric space id")
	}
}
