package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var RC_PATH = "./.sbmigraterc"

// Config carries everything the migration engine needs to talk to both CMS
// APIs and to find its on-disk snapshot.
type Config struct {
	SourceToken string // Storyblok management API token
	SpaceID     int

	SanityProjectID string
	SanityDataset   string
	SanityToken     string

	MigrationDir string

	// Fixed inter-request pacing; see sb.pacedTransport.
	SourceDelay time.Duration
	DestDelay   time.Duration
}

// Load reads .env (if present), then the rc file, then environment
// overrides. Env always wins over the rc file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MigrationDir: "./migration",
		SourceDelay:  200 * time.Millisecond,
		DestDelay:    100 * time.Millisecond,
	}

	if tok, err := readRcToken(); err == nil {
		cfg.SourceToken = tok
	}
	if v := strings.TrimSpace(os.Getenv("SB_TOKEN")); v != "" {
		cfg.SourceToken = v
	}
	if v := strings.TrimSpace(os.Getenv("SB_SPACE_ID")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SB_SPACE_ID %q: %w", v, err)
		}
		cfg.SpaceID = n
	}
	cfg.SanityProjectID = strings.TrimSpace(os.Getenv("SANITY_PROJECT_ID"))
	cfg.SanityDataset = strings.TrimSpace(os.Getenv("SANITY_DATASET"))
	cfg.SanityToken = strings.TrimSpace(os.Getenv("SANITY_TOKEN"))

	if v := strings.TrimSpace(os.Getenv("MIGRATION_DIR")); v != "" {
		cfg.MigrationDir = v
	}
	if d, ok := msEnv("SB_DELAY_MS"); ok {
		cfg.SourceDelay = d
	}
	if d, ok := msEnv("SANITY_DELAY_MS"); ok {
		cfg.DestDelay = d
	}
	return cfg, nil
}

// Validate checks that the download phase can run. Import credentials are
// checked separately because download-only runs are legitimate.
func (c Config) Validate() error {
	if c.SourceToken == "" {
		return errors.New("missing source token (SB_TOKEN or rc file)")
	}
	if c.SpaceID == 0 {
		return errors.New("missing SB_SPACE_ID")
	}
	return nil
}

// ValidateImport checks the destination credentials.
func (c Config) ValidateImport() error {
	if c.SanityProjectID == "" || c.SanityDataset == "" || c.SanityToken == "" {
		return errors.New("missing SANITY_PROJECT_ID, SANITY_DATASET or SANITY_TOKEN")
	}
	return nil
}

// readRcToken parses the "token=XYZ" rc file.
func readRcToken() (string, error) {
	rcFile, err := os.Open(RC_PATH)
	if err != nil {
		return "", err
	}
	defer rcFile.Close()

	rcContent, err := io.ReadAll(rcFile)
	if err != nil {
		return "", err
	}

	parts := strings.SplitN(string(rcContent), "=", 2)
	if len(parts) != 2 {
		return "", errors.New("invalid format in rc file")
	}
	return strings.TrimSpace(parts[1]), nil
}

func msEnv(key string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
