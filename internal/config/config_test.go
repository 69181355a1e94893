package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("NOTION_DATABASE_ID", "db123")
	t.Setenv("NOTION_TOKEN", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Sync.DestDir != "content/posts" {
		t.Errorf("Expected DestDir 'content/posts', got %q", cfg.Sync.DestDir)
	}
	if cfg.Sync.FileExtension != "mdx" {
		t.Errorf("Expected extension 'mdx', got %q", cfg.Sync.FileExtension)
	}
	if cfg.Sync.Properties.Slug != "Slug" || cfg.Sync.Properties.Title != "Name" {
		t.Errorf("Unexpected default property names: %+v", cfg.Sync.Properties)
	}
	if cfg.Sync.Properties.Status != "" || cfg.Sync.Properties.Tags != "" {
		t.Errorf("Optional properties should default to empty: %+v", cfg.Sync.Properties)
	}
	if cfg.Sync.PublishedStatus != "Published" || cfg.Sync.DraftStatus != "Draft" {
		t.Errorf("Unexpected status names: %q %q", cfg.Sync.PublishedStatus, cfg.Sync.DraftStatus)
	}
	if cfg.Sync.DryRun {
		t.Error("DryRun should default to false")
	}
	if cfg.Notion.Version != "2022-06-28" {
		t.Errorf("Unexpected Notion version %q", cfg.Notion.Version)
	}
	if cfg.Notion.Timeout != 30*time.Second || cfg.Notion.MaxRetries != 3 {
		t.Errorf("Unexpected Notion client defaults: %+v", cfg.Notion)
	}
	if cfg.Ledger.Enabled {
		t.Error("Ledger should be disabled by default")
	}
}

func TestLoad_MissingDatabaseID(t *testing.T) {
	t.Setenv("NOTION_DATABASE_ID", "")
	t.Setenv("NOTION_TOKEN", "secret")

	_, err := Load()
	if !errors.Is(err, ErrMissingDatabaseID) {
		t.Fatalf("Expected ErrMissingDatabaseID, got %v", err)
	}
	if err.Error() != "Missing NOTION_DATABASE_ID" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("NOTION_DATABASE_ID", "db123")
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("DRY_RUN", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("Expected ErrMissingToken, got %v", err)
	}
}

func TestLoad_DryRunWithoutToken(t *testing.T) {
	t.Setenv("NOTION_DATABASE_ID", "db123")
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("DRY_RUN", "TRUE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected dry run to pass without token, got %v", err)
	}
	if !cfg.Sync.DryRun {
		t.Error("Expected DryRun to be true")
	}
}

func TestDryRunParsing(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"True", true},
		{"TRUE", true},
		{"1", false},
		{"yes", false},
		{"false", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("DRY_RUN", tt.value)
			if got := FromEnv().Sync.DryRun; got != tt.expected {
				t.Errorf("DRY_RUN=%q: expected %v, got %v", tt.value, tt.expected, got)
			}
		})
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DEST_DIR", "site/blog")
	t.Setenv("FILE_EXTENSION", ".md")
	t.Setenv("STATUS_PROPERTY", "Status")
	t.Setenv("TAGS_PROPERTY", "Tags")
	t.Setenv("COVER_URL_PROPERTY", "Cover")
	t.Setenv("SYNC_INTERVAL", "15m")
	t.Setenv("NOTION_MAX_RETRIES", "not-a-number")

	cfg := FromEnv()
	if cfg.Sync.DestDir != "site/blog" {
		t.Errorf("Expected DestDir override, got %q", cfg.Sync.DestDir)
	}
	if cfg.Sync.FileExtension != "md" {
		t.Errorf("Expected leading dot stripped, got %q", cfg.Sync.FileExtension)
	}
	if cfg.Sync.Properties.Status != "Status" || cfg.Sync.Properties.Tags != "Tags" || cfg.Sync.Properties.Cover != "Cover" {
		t.Errorf("Unexpected properties: %+v", cfg.Sync.Properties)
	}
	if cfg.Sync.Interval != 15*time.Minute {
		t.Errorf("Expected 15m interval, got %v", cfg.Sync.Interval)
	}
	if cfg.Notion.MaxRetries != 3 {
		t.Errorf("Invalid int should fall back to default, got %d", cfg.Notion.MaxRetries)
	}
}

func TestValidate_Ledger(t *testing.T) {
	cfg := &Config{
		Notion: NotionConfig{DatabaseID: "db", Token: "t"},
		Sync:   SyncConfig{DestDir: "out", FileExtension: "mdx"},
		Ledger: LedgerConfig{Enabled: true},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for ledger without database host")
	}

	cfg.Database = DatabaseConfig{Host: "localhost", Name: "notion_sync"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	expected := "host=h port=5432 user=u password=p dbname=n sslmode=disable"
	if got := db.GetDSN(); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("NOTION_SYNC_TEST_VAR=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NOTION_SYNC_TEST_VAR", "")
	os.Unsetenv("NOTION_SYNC_TEST_VAR")

	if err := LoadDotenv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotenv() error: %v", err)
	}
	if got := os.Getenv("NOTION_SYNC_TEST_VAR"); got != "from-file" {
		t.Errorf("Expected value from file, got %q", got)
	}
}
