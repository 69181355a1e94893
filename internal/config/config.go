package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingDatabaseID = errors.New("Missing NOTION_DATABASE_ID")
	ErrMissingToken      = errors.New("Missing NOTION_TOKEN")
)

// Config holds all application configuration
type Config struct {
	// Notion API configuration
	Notion NotionConfig

	// Output and field mapping configuration
	Sync SyncConfig

	// Server configuration (serve mode)
	Server ServerConfig

	// Run ledger configuration
	Ledger LedgerConfig

	// Database configuration (ledger)
	Database DatabaseConfig

	// Logging configuration
	Log LogConfig
}

// NotionConfig holds remote API settings
type NotionConfig struct {
	DatabaseID string
	Token      string
	BaseURL    string
	Version    string
	Timeout    time.Duration
	MaxRetries int
}

// PropertyNames maps document concepts to Notion property names. An empty
// name means the concept is not configured.
type PropertyNames struct {
	Slug      string
	Title     string
	Published string
	Draft     string
	Status    string
	Sync      string
	Tags      string
	Category  string
	Excerpt   string
	Cover     string
	Date      string
	Filename  string
	Author    string
}

// SyncConfig holds destination and mapping settings
type SyncConfig struct {
	DestDir         string
	FileExtension   string
	Properties      PropertyNames
	PublishedStatus string
	DraftStatus     string
	DryRun          bool
	EmitDraft       bool
	Interval        time.Duration // 0 disables scheduled runs
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LedgerConfig selects where runs are recorded
type LedgerConfig struct {
	Enabled        bool
	MigrationsPath string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// LoadDotenv loads KEY=VALUE files into the process environment. Missing
// files are ignored; variables already set are never overridden.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := FromEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv reads configuration without validating it
func FromEnv() *Config {
	return &Config{
		Notion: NotionConfig{
			DatabaseID: os.Getenv("NOTION_DATABASE_ID"),
			Token:      os.Getenv("NOTION_TOKEN"),
			BaseURL:    getEnv("NOTION_API_URL", "https://api.notion.com/v1"),
			Version:    getEnv("NOTION_VERSION", "2022-06-28"),
			Timeout:    getDurationEnv("NOTION_TIMEOUT", 30*time.Second),
			MaxRetries: getIntEnv("NOTION_MAX_RETRIES", 3),
		},
		Sync: SyncConfig{
			DestDir:       getEnv("DEST_DIR", "content/posts"),
			FileExtension: strings.TrimPrefix(getEnv("FILE_EXTENSION", "mdx"), "."),
			Properties: PropertyNames{
				Slug:      getEnv("SLUG_PROPERTY", "Slug"),
				Title:     getEnv("TITLE_PROPERTY", "Name"),
				Published: os.Getenv("PUBLISHED_PROPERTY"),
				Draft:     os.Getenv("DRAFT_PROPERTY"),
				Status:    os.Getenv("STATUS_PROPERTY"),
				Sync:      os.Getenv("SYNC_PROPERTY"),
				Tags:      os.Getenv("TAGS_PROPERTY"),
				Category:  os.Getenv("CATEGORY_PROPERTY"),
				Excerpt:   os.Getenv("EXCERPT_PROPERTY"),
				Cover:     os.Getenv("COVER_URL_PROPERTY"),
				Date:      os.Getenv("DATE_PROPERTY"),
				Filename:  os.Getenv("FILENAME_PROPERTY"),
				Author:    os.Getenv("AUTHOR_PROPERTY"),
			},
			PublishedStatus: getEnv("PUBLISHED_STATUS_NAME", "Published"),
			DraftStatus:     getEnv("DRAFT_STATUS_NAME", "Draft"),
			DryRun:          strings.ToLower(os.Getenv("DRY_RUN")) == "true",
			EmitDraft:       getBoolEnv("EMIT_DRAFT", false),
			Interval:        getDurationEnv("SYNC_INTERVAL", 0),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Ledger: LedgerConfig{
			Enabled:        getBoolEnv("LEDGER_ENABLED", false),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "notion_sync"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Notion.DatabaseID == "" {
		return ErrMissingDatabaseID
	}
	if c.Notion.Token == "" && !c.Sync.DryRun {
		return ErrMissingToken
	}
	if c.Sync.DestDir == "" {
		return fmt.Errorf("DEST_DIR is required")
	}
	if c.Sync.FileExtension == "" {
		return fmt.Errorf("FILE_EXTENSION is required")
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("SYNC_INTERVAL must not be negative")
	}
	if c.Ledger.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
