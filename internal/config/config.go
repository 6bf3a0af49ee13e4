package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Defaults for the PokeAPI catalog.
const (
	DefaultCatalogBaseURL = "https://pokeapi.co/api/v2/pokemon"
	DefaultCatalogSize    = 898
	DefaultStorageKey     = "pokemonTeam"
	DefaultLogLevel       = "info"
)

// Config holds application configuration.
type Config struct {
	// CatalogBaseURL is the collection endpoint; records are fetched from
	// CatalogBaseURL/<id> and CatalogBaseURL/<name>.
	CatalogBaseURL string `json:"catalog_base_url,omitempty"`

	// CatalogSize is the highest id random picks are drawn from (range [1, CatalogSize]).
	CatalogSize int `json:"catalog_size,omitempty"`

	// HTTPTimeoutSeconds bounds catalog requests. 0 means no client-side timeout.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty"`

	// StorageKey is the key the team record is stored under.
	StorageKey string `json:"storage_key,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// envOverrides mirrors the scalar settings that may come from the environment.
// Pointers distinguish "unset" from zero values.
type envOverrides struct {
	CatalogBaseURL     *string  `env:"DEXTEAM_CATALOG_URL"`
	CatalogSize        *int     `env:"DEXTEAM_CATALOG_SIZE"`
	HTTPTimeoutSeconds *int     `env:"DEXTEAM_HTTP_TIMEOUT_SECONDS"`
	StorageKey         *string  `env:"DEXTEAM_STORAGE_KEY"`
	LogLevel           *string  `env:"DEXTEAM_LOG_LEVEL"`
	DisabledTools      []string `env:"DEXTEAM_DISABLED_TOOLS" envSeparator:","`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CatalogBaseURL: DefaultCatalogBaseURL,
		CatalogSize:    DefaultCatalogSize,
		StorageKey:     DefaultStorageKey,
		LogLevel:       DefaultLogLevel,
	}
}

// Load loads configuration from baseDir/config.json, then applies
// baseDir/.env and DEXTEAM_* environment variables on top.
// Returns default config if neither file exists.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.dexteam.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Join(baseDir, ".env")); err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overlays DEXTEAM_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.CatalogBaseURL != nil {
		cfg.CatalogBaseURL = *o.CatalogBaseURL
	}
	if o.CatalogSize != nil {
		cfg.CatalogSize = *o.CatalogSize
	}
	if o.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeoutSeconds = *o.HTTPTimeoutSeconds
	}
	if o.StorageKey != nil {
		cfg.StorageKey = *o.StorageKey
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	cfg.DisabledTools = mergeStringSlice(cfg.DisabledTools, o.DisabledTools)
	return nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CatalogBaseURL) == "" {
		return errors.New("catalog_base_url must not be empty")
	}
	if c.CatalogSize < 1 {
		return fmt.Errorf("catalog_size must be at least 1, got %d", c.CatalogSize)
	}
	if c.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("http_timeout_seconds must not be negative, got %d", c.HTTPTimeoutSeconds)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return errors.New("storage_key must not be empty")
	}
	return nil
}

// loadDotEnv loads a .env file into the process environment if present.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.CatalogBaseURL = firstNonEmpty(overlay.CatalogBaseURL, base.CatalogBaseURL)
	result.StorageKey = firstNonEmpty(overlay.StorageKey, base.StorageKey)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)

	result.CatalogSize = firstNonZero(overlay.CatalogSize, base.CatalogSize)
	result.HTTPTimeoutSeconds = firstNonZero(overlay.HTTPTimeoutSeconds, base.HTTPTimeoutSeconds)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
