// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for vistoria configuration.
	DefaultConfigDir = ".vistoria"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DotEnvFile is read from the base path when present.
	DotEnvFile = ".env"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables that override file settings.
const (
	EnvDatabaseDriver = "VISTORIA_DATABASE_DRIVER"
	EnvDatabaseDSN    = "VISTORIA_DATABASE_DSN"
	EnvSigningKey     = "VISTORIA_SIGNING_KEY"
	EnvPublicBaseURL  = "VISTORIA_PUBLIC_BASE_URL"
	EnvLogLevel       = "VISTORIA_LOG_LEVEL"
	EnvAddr           = "VISTORIA_ADDR"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Links    LinksConfig    `yaml:"links"`
	Signing  SigningConfig  `yaml:"signing"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// PublicBaseURL is printed into reports; verification links are
	// PublicBaseURL + "/verify?token=...".
	PublicBaseURL string        `yaml:"public_base_url,omitempty"`
	ReadTimeout   time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout  time.Duration `yaml:"write_timeout,omitempty"`
}

// DatabaseConfig selects and configures the relational store.
type DatabaseConfig struct {
	Driver string `yaml:"driver,omitempty"`
	// Path is the SQLite file, relative to the base path unless absolute.
	Path string `yaml:"path,omitempty"`
	// DSN is the Postgres connection string.
	DSN string `yaml:"dsn,omitempty"`
}

// StorageConfig configures the report and signature file store.
type StorageConfig struct {
	Root        string        `yaml:"root,omitempty"`
	SigningKey  string        `yaml:"signing_key,omitempty"`
	DownloadTTL time.Duration `yaml:"download_ttl,omitempty"`
}

// LinksConfig holds public link defaults.
type LinksConfig struct {
	DefaultValidity time.Duration `yaml:"default_validity,omitempty"`
}

// SigningConfig holds signature capture settings.
type SigningConfig struct {
	GeoTimeout time.Duration `yaml:"geo_timeout,omitempty"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // "json" or "console"
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			PublicBaseURL: "http://localhost:8080",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(DefaultConfigDir, "vistoria.db"),
		},
		Storage: StorageConfig{
			Root:        filepath.Join(DefaultConfigDir, "files"),
			DownloadTTL: 10 * time.Minute,
		},
		Links: LinksConfig{
			DefaultValidity: 30 * 24 * time.Hour,
		},
		Signing: SigningConfig{
			GeoTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from the .vistoria directory in the given path.
// A .env file next to it is loaded first; variables already set in the
// process environment take precedence over it.
func Load(basePath string) (*Config, error) {
	if err := LoadDotEnv(basePath); err != nil {
		return nil, err
	}

	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'vistoria init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadDotEnv loads basePath/.env into the process environment.
// A missing file is not an error.
func LoadDotEnv(basePath string) error {
	path := filepath.Join(basePath, DotEnvFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvDatabaseDriver, &c.Database.Driver},
		{EnvDatabaseDSN, &c.Database.DSN},
		{EnvSigningKey, &c.Storage.SigningKey},
		{EnvPublicBaseURL, &c.Server.PublicBaseURL},
		{EnvLogLevel, &c.Logging.Level},
		{EnvAddr, &c.Server.Addr},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

// Validate checks settings every command needs.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres (or set %s)", EnvDatabaseDSN)
		}
	default:
		return fmt.Errorf("unsupported database driver: %q (valid: sqlite, postgres)", c.Database.Driver)
	}

	if c.Storage.Root == "" {
		return errors.New("storage.root is required")
	}
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"storage.download_ttl", c.Storage.DownloadTTL},
		{"links.default_validity", c.Links.DefaultValidity},
		{"signing.geo_timeout", c.Signing.GeoTimeout},
	} {
		if d.value < 0 {
			return fmt.Errorf("%s must not be negative", d.name)
		}
	}
	return nil
}

// ValidateServe checks the settings needed to serve public requests.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Storage.SigningKey) < 32 {
		return fmt.Errorf("storage.signing_key must be at least 32 characters (or set %s)", EnvSigningKey)
	}
	if c.Server.PublicBaseURL == "" {
		return errors.New("server.public_base_url is required")
	}
	return nil
}

// DatabasePath resolves the SQLite path against basePath.
func (c *Config) DatabasePath(basePath string) string {
	return resolve(basePath, c.Database.Path)
}

// StorageRoot resolves the file store root against basePath.
func (c *Config) StorageRoot(basePath string) string {
	return resolve(basePath, c.Storage.Root)
}

func resolve(basePath, p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// ConfigDir returns the path to the .vistoria config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}
