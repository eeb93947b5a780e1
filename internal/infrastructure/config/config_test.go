package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the override variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDatabaseDriver, EnvDatabaseDSN, EnvSigningKey, EnvPublicBaseURL, EnvLogLevel, EnvAddr} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(".vistoria", "vistoria.db"), cfg.Database.Path)
	assert.Equal(t, 10*time.Minute, cfg.Storage.DownloadTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Links.DefaultValidity)
	assert.Equal(t, 5*time.Second, cfg.Signing.GeoTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestWriteDefaultAndLoad(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	err = WriteDefault(dir)
	assert.Error(t, err)
}

func TestLoad_FileOverlay(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))

	content := `
server:
  public_base_url: https://verify.example.com
database:
  driver: postgres
  dsn: postgres://localhost/vistoria
storage:
  download_ttl: 2m
links:
  default_validity: 168h
`
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://verify.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, ":8080", cfg.Server.Addr, "unset keys keep defaults")
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Storage.DownloadTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Links.DefaultValidity)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Missing(t *testing.T) {
	clearEnv(t)
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vistoria init")
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0755))
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("server: [unclosed"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))

	t.Setenv(EnvDatabaseDriver, "postgres")
	t.Setenv(EnvDatabaseDSN, "postgres://env/vistoria")
	t.Setenv(EnvSigningKey, "0123456789abcdef0123456789abcdef")
	t.Setenv(EnvPublicBaseURL, "https://env.example.com")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvAddr, ":9090")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env/vistoria", cfg.Database.DSN)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Storage.SigningKey)
	assert.Equal(t, "https://env.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, WriteDefault(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile),
		[]byte("VISTORIA_SIGNING_KEY=from-dotenv-0123456789abcdef0123\nVISTORIA_LOG_LEVEL=warn\n"), 0600))

	// the process environment wins over .env
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv-0123456789abcdef0123", cfg.Storage.SigningKey)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "unsupported database driver"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, wantErr: "database.dsn"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "no storage root", mutate: func(c *Config) { c.Storage.Root = "" }, wantErr: "storage.root"},
		{name: "negative ttl", mutate: func(c *Config) { c.Storage.DownloadTTL = -time.Second }, wantErr: "storage.download_ttl"},
		{name: "negative validity", mutate: func(c *Config) { c.Links.DefaultValidity = -time.Hour }, wantErr: "links.default_validity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := Default()
	err := cfg.ValidateServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signing_key")

	cfg.Storage.SigningKey = "short"
	assert.Error(t, cfg.ValidateServe())

	cfg.Storage.SigningKey = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.ValidateServe())

	cfg.Server.PublicBaseURL = ""
	assert.Error(t, cfg.ValidateServe())
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/srv", ".vistoria", "vistoria.db"), cfg.DatabasePath("/srv"))
	assert.Equal(t, filepath.Join("/srv", ".vistoria", "files"), cfg.StorageRoot("/srv"))

	cfg.Database.Path = "/var/lib/vistoria.db"
	assert.Equal(t, "/var/lib/vistoria.db", cfg.DatabasePath("/srv"))

	cfg.Database.Path = ":memory:"
	assert.Equal(t, ":memory:", cfg.DatabasePath("/srv"))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Server.PublicBaseURL = "https://written.example.com"
	cfg.Links.DefaultValidity = 48 * time.Hour

	require.NoError(t, Write(dir, cfg))

	clearEnv(t)
	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://written.example.com", loaded.Server.PublicBaseURL)
	assert.Equal(t, 48*time.Hour, loaded.Links.DefaultValidity)
}
