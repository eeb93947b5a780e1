// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/vistoria/vistoria-core/internal/domain/ports"
	"github.com/vistoria/vistoria-core/internal/infrastructure/config"
)

// signingKeyBytes is the entropy of a generated download signing key.
const signingKeyBytes = 32

// OpenDBFunc opens the relational database described by cfg.
type OpenDBFunc func(ctx context.Context, cfg *config.Config) (ports.RelationalDB, error)

// InitHandler handles workspace initialization.
type InitHandler struct {
	openDB OpenDBFunc
}

// NewInitHandler creates a new init handler.
func NewInitHandler(openDB OpenDBFunc) *InitHandler {
	return &InitHandler{
		openDB: openDB,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath        string
	DatabaseDriver    string
	StorageRoot       string
	SigningKeyPath    string // empty when a key was already configured
	SigningKeyCreated bool
}

// Handle writes the default config, creates the storage root and the
// database schema, and generates a download signing key when none is set.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("vistoria already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	result := &InitResult{ConfigPath: config.ConfigFilePath(basePath)}

	created, err := ensureSigningKey(basePath)
	if err != nil {
		return nil, err
	}
	if created {
		result.SigningKeyCreated = true
		result.SigningKeyPath = filepath.Join(basePath, config.DotEnvFile)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	result.DatabaseDriver = cfg.Database.Driver
	result.StorageRoot = cfg.StorageRoot(basePath)

	if err := os.MkdirAll(result.StorageRoot, 0755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}

	if h.openDB != nil {
		db, err := h.openDB(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return result, nil
}

// ensureSigningKey appends a random VISTORIA_SIGNING_KEY to the .env file
// unless the environment or the file already provides one.
func ensureSigningKey(basePath string) (bool, error) {
	if os.Getenv(config.EnvSigningKey) != "" {
		return false, nil
	}

	path := filepath.Join(basePath, config.DotEnvFile)
	env, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("reading %s: %w", path, err)
		}
		env = map[string]string{}
	}
	if env[config.EnvSigningKey] != "" {
		return false, nil
	}

	buf := make([]byte, signingKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return false, fmt.Errorf("generating signing key: %w", err)
	}
	env[config.EnvSigningKey] = hex.EncodeToString(buf)

	if err := godotenv.Write(env, path); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return false, fmt.Errorf("restricting %s: %w", path, err)
	}
	return true, nil
}
