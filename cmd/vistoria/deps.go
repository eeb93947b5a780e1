package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/vistoria/vistoria-core/internal/application/handlers"
	"github.com/vistoria/vistoria-core/internal/domain/ports"
	"github.com/vistoria/vistoria-core/internal/domain/services"
	"github.com/vistoria/vistoria-core/internal/infrastructure/blobstore/localfs"
	"github.com/vistoria/vistoria-core/internal/infrastructure/config"
	"github.com/vistoria/vistoria-core/internal/infrastructure/logging"
	"github.com/vistoria/vistoria-core/internal/infrastructure/metrics"
	"github.com/vistoria/vistoria-core/internal/infrastructure/relationaldb/postgres"
	"github.com/vistoria/vistoria-core/internal/infrastructure/relationaldb/sqlite"
	pdf "github.com/vistoria/vistoria-core/internal/infrastructure/renderer/pdf"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config      *config.Config
	Log         logr.Logger
	Inspections *handlers.InspectionHandler
	Import      *handlers.ImportHandler
	Generate    *handlers.GenerateHandler
	Links       *handlers.LinkHandler
	Verify      *handlers.VerifyHandler
}

// internalDeps holds all dependencies including low-level components.
// Used by commands that need direct access, such as serve.
type internalDeps struct {
	Deps
	relationalDB ports.RelationalDB
	files        *localfs.Store
	metrics      *metrics.Recorder
	verification *services.VerificationService
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, g *globalFlags, fn func(context.Context, *Deps) error) error {
	return withInternalDeps(ctx, g, func(ctx context.Context, d *internalDeps) error {
		return fn(ctx, &d.Deps)
	})
}

// withSignHandler builds a SignHandler whose geolocator returns loc.
func withSignHandler(ctx context.Context, g *globalFlags, loc ports.Geolocator, fn func(context.Context, *handlers.SignHandler) error) error {
	return withInternalDeps(ctx, g, func(ctx context.Context, d *internalDeps) error {
		signatures := services.NewSignatureService(d.relationalDB, d.files, loc, d.Config.Signing.GeoTimeout)
		return fn(ctx, handlers.NewSignHandler(signatures))
	})
}

// withInternalDeps provides access to all dependencies including low-level components.
func withInternalDeps(ctx context.Context, g *globalFlags, fn func(context.Context, *internalDeps) error) error {
	basePath, err := resolveBasePath(g)
	if err != nil {
		return err
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	log, flush, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer flush()
	ctx = logr.NewContext(ctx, log)

	db, err := openRelationalDB(ctx, basePath, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	files, err := localfs.New(cfg.StorageRoot(basePath), cfg.Server.PublicBaseURL, cfg.Storage.SigningKey)
	if err != nil {
		return fmt.Errorf("creating file store: %w", err)
	}

	recorder := metrics.NewRecorder()
	policy := services.LinkPolicy{
		PublicBaseURL:   cfg.Server.PublicBaseURL,
		DefaultValidity: cfg.Links.DefaultValidity,
	}

	inspectionService := services.NewInspectionService(db)
	reportService := services.NewReportService(db, files, pdf.New(pdf.Options{}), recorder, policy)
	linkService := services.NewLinkService(db, policy)
	verificationService := services.NewVerificationService(db, db, files, recorder, cfg.Storage.DownloadTTL)

	deps := &internalDeps{
		Deps: Deps{
			Config:      cfg,
			Log:         log,
			Inspections: handlers.NewInspectionHandler(inspectionService),
			Import:      handlers.NewImportHandler(inspectionService),
			Generate:    handlers.NewGenerateHandler(reportService),
			Links:       handlers.NewLinkHandler(linkService),
			Verify:      handlers.NewVerifyHandler(verificationService),
		},
		relationalDB: db,
		files:        files,
		metrics:      recorder,
		verification: verificationService,
	}

	return fn(ctx, deps)
}

// openRelationalDB opens the configured store. It matches handlers.OpenDBFunc
// once the base path is bound.
func openRelationalDB(ctx context.Context, basePath string, cfg *config.Config) (ports.RelationalDB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("creating postgres repository: %w", err)
		}
		return repo, nil
	default:
		path := cfg.DatabasePath(basePath)
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		repo, err := sqlite.NewRepository(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path})
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		return repo, nil
	}
}

func resolveBasePath(g *globalFlags) (string, error) {
	if g.dir != "" {
		return filepath.Abs(g.dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return cwd, nil
}
