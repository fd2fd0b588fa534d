package container

import (
	"context"
	"path/filepath"
	"strings"

	"goethos/adapters/excel"
	"goethos/adapters/export"
	"goethos/adapters/postgres"
	"goethos/adapters/sqlite"
	"goethos/app"
	"goethos/internal/cache"
	"goethos/internal/config"
	"goethos/internal/errors"
	"goethos/internal/logging"
	"goethos/internal/migration"
	"goethos/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *sqlx.DB
	sqliteCache *sqlite.CacheStore

	// Data access
	Responses    ports.ResponseReader
	ResponseRepo *postgres.ResponseRepositoryImpl // nil without a database

	Cache    cache.Store
	Profiles *app.ProfileService
}

// Options selects where responses come from. A non-empty File wins over the
// configured database.
type Options struct {
	File  string
	Sheet string
}

// New creates a container and initializes every component
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	c := &Container{
		Config: cfg,
		Logger: logging.OrNop(logger),
	}

	if err := c.initResponses(ctx, opts); err != nil {
		c.Shutdown()
		return nil, errors.Wrap(err, "failed to initialize response source")
	}
	if err := c.initCache(ctx); err != nil {
		c.Shutdown()
		return nil, errors.Wrap(err, "failed to initialize cache")
	}

	c.Profiles = app.NewProfileService(c.Responses, c.Cache, cfg.Cache.TTL, cfg.Analysis, c.Logger)
	c.Logger.Info("container initialized",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("database", c.DB != nil))
	return c, nil
}

// initResponses picks the response reader
func (c *Container) initResponses(ctx context.Context, opts Options) error {
	if opts.File != "" {
		reader, err := OpenResponseFile(opts.File, opts.Sheet, c.Logger)
		if err != nil {
			return err
		}
		c.Responses = reader
		return nil
	}

	if c.Config.Database.URL == "" {
		return errors.ConfigInvalid("either a response file or database.url is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if c.Config.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	}
	c.DB = db

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return errors.DatabaseError("database migration failed", err)
	}

	c.ResponseRepo = postgres.NewResponseRepository(db)
	c.Responses = c.ResponseRepo
	return nil
}

// initCache creates the configured cache backend
func (c *Container) initCache(ctx context.Context) error {
	switch c.Config.Cache.Backend {
	case "sqlite":
		store, err := sqlite.Open(ctx, c.Config.Cache.SQLitePath, nil)
		if err != nil {
			return err
		}
		c.sqliteCache = store
		c.Cache = store
	default:
		c.Cache = cache.NewMemory(nil)
	}
	return nil
}

// OpenResponseFile returns a reader for an .xlsx, .csv or .json response file
func OpenResponseFile(path, sheet string, logger *zap.Logger) (ports.ResponseReader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		reader, err := export.Open(path)
		if err != nil {
			return nil, err
		}
		return reader, nil
	case ".xlsx", ".csv":
		reader := excel.NewResponseReader(path, logger)
		if sheet != "" {
			reader.WithSheet(sheet)
		}
		if _, err := reader.ReadAll(); err != nil {
			return nil, err
		}
		return reader, nil
	default:
		return nil, errors.InvalidInputf("unsupported response file %q: expected .xlsx, .csv or .json", path)
	}
}

// Shutdown releases database handles
func (c *Container) Shutdown() {
	if c.sqliteCache != nil {
		if err := c.sqliteCache.Close(); err != nil {
			c.Logger.Warn("failed to close sqlite cache", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
