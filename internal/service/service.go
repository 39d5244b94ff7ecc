// Package service wires storage, the history database and the analyzer
// together from configuration.
package service

import (
	"context"
	"fmt"
	"io"

	"github.com/thobe/thread-dump-analysis/internal/repository"
	"github.com/thobe/thread-dump-analysis/internal/storage"
	"github.com/thobe/thread-dump-analysis/pkg/config"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/model"
	"github.com/thobe/thread-dump-analysis/pkg/utils"
)

// Service is the main application service.
type Service struct {
	config  *config.Config
	logger  utils.Logger
	db      *repository.Repositories
	storage storage.Storage
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeInvalidInput, "config is required")
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if s.config.Database.Enabled {
		if err := s.initDatabase(ctx); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

// initDatabase opens the history database and migrates its schema.
func (s *Service) initDatabase(ctx context.Context) error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	opts := repository.DefaultDBOptions()
	opts.Tracing = s.config.Telemetry.Enabled

	gormDB, err := repository.NewGormDB(&s.config.Database, opts)
	if err != nil {
		return err
	}

	s.db = repository.NewRepositories(gormDB)
	if err := s.db.Migrate(ctx); err != nil {
		s.db.Close()
		s.db = nil
		return err
	}
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the graph storage.
func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// Storage returns the initialized storage, nil before Initialize.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

// Snapshots returns the history repository, nil when the database is disabled.
func (s *Service) Snapshots() repository.SnapshotRepository {
	if s.db == nil {
		return nil
	}
	return s.db.Snapshots
}

// Analyzer builds an analyzer from the analysis config. Lock matrices are
// printed to console.
func (s *Service) Analyzer(console io.Writer, options ...Option) (*Analyzer, error) {
	if s.storage == nil {
		return nil, errors.New(errors.CodeInvalidInput, "service is not initialized")
	}

	opts := []Option{WithLogger(s.logger), WithConsole(console)}
	if repo := s.Snapshots(); repo != nil {
		opts = append(opts, WithRepository(repo))
	}
	return NewAnalyzer(s.storage, OptionsFromConfig(&s.config.Analysis), append(opts, options...)...)
}

// History lists the latest stored snapshots of source.
func (s *Service) History(ctx context.Context, source string, limit int) ([]model.StoredSnapshot, error) {
	repo, err := s.history()
	if err != nil {
		return nil, err
	}
	return repo.ListBySource(ctx, source, limit)
}

// StoredSnapshot returns one stored snapshot by record id.
func (s *Service) StoredSnapshot(ctx context.Context, id int64) (*model.StoredSnapshot, error) {
	repo, err := s.history()
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}

func (s *Service) history() (repository.SnapshotRepository, error) {
	repo := s.Snapshots()
	if repo == nil {
		return nil, errors.New(errors.CodeConfigError, "snapshot history requires database.enabled")
	}
	return repo, nil
}

// Close releases the database connection.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("Closing database connection")
	err := s.db.Close()
	s.db = nil
	return err
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}

	return nil
}
