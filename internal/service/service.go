// Package service wires configuration, persistence, storage, and the
// simulator engine into a single runnable unit.
package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/streamsim/dataflow-sim/internal/keygen"
	"github.com/streamsim/dataflow-sim/internal/repository"
	"github.com/streamsim/dataflow-sim/internal/simulator"
	"github.com/streamsim/dataflow-sim/internal/storage"
	"github.com/streamsim/dataflow-sim/internal/topology"
	"github.com/streamsim/dataflow-sim/pkg/compression"
	"github.com/streamsim/dataflow-sim/pkg/config"
	"github.com/streamsim/dataflow-sim/pkg/model"
	"github.com/streamsim/dataflow-sim/pkg/utils"
	"github.com/streamsim/dataflow-sim/pkg/writer"
)

// Service owns one simulation run's lifecycle: build the topology from
// config, feed it a key stream, persist the outcome, and archive the
// report.
type Service struct {
	config     *config.Config
	logger     utils.Logger
	nodeLogger utils.Logger
	db         *repository.Repositories
	storage    storage.Storage

	topology *topology.Topology

	running bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// SetNodeLogger attaches the per-node log stream (spec's three-stream
// logging: default, per-node, key-statistics). If never called, worker
// nodes log to the same stream as the rest of the service.
func (s *Service) SetNodeLogger(logger utils.Logger) {
	s.nodeLogger = logger
}

// Initialize wires the database, storage, and topology components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if s.nodeLogger == nil {
		s.nodeLogger = s.logger
	}

	topo, err := topology.Build(s.config.Topology, s.nodeLogger)
	if err != nil {
		return fmt.Errorf("failed to build topology: %w", err)
	}
	s.topology = topo

	s.logger.Info("Service components initialized successfully")
	return nil
}

func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	repos, err := repository.NewRepositories(gormDB)
	if err != nil {
		return err
	}
	s.db = repos
	s.logger.Info("Database connection established")

	return nil
}

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

// RunOptions configure one simulation invocation.
type RunOptions struct {
	// Name labels the run in the persisted history.
	Name string
	// ConfigPath records where the run's config came from, in the persisted
	// history.
	ConfigPath string
	// Batches, if non-nil, is fed directly instead of generating traffic
	// from s.config.Keygen.
	Batches [][]string
	// Seed drives synthetic key generation when Batches is nil.
	Seed int64
	// Persist controls whether the run's summary is written to the
	// repository.
	Persist bool
	// Upload controls whether the run report is archived to storage.
	Upload bool
}

// Run drives one simulation to completion: generate or accept a key
// stream, feed it through the topology, and persist/archive the result.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*model.RunSummary, error) {
	if s.topology == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	s.running = true
	defer func() { s.running = false }()

	batches := opts.Batches
	if batches == nil {
		gen, err := keygen.NewGenerator(s.config.Keygen, opts.Seed)
		if err != nil {
			return nil, fmt.Errorf("building key generator: %w", err)
		}
		batches = gen.Stream(s.config.Keygen.Steps)
	}

	sim := simulator.New(s.topology, s.logger)
	result := sim.Run(ctx, batches)

	processed, overdue, expired, _ := s.topology.CounterTotals()
	summary := &model.RunSummary{
		StepsRun:       result.StepsRun,
		EmissionCount:  len(result.Emissions),
		TotalProcessed: processed,
		TotalOverdue:   overdue,
		TotalExpired:   expired,
		Duration:       result.Duration,
		CompletedAt:    time.Now(),
	}

	var artifactURL string
	if opts.Upload && s.storage != nil {
		url, err := s.archiveReport(ctx, opts.Name, summary)
		if err != nil {
			s.logger.Error("Failed to archive run report: %v", err)
		} else {
			artifactURL = url
		}
	}

	if opts.Persist && s.db != nil {
		record := &repository.RunRecord{
			Name:           opts.Name,
			ConfigPath:     opts.ConfigPath,
			StepsRun:       summary.StepsRun,
			EmissionCount:  summary.EmissionCount,
			TotalProcessed: summary.TotalProcessed,
			TotalOverdue:   summary.TotalOverdue,
			TotalExpired:   summary.TotalExpired,
			ArtifactURL:    artifactURL,
		}
		if err := s.db.Run.SaveRun(ctx, record); err != nil {
			s.logger.Error("Failed to persist run summary: %v", err)
		}
	}

	return summary, nil
}

// archiveReport serializes the run summary as JSON, zstd-compresses it, and
// uploads it to the configured storage backend, returning the object's
// addressable URL.
func (s *Service) archiveReport(ctx context.Context, name string, summary *model.RunSummary) (string, error) {
	jw := writer.NewJSONWriter[*model.RunSummary]()
	var buf bytes.Buffer
	if err := jw.Write(summary, &buf); err != nil {
		return "", fmt.Errorf("encoding run report: %w", err)
	}

	zc, err := compression.NewZstdCompressor(compression.LevelDefault)
	if err != nil {
		return "", fmt.Errorf("creating compressor: %w", err)
	}
	defer zc.Close()

	compressed, err := zc.Compress(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("compressing run report: %w", err)
	}

	key := fmt.Sprintf("runs/%s-%d.json.zst", name, summary.CompletedAt.Unix())
	if err := s.storage.Upload(ctx, key, bytes.NewReader(compressed)); err != nil {
		return "", fmt.Errorf("uploading run report: %w", err)
	}
	return s.storage.GetURL(key), nil
}

// Stop releases held resources (database connection).
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
	}

	s.running = false
	s.logger.Info("Service stopped")

	return nil
}

// IsRunning reports whether the service has an active simulation run.
func (s *Service) IsRunning() bool {
	return s.running
}

// HealthCheck verifies the database connection is alive.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}
