package keygen

import (
	"context"
	"fmt"

	"github.com/streamsim/dataflow-sim/internal/repository"
)

func init() {
	Register(TypeDB, func(cfg *SourceConfig) (BatchSource, error) {
		repo, ok := cfg.Options["repository"].(repository.BatchRepository)
		if !ok {
			return nil, fmt.Errorf("db source %q: options[\"repository\"] must be a repository.BatchRepository", cfg.Name)
		}
		runID := int64(cfg.GetInt("run_id", 0))
		if runID == 0 {
			return nil, fmt.Errorf("db source %q: run_id option is required", cfg.Name)
		}
		return &dbSource{name: cfg.Name, repo: repo, runID: runID}, nil
	})
}

// dbSource replays a previously persisted stream's batch sequence, loaded
// in full on the first Next call.
type dbSource struct {
	name    string
	repo    repository.BatchRepository
	runID   int64
	batches [][]string
	loaded  bool
	cursor  int
}

func (s *dbSource) Name() string { return s.name }

func (s *dbSource) Next(ctx context.Context) ([]string, bool, error) {
	if !s.loaded {
		batches, err := s.repo.LoadBatches(ctx, s.runID)
		if err != nil {
			return nil, false, fmt.Errorf("loading batches for run %d: %w", s.runID, err)
		}
		s.batches = batches
		s.loaded = true
	}
	if s.cursor >= len(s.batches) {
		return nil, false, nil
	}
	batch := s.batches[s.cursor]
	s.cursor++
	return batch, true, nil
}

func (s *dbSource) Close() error { return nil }
