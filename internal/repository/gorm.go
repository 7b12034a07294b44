package repository

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// GormRunRepository implements RunRepository using GORM.
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a GORM-backed RunRepository.
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// AutoMigrate creates or updates the simulation_runs table.
func (r *GormRunRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&RunModel{})
}

// SaveRun stores a completed run's summary.
func (r *GormRunRepository) SaveRun(ctx context.Context, run *RunRecord) error {
	m := &RunModel{
		Name:           run.Name,
		ConfigPath:     run.ConfigPath,
		StepsRun:       run.StepsRun,
		EmissionCount:  run.EmissionCount,
		TotalProcessed: run.TotalProcessed,
		TotalOverdue:   run.TotalOverdue,
		TotalExpired:   run.TotalExpired,
		ArtifactURL:    run.ArtifactURL,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	run.ID = m.ID
	run.CreatedAt = m.CreatedAt
	return nil
}

// GetRun retrieves a run by its ID.
func (r *GormRunRepository) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	var m RunModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, fmt.Errorf("getting run %d: %w", id, err)
	}
	return m.ToRecord(), nil
}

// ListRuns returns the most recent runs, newest first.
func (r *GormRunRepository) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []RunModel
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]*RunRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToRecord()
	}
	return out, nil
}

// GormBatchRepository implements BatchRepository using GORM.
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a GORM-backed BatchRepository.
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// AutoMigrate creates or updates the simulation_batches table.
func (r *GormBatchRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&BatchModel{})
}

// SaveBatches stores an entire stream's batch sequence under runID.
func (r *GormBatchRepository) SaveBatches(ctx context.Context, runID int64, batches [][]string) error {
	rows := make([]BatchModel, len(batches))
	for step, keys := range batches {
		encoded, err := keysToJSON(keys)
		if err != nil {
			return fmt.Errorf("encoding batch for step %d: %w", step, err)
		}
		rows[step] = BatchModel{RunID: runID, Step: step, Keys: encoded}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("saving batches: %w", err)
	}
	return nil
}

// LoadBatches retrieves a stream's batch sequence in step order.
func (r *GormBatchRepository) LoadBatches(ctx context.Context, runID int64) ([][]string, error) {
	var rows []BatchModel
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading batches for run %d: %w", runID, err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Step < rows[j].Step })

	out := make([][]string, len(rows))
	for i, row := range rows {
		keys, err := keysFromJSON(row.Keys)
		if err != nil {
			return nil, fmt.Errorf("decoding batch at step %d: %w", row.Step, err)
		}
		out[i] = keys
	}
	return out, nil
}
