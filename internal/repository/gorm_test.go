package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&RunModel{}, &BatchModel{})
	require.NoError(t, err)

	return db
}

func TestGormRunRepository_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRunRepository(db)
	ctx := context.Background()

	run := &RunRecord{
		Name:           "zipf-5node",
		ConfigPath:     "configs/zipf.yaml",
		StepsRun:       100,
		EmissionCount:  42,
		TotalProcessed: 900,
		TotalOverdue:   3,
		TotalExpired:   1,
		ArtifactURL:    "local://runs/zipf-5node.json",
	}
	require.NoError(t, repo.SaveRun(ctx, run))
	assert.NotZero(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Name, got.Name)
	assert.Equal(t, run.StepsRun, got.StepsRun)
	assert.Equal(t, run.TotalExpired, got.TotalExpired)
}

func TestGormRunRepository_ListRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRunRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.SaveRun(ctx, &RunRecord{Name: "run", StepsRun: i}))
	}

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestGormRunRepository_GetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormRunRepository(db)

	_, err := repo.GetRun(context.Background(), 999)
	assert.Error(t, err)
}

func TestGormBatchRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	runRepo := NewGormRunRepository(db)
	batchRepo := NewGormBatchRepository(db)
	ctx := context.Background()

	run := &RunRecord{Name: "replay-source"}
	require.NoError(t, runRepo.SaveRun(ctx, run))

	batches := [][]string{
		{"userA", "userB"},
		{},
		{"userA", "userC", "userC"},
	}
	require.NoError(t, batchRepo.SaveBatches(ctx, run.ID, batches))

	loaded, err := batchRepo.LoadBatches(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, []string{"userA", "userB"}, loaded[0])
	assert.Empty(t, loaded[1])
	assert.Equal(t, []string{"userA", "userC", "userC"}, loaded[2])
}

func TestGormBatchRepository_SaveBatches_Empty(t *testing.T) {
	db := setupTestDB(t)
	batchRepo := NewGormBatchRepository(db)

	require.NoError(t, batchRepo.SaveBatches(context.Background(), 1, nil))
}
