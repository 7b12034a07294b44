package keygen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/streamsim/dataflow-sim/internal/repository"
	"github.com/streamsim/dataflow-sim/pkg/model"
)

func TestCreate_UnknownSourceType(t *testing.T) {
	_, err := Create(&SourceConfig{Type: SourceType("bogus")})
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.txt")
	require.NoError(t, os.WriteFile(path, []byte("a b\n\nc\n"), 0644))

	src, err := Create(&SourceConfig{
		Type:    TypeFile,
		Name:    "stream",
		Options: map[string]interface{}{"path": path},
	})
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "stream", src.Name())

	ctx := context.Background()
	batch, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, batch)

	batch, ok, err = src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, batch)

	batch, ok, err = src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, batch)

	_, ok, err = src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileSource_MissingPath(t *testing.T) {
	_, err := Create(&SourceConfig{Type: TypeFile, Name: "stream"})
	assert.Error(t, err)
}

func TestFileSource_NonexistentFile(t *testing.T) {
	_, err := Create(&SourceConfig{
		Type:    TypeFile,
		Name:    "stream",
		Options: map[string]interface{}{"path": "/nonexistent/stream.txt"},
	})
	assert.Error(t, err)
}

func TestGeneratedSource(t *testing.T) {
	cfg := model.KeygenConfig{
		Streams:      1,
		Steps:        3,
		NumberOfKeys: 4,
		ArrivalRate:  5,
		Distribution: model.DistributionConfig{Type: model.DistributionUniform},
	}

	src, err := Create(&SourceConfig{
		Type: TypeGenerated,
		Name: "gen",
		Options: map[string]interface{}{
			"config": cfg,
			"seed":   1,
		},
	})
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	count := 0
	for {
		batch, ok, err := src.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		assert.Len(t, batch, int(cfg.ArrivalRate))
		count++
	}
	assert.Equal(t, cfg.Steps, count)
}

func TestGeneratedSource_MissingConfig(t *testing.T) {
	_, err := Create(&SourceConfig{Type: TypeGenerated, Name: "gen"})
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	batches := [][]string{{"a", "b"}, {}, {"c"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(httpBatchResponse{Batches: batches}))
	}))
	defer srv.Close()

	src, err := Create(&SourceConfig{
		Type:    TypeHTTP,
		Name:    "live",
		Options: map[string]interface{}{"url": srv.URL},
	})
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	for _, want := range batches {
		batch, ok, err := src.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, batch)
	}

	_, ok, err := src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPSource_MissingURL(t *testing.T) {
	_, err := Create(&SourceConfig{Type: TypeHTTP, Name: "live"})
	assert.Error(t, err)
}

func TestHTTPSource_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src, err := Create(&SourceConfig{
		Type:    TypeHTTP,
		Name:    "live",
		Options: map[string]interface{}{"url": srv.URL},
	})
	require.NoError(t, err)
	defer src.Close()

	_, _, err = src.Next(context.Background())
	assert.Error(t, err)
}

func setupBatchRepo(t *testing.T) repository.BatchRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&repository.RunModel{}, &repository.BatchModel{}))
	return repository.NewGormBatchRepository(db)
}

func TestDBSource(t *testing.T) {
	repo := setupBatchRepo(t)
	ctx := context.Background()

	batches := [][]string{{"a", "b"}, {}, {"c"}}
	require.NoError(t, repo.SaveBatches(ctx, 1, batches))

	src, err := Create(&SourceConfig{
		Type: TypeDB,
		Name: "replay",
		Options: map[string]interface{}{
			"repository": repo,
			"run_id":     1,
		},
	})
	require.NoError(t, err)
	defer src.Close()

	for _, want := range batches {
		batch, ok, err := src.Next(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, batch)
	}

	_, ok, err := src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDBSource_MissingRunID(t *testing.T) {
	repo := setupBatchRepo(t)
	_, err := Create(&SourceConfig{
		Type:    TypeDB,
		Name:    "replay",
		Options: map[string]interface{}{"repository": repo},
	})
	assert.Error(t, err)
}

func TestDBSource_MissingRepository(t *testing.T) {
	_, err := Create(&SourceConfig{
		Type:    TypeDB,
		Name:    "replay",
		Options: map[string]interface{}{"run_id": 1},
	})
	assert.Error(t, err)
}
