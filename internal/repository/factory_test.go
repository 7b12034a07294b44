package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGormDB_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "run.db")
	db, err := NewGormDB(&DBConfig{Type: "sqlite", Database: dbPath})
	require.NoError(t, err)
	require.NotNil(t, db)

	repos, err := NewRepositories(db)
	require.NoError(t, err)
	defer repos.Close()

	require.NoError(t, repos.HealthCheck(context.Background()))
	assert.NotNil(t, repos.Run)
	assert.NotNil(t, repos.Batch)
}

func TestNewGormDB_UnsupportedType(t *testing.T) {
	_, err := NewGormDB(&DBConfig{Type: "oracle"})
	assert.Error(t, err)
}
