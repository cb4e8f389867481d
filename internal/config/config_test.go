package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsNotFrozen(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.Frozen())
}

func TestMigrationModeFreezeReportsFrozen(t *testing.T) {
	cfg := Default()
	cfg.MigrationMode = "freeze"
	assert.True(t, cfg.Frozen())
}

func TestSaveLoadRoundTripPreservesOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.NodeID = "node-7"
	cfg.Quorum = 3

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "node-7", loaded.NodeID)
	assert.Equal(t, 3, loaded.Quorum)
	assert.Equal(t, cfg.MaxBlobBytes, loaded.MaxBlobBytes)
}
