package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fovscan.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[scene]
half_extent = 50.0
unit_count = 200
seed = 7

[pool]
workers = 3

[database]
conn_max_lifetime = "5m"

[logging]
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, float32(50), cfg.Scene.HalfExtent)
	assert.Equal(t, 200, cfg.Scene.UnitCount)
	assert.Equal(t, int64(7), cfg.Scene.Seed)
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)

	// untouched keys keep their defaults
	assert.Equal(t, float32(135), cfg.Scene.FOV)
	assert.Equal(t, float32(2), cfg.Scene.ViewDistance)
	assert.Equal(t, 8, cfg.Index.NodeCapacity)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBadSyntax(t *testing.T) {
	_, err := Load(writeConfig(t, "[scene\nhalf_extent = "))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	_, err := Load(writeConfig(t, `
[scene]
half_extent = -1.0

[index]
node_capacity = 0

[pool]
workers = -2
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "scene.half_extent")
	assert.ErrorContains(t, err, "index.node_capacity")
	assert.ErrorContains(t, err, "pool.workers")
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestDatabaseNeedsDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Enabled = true
	cfg.Database.DSN = ""
	assert.ErrorContains(t, cfg.Validate(), "database.dsn")
}
