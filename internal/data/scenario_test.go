package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1jgo/fovscan/internal/fov"
)

const sample = `
half_extent: 20
fov: 90
view_distance: 2
units:
  - {x: 0, y: 0, dir_x: 1, dir_y: 0, note: observer}
  - {x: 1, y: 0, dir_x: -1, dir_y: 0, fov: 45}
  - {x: -1, y: 0, dir_x: 0, dir_y: 1, view_distance: 5}
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, float32(20), s.HalfExtent)
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, "observer", s.Units[0].Note)

	u := s.Resolved(0)
	assert.Equal(t, float32(90), u.FOV)
	assert.Equal(t, float32(2), u.ViewDistance)

	u = s.Resolved(1)
	assert.Equal(t, float32(45), u.FOV)
	assert.Equal(t, float32(2), u.ViewDistance)

	u = s.Resolved(2)
	assert.Equal(t, float32(90), u.FOV)
	assert.Equal(t, float32(5), u.ViewDistance)
}

func TestScenarioValidationCollectsAllErrors(t *testing.T) {
	_, err := ParseScenario([]byte(`
units:
  - {x: 0, y: 0, dir_x: 1, dir_y: 0, fov: 180, view_distance: 2}
  - {x: 0, y: 0, dir_x: 0, dir_y: 0, fov: 90, view_distance: 2}
  - {x: 0, y: 0, dir_x: 1, dir_y: 0, fov: 90, view_distance: -1}
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, fov.ErrInvalidFOV)
	assert.ErrorIs(t, err, fov.ErrInvalidViewDistance)
	assert.ErrorContains(t, err, "unit 0")
	assert.ErrorContains(t, err, "unit 1: direction is zero")
	assert.ErrorContains(t, err, "unit 2")
}

func TestParseScenarioBadYAML(t *testing.T) {
	_, err := ParseScenario([]byte("units: [ {x: "))
	assert.ErrorContains(t, err, "parse scenario")
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Count())

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
