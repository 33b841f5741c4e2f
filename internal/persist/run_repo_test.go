package persist

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountRowsYieldsEveryUnit(t *testing.T) {
	id := uuid.New()
	src := countRows(id, []int{3, 0, 7})

	var got [][]any
	for src.Next() {
		v, err := src.Values()
		require.NoError(t, err)
		got = append(got, v)
	}
	require.NoError(t, src.Err())
	assert.Equal(t, [][]any{
		{id, int32(0), int32(3)},
		{id, int32(1), int32(0)},
		{id, int32(2), int32(7)},
	}, got)
}

func TestCountRowsEmpty(t *testing.T) {
	src := countRows(uuid.New(), nil)
	assert.False(t, src.Next())
	assert.NoError(t, src.Err())
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	raw, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	sql := string(raw)
	assert.True(t, strings.Contains(sql, "-- +goose Up"))
	assert.True(t, strings.Contains(sql, "CREATE TABLE unit_visibility"))
}
