package rowstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certstudio/backend/internal/models"
)

func rosterTable() *models.DataTable {
	return &models.DataTable{
		Headers: []string{"Name", "Division", "Club"},
		Rows: []map[string]string{
			{"Name": "Ann Lee", "Division": "Recurve", "Club": "Tri"},
			{"Name": "Bob Stone", "Division": "", "Club": "Longbow Society"},
			{"Name": "Cy Park", "Division": "Compound", "Club": "Tri"},
			{"Name": "Zoë Warde", "Division": "Barebow", "Club": ""},
		},
	}
}

func backends(t *testing.T) map[string]Index {
	t.Helper()
	duck, err := NewDuckIndex(filepath.Join(t.TempDir(), "rows.duckdb"), "")
	require.NoError(t, err)
	t.Cleanup(func() { duck.Close() })
	return map[string]Index{
		BackendMemory: NewMemoryIndex(),
		BackendDuckDB: duck,
	}
}

func TestLongest(t *testing.T) {
	ctx := context.Background()
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Load(ctx, rosterTable()))
			assert.Equal(t, 4, idx.Len())

			// Bob Stone and Zoë Warde tie at nine characters; the earlier row wins
			v, err := idx.Longest(ctx, "Name")
			require.NoError(t, err)
			assert.Equal(t, "Bob Stone", v)

			v, err = idx.Longest(ctx, "Missing")
			require.NoError(t, err)
			assert.Empty(t, v)
		})
	}
}

func TestLongestJoined(t *testing.T) {
	ctx := context.Background()
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Load(ctx, rosterTable()))

			values, err := idx.LongestJoined(ctx, []string{"Division", "Club"}, " | ")
			require.NoError(t, err)
			assert.Equal(t, []string{"Longbow Society"}, values)

			values, err = idx.LongestJoined(ctx, []string{"Club", "Division", "Club"}, " | ")
			require.NoError(t, err)
			assert.Equal(t, []string{"Longbow Society"}, values)

			values, err = idx.LongestJoined(ctx, []string{"Division"}, " | ")
			require.NoError(t, err)
			assert.Equal(t, []string{"Compound"}, values)

			values, err = idx.LongestJoined(ctx, nil, " | ")
			require.NoError(t, err)
			assert.Empty(t, values)
		})
	}
}

func TestLoadReplacesRows(t *testing.T) {
	ctx := context.Background()
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Load(ctx, rosterTable()))
			require.NoError(t, idx.Load(ctx, &models.DataTable{Rows: []map[string]string{{"Name": "Al"}}}))
			assert.Equal(t, 1, idx.Len())

			v, err := idx.Longest(ctx, "Name")
			require.NoError(t, err)
			assert.Equal(t, "Al", v)
		})
	}
}

func TestClosedIndex(t *testing.T) {
	ctx := context.Background()
	for name, idx := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, idx.Close())
			_, err := idx.Longest(ctx, "Name")
			assert.ErrorIs(t, err, ErrClosed)
			assert.ErrorIs(t, idx.Load(ctx, rosterTable()), ErrClosed)
		})
	}
}

func TestDuckIndexRemovesFileOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.duckdb")
	idx, err := NewDuckIndex(path, "128MB")
	require.NoError(t, err)
	require.NoError(t, idx.Load(context.Background(), rosterTable()))

	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, idx.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewBackends(t *testing.T) {
	idx, err := New("", "", "b1", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryIndex{}, idx)

	idx, err = New("duckdb", t.TempDir(), "b1", "")
	require.NoError(t, err)
	assert.IsType(t, &DuckIndex{}, idx)
	idx.Close()

	_, err = New("sqlite", "", "b1", "")
	assert.Error(t, err)
}
