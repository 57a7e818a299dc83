// Package rowstore indexes the rows of a batch for the longest-value queries
// that size the example slide.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/certstudio/backend/internal/models"
)

// ErrClosed is returned by an index after Close.
var ErrClosed = errors.New("row index closed")

const (
	BackendMemory = "memory"
	BackendDuckDB = "duckdb"
)

// Index answers longest-value queries over loaded rows. Ties go to the
// earliest row. Length is counted in characters.
type Index interface {
	// Load replaces the indexed rows.
	Load(ctx context.Context, table *models.DataTable) error
	// Longest returns the longest value of a column, or "" when none.
	Longest(ctx context.Context, column string) (string, error)
	// LongestJoined returns the non-empty values, in column order, of the
	// row whose joined values are longest.
	LongestJoined(ctx context.Context, columns []string, sep string) ([]string, error)
	// Len returns the number of loaded rows.
	Len() int
	Close() error
}

// New creates an index for a batch. DuckDB indexes live in a file under
// tempDir that is removed on Close.
func New(backend, tempDir, batchID, memoryLimit string) (Index, error) {
	switch strings.ToLower(backend) {
	case "", BackendMemory:
		return NewMemoryIndex(), nil
	case BackendDuckDB:
		path := ""
		if tempDir != "" {
			path = filepath.Join(tempDir, fmt.Sprintf("batch_%s.duckdb", batchID))
		}
		return NewDuckIndex(path, memoryLimit)
	default:
		return nil, fmt.Errorf("unknown row index backend %q", backend)
	}
}

func uniqueColumns(columns []string) []string {
	seen := make(map[string]struct{}, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
