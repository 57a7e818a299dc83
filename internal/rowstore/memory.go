package rowstore

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/certstudio/backend/internal/models"
)

// MemoryIndex scans rows held in memory.
type MemoryIndex struct {
	mu     sync.RWMutex
	rows   []map[string]string
	closed bool
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) Load(_ context.Context, table *models.DataTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.rows = nil
	if table != nil {
		m.rows = append(m.rows, table.Rows...)
	}
	return nil
}

func (m *MemoryIndex) Longest(_ context.Context, column string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", ErrClosed
	}
	best, bestLen := "", 0
	for _, row := range m.rows {
		v := row[column]
		if n := utf8.RuneCountInString(v); n > bestLen {
			best, bestLen = v, n
		}
	}
	return best, nil
}

func (m *MemoryIndex) LongestJoined(_ context.Context, columns []string, sep string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	columns = uniqueColumns(columns)
	var best []string
	bestLen := 0
	for _, row := range m.rows {
		var values []string
		for _, c := range columns {
			if v := row[c]; strings.TrimSpace(v) != "" {
				values = append(values, v)
			}
		}
		if n := utf8.RuneCountInString(strings.Join(values, sep)); n > bestLen {
			best, bestLen = values, n
		}
	}
	return best, nil
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.rows = nil
	return nil
}
