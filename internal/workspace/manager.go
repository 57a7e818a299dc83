package workspace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/certstudio/backend/internal/layout"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/rowstore"
	"github.com/certstudio/backend/internal/schedule"
	"github.com/certstudio/backend/internal/theme"
)

const (
	// DefaultMaxBatches limits concurrent batches to prevent memory exhaustion.
	DefaultMaxBatches = 10

	// BatchKeepAliveWindow is how long a recently used batch is protected
	// from cleanup.
	BatchKeepAliveWindow = 5 * time.Minute

	DefaultReferenceWidth = 800
	DefaultDebounce       = 50 * time.Millisecond
)

// Options configures every batch of a manager.
type Options struct {
	Themes   *theme.Registry
	Presets  *layout.Catalog
	Measurer preview.TextMeasurer
	Raster   *preview.Rasterizer
	// Backgrounds, when set, holds the uploaded background files. A batch
	// deletes its file when the background is replaced or the batch closes.
	Backgrounds FileRemover
	// Clock drives debounce timers, drag frames and state stamps.
	Clock schedule.Clock

	RowIndex       string
	TempDir        string
	MemoryLimit    string
	ReferenceWidth float64
	Debounce       time.Duration
	FrameInterval  time.Duration
	MaxBatches     int
}

// FileRemover deletes a stored file by id.
type FileRemover interface {
	Delete(id string) error
}

func (o *Options) withDefaults() {
	if o.Themes == nil {
		o.Themes = theme.NewRegistry(theme.Fallback())
	}
	if o.Presets == nil {
		o.Presets = layout.NewCatalog(nil)
	}
	if o.Clock == nil {
		o.Clock = schedule.RealClock()
	}
	if o.RowIndex == "" {
		o.RowIndex = rowstore.BackendMemory
	}
	if o.ReferenceWidth <= 0 {
		o.ReferenceWidth = DefaultReferenceWidth
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = schedule.DefaultFrameInterval
	}
	if o.MaxBatches <= 0 {
		o.MaxBatches = DefaultMaxBatches
	}
}

// Manager handles the active batches.
type Manager struct {
	batches map[string]*batchEntry
	mu      sync.RWMutex
	opts    Options
}

type batchEntry struct {
	batch        *Batch
	LastAccessed time.Time
}

// NewManager creates a batch manager. Measurer and Raster are required.
func NewManager(opts Options) *Manager {
	opts.withDefaults()
	return &Manager{
		batches: make(map[string]*batchEntry),
		opts:    opts,
	}
}

// Options returns the effective batch options.
func (m *Manager) Options() Options {
	return m.opts
}

// Create starts a new empty batch. At capacity the least recently used idle
// batch is evicted; when every batch is in use ErrTooManyBatches is returned.
func (m *Manager) Create() (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.batches) >= m.opts.MaxBatches && !m.evictIdleLocked() {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManyBatches, m.opts.MaxBatches)
	}

	b := newBatch(uuid.New().String(), &m.opts)
	m.batches[b.ID] = &batchEntry{batch: b, LastAccessed: time.Now()}
	fmt.Printf("[Manager] Created batch %s (%d active)\n", b.ID[:8], len(m.batches))
	return b, nil
}

// evictIdleLocked closes the oldest batch outside the keep-alive window.
func (m *Manager) evictIdleLocked() bool {
	keepAliveCutoff := time.Now().Add(-BatchKeepAliveWindow)
	var oldest *batchEntry
	for _, e := range m.batches {
		if e.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if oldest == nil || e.LastAccessed.Before(oldest.LastAccessed) {
			oldest = e
		}
	}
	if oldest == nil {
		return false
	}
	delete(m.batches, oldest.batch.ID)
	go oldest.batch.Close()
	fmt.Printf("[Manager] Evicted idle batch %s to free memory\n", oldest.batch.ID[:8])
	return true
}

// Get returns a batch by ID and marks it used.
func (m *Manager) Get(id string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	e.LastAccessed = time.Now()
	return e.batch, nil
}

// Touch updates the LastAccessed timestamp of a batch.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.batches[id]
	if !ok {
		return false
	}
	e.LastAccessed = time.Now()
	return true
}

// LastAccessed returns when a batch was last used.
func (m *Manager) LastAccessed(id string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.batches[id]
	if !ok {
		return time.Time{}, false
	}
	return e.LastAccessed, true
}

// List returns the summaries of every batch, newest first.
func (m *Manager) List(ctx context.Context) []models.BatchSummary {
	m.mu.RLock()
	entries := make([]*batchEntry, 0, len(m.batches))
	for _, e := range m.batches {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]models.BatchSummary, 0, len(entries))
	for _, e := range entries {
		s, err := e.batch.Summary(ctx)
		if err != nil {
			continue
		}
		s.LastAccessed = e.LastAccessed
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Delete closes and forgets a batch.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	e, ok := m.batches[id]
	delete(m.batches, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	e.batch.Close()
	fmt.Printf("[Manager] Deleted batch %s\n", id[:min(8, len(id))])
	return nil
}

// CleanupOldBatches removes batches not used within maxAge.
func (m *Manager) CleanupOldBatches(maxAge time.Duration) int {
	m.mu.Lock()
	cutoff := time.Now().Add(-maxAge)
	var stale []*batchEntry
	for id, e := range m.batches {
		if e.LastAccessed.Before(cutoff) {
			stale = append(stale, e)
			delete(m.batches, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		e.batch.Close()
		fmt.Printf("[Manager] Cleaned up aged batch %s (last accessed: %s ago)\n",
			e.batch.ID[:8], time.Since(e.LastAccessed).Round(time.Second))
	}
	return len(stale)
}

// Len returns the number of active batches.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.batches)
}

// Close closes every batch.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := m.batches
	m.batches = make(map[string]*batchEntry)
	m.mu.Unlock()
	for _, e := range entries {
		e.batch.Close()
	}
}
