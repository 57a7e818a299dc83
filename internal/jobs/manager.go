// Package jobs runs PDF exports in the background and tracks their progress.
package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/storage"
)

// Status represents the export job status.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRendering Status = "rendering"
	StatusSaving    Status = "saving"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Done reports whether s is terminal.
func (s Status) Done() bool {
	return s == StatusComplete || s == StatusError || s == StatusCancelled
}

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotReady = errors.New("job has no result yet")
)

// Job represents an async export job.
type Job struct {
	ID            string           `json:"id"`
	BatchID       string           `json:"batchId"`
	FileName      string           `json:"fileName"`
	Status        Status           `json:"status"`
	Progress      float64          `json:"progress"`
	Stage         string           `json:"stage"`
	StageProgress float64          `json:"stageProgress"`
	PagesDone     int              `json:"pagesDone"`
	PagesTotal    int              `json:"pagesTotal"`
	FileInfo      *models.FileInfo `json:"fileInfo,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`

	cancel context.CancelFunc
	done   chan struct{}
}

// RunFunc renders the artifact into w, reporting pages as they finish.
type RunFunc func(ctx context.Context, w io.Writer, progress func(done, total int)) error

// Store defines the interface needed from storage layer.
type Store interface {
	SaveBytes(name, contentType, status string, data []byte) (*models.FileInfo, error)
	Delete(id string) error
}

// Manager handles async export processing.
type Manager struct {
	jobs  map[string]*Job
	mu    sync.RWMutex
	store Store
	slots chan struct{}
}

// NewManager creates a job manager running at most maxConcurrent exports at
// once. maxConcurrent <= 0 means one.
func NewManager(store Store, maxConcurrent int) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Manager{
		jobs:  make(map[string]*Job),
		store: store,
		slots: make(chan struct{}, maxConcurrent),
	}
}

// StartJob begins async processing of an export.
func (m *Manager) StartJob(batchID, fileName string, run RunFunc) Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:        uuid.New().String(),
		BatchID:   batchID,
		FileName:  fileName,
		Status:    StatusQueued,
		Stage:     "waiting for a free slot",
		CreatedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	snapshot := *job
	m.mu.Unlock()

	go m.processJob(ctx, job, run)

	return snapshot
}

// GetJob returns a copy of a job.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns copies of every job of a batch, or of all jobs when batchID
// is empty.
func (m *Manager) List(batchID string) []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if batchID == "" || job.BatchID == batchID {
			out = append(out, *job)
		}
	}
	return out
}

// Wait blocks until the job finishes or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return Job{}, ErrJobNotFound
	}
	select {
	case <-job.done:
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
	snapshot, _ := m.GetJob(id)
	return snapshot, nil
}

// Cancel stops a running job. It returns false for unknown or finished jobs.
func (m *Manager) Cancel(id string) bool {
	m.mu.RLock()
	job, ok := m.jobs[id]
	running := ok && !job.Status.Done()
	m.mu.RUnlock()
	if !running {
		return false
	}
	job.cancel()
	return true
}

// Remove cancels a job, forgets it and deletes its stored result.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	job, ok := m.jobs[id]
	var info *models.FileInfo
	if ok {
		info = job.FileInfo
		delete(m.jobs, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	job.cancel()
	if info != nil {
		if err := m.store.Delete(info.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (m *Manager) processJob(ctx context.Context, job *Job, run RunFunc) {
	defer close(job.done)
	defer job.cancel()
	defer func() {
		if r := recover(); r != nil {
			m.markJobError(job, fmt.Sprintf("export panicked: %v", r))
		}
	}()

	select {
	case m.slots <- struct{}{}:
		defer func() { <-m.slots }()
	case <-ctx.Done():
		m.markJobCancelled(job)
		return
	}

	fmt.Printf("[ExportJob %s] Starting export: %s\n", job.ID[:8], job.FileName)
	start := time.Now()

	// Stage 1: render pages
	m.updateJobStatus(job, StatusRendering, "rendering pages", 0)

	var buf bytes.Buffer
	err := run(ctx, &buf, func(done, total int) {
		progress := 100.0
		if total > 0 {
			progress = float64(done) / float64(total) * 100
		}
		m.mu.Lock()
		job.PagesDone = done
		job.PagesTotal = total
		m.mu.Unlock()
		m.updateJobStatus(job, StatusRendering, "rendering pages", progress)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.markJobCancelled(job)
			return
		}
		m.markJobError(job, err.Error())
		return
	}

	// Stage 2: store the artifact
	m.updateJobStatus(job, StatusSaving, "saving pdf", 0)
	info, err := m.store.SaveBytes(job.FileName, "application/pdf", storage.StatusGenerated, buf.Bytes())
	if err != nil {
		m.markJobError(job, fmt.Sprintf("failed to save pdf: %v", err))
		return
	}

	m.mu.Lock()
	job.FileInfo = info
	m.mu.Unlock()
	m.markJobComplete(job)
	fmt.Printf("[ExportJob %s] Export complete: %s (%d bytes, %s)\n",
		job.ID[:8], info.ID, info.Size, time.Since(start).Round(time.Millisecond))
}

// updateJobStatus updates job progress (thread-safe).
func (m *Manager) updateJobStatus(job *Job, status Status, stage string, stageProgress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = status
	job.Stage = stage
	job.StageProgress = stageProgress

	// Rendering: 0-90%, Saving: 90-100%
	switch status {
	case StatusRendering:
		job.Progress = stageProgress * 0.9
	case StatusSaving:
		job.Progress = 90 + stageProgress*0.1
	case StatusComplete:
		job.Progress = 100
	}
}

// markJobComplete marks job as complete (thread-safe).
func (m *Manager) markJobComplete(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusComplete
	job.Stage = "done"
	job.Progress = 100
	now := time.Now()
	job.CompletedAt = &now
}

func (m *Manager) markJobCancelled(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusCancelled
	job.Stage = "cancelled"
	now := time.Now()
	job.CompletedAt = &now
	fmt.Printf("[ExportJob %s] Cancelled\n", job.ID[:8])
}

// markJobError marks job as failed (thread-safe).
func (m *Manager) markJobError(job *Job, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusError
	job.Error = errMsg
	now := time.Now()
	job.CompletedAt = &now
	fmt.Printf("[ExportJob %s] Error: %s\n", job.ID[:8], errMsg)
}

// CleanupOldJobs removes finished jobs older than the specified duration
// together with their stored PDFs.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	cutoff := time.Now().Add(-maxAge)
	var results []*models.FileInfo
	removed := 0
	for id, job := range m.jobs {
		if job.Status.Done() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			if job.FileInfo != nil {
				results = append(results, job.FileInfo)
			}
			delete(m.jobs, id)
			removed++
		}
	}
	m.mu.Unlock()

	for _, info := range results {
		if err := m.store.Delete(info.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			fmt.Printf("[ExportJob] Failed to remove result %s: %v\n", info.ID, err)
		}
	}
	return removed
}
