package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/certstudio/backend/internal/models"
)

// FileStore keeps presets as documents in a directory. Saved presets are
// written as JSON; YAML documents placed there by hand are read too.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create presets directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) List(_ context.Context) ([]*models.LayoutPreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LoadFS(os.DirFS(s.dir))
}

func (s *FileStore) Get(_ context.Context, id string) (*models.LayoutPreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		f, err := os.Open(filepath.Join(s.dir, filepath.Base(id)+ext))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		format, _ := formatOf(ext)
		p, err := Decode(f, format)
		f.Close()
		if err != nil {
			return nil, err
		}
		p.ID = id
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

func (s *FileStore) Save(_ context.Context, p *models.LayoutPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, filepath.Base(p.ID)+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset: %w", err)
	}
	fmt.Printf("[Layout] Saved preset %s to %s\n", p.ID, path)
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		err := os.Remove(filepath.Join(s.dir, filepath.Base(id)+ext))
		if err == nil {
			removed = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	return nil
}
