// Package layout loads, stores and captures named layout presets.
package layout

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/certstudio/backend/internal/element"
	"github.com/certstudio/backend/internal/models"
)

// DefaultPresetID is applied when a batch is generated without a preset.
const DefaultPresetID = "default"

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

//go:embed builtin/*
var builtinFiles embed.FS

// Store persists user presets.
type Store interface {
	List(ctx context.Context) ([]*models.LayoutPreset, error)
	Get(ctx context.Context, id string) (*models.LayoutPreset, error)
	Save(ctx context.Context, p *models.LayoutPreset) error
	Delete(ctx context.Context, id string) error
}

// Decode reads a preset document in JSON or YAML.
func Decode(r io.Reader, format string) (*models.LayoutPreset, error) {
	var p models.LayoutPreset
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
		}
	}
	return &p, nil
}

// IDFromName derives a preset id usable as a file name and hash field.
func IDFromName(name string) string {
	id := element.SanitizeColumn(name)
	if id == "" {
		id = uuid.New().String()
	}
	return id
}

func formatOf(name string) (string, bool) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json", ".yaml", ".yml":
		return strings.TrimPrefix(ext, "."), true
	}
	return "", false
}

// LoadFS reads every preset document at the root of fsys. The id of each
// preset is its file name without extension.
func LoadFS(fsys fs.FS) ([]*models.LayoutPreset, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var out []*models.LayoutPreset
	for _, e := range entries {
		format, ok := formatOf(e.Name())
		if e.IsDir() || !ok {
			continue
		}
		f, err := fsys.Open(e.Name())
		if err != nil {
			return nil, err
		}
		p, err := Decode(f, format)
		f.Close()
		if err != nil {
			fmt.Printf("[Layout] Skipping %s: %v\n", e.Name(), err)
			continue
		}
		p.ID = strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if p.Name == "" {
			p.Name = p.ID
		}
		out = append(out, p)
	}
	return out, nil
}

// Builtins returns the presets shipped with the server.
func Builtins() []*models.LayoutPreset {
	sub, err := fs.Sub(builtinFiles, "builtin")
	if err != nil {
		return nil
	}
	presets, err := LoadFS(sub)
	if err != nil {
		fmt.Printf("[Layout] Failed to load built-in presets: %v\n", err)
	}
	return presets
}

// Capture builds a preset from the current states of a batch.
func Capture(states map[models.ElementType]models.ElementState, name, description, theme string) *models.LayoutPreset {
	p := &models.LayoutPreset{
		ID:            IDFromName(name),
		Name:          name,
		Description:   description,
		DefaultTheme:  theme,
		ElementStates: make(map[models.ElementType]map[string]any, len(states)),
	}
	for t, st := range states {
		p.ElementStates[t] = element.FieldsFromState(st)
	}
	return p
}

// Catalog resolves presets from the built-ins and a user store. Stored
// presets shadow built-ins with the same id.
type Catalog struct {
	mu       sync.RWMutex
	builtins map[string]*models.LayoutPreset
	store    Store
}

// NewCatalog creates a catalog over store, which may be nil.
func NewCatalog(store Store) *Catalog {
	c := &Catalog{builtins: make(map[string]*models.LayoutPreset), store: store}
	for _, p := range Builtins() {
		c.builtins[p.ID] = p
	}
	fmt.Printf("[Layout] %d built-in presets\n", len(c.builtins))
	return c
}

// Get returns a preset by id.
func (c *Catalog) Get(ctx context.Context, id string) (*models.LayoutPreset, error) {
	if c.store != nil {
		p, err := c.store.Get(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrPresetNotFound) {
			return nil, err
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.builtins[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

// Resolve returns the named preset, or the default preset when name is
// empty. A missing default is not an error.
func (c *Catalog) Resolve(ctx context.Context, name string) (*models.LayoutPreset, error) {
	if name != "" {
		return c.Get(ctx, name)
	}
	p, err := c.Get(ctx, DefaultPresetID)
	if errors.Is(err, ErrPresetNotFound) {
		return nil, nil
	}
	return p, err
}

// List returns every preset sorted by id.
func (c *Catalog) List(ctx context.Context) ([]*models.LayoutPreset, error) {
	byID := make(map[string]*models.LayoutPreset)
	c.mu.RLock()
	for id, p := range c.builtins {
		byID[id] = p
	}
	c.mu.RUnlock()
	if c.store != nil {
		stored, err := c.store.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range stored {
			byID[p.ID] = p
		}
	}
	out := make([]*models.LayoutPreset, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save stores a user preset.
func (c *Catalog) Save(ctx context.Context, p *models.LayoutPreset) error {
	if c.store == nil {
		return fmt.Errorf("no preset store configured")
	}
	if p.ID == "" {
		p.ID = IDFromName(p.Name)
	}
	return c.store.Save(ctx, p)
}

// Delete removes a user preset. Built-ins cannot be deleted.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if c.store == nil {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	return c.store.Delete(ctx, id)
}
