// Package theme holds the palette table used to resolve element colors.
package theme

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/certstudio/backend/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	// FallbackID is the theme used when no table is loaded.
	FallbackID = "usa-archery"

	fallbackColorKey = "black"
	fallbackHex      = "#000000"
)

// Fallback returns the built-in theme table.
func Fallback() models.ThemeTable {
	return models.ThemeTable{
		DefaultTheme: FallbackID,
		Themes: map[string]models.Theme{
			FallbackID: {
				Name: "USA Archery",
				Colors: map[string]string{
					"red":   "#aa1e2e",
					"blue":  "#1c355e",
					"black": "#000000",
					"white": "#ffffff",
				},
				Default: "black",
			},
		},
	}
}

// Registry resolves theme ids and color keys. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	defaultTheme string
	themes       map[string]models.Theme
	pipeDefaults map[string]string
}

// NewRegistry creates a registry from a table. An empty table falls back to
// the built-in one.
func NewRegistry(table models.ThemeTable) *Registry {
	r := &Registry{}
	r.Replace(table)
	return r
}

// Replace swaps the table contents.
func (r *Registry) Replace(table models.ThemeTable) {
	if len(table.Themes) == 0 {
		table = Fallback()
	}
	themes := make(map[string]models.Theme, len(table.Themes))
	for id, t := range table.Themes {
		themes[id] = t
	}
	def := table.DefaultTheme
	if _, ok := themes[def]; !ok {
		def = firstID(themes)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.themes = themes
	r.defaultTheme = def
	r.pipeDefaults = map[string]string{
		"usa-archery": "black",
		"classic":     "black",
		"modern":      "black",
	}
}

func firstID(themes map[string]models.Theme) string {
	ids := make([]string, 0, len(themes))
	for id := range themes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// DefaultTheme returns the table's default theme id.
func (r *Registry) DefaultTheme() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultTheme
}

// Has reports whether id names a known theme.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.themes[id]
	return ok
}

// Table returns a copy of the current table.
func (r *Registry) Table() models.ThemeTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := models.ThemeTable{DefaultTheme: r.defaultTheme, Themes: make(map[string]models.Theme, len(r.themes))}
	for id, t := range r.themes {
		colors := make(map[string]string, len(t.Colors))
		for k, v := range t.Colors {
			colors[k] = v
		}
		t.Colors = colors
		out.Themes[id] = t
	}
	return out
}

// DefaultColor returns the default color key of a theme.
func (r *Registry) DefaultColor(themeID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.themes[themeID]; ok && t.Default != "" {
		return t.Default
	}
	return fallbackColorKey
}

// DefaultPipeColor returns the default pipe separator color key of a theme.
func (r *Registry) DefaultPipeColor(themeID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key, ok := r.pipeDefaults[themeID]; ok {
		return key
	}
	return fallbackColorKey
}

// ValidateColor returns key when the theme defines it, otherwise the theme's
// default color key.
func (r *Registry) ValidateColor(themeID, key string) string {
	r.mu.RLock()
	t, ok := r.themes[themeID]
	r.mu.RUnlock()
	if ok {
		if _, found := t.Colors[key]; found {
			return key
		}
	}
	return r.DefaultColor(themeID)
}

// Hex returns the hex value of a color key in a theme, falling back to the
// theme's black and then to #000000.
func (r *Registry) Hex(themeID, key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t := r.themes[themeID]
	if hex, ok := t.Colors[key]; ok {
		return hex
	}
	if hex, ok := t.Colors[fallbackColorKey]; ok {
		return hex
	}
	return fallbackHex
}

// RGBA resolves a color key into an RGBA value.
func (r *Registry) RGBA(themeID, key string) color.RGBA {
	c, err := ParseHex(r.Hex(themeID, key))
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}

// ParseHex parses #rgb or #rrggbb.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Decode reads a theme table. YAML is a superset of JSON, but JSON documents
// go through encoding/json for exact error messages.
func Decode(r io.Reader, format string) (models.ThemeTable, error) {
	var table models.ThemeTable
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&table); err != nil {
			return table, fmt.Errorf("decoding theme yaml: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&table); err != nil {
			return table, fmt.Errorf("decoding theme json: %w", err)
		}
	}
	return table, nil
}

// LoadFile reads a theme table from a .json, .yaml or .yml file.
func LoadFile(path string) (models.ThemeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.ThemeTable{}, fmt.Errorf("opening theme file: %w", err)
	}
	defer f.Close()
	return Decode(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// Load builds a registry from a file, using the built-in table when the file
// is missing or unreadable.
func Load(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(Fallback()), nil
	}
	table, err := LoadFile(path)
	if err != nil {
		fmt.Printf("[Theme] Falling back to built-in table: %v\n", err)
		return NewRegistry(Fallback()), err
	}
	return NewRegistry(table), nil
}
