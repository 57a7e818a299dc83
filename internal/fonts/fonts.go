// Package fonts supplies the embedded typefaces used for both preview
// measurement and PDF output, so layout and export agree on text extents.
package fonts

import (
	"fmt"
	"sync"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/models"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/opentype"
)

// Role selects a typeface by what the text is.
type Role string

const (
	RoleName Role = "name"
	RoleBody Role = "body"
)

// RoleFor returns the typeface role of an element type.
func RoleFor(t models.ElementType) Role {
	if t == models.ElementName {
		return RoleName
	}
	return RoleBody
}

// Family is the font family name a role is registered under in documents.
func (r Role) Family() string {
	if r == RoleName {
		return "GoBold"
	}
	return "GoMedium"
}

// TTF returns the TrueType bytes of a role.
func TTF(r Role) []byte {
	if r == RoleName {
		return gobold.TTF
	}
	return gomedium.TTF
}

// Roles lists every role.
func Roles() []Role {
	return []Role{RoleName, RoleBody}
}

type faceKey struct {
	role Role
	size float64
}

// Measurer computes text extents at a pixel size. It caches faces per role
// and size and is safe for concurrent use.
type Measurer struct {
	mu    sync.Mutex
	fonts map[Role]*opentype.Font
	faces map[faceKey]font.Face
}

// NewMeasurer parses the embedded fonts.
func NewMeasurer() (*Measurer, error) {
	m := &Measurer{
		fonts: make(map[Role]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
	for _, r := range Roles() {
		f, err := opentype.Parse(TTF(r))
		if err != nil {
			return nil, fmt.Errorf("parsing %s font: %w", r.Family(), err)
		}
		m.fonts[r] = f
	}
	return m, nil
}

// MustMeasurer is NewMeasurer for contexts where the embedded fonts are
// known good.
func MustMeasurer() *Measurer {
	m, err := NewMeasurer()
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Measurer) face(r Role, size float64) (font.Face, error) {
	key := faceKey{role: r, size: size}
	if f, ok := m.faces[key]; ok {
		return f, nil
	}
	f, ok := m.fonts[r]
	if !ok {
		f = m.fonts[RoleBody]
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[key] = face
	return face, nil
}

// Measure returns the advance width and line height of text.
func (m *Measurer) Measure(r Role, text string, size float64) coords.Size {
	if size <= 0 {
		return coords.Size{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	face, err := m.face(r, size)
	if err != nil {
		return coords.Size{Width: float64(len(text)) * size * 0.5, Height: size}
	}
	metrics := face.Metrics()
	return coords.Size{
		Width:  float64(font.MeasureString(face, text)) / 64,
		Height: float64(metrics.Ascent+metrics.Descent) / 64,
	}
}

// Face returns a cached face for drawing. Callers must not use the face
// concurrently with other calls on the same Measurer.
func (m *Measurer) Face(r Role, size float64) (font.Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.face(r, size)
}
