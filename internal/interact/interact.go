// Package interact turns pointer and control-panel input into element state
// updates. Controllers run on the owning batch loop.
package interact

import (
	"errors"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
)

var (
	ErrNoInstance        = errors.New("no such instance")
	ErrContainerNotReady = errors.New("container has no measurable size")
	ErrNoSelection       = errors.New("no element selected")
	ErrUnknownField      = errors.New("unknown field")
	ErrUnknownTheme      = errors.New("unknown theme")
	ErrNoDrag            = errors.New("no drag in progress")
)

// StateStore is the authoritative element state.
type StateStore interface {
	Get(t models.ElementType) (models.ElementState, bool)
	Update(t models.ElementType, patch models.StatePatch, propagate bool) models.ElementState
}

// Projector re-projects instances from state.
type Projector interface {
	Sync(t models.ElementType) preview.SyncReport
	RestyleGeometry(t models.ElementType, st models.ElementState) int
	PositionInstance(inst *preview.Instance, st models.ElementState, size coords.Size)
}

// ThemeCatalog supplies theme defaults for the panel.
type ThemeCatalog interface {
	Has(id string) bool
	DefaultColor(themeID string) string
	DefaultPipeColor(themeID string) string
}

// Selection tracks the one selected element type.
type Selection struct {
	registry *preview.Registry
	current  models.ElementType
}

func NewSelection(registry *preview.Registry) *Selection {
	return &Selection{registry: registry}
}

// Select makes t the selected type and reports whether it changed.
func (s *Selection) Select(t models.ElementType) bool {
	changed := s.current != t
	s.current = t
	s.registry.SetSelected(t)
	return changed
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.current = ""
	s.registry.SetSelected("")
}

// Current returns the selected type.
func (s *Selection) Current() (models.ElementType, bool) {
	return s.current, s.current != ""
}
