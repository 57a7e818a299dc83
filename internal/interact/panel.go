package interact

import (
	"fmt"

	"github.com/certstudio/backend/internal/element"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/schedule"
)

// Field is a slider on the control panel.
type Field string

const (
	FieldX        Field = "x"
	FieldY        Field = "y"
	FieldFontSize Field = "fontSize"
)

// PanelView is what the control panel shows for the selected type.
type PanelView struct {
	Selected       bool                 `json:"selected"`
	Type           models.ElementType   `json:"type,omitempty"`
	FriendlyName   string               `json:"friendlyName,omitempty"`
	X              float64              `json:"x"`
	Y              float64              `json:"y"`
	FontSize       int                  `json:"fontSize"`
	XLabel         string               `json:"xLabel"`
	YLabel         string               `json:"yLabel"`
	FontSizeLabel  string               `json:"fontSizeLabel"`
	XEnabled       bool                 `json:"xEnabled"`
	YEnabled       bool                 `json:"yEnabled"`
	LockHorizontal bool                 `json:"lockHorizontal"`
	LockVertical   bool                 `json:"lockVertical"`
	TextTransform  models.TextTransform `json:"textTransform,omitempty"`
	TransformLabel string               `json:"transformLabel,omitempty"`
	Theme          string               `json:"theme,omitempty"`
	Color          string               `json:"color,omitempty"`
	PipeColor      string               `json:"pipeColor,omitempty"`
	ShowPipeColor  bool                 `json:"showPipeColor"`
	Visible        bool                 `json:"visible"`
}

// PanelController applies control-panel edits to the selected type.
// Slider input restyles geometry at once and defers the full sync; every
// other control syncs immediately.
type PanelController struct {
	store     StateStore
	projector Projector
	selection *Selection
	debouncer *schedule.Debouncer
	themes    ThemeCatalog
}

func NewPanelController(store StateStore, projector Projector, selection *Selection, debouncer *schedule.Debouncer, themes ThemeCatalog) *PanelController {
	return &PanelController{
		store:     store,
		projector: projector,
		selection: selection,
		debouncer: debouncer,
		themes:    themes,
	}
}

func (p *PanelController) selected() (models.ElementType, models.ElementState, bool) {
	t, ok := p.selection.Current()
	if !ok {
		return "", models.ElementState{}, false
	}
	st, ok := p.store.Get(t)
	return t, st, ok
}

// Input applies a slider value. It reports false when nothing is selected
// or the field's axis is locked.
func (p *PanelController) Input(field Field, value float64) (bool, error) {
	var patch models.StatePatch
	switch field {
	case FieldX:
		patch.XPercent = &value
	case FieldY:
		patch.YPercent = &value
	case FieldFontSize:
		patch.FontSize = &value
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	t, st, ok := p.selected()
	if !ok {
		return false, nil
	}
	if (field == FieldX && st.LockHorizontal) || (field == FieldY && st.LockVertical) {
		return false, nil
	}

	st = p.store.Update(t, patch, false)
	p.projector.RestyleGeometry(t, st)
	p.debouncer.Trigger(string(t), func() { p.projector.Sync(t) })
	return true, nil
}

// Commit ends a slider gesture, canceling the pending debounce and syncing
// at once.
func (p *PanelController) Commit(field Field) (preview.SyncReport, error) {
	switch field {
	case FieldX, FieldY, FieldFontSize:
	default:
		return preview.SyncReport{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	t, ok := p.selection.Current()
	if !ok {
		return preview.SyncReport{}, ErrNoSelection
	}
	p.debouncer.Cancel(string(t))
	return p.projector.Sync(t), nil
}

// PendingSync reports whether a debounced sync is waiting for t.
func (p *PanelController) PendingSync(t models.ElementType) bool {
	return p.debouncer.Pending(string(t))
}

// CenterHorizontal moves the selection to x = 50%. It does nothing while the
// horizontal lock is on.
func (p *PanelController) CenterHorizontal() (bool, error) {
	t, st, ok := p.selected()
	if !ok {
		return false, ErrNoSelection
	}
	if st.LockHorizontal {
		return false, nil
	}
	p.store.Update(t, models.StatePatch{XPercent: models.Float(50)}, true)
	return true, nil
}

// CenterVertical moves the selection to y = 50%. It does nothing while the
// vertical lock is on.
func (p *PanelController) CenterVertical() (bool, error) {
	t, st, ok := p.selected()
	if !ok {
		return false, ErrNoSelection
	}
	if st.LockVertical {
		return false, nil
	}
	p.store.Update(t, models.StatePatch{YPercent: models.Float(50)}, true)
	return true, nil
}

// ToggleLockHorizontal flips the horizontal lock.
func (p *PanelController) ToggleLockHorizontal() (models.ElementState, error) {
	t, st, ok := p.selected()
	if !ok {
		return models.ElementState{}, ErrNoSelection
	}
	return p.store.Update(t, models.StatePatch{LockHorizontal: models.Bool(!st.LockHorizontal)}, true), nil
}

// ToggleLockVertical flips the vertical lock.
func (p *PanelController) ToggleLockVertical() (models.ElementState, error) {
	t, st, ok := p.selected()
	if !ok {
		return models.ElementState{}, ErrNoSelection
	}
	return p.store.Update(t, models.StatePatch{LockVertical: models.Bool(!st.LockVertical)}, true), nil
}

// CycleTextTransform advances none, UPPER, lower, Title.
func (p *PanelController) CycleTextTransform() (models.ElementState, error) {
	t, st, ok := p.selected()
	if !ok {
		return models.ElementState{}, ErrNoSelection
	}
	return p.store.Update(t, models.StatePatch{TextTransform: models.Transform(st.TextTransform.Next())}, true), nil
}

// SetTheme switches the selection's theme and resets both colors to the
// theme's defaults.
func (p *PanelController) SetTheme(id string) (models.ElementState, error) {
	t, _, ok := p.selected()
	if !ok {
		return models.ElementState{}, ErrNoSelection
	}
	if !p.themes.Has(id) {
		return models.ElementState{}, fmt.Errorf("%w: %s", ErrUnknownTheme, id)
	}
	return p.store.Update(t, models.StatePatch{
		Theme:     models.String(id),
		Color:     models.String(p.themes.DefaultColor(id)),
		PipeColor: models.String(p.themes.DefaultPipeColor(id)),
	}, true), nil
}

// SetColor sets the text color key. Unknown keys fall back to the theme
// default.
func (p *PanelController) SetColor(key string) (models.ElementState, error) {
	t, _, ok := p.selected()
	if !ok {
		return models.ElementState{}, ErrNoSelection
	}
	return p.store.Update(t, models.StatePatch{Color: models.String(key)}, true), nil
}

// SetPipeColor sets the separator color key.
func (p *PanelController) SetPipeColor(key string) (models.ElementState, error) {
	t, _, ok := p.selected()
	if !ok {
		return models.ElementState{}, ErrNoSelection
	}
	return p.store.Update(t, models.StatePatch{PipeColor: models.String(key)}, true), nil
}

// SetVisible shows or hides the selection on every slide.
func (p *PanelController) SetVisible(visible bool) (models.ElementState, error) {
	t, _, ok := p.selected()
	if !ok {
		return models.ElementState{}, ErrNoSelection
	}
	return p.store.Update(t, models.StatePatch{IsVisible: models.Bool(visible)}, true), nil
}

// View describes the panel for the current selection.
func (p *PanelController) View() PanelView {
	t, st, ok := p.selected()
	if !ok {
		return PanelView{}
	}
	return PanelView{
		Selected:       true,
		Type:           t,
		FriendlyName:   element.FriendlyName(t),
		X:              st.XPercent,
		Y:              st.YPercent,
		FontSize:       st.FontSize,
		XLabel:         fmt.Sprintf("%.2f%%", st.XPercent),
		YLabel:         fmt.Sprintf("%.2f%%", st.YPercent),
		FontSizeLabel:  fmt.Sprintf("%dpx", st.FontSize),
		XEnabled:       !st.LockHorizontal,
		YEnabled:       !st.LockVertical,
		LockHorizontal: st.LockHorizontal,
		LockVertical:   st.LockVertical,
		TextTransform:  st.TextTransform,
		TransformLabel: st.TextTransform.Label(),
		Theme:          st.Theme,
		Color:          st.Color,
		PipeColor:      st.PipeColor,
		ShowPipeColor:  t == models.ElementConcatenated,
		Visible:        st.IsVisible,
	}
}
