// Package element owns the authoritative per-type element states of a batch.
package element

import (
	"fmt"
	"math"
	"time"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/models"
)

// ThemeResolver validates theme ids and color keys.
type ThemeResolver interface {
	Has(id string) bool
	DefaultTheme() string
	DefaultColor(themeID string) string
	DefaultPipeColor(themeID string) string
	ValidateColor(themeID, key string) string
}

// Syncer re-projects every rendered instance of a type from the store.
type Syncer interface {
	SyncType(t models.ElementType)
}

// Store holds exactly one ElementState per ElementType. A Store belongs to
// one event loop and is not safe for concurrent use.
type Store struct {
	themes       ThemeResolver
	syncer       Syncer
	states       map[models.ElementType]*models.ElementState
	order        []models.ElementType
	currentTheme string
	now          func() time.Time
	lastStamp    int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for LastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(themes ThemeResolver, opts ...Option) *Store {
	s := &Store{
		themes:       themes,
		states:       make(map[models.ElementType]*models.ElementState),
		currentTheme: themes.DefaultTheme(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSyncer attaches the synchronizer invoked by propagating updates.
func (s *Store) SetSyncer(syncer Syncer) {
	s.syncer = syncer
}

// CurrentTheme returns the theme new states start with.
func (s *Store) CurrentTheme() string {
	return s.currentTheme
}

// SetCurrentTheme changes the theme new states start with. Unknown ids are
// ignored.
func (s *Store) SetCurrentTheme(id string) bool {
	if !s.themes.Has(id) {
		return false
	}
	s.currentTheme = id
	return true
}

// Get returns the state of a type.
func (s *Store) Get(t models.ElementType) (models.ElementState, bool) {
	st, ok := s.states[t]
	if !ok {
		return models.ElementState{}, false
	}
	return *st, true
}

// Types returns the known types in initialization order.
func (s *Store) Types() []models.ElementType {
	out := make([]models.ElementType, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of states.
func (s *Store) Len() int {
	return len(s.states)
}

// Snapshot returns a copy of every state.
func (s *Store) Snapshot() map[models.ElementType]models.ElementState {
	out := make(map[models.ElementType]models.ElementState, len(s.states))
	for t, st := range s.states {
		out[t] = *st
	}
	return out
}

// Initialize replaces all states with defaults for types, then applies the
// preset's overrides for the types it names.
func (s *Store) Initialize(types []models.ElementType, preset *models.LayoutPreset) {
	if preset != nil && preset.DefaultTheme != "" {
		s.SetCurrentTheme(preset.DefaultTheme)
	}

	s.states = make(map[models.ElementType]*models.ElementState, len(types))
	s.order = s.order[:0]

	columnIndex := 0
	for _, t := range types {
		if _, dup := s.states[t]; dup {
			continue
		}
		idx := -1
		if !t.IsFixed() {
			idx = columnIndex
			columnIndex++
		}
		st := s.defaultState(t, idx, DefaultLockHorizontal(t))
		s.states[t] = &st
		s.order = append(s.order, t)
	}

	if preset != nil {
		for t, fields := range preset.ElementStates {
			st, ok := s.states[t]
			if !ok {
				continue
			}
			s.apply(st, PatchFromFields(fields))
		}
	}

	fmt.Printf("[Element] Initialized %d states (theme %s)\n", len(s.states), s.currentTheme)
}

// Update validates and merges a patch into the state of t. A missing state is
// created first from defaults with both locks off. When propagate is set the
// attached Syncer is run for t before Update returns.
func (s *Store) Update(t models.ElementType, patch models.StatePatch, propagate bool) models.ElementState {
	st, ok := s.states[t]
	if !ok {
		fmt.Printf("[Element] Creating missing state for %s\n", t)
		def := s.defaultState(t, -1, false)
		st = &def
		s.states[t] = st
		s.order = append(s.order, t)
	}

	s.apply(st, patch)

	if propagate && s.syncer != nil {
		s.syncer.SyncType(t)
	}
	return *st
}

// ApplyPreset merges a preset onto the current states of the types it names
// and syncs each one. It returns the types that changed.
func (s *Store) ApplyPreset(preset *models.LayoutPreset) []models.ElementType {
	if preset == nil {
		return nil
	}
	if preset.DefaultTheme != "" {
		s.SetCurrentTheme(preset.DefaultTheme)
	}
	var applied []models.ElementType
	for _, t := range s.order {
		fields, ok := preset.ElementStates[t]
		if !ok {
			continue
		}
		s.Update(t, PatchFromFields(fields), true)
		applied = append(applied, t)
	}
	return applied
}

func (s *Store) defaultState(t models.ElementType, columnIndex int, lockHorizontal bool) models.ElementState {
	x, y := DefaultPosition(t, columnIndex)
	return models.ElementState{
		XPercent:       coords.ClampPercent(x),
		YPercent:       coords.ClampPercent(y),
		FontSize:       DefaultFontSize(t),
		Theme:          s.currentTheme,
		Color:          s.themes.DefaultColor(s.currentTheme),
		PipeColor:      s.themes.DefaultPipeColor(s.currentTheme),
		LockHorizontal: lockHorizontal,
		LockVertical:   false,
		IsVisible:      true,
		TextTransform:  models.TransformNone,
		LastUpdated:    s.stamp(),
	}
}

// apply merges a validated patch. Setting either lock clears the other; a
// patch asking for both keeps the horizontal lock.
func (s *Store) apply(st *models.ElementState, p models.StatePatch) {
	if p.Theme != nil {
		if s.themes.Has(*p.Theme) {
			st.Theme = *p.Theme
		} else {
			st.Theme = s.currentTheme
		}
	}
	if p.Color != nil {
		st.Color = s.themes.ValidateColor(st.Theme, *p.Color)
	}
	if p.PipeColor != nil {
		st.PipeColor = s.themes.ValidateColor(st.Theme, *p.PipeColor)
	}
	// Kept color keys must exist in the new theme.
	if p.Theme != nil {
		if p.Color == nil {
			st.Color = s.themes.ValidateColor(st.Theme, st.Color)
		}
		if p.PipeColor == nil && s.themes.ValidateColor(st.Theme, st.PipeColor) != st.PipeColor {
			st.PipeColor = s.themes.DefaultPipeColor(st.Theme)
		}
	}
	if p.XPercent != nil {
		st.XPercent = coords.ClampPercent(*p.XPercent)
	}
	if p.YPercent != nil {
		st.YPercent = coords.ClampPercent(*p.YPercent)
	}
	if p.FontSize != nil {
		st.FontSize = ClampFontSize(*p.FontSize)
	}

	bothOn := p.LockHorizontal != nil && *p.LockHorizontal && p.LockVertical != nil && *p.LockVertical
	if p.LockHorizontal != nil {
		st.LockHorizontal = *p.LockHorizontal
		if st.LockHorizontal {
			st.LockVertical = false
		}
	}
	if p.LockVertical != nil && !bothOn {
		st.LockVertical = *p.LockVertical
		if st.LockVertical {
			st.LockHorizontal = false
		}
	}

	if p.IsVisible != nil {
		st.IsVisible = *p.IsVisible
	}
	if p.TextTransform != nil && p.TextTransform.Valid() {
		st.TextTransform = *p.TextTransform
	}
	st.LastUpdated = s.stamp()
}

// stamp returns a unix-millisecond time that strictly increases per store.
func (s *Store) stamp() int64 {
	ms := s.now().UnixMilli()
	if ms <= s.lastStamp {
		ms = s.lastStamp + 1
	}
	s.lastStamp = ms
	return ms
}

// ClampFontSize rounds a font size to whole pixels within the allowed range.
func ClampFontSize(v float64) int {
	if math.IsNaN(v) {
		return MinFontSize
	}
	return int(coords.Clamp(math.Round(v), MinFontSize, MaxFontSize))
}
