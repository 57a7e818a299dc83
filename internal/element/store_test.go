package element

import (
	"math"
	"testing"
	"time"

	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSyncer struct {
	calls []models.ElementType
}

func (r *recordingSyncer) SyncType(t models.ElementType) {
	r.calls = append(r.calls, t)
}

func newTestStore() *Store {
	return NewStore(theme.NewRegistry(theme.Fallback()))
}

func TestInitializeKeySetMatchesTypes(t *testing.T) {
	s := newTestStore()
	types := []models.ElementType{models.ElementName, models.ElementDate, models.ElementConcatenated, "club-element", "city-element"}
	s.Initialize(types, nil)

	assert.Equal(t, types, s.Types())
	assert.Equal(t, len(types), s.Len())
	for _, typ := range types {
		_, ok := s.Get(typ)
		assert.True(t, ok, "missing %s", typ)
	}

	s.Initialize([]models.ElementType{models.ElementName, models.ElementDate}, nil)
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("club-element")
	assert.False(t, ok)
}

func TestInitializeDefaults(t *testing.T) {
	s := newTestStore()
	s.Initialize([]models.ElementType{models.ElementName, models.ElementDate, models.ElementConcatenated, "club-element", "city-element"}, nil)

	name, _ := s.Get(models.ElementName)
	assert.Equal(t, 50.0, name.XPercent)
	assert.Equal(t, 25.0, name.YPercent)
	assert.Equal(t, 36, name.FontSize)
	assert.True(t, name.LockHorizontal)
	assert.False(t, name.LockVertical)
	assert.True(t, name.IsVisible)
	assert.Equal(t, "usa-archery", name.Theme)
	assert.Equal(t, "black", name.Color)
	assert.Equal(t, "black", name.PipeColor)

	date, _ := s.Get(models.ElementDate)
	assert.Equal(t, 15.0, date.XPercent)
	assert.Equal(t, 90.0, date.YPercent)
	assert.Equal(t, 18, date.FontSize)
	assert.False(t, date.LockHorizontal)

	concat, _ := s.Get(models.ElementConcatenated)
	assert.Equal(t, 40.0, concat.YPercent)
	assert.Equal(t, 10, concat.FontSize)

	club, _ := s.Get("club-element")
	city, _ := s.Get("city-element")
	assert.Equal(t, 55.0, club.YPercent)
	assert.Equal(t, 63.0, city.YPercent)
	assert.Equal(t, 20, city.FontSize)
}

func TestInitializeWithPreset(t *testing.T) {
	s := newTestStore()
	preset := &models.LayoutPreset{
		ID:           "virtual",
		DefaultTheme: "unknown-theme",
		ElementStates: map[models.ElementType]map[string]any{
			models.ElementName: {"yPercent": 30.0, "fontSize": "48", "bogus": 1},
			models.ElementDate: {"lockVertical": 1, "xPercent": -20},
			"ghost-element":    {"xPercent": 10.0},
		},
	}
	s.Initialize([]models.ElementType{models.ElementName, models.ElementDate}, preset)

	name, _ := s.Get(models.ElementName)
	assert.Equal(t, 30.0, name.YPercent)
	assert.Equal(t, 48, name.FontSize)
	assert.Equal(t, "usa-archery", s.CurrentTheme())

	date, _ := s.Get(models.ElementDate)
	assert.True(t, date.LockVertical)
	assert.False(t, date.LockHorizontal)
	assert.Equal(t, 0.0, date.XPercent)

	_, ok := s.Get("ghost-element")
	assert.False(t, ok)
}

func TestLockExclusivity(t *testing.T) {
	cases := []struct {
		name   string
		startH bool
		startV bool
		patch  models.StatePatch
		wantH  bool
		wantV  bool
	}{
		{"vertical on clears horizontal", true, false, models.StatePatch{LockVertical: models.Bool(true)}, false, true},
		{"horizontal on clears vertical", false, true, models.StatePatch{LockHorizontal: models.Bool(true)}, true, false},
		{"both requested keeps horizontal", false, false, models.StatePatch{LockHorizontal: models.Bool(true), LockVertical: models.Bool(true)}, true, false},
		{"horizontal off leaves vertical", false, true, models.StatePatch{LockHorizontal: models.Bool(false)}, false, true},
		{"both off", true, false, models.StatePatch{LockHorizontal: models.Bool(false), LockVertical: models.Bool(false)}, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore()
			s.Initialize([]models.ElementType{models.ElementName}, nil)
			s.Update(models.ElementName, models.StatePatch{LockHorizontal: models.Bool(tc.startH)}, false)
			s.Update(models.ElementName, models.StatePatch{LockVertical: models.Bool(tc.startV)}, false)

			got := s.Update(models.ElementName, tc.patch, false)
			assert.Equal(t, tc.wantH, got.LockHorizontal)
			assert.Equal(t, tc.wantV, got.LockVertical)
			assert.False(t, got.LockHorizontal && got.LockVertical)
		})
	}
}

func TestFontSizeClamp(t *testing.T) {
	s := newTestStore()
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	inputs := []float64{-1000, -1, 0, 5, 11.4, 11.6, 12, 36.2, 71.5, 72, 73, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, in := range inputs {
		got := s.Update(models.ElementName, models.StatePatch{FontSize: models.Float(in)}, false)
		assert.GreaterOrEqual(t, got.FontSize, MinFontSize, "input %v", in)
		assert.LessOrEqual(t, got.FontSize, MaxFontSize, "input %v", in)
	}
	got := s.Update(models.ElementName, models.StatePatch{FontSize: models.Float(36.2)}, false)
	assert.Equal(t, 36, got.FontSize)
}

func TestPositionClamp(t *testing.T) {
	s := newTestStore()
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	got := s.Update(models.ElementName, models.Position(-5, 140), false)
	assert.Equal(t, 0.0, got.XPercent)
	assert.Equal(t, 100.0, got.YPercent)
}

func TestThemeAndColorFallback(t *testing.T) {
	s := newTestStore()
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	got := s.Update(models.ElementName, models.StatePatch{
		Theme:     models.String("neon"),
		Color:     models.String("magenta"),
		PipeColor: models.String("red"),
	}, false)
	assert.Equal(t, "usa-archery", got.Theme)
	assert.Equal(t, "black", got.Color)
	assert.Equal(t, "red", got.PipeColor)
}

func TestThemeChangeRevalidatesKeptColors(t *testing.T) {
	table := theme.Fallback()
	table.Themes["mono"] = models.Theme{
		Name:    "Mono",
		Colors:  map[string]string{"black": "#000000", "gray": "#777777"},
		Default: "gray",
	}
	s := NewStore(theme.NewRegistry(table))
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	got := s.Update(models.ElementName, models.StatePatch{Color: models.String("red"), PipeColor: models.String("red")}, false)
	require.Equal(t, "red", got.Color)
	require.Equal(t, "red", got.PipeColor)

	got = s.Update(models.ElementName, models.StatePatch{Theme: models.String("mono")}, false)
	assert.Equal(t, "mono", got.Theme)
	assert.Equal(t, "gray", got.Color)
	assert.Equal(t, "black", got.PipeColor)

	// Keys the new theme defines are kept
	got = s.Update(models.ElementName, models.StatePatch{Color: models.String("black")}, false)
	require.Equal(t, "black", got.Color)
	got = s.Update(models.ElementName, models.StatePatch{Theme: models.String(theme.FallbackID)}, false)
	assert.Equal(t, "black", got.Color)
	assert.Equal(t, "black", got.PipeColor)
}

func TestUpdateSelfHealsMissingType(t *testing.T) {
	s := newTestStore()
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	got := s.Update("prize-element", models.StatePatch{YPercent: models.Float(70)}, false)
	assert.Equal(t, 50.0, got.XPercent)
	assert.Equal(t, 70.0, got.YPercent)
	assert.Equal(t, 20, got.FontSize)
	assert.False(t, got.LockHorizontal)
	assert.False(t, got.LockVertical)
	assert.Contains(t, s.Types(), models.ElementType("prize-element"))
}

func TestUpdatePropagation(t *testing.T) {
	s := newTestStore()
	syncer := &recordingSyncer{}
	s.SetSyncer(syncer)
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	s.Update(models.ElementName, models.Position(10, 10), false)
	assert.Empty(t, syncer.calls)

	s.Update(models.ElementName, models.Position(20, 20), true)
	assert.Equal(t, []models.ElementType{models.ElementName}, syncer.calls)
}

func TestLastUpdatedIsMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	s := NewStore(theme.NewRegistry(theme.Fallback()), WithClock(func() time.Time { return fixed }))
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	first, _ := s.Get(models.ElementName)
	second := s.Update(models.ElementName, models.Position(1, 1), false)
	third := s.Update(models.ElementName, models.Position(2, 2), false)
	assert.Less(t, first.LastUpdated, second.LastUpdated)
	assert.Less(t, second.LastUpdated, third.LastUpdated)
}

func TestApplyPresetSyncsTouchedTypes(t *testing.T) {
	s := newTestStore()
	syncer := &recordingSyncer{}
	s.SetSyncer(syncer)
	s.Initialize([]models.ElementType{models.ElementName, models.ElementDate}, nil)

	applied := s.ApplyPreset(&models.LayoutPreset{
		ElementStates: map[models.ElementType]map[string]any{
			models.ElementDate: {"xPercent": 80.0},
		},
	})
	require.Equal(t, []models.ElementType{models.ElementDate}, applied)
	assert.Equal(t, []models.ElementType{models.ElementDate}, syncer.calls)

	date, _ := s.Get(models.ElementDate)
	assert.Equal(t, 80.0, date.XPercent)
	name, _ := s.Get(models.ElementName)
	assert.Equal(t, 25.0, name.YPercent)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := newTestStore()
	s.Initialize([]models.ElementType{models.ElementName}, nil)

	snap := s.Snapshot()
	s.Update(models.ElementName, models.Position(1, 1), false)
	assert.Equal(t, 50.0, snap[models.ElementName].XPercent)
}
