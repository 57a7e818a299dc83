package interact_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/element"
	"github.com/certstudio/backend/internal/fonts"
	"github.com/certstudio/backend/internal/interact"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/schedule"
	"github.com/certstudio/backend/internal/testutil"
	"github.com/certstudio/backend/internal/theme"
)

type fixedMeasurer struct{}

func (fixedMeasurer) Measure(_ fonts.Role, text string, size float64) coords.Size {
	return coords.Size{Width: float64(len(text)) * 10, Height: size}
}

type fixture struct {
	clock    *testutil.ManualClock
	store    *element.Store
	registry *preview.Registry
	syncer   *preview.Synchronizer
	sel      *interact.Selection
	drag     *interact.DragController
	panel    *interact.PanelController
	reports  []preview.SyncReport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	themes := theme.NewRegistry(theme.Fallback())
	f := &fixture{
		clock:    testutil.NewManualClock(),
		store:    element.NewStore(themes),
		registry: preview.NewRegistry(),
	}
	table := &models.DataTable{
		Headers: []string{"Name", "Division"},
		Rows: []map[string]string{
			{"Name": "Ann Lee", "Division": "Recurve"},
			{"Name": "Bo Ng", "Division": "Compound"},
		},
	}
	types := element.DetectTypes([]string{"Division"}, table.Headers)
	f.store.Initialize(types, nil)
	require.NoError(t, preview.Build(context.Background(), preview.BuildInput{
		Table:         table,
		Selected:      []string{"Division"},
		Types:         types,
		ContainerSize: coords.Size{Width: 800, Height: 600},
	}, f.registry))

	f.syncer = preview.NewSynchronizer(f.store, f.registry, fixedMeasurer{}, themes)
	f.syncer.OnSync(func(r preview.SyncReport) { f.reports = append(f.reports, r) })
	f.store.SetSyncer(f.syncer)
	f.syncer.SyncAll()
	f.reports = nil

	f.sel = interact.NewSelection(f.registry)
	f.drag = interact.NewDragController(f.store, f.syncer, f.sel, schedule.NewFrames(f.clock, schedule.DefaultFrameInterval))
	f.panel = interact.NewPanelController(f.store, f.syncer, f.sel, schedule.NewDebouncer(f.clock, 50*time.Millisecond), themes)
	return f
}

func (f *fixture) instance(t *testing.T, id string) *preview.Instance {
	t.Helper()
	inst, ok := f.registry.Instance(id)
	require.True(t, ok, id)
	return inst
}

func TestDragWithVerticalLockChangesOnlyX(t *testing.T) {
	f := newFixture(t)
	f.store.Update(models.ElementName, models.StatePatch{LockVertical: models.Bool(true)}, true)
	before, _ := f.store.Get(models.ElementName)

	inst := f.instance(t, "name-element-1")
	require.NoError(t, f.drag.Press(inst, inst.Layout.Center()))
	assert.True(t, inst.Dragging)
	require.NoError(t, f.drag.Move(coords.Point{X: 600, Y: 100}))
	f.clock.Advance(schedule.DefaultFrameInterval)

	st, _ := f.store.Get(models.ElementName)
	assert.Equal(t, 75.0, st.XPercent)
	assert.Equal(t, before.YPercent, st.YPercent)

	res, err := f.drag.Release()
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.False(t, inst.Dragging)
	for _, other := range f.registry.Instances(models.ElementName) {
		assert.Equal(t, 600.0, other.Layout.CenterX, other.ID)
	}
}

func TestDragMovesOnlyDraggedInstanceUntilRelease(t *testing.T) {
	f := newFixture(t)
	inst := f.instance(t, "date-element-1")
	other := f.instance(t, "date-element-2")
	start := other.Layout.Center()

	require.NoError(t, f.drag.Press(inst, inst.Layout.Center()))
	require.NoError(t, f.drag.Move(coords.Point{X: 400, Y: 300}))
	f.clock.Advance(schedule.DefaultFrameInterval)

	assert.Equal(t, coords.Point{X: 400, Y: 300}, inst.Layout.Center())
	assert.Equal(t, start, other.Layout.Center())

	f.reports = nil
	_, err := f.drag.Release()
	require.NoError(t, err)
	require.Len(t, f.reports, 1)
	assert.Equal(t, coords.Point{X: 400, Y: 300}, other.Layout.Center())
}

func TestDragCoalescesFramesAndFinalPointerWins(t *testing.T) {
	f := newFixture(t)
	inst := f.instance(t, "date-element-1")
	require.NoError(t, f.drag.Press(inst, inst.Layout.Center()))
	offset := f.drag.Session().Offset

	for _, x := range []float64{100, 200, 300} {
		require.NoError(t, f.drag.Move(coords.Point{X: x, Y: 300}))
	}
	assert.Equal(t, 1, f.clock.Pending())

	res, err := f.drag.Release()
	require.NoError(t, err)
	assert.Equal(t, (300-offset.X)/800*100, res.State.XPercent)
	assert.Equal(t, 0, f.clock.Pending())
}

func TestPressWithoutMoveSelects(t *testing.T) {
	f := newFixture(t)
	inst := f.instance(t, "concatenated-element-2")

	require.NoError(t, f.drag.Press(inst, coords.Point{X: 10, Y: 10}))
	cur, ok := f.sel.Current()
	require.True(t, ok)
	assert.Equal(t, models.ElementConcatenated, cur)
	assert.True(t, inst.Selected)

	res, err := f.drag.Release()
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.True(t, res.Selected)
	assert.Empty(t, f.reports)
	assert.False(t, f.drag.Active())
}

func TestPressOnUnreadyContainer(t *testing.T) {
	f := newFixture(t)
	inst := f.instance(t, "name-element-1")
	inst.Slide.Container.Resize(coords.Size{})

	assert.ErrorIs(t, f.drag.Press(inst, coords.Point{}), interact.ErrContainerNotReady)
	assert.False(t, f.drag.Active())
	assert.ErrorIs(t, f.drag.Move(coords.Point{}), interact.ErrNoDrag)
}

func TestSliderInputDebouncesSync(t *testing.T) {
	f := newFixture(t)
	f.sel.Select(models.ElementName)

	applied, err := f.panel.Input(interact.FieldFontSize, 48)
	require.NoError(t, err)
	assert.True(t, applied)
	for _, inst := range f.registry.Instances(models.ElementName) {
		assert.Equal(t, 48.0, inst.Style.FontSize)
	}
	assert.Empty(t, f.reports)
	assert.True(t, f.panel.PendingSync(models.ElementName))

	f.panel.Input(interact.FieldFontSize, 50)
	f.clock.Advance(30 * time.Millisecond)
	assert.Empty(t, f.reports)
	f.clock.Advance(30 * time.Millisecond)
	require.Len(t, f.reports, 1)
	assert.Equal(t, "50px", f.panel.View().FontSizeLabel)
}

func TestSliderCommitCancelsDebounce(t *testing.T) {
	f := newFixture(t)
	f.sel.Select(models.ElementDate)

	_, err := f.panel.Input(interact.FieldY, 40)
	require.NoError(t, err)
	report, err := f.panel.Commit(interact.FieldY)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Applied)
	assert.False(t, f.panel.PendingSync(models.ElementDate))

	f.clock.Advance(time.Second)
	assert.Len(t, f.reports, 1)
}

func TestSliderRespectsLocksAndSelection(t *testing.T) {
	f := newFixture(t)

	applied, err := f.panel.Input(interact.FieldX, 10)
	require.NoError(t, err)
	assert.False(t, applied)

	f.sel.Select(models.ElementName)
	applied, err = f.panel.Input(interact.FieldX, 10)
	require.NoError(t, err)
	assert.False(t, applied, "name is locked horizontally")

	_, err = f.panel.Input("rotation", 1)
	assert.ErrorIs(t, err, interact.ErrUnknownField)

	view := f.panel.View()
	assert.False(t, view.XEnabled)
	assert.True(t, view.YEnabled)
	assert.Equal(t, "50.00%", view.XLabel)
	assert.Equal(t, "Name", view.FriendlyName)
}

func TestCenterAndLockToggles(t *testing.T) {
	f := newFixture(t)
	f.sel.Select(models.ElementDate)

	changed, err := f.panel.CenterHorizontal()
	require.NoError(t, err)
	assert.True(t, changed)
	st, _ := f.store.Get(models.ElementDate)
	assert.Equal(t, 50.0, st.XPercent)

	st, err = f.panel.ToggleLockVertical()
	require.NoError(t, err)
	assert.True(t, st.LockVertical)

	changed, err = f.panel.CenterVertical()
	require.NoError(t, err)
	assert.False(t, changed)

	st, err = f.panel.ToggleLockHorizontal()
	require.NoError(t, err)
	assert.True(t, st.LockHorizontal)
	assert.False(t, st.LockVertical)
	assert.Equal(t, preview.ModeHorizontalBand, f.instance(t, "date-element-1").Layout.Mode)
}

func TestTransformThemeAndColors(t *testing.T) {
	f := newFixture(t)
	_, err := f.panel.CycleTextTransform()
	assert.ErrorIs(t, err, interact.ErrNoSelection)

	f.sel.Select(models.ElementConcatenated)
	want := []models.TextTransform{models.TransformUppercase, models.TransformLowercase, models.TransformCapitalize, models.TransformNone}
	for _, tt := range want {
		st, err := f.panel.CycleTextTransform()
		require.NoError(t, err)
		assert.Equal(t, tt, st.TextTransform)
	}

	st, err := f.panel.SetColor("red")
	require.NoError(t, err)
	assert.Equal(t, "red", st.Color)
	st, err = f.panel.SetPipeColor("teal")
	require.NoError(t, err)
	assert.Equal(t, "black", st.PipeColor)

	st, err = f.panel.SetTheme(theme.FallbackID)
	require.NoError(t, err)
	assert.Equal(t, "black", st.Color)
	_, err = f.panel.SetTheme("neon")
	assert.ErrorIs(t, err, interact.ErrUnknownTheme)

	st, err = f.panel.SetVisible(false)
	require.NoError(t, err)
	assert.False(t, st.IsVisible)
	assert.False(t, f.instance(t, "concatenated-element-1").Style.Visible)
	assert.True(t, f.panel.View().ShowPipeColor)
}
