// Package workspace owns the live certificate batches. Every batch runs its
// element store, preview registry and controllers on one event loop.
package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/element"
	"github.com/certstudio/backend/internal/export"
	"github.com/certstudio/backend/internal/interact"
	"github.com/certstudio/backend/internal/layout"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/rowstore"
	"github.com/certstudio/backend/internal/schedule"
)

var (
	ErrBatchNotFound   = errors.New("batch not found")
	ErrTooManyBatches  = errors.New("too many active batches")
	ErrNoData          = errors.New("no data loaded")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNotGenerated    = errors.New("certificates not generated")
	ErrSlideNotFound   = errors.New("slide not found")
	ErrElementNotFound = errors.New("element not found")
	ErrUnknownAxis     = errors.New("unknown axis")
)

// Axis names a direction for centering and locking. Locking x pins the
// element into a full-width horizontal band.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// GenerateRequest selects the columns that are concatenated, the date and
// the preset of a generate.
type GenerateRequest struct {
	SelectedColumns []string `json:"selectedColumns"`
	Date            string   `json:"date"`
	Preset          string   `json:"preset"`
}

// Batch is one certificate workspace. Its exported methods are safe for
// concurrent use; everything they touch runs on the batch loop.
type Batch struct {
	ID        string
	CreatedAt time.Time

	opts      *Options
	loop      *schedule.Loop
	debouncer *schedule.Debouncer

	store     *element.Store
	registry  *preview.Registry
	syncer    *preview.Synchronizer
	selection *interact.Selection
	drag      *interact.DragController
	panel     *interact.PanelController

	index      rowstore.Index
	table      *models.DataTable
	selected   []string
	date       string
	presetID   string
	status     models.BatchStatus
	background *export.Background
	bgInfo     *models.BackgroundInfo
	bgImage    image.Image
	size       coords.Size

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

func newBatch(id string, opts *Options) *Batch {
	loop := schedule.NewLoop(id[:8], 64)
	clock := loop.Clock(opts.Clock)

	b := &Batch{
		ID:        id,
		CreatedAt: time.Now(),
		opts:      opts,
		loop:      loop,
		debouncer: schedule.NewDebouncer(clock, opts.Debounce),
		store:     element.NewStore(opts.Themes, element.WithClock(opts.Clock.Now)),
		registry:  preview.NewRegistry(),
		status:    models.BatchStatusEmpty,
		size:      coords.PreviewSize(opts.ReferenceWidth, 0),
		listeners: make(map[int]Listener),
	}
	b.syncer = preview.NewSynchronizer(b.store, b.registry, opts.Measurer, opts.Themes)
	b.syncer.OnSync(b.publishSync)
	b.store.SetSyncer(b.syncer)
	b.selection = interact.NewSelection(b.registry)
	b.drag = interact.NewDragController(b.store, b.syncer, b.selection, schedule.NewFrames(clock, opts.FrameInterval))
	b.panel = interact.NewPanelController(b.store, b.syncer, b.selection, b.debouncer, opts.Themes)
	return b
}

// do runs f on the batch loop and waits.
func (b *Batch) do(ctx context.Context, f func() error) error {
	return b.loop.Do(ctx, f)
}

// Close stops timers, the loop and the row index, and removes the stored
// background file.
func (b *Batch) Close() {
	var bgFile string
	_ = b.loop.Do(context.Background(), func() error {
		if b.bgInfo != nil {
			bgFile = b.bgInfo.FileID
		}
		b.drag.Cancel()
		b.debouncer.Stop()
		if b.index != nil {
			if err := b.index.Close(); err != nil {
				fmt.Printf("[Batch %s] Closing row index: %v\n", b.ID[:8], err)
			}
			b.index = nil
		}
		return nil
	})
	b.loop.Close()
	b.removeBackgroundFile(bgFile)
}

func (b *Batch) removeBackgroundFile(fileID string) {
	if fileID == "" || b.opts.Backgrounds == nil {
		return
	}
	if err := b.opts.Backgrounds.Delete(fileID); err != nil {
		fmt.Printf("[Batch %s] Removing background %s: %v\n", b.ID[:8], fileID, err)
	}
}

// Subscribe registers a listener for layout pushes. Listeners run on the
// batch loop and must not block or call back into the batch.
func (b *Batch) Subscribe(l Listener) (unsubscribe func()) {
	b.listenersMu.Lock()
	id := b.nextListener
	b.nextListener++
	b.listeners[id] = l
	b.listenersMu.Unlock()
	return func() {
		b.listenersMu.Lock()
		delete(b.listeners, id)
		b.listenersMu.Unlock()
	}
}

func (b *Batch) publishSync(report preview.SyncReport) {
	b.listenersMu.Lock()
	if len(b.listeners) == 0 {
		b.listenersMu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.listenersMu.Unlock()

	ev := Event{Kind: EventLayout, Type: report.Type, Report: report, Instances: instanceViews(b.registry.Instances(report.Type))}
	if st, ok := b.store.Get(report.Type); ok {
		ev.State = &st
	}
	for _, l := range listeners {
		l(ev)
	}
}

// Summary describes the batch.
func (b *Batch) Summary(ctx context.Context) (models.BatchSummary, error) {
	var out models.BatchSummary
	err := b.do(ctx, func() error {
		out = b.summary()
		return nil
	})
	return out, err
}

func (b *Batch) summary() models.BatchSummary {
	s := models.BatchSummary{
		ID:              b.ID,
		Status:          b.status,
		Headers:         []string{},
		SelectedColumns: append([]string{}, b.selected...),
		Date:            b.date,
		Preset:          b.presetID,
		ElementTypes:    b.store.Types(),
		SlideCount:      len(b.registry.Slides()),
		Background:      b.bgInfo,
		CreatedAt:       b.CreatedAt,
	}
	if b.table != nil {
		s.Headers = append(s.Headers, b.table.Headers...)
		s.RowCount = b.table.Len()
	}
	if t, ok := b.selection.Current(); ok {
		s.Selected = t
	}
	return s
}

// SetData replaces the batch rows and reloads the row index. Slides and
// element states from a previous generate are torn down.
func (b *Batch) SetData(ctx context.Context, table *models.DataTable) (models.BatchSummary, error) {
	if table == nil || len(table.Headers) == 0 {
		return models.BatchSummary{}, ErrNoData
	}
	var out models.BatchSummary
	err := b.do(ctx, func() error {
		index, err := rowstore.New(b.opts.RowIndex, b.opts.TempDir, b.ID, b.opts.MemoryLimit)
		if err != nil {
			return err
		}
		if err := index.Load(ctx, table); err != nil {
			index.Close()
			return fmt.Errorf("indexing rows: %w", err)
		}
		if b.index != nil {
			b.index.Close()
		}
		b.index = index
		b.table = table

		kept := b.selected[:0]
		for _, col := range b.selected {
			if table.HasColumn(col) {
				kept = append(kept, col)
			}
		}
		b.selected = kept

		b.drag.Cancel()
		b.selection.Clear()
		b.registry.Reset()
		b.store.Initialize(nil, nil)
		b.status = models.BatchStatusData
		fmt.Printf("[Batch %s] Loaded %d rows, %d columns\n", b.ID[:8], table.Len(), len(table.Headers))
		out = b.summary()
		return nil
	})
	return out, err
}

// Table returns the parsed rows.
func (b *Batch) Table(ctx context.Context) (*models.DataTable, error) {
	var out *models.DataTable
	err := b.do(ctx, func() error {
		if b.table == nil {
			return ErrNoData
		}
		out = b.table
		return nil
	})
	return out, err
}

// SetBackground validates and installs the background image. Slide
// containers are resized to the new aspect ratio and every type re-synced.
func (b *Batch) SetBackground(ctx context.Context, fileID string, data []byte) (models.BackgroundInfo, error) {
	bg, err := export.InspectBackground(data)
	if err != nil {
		return models.BackgroundInfo{}, err
	}
	img, err := preview.Decode(bytes.NewReader(data))
	if err != nil {
		return models.BackgroundInfo{}, fmt.Errorf("%w: %v", export.ErrUnsupportedImage, err)
	}

	info := models.BackgroundInfo{
		FileID:      fileID,
		Format:      string(bg.Format),
		Width:       bg.Width,
		Height:      bg.Height,
		AspectRatio: bg.AspectRatio(),
		Orientation: "landscape",
	}
	if bg.Height > bg.Width {
		info.Orientation = "portrait"
	}

	var previous string
	err = b.do(ctx, func() error {
		if b.bgInfo != nil && b.bgInfo.FileID != fileID {
			previous = b.bgInfo.FileID
		}
		b.background = &bg
		b.bgInfo = &info
		b.bgImage = img
		b.size = coords.PreviewSize(b.opts.ReferenceWidth, bg.AspectRatio())
		for _, s := range b.registry.Slides() {
			s.Container.Resize(b.size)
		}
		b.syncer.SyncAll()
		fmt.Printf("[Batch %s] Background %dx%d %s, preview %.0fx%.0f\n",
			b.ID[:8], bg.Width, bg.Height, bg.Format, b.size.Width, b.size.Height)
		return nil
	})
	if err != nil {
		return models.BackgroundInfo{}, err
	}
	b.removeBackgroundFile(previous)
	return info, nil
}

// Generate detects the element types, initializes their states from the
// preset and rebuilds every slide.
func (b *Batch) Generate(ctx context.Context, req GenerateRequest) (models.BatchSummary, error) {
	preset, err := b.opts.Presets.Resolve(ctx, req.Preset)
	if err != nil {
		return models.BatchSummary{}, err
	}

	var out models.BatchSummary
	err = b.do(ctx, func() error {
		if b.table == nil {
			return ErrNoData
		}
		selected := make([]string, 0, len(req.SelectedColumns))
		for _, col := range req.SelectedColumns {
			if !b.table.HasColumn(col) {
				return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
			}
			selected = append(selected, col)
		}

		b.drag.Cancel()
		b.selection.Clear()

		types := element.DetectTypes(selected, b.table.Headers)
		b.store.Initialize(types, preset)
		err := preview.Build(ctx, preview.BuildInput{
			Table:         b.table,
			Selected:      selected,
			Date:          req.Date,
			Types:         types,
			ContainerSize: b.size,
			Longest:       b.index,
		}, b.registry)
		if err != nil {
			return err
		}
		b.syncer.SyncAll()

		b.selected = selected
		b.date = req.Date
		b.presetID = ""
		if preset != nil {
			b.presetID = preset.ID
		}
		b.status = models.BatchStatusGenerated
		fmt.Printf("[Batch %s] Generated %d slides, %d element types\n", b.ID[:8], len(b.registry.Slides()), len(types))
		out = b.summary()
		return nil
	})
	return out, err
}

// Elements returns every element state in initialization order.
func (b *Batch) Elements(ctx context.Context) ([]ElementView, error) {
	var out []ElementView
	err := b.do(ctx, func() error {
		out = b.elementViews()
		return nil
	})
	return out, err
}

func (b *Batch) elementViews() []ElementView {
	types := b.store.Types()
	out := make([]ElementView, 0, len(types))
	for _, t := range types {
		st, _ := b.store.Get(t)
		out = append(out, ElementView{Type: t, FriendlyName: element.FriendlyName(t), State: st})
	}
	return out
}

// Element returns one element state.
func (b *Batch) Element(ctx context.Context, t models.ElementType) (ElementView, error) {
	var out ElementView
	err := b.do(ctx, func() error {
		st, ok := b.store.Get(t)
		if !ok {
			return fmt.Errorf("%w: %s", ErrElementNotFound, t)
		}
		out = ElementView{Type: t, FriendlyName: element.FriendlyName(t), State: st}
		return nil
	})
	return out, err
}

// UpdateElement merges a patch into a type's state and syncs it.
func (b *Batch) UpdateElement(ctx context.Context, t models.ElementType, patch models.StatePatch) (ElementView, error) {
	var out ElementView
	err := b.do(ctx, func() error {
		st := b.store.Update(t, patch, true)
		out = ElementView{Type: t, FriendlyName: element.FriendlyName(t), State: st}
		return nil
	})
	return out, err
}

// Select makes t the control panel selection.
func (b *Batch) Select(ctx context.Context, t models.ElementType) (interact.PanelView, error) {
	return b.panelOp(ctx, t, func() error { return nil })
}

// Deselect clears the selection.
func (b *Batch) Deselect(ctx context.Context) error {
	return b.do(ctx, func() error {
		b.selection.Clear()
		return nil
	})
}

// Panel returns the control panel view.
func (b *Batch) Panel(ctx context.Context) (interact.PanelView, error) {
	return b.panelOp(ctx, "", func() error { return nil })
}

// panelOp selects t, when given, then runs f against the selection.
func (b *Batch) panelOp(ctx context.Context, t models.ElementType, f func() error) (interact.PanelView, error) {
	var view interact.PanelView
	err := b.do(ctx, func() error {
		if t != "" {
			if _, ok := b.store.Get(t); !ok {
				return fmt.Errorf("%w: %s", ErrElementNotFound, t)
			}
			b.selection.Select(t)
		}
		if err := f(); err != nil {
			return err
		}
		view = b.panel.View()
		return nil
	})
	return view, err
}

// Center centers t (or the selection when t is empty) along axis.
func (b *Batch) Center(ctx context.Context, t models.ElementType, axis Axis) (interact.PanelView, error) {
	return b.panelOp(ctx, t, func() error {
		var err error
		switch axis {
		case AxisX:
			_, err = b.panel.CenterHorizontal()
		case AxisY:
			_, err = b.panel.CenterVertical()
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownAxis, axis)
		}
		return err
	})
}

// ToggleLock flips the lock of axis on t (or the selection).
func (b *Batch) ToggleLock(ctx context.Context, t models.ElementType, axis Axis) (interact.PanelView, error) {
	return b.panelOp(ctx, t, func() error {
		var err error
		switch axis {
		case AxisX:
			_, err = b.panel.ToggleLockHorizontal()
		case AxisY:
			_, err = b.panel.ToggleLockVertical()
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownAxis, axis)
		}
		return err
	})
}

// CycleTransform advances the text transform of t (or the selection).
func (b *Batch) CycleTransform(ctx context.Context, t models.ElementType) (interact.PanelView, error) {
	return b.panelOp(ctx, t, func() error {
		_, err := b.panel.CycleTextTransform()
		return err
	})
}

// SetTheme changes the theme of the selection.
func (b *Batch) SetTheme(ctx context.Context, id string) (interact.PanelView, error) {
	return b.panelOp(ctx, "", func() error {
		_, err := b.panel.SetTheme(id)
		return err
	})
}

// SetColor changes the text color key of the selection.
func (b *Batch) SetColor(ctx context.Context, key string) (interact.PanelView, error) {
	return b.panelOp(ctx, "", func() error {
		_, err := b.panel.SetColor(key)
		return err
	})
}

// SetPipeColor changes the separator color key of the selection.
func (b *Batch) SetPipeColor(ctx context.Context, key string) (interact.PanelView, error) {
	return b.panelOp(ctx, "", func() error {
		_, err := b.panel.SetPipeColor(key)
		return err
	})
}

// SetVisible shows or hides the selection.
func (b *Batch) SetVisible(ctx context.Context, visible bool) (interact.PanelView, error) {
	return b.panelOp(ctx, "", func() error {
		_, err := b.panel.SetVisible(visible)
		return err
	})
}

// SliderInput applies a live slider value to the selection. The full sync
// follows after the debounce delay.
func (b *Batch) SliderInput(ctx context.Context, field interact.Field, value float64) (interact.PanelView, error) {
	return b.panelOp(ctx, "", func() error {
		_, err := b.panel.Input(field, value)
		return err
	})
}

// SliderCommit ends a slider gesture and syncs at once.
func (b *Batch) SliderCommit(ctx context.Context, field interact.Field) (interact.PanelView, error) {
	return b.panelOp(ctx, "", func() error {
		_, err := b.panel.Commit(field)
		return err
	})
}

// PointerDown starts a drag on an instance. The pointer is in pixels of the
// instance's slide.
func (b *Batch) PointerDown(ctx context.Context, instanceID string, p coords.Point) (preview.Instance, error) {
	var out preview.Instance
	err := b.do(ctx, func() error {
		inst, ok := b.registry.Instance(instanceID)
		if !ok {
			return fmt.Errorf("%w: %s", interact.ErrNoInstance, instanceID)
		}
		if err := b.drag.Press(inst, p); err != nil {
			return err
		}
		out = *inst
		return nil
	})
	return out, err
}

// PointerMove requests a drag frame for the latest pointer position. The
// returned instance reflects the last applied frame.
func (b *Batch) PointerMove(ctx context.Context, p coords.Point) (preview.Instance, error) {
	var out preview.Instance
	err := b.do(ctx, func() error {
		if err := b.drag.Move(p); err != nil {
			return err
		}
		out = *b.drag.Session().Instance
		return nil
	})
	return out, err
}

// PointerUp ends the drag.
func (b *Batch) PointerUp(ctx context.Context) (interact.DragResult, error) {
	var out interact.DragResult
	err := b.do(ctx, func() error {
		res, err := b.drag.Release()
		out = res
		return err
	})
	return out, err
}

// Slides returns copies of every slide.
func (b *Batch) Slides(ctx context.Context) ([]SlideView, error) {
	var out []SlideView
	err := b.do(ctx, func() error {
		slides := b.registry.Slides()
		out = make([]SlideView, 0, len(slides))
		for _, s := range slides {
			out = append(out, slideView(s))
		}
		return nil
	})
	return out, err
}

// Slide returns a copy of one slide.
func (b *Batch) Slide(ctx context.Context, index int) (SlideView, error) {
	var out SlideView
	err := b.do(ctx, func() error {
		s, ok := b.registry.Slide(index)
		if !ok {
			return fmt.Errorf("%w: %d", ErrSlideNotFound, index)
		}
		out = slideView(s)
		return nil
	})
	return out, err
}

// ResizeSlide sets the live size of one slide container and re-syncs.
func (b *Batch) ResizeSlide(ctx context.Context, index int, size coords.Size) (SlideView, error) {
	var out SlideView
	err := b.do(ctx, func() error {
		s, ok := b.registry.Slide(index)
		if !ok {
			return fmt.Errorf("%w: %d", ErrSlideNotFound, index)
		}
		s.Container.Resize(size)
		b.syncer.SyncAll()
		out = slideView(s)
		return nil
	})
	return out, err
}

// RenderSlide writes a PNG of one slide at its container size.
func (b *Batch) RenderSlide(ctx context.Context, index int, w io.Writer) error {
	var buf bytes.Buffer
	err := b.do(ctx, func() error {
		s, ok := b.registry.Slide(index)
		if !ok {
			return fmt.Errorf("%w: %d", ErrSlideNotFound, index)
		}
		return b.opts.Raster.RenderSlide(s, b.bgImage, &buf)
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// ApplyPreset merges a named preset onto the current states.
func (b *Batch) ApplyPreset(ctx context.Context, name string) ([]ElementView, error) {
	preset, err := b.opts.Presets.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	var out []ElementView
	err = b.do(ctx, func() error {
		if b.status != models.BatchStatusGenerated {
			return ErrNotGenerated
		}
		applied := b.store.ApplyPreset(preset)
		b.presetID = preset.ID
		fmt.Printf("[Batch %s] Applied preset %s to %d types\n", b.ID[:8], preset.ID, len(applied))
		out = b.elementViews()
		return nil
	})
	return out, err
}

// SavePreset captures the current states as a named preset.
func (b *Batch) SavePreset(ctx context.Context, name, description string) (*models.LayoutPreset, error) {
	var preset *models.LayoutPreset
	err := b.do(ctx, func() error {
		if b.store.Len() == 0 {
			return ErrNotGenerated
		}
		preset = layout.Capture(b.store.Snapshot(), name, description, b.store.CurrentTheme())
		if b.table != nil {
			preset.ExpectedColumns = append([]string(nil), b.table.Headers...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := b.opts.Presets.Save(ctx, preset); err != nil {
		return nil, err
	}
	return preset, nil
}

// ExportDocument snapshots everything a PDF export needs.
func (b *Batch) ExportDocument(ctx context.Context) (export.Document, error) {
	var doc export.Document
	err := b.do(ctx, func() error {
		if b.status != models.BatchStatusGenerated {
			return ErrNotGenerated
		}
		if b.background == nil {
			return export.ErrNoBackground
		}
		doc = export.Document{
			Pages:        export.PagesFromSlides(b.registry.Slides()),
			States:       b.store.Snapshot(),
			Background:   b.background.Data,
			PreviewWidth: b.size.Width,
		}
		return nil
	})
	return doc, err
}

// PendingSync reports whether a debounced slider sync is waiting for t.
func (b *Batch) PendingSync(ctx context.Context, t models.ElementType) (bool, error) {
	var pending bool
	err := b.do(ctx, func() error {
		pending = b.panel.PendingSync(t)
		return nil
	})
	return pending, err
}
