package interact

import (
	"fmt"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/schedule"
)

// DragSession is the state of the live gesture.
type DragSession struct {
	Type     models.ElementType
	Instance *preview.Instance
	Offset   coords.Point
	Size     coords.Size
	HasMoved bool

	pointer      coords.Point
	frame        schedule.FrameID
	framePending bool
	syncPending  bool
}

// DragResult summarizes a finished gesture.
type DragResult struct {
	Type       models.ElementType  `json:"type"`
	InstanceID string              `json:"instanceId"`
	Moved      bool                `json:"moved"`
	Selected   bool                `json:"selected"`
	State      models.ElementState `json:"state"`
	Report     preview.SyncReport  `json:"report"`
}

// DragController moves one instance under the pointer and syncs the rest of
// its type on release. Pointer positions are pixels in the instance's
// container.
type DragController struct {
	store     StateStore
	projector Projector
	selection *Selection
	frames    schedule.FrameScheduler
	session   *DragSession
}

func NewDragController(store StateStore, projector Projector, selection *Selection, frames schedule.FrameScheduler) *DragController {
	return &DragController{
		store:     store,
		projector: projector,
		selection: selection,
		frames:    frames,
	}
}

// Active reports whether a gesture is live.
func (d *DragController) Active() bool {
	return d.session != nil
}

// Session returns the live session, if any.
func (d *DragController) Session() *DragSession {
	return d.session
}

// Press starts a gesture on inst.
func (d *DragController) Press(inst *preview.Instance, pointer coords.Point) error {
	if inst == nil {
		return ErrNoInstance
	}
	if cur, ok := d.selection.Current(); !ok || cur != inst.Type {
		d.selection.Select(inst.Type)
	}

	size := inst.Container().Size()
	if !size.Ready() {
		fmt.Printf("[Drag %s] Press ignored: container not ready\n", inst.ID)
		return ErrContainerNotReady
	}

	if d.session != nil {
		fmt.Printf("[Drag %s] Press while %s is live, replacing session\n", inst.ID, d.session.Instance.ID)
		d.finish()
	}

	d.session = &DragSession{
		Type:     inst.Type,
		Instance: inst,
		Offset:   pointer.Sub(inst.Layout.Center()),
		Size:     size,
		pointer:  pointer,
	}
	inst.Dragging = true
	return nil
}

// Move records the latest pointer and schedules one frame for it, replacing
// any frame still pending.
func (d *DragController) Move(pointer coords.Point) error {
	s := d.session
	if s == nil {
		return ErrNoDrag
	}
	s.HasMoved = true
	s.pointer = pointer
	if s.framePending {
		d.frames.CancelFrame(s.frame)
	}
	s.framePending = true
	s.frame = d.frames.RequestFrame(d.applyFrame)
	return nil
}

func (d *DragController) applyFrame() {
	s := d.session
	if s == nil || !s.framePending {
		return
	}
	s.framePending = false

	st, ok := d.store.Get(s.Type)
	if !ok {
		return
	}
	x, y := coords.ToPercent(s.pointer.Sub(s.Offset), s.Size)

	var patch models.StatePatch
	if !st.LockHorizontal {
		patch.XPercent = &x
	}
	if !st.LockVertical {
		patch.YPercent = &y
	}
	if patch.IsEmpty() {
		return
	}
	st = d.store.Update(s.Type, patch, false)
	d.projector.PositionInstance(s.Instance, st, s.Size)
	s.syncPending = true
}

// Release ends the gesture. A frame still pending is applied first so the
// final pointer position wins. A gesture that never moved is a select.
func (d *DragController) Release() (DragResult, error) {
	s := d.session
	if s == nil {
		return DragResult{}, ErrNoDrag
	}
	res := DragResult{Type: s.Type, InstanceID: s.Instance.ID, Moved: s.HasMoved}
	res.Report = d.finish()
	res.Selected = !s.HasMoved
	res.State, _ = d.store.Get(s.Type)
	return res, nil
}

// Cancel drops the gesture without applying a pending frame. Moves already
// applied are still synced.
func (d *DragController) Cancel() {
	s := d.session
	if s == nil {
		return
	}
	if s.framePending {
		d.frames.CancelFrame(s.frame)
		s.framePending = false
	}
	d.finish()
}

func (d *DragController) finish() preview.SyncReport {
	s := d.session
	if s.framePending {
		d.frames.CancelFrame(s.frame)
		d.applyFrame()
	}
	var report preview.SyncReport
	if s.HasMoved && s.syncPending {
		report = d.projector.Sync(s.Type)
	}
	s.Instance.Dragging = false
	d.session = nil
	return report
}
