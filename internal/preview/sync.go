package preview

import (
	"fmt"
	"sort"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/fonts"
	"github.com/certstudio/backend/internal/models"
)

// StateReader reads authoritative element states.
type StateReader interface {
	Get(t models.ElementType) (models.ElementState, bool)
}

// ColorResolver maps a theme color key to a hex value.
type ColorResolver interface {
	Hex(themeID, key string) string
}

// TextMeasurer measures rendered text.
type TextMeasurer interface {
	Measure(r fonts.Role, text string, size float64) coords.Size
}

// SyncReport describes one synchronization pass over a type.
type SyncReport struct {
	Type    models.ElementType `json:"type"`
	Applied int                `json:"applied"`
	Skipped int                `json:"skipped"`
	Missing bool               `json:"missing,omitempty"`
}

// SyncListener observes completed passes.
type SyncListener func(report SyncReport)

// Synchronizer re-projects every instance of a type from its state. It runs
// on the owning batch loop.
type Synchronizer struct {
	states   StateReader
	registry *Registry
	measurer TextMeasurer
	colors   ColorResolver
	listener SyncListener
}

// NewSynchronizer wires a synchronizer over a registry.
func NewSynchronizer(states StateReader, registry *Registry, measurer TextMeasurer, colors ColorResolver) *Synchronizer {
	return &Synchronizer{
		states:   states,
		registry: registry,
		measurer: measurer,
		colors:   colors,
	}
}

// OnSync sets the listener notified after every Sync.
func (s *Synchronizer) OnSync(l SyncListener) {
	s.listener = l
}

// Registry returns the registry being synchronized.
func (s *Synchronizer) Registry() *Registry {
	return s.registry
}

// SyncType satisfies element.Syncer.
func (s *Synchronizer) SyncType(t models.ElementType) {
	s.Sync(t)
}

// Sync applies the state of t to all of its instances. Instances whose
// container has no measurable size are skipped.
func (s *Synchronizer) Sync(t models.ElementType) SyncReport {
	report := SyncReport{Type: t}
	st, ok := s.states.Get(t)
	if !ok {
		fmt.Printf("[Sync %s] No state, nothing to apply\n", t)
		report.Missing = true
		s.notify(report)
		return report
	}

	for _, inst := range s.registry.Instances(t) {
		size := inst.Container().Size()
		if !size.Ready() {
			fmt.Printf("[Sync %s] Skipping %s: container not ready (%.0fx%.0f)\n", t, inst.ID, size.Width, size.Height)
			report.Skipped++
			continue
		}
		s.applyStyle(inst, st)
		s.PositionInstance(inst, st, size)
		report.Applied++
	}
	s.notify(report)
	return report
}

// SyncAll syncs every registered type in name order.
func (s *Synchronizer) SyncAll() []SyncReport {
	types := s.registry.Types()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	reports := make([]SyncReport, 0, len(types))
	for _, t := range types {
		reports = append(reports, s.Sync(t))
	}
	return reports
}

// RestyleGeometry refreshes only font size and position of the instances of
// t. It is the cheap path used while a slider is moving.
func (s *Synchronizer) RestyleGeometry(t models.ElementType, st models.ElementState) int {
	n := 0
	for _, inst := range s.registry.Instances(t) {
		size := inst.Container().Size()
		if !size.Ready() {
			fmt.Printf("[Sync %s] Skipping %s: container not ready (%.0fx%.0f)\n", t, inst.ID, size.Width, size.Height)
			continue
		}
		inst.Style.FontSize = float64(st.FontSize)
		s.PositionInstance(inst, st, size)
		n++
	}
	return n
}

// PositionInstance lays out one instance against a known container size.
func (s *Synchronizer) PositionInstance(inst *Instance, st models.ElementState, size coords.Size) {
	text := s.measurer.Measure(fonts.RoleFor(inst.Type), inst.DisplayText(), inst.Style.FontSize)
	inst.Layout = ComputeLayout(st, size, text)
}

func (s *Synchronizer) applyStyle(inst *Instance, st models.ElementState) {
	inst.Style.FontSize = float64(st.FontSize)
	inst.Style.TextTransform = st.TextTransform
	inst.Style.Color = s.colors.Hex(st.Theme, st.Color)
	inst.Style.PipeColor = ""
	if inst.Type == models.ElementConcatenated {
		inst.Style.PipeColor = s.colors.Hex(st.Theme, st.PipeColor)
	}
	inst.Style.Visible = st.IsVisible
}

func (s *Synchronizer) notify(report SyncReport) {
	if s.listener != nil {
		s.listener(report)
	}
}
