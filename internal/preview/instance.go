// Package preview builds the rendered slides of a batch and keeps every
// instance of an element type in step with that type's state.
package preview

import (
	"fmt"
	"strings"
	"sync"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/models"
)

// PipeSeparator joins concatenated values.
const PipeSeparator = " | "

// Segment is one run of a concatenated element. Pipe segments are drawn in
// the element's pipe color.
type Segment struct {
	Text string `json:"text"`
	Pipe bool   `json:"pipe,omitempty"`
}

// JoinSegments builds the segments of non-empty values joined by pipes.
func JoinSegments(values []string) []Segment {
	var segs []Segment
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if len(segs) > 0 {
			segs = append(segs, Segment{Text: PipeSeparator, Pipe: true})
		}
		segs = append(segs, Segment{Text: v})
	}
	return segs
}

// SegmentsText flattens segments into their display string.
func SegmentsText(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Container is the pixel box a slide renders into. Its size is read live on
// every layout pass.
type Container struct {
	mu   sync.RWMutex
	size coords.Size
}

// NewContainer creates a container with an initial size.
func NewContainer(size coords.Size) *Container {
	return &Container{size: size}
}

// Size returns the current size.
func (c *Container) Size() coords.Size {
	if c == nil {
		return coords.Size{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Resize changes the size.
func (c *Container) Resize(size coords.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = size
}

// LayoutMode names how an instance is placed.
type LayoutMode string

const (
	ModeFree           LayoutMode = "free"
	ModeHorizontalBand LayoutMode = "horizontal-band"
	ModeVerticalBand   LayoutMode = "vertical-band"
	ModeFullContainer  LayoutMode = "full"
)

// Style is the derived visual style of an instance.
type Style struct {
	FontSize      float64              `json:"fontSize"`
	TextTransform models.TextTransform `json:"textTransform"`
	Color         string               `json:"color"`
	PipeColor     string               `json:"pipeColor,omitempty"`
	Visible       bool                 `json:"visible"`
	Backdrop      bool                 `json:"backdrop,omitempty"`
}

// Layout is the pixel projection of an instance within its container.
type Layout struct {
	Mode          LayoutMode `json:"mode"`
	Left          float64    `json:"left"`
	Top           float64    `json:"top"`
	Width         float64    `json:"width"`
	Height        float64    `json:"height"`
	CenterX       float64    `json:"centerX"`
	CenterY       float64    `json:"centerY"`
	TextAlign     string     `json:"textAlign"`
	VerticalAlign string     `json:"verticalAlign"`
	TextWidth     float64    `json:"textWidth"`
	TextHeight    float64    `json:"textHeight"`
}

// Center returns the layout's center point.
func (l Layout) Center() coords.Point {
	return coords.Point{X: l.CenterX, Y: l.CenterY}
}

// Instance is one rendered occurrence of an element type on one slide. It
// never owns position; Layout is recomputed from the type's state.
type Instance struct {
	ID       string             `json:"id"`
	Type     models.ElementType `json:"type"`
	Slide    *Slide             `json:"-"`
	Text     string             `json:"text"`
	Segments []Segment          `json:"segments,omitempty"`
	Style    Style              `json:"style"`
	Layout   Layout             `json:"layout"`
	Selected bool               `json:"selected,omitempty"`
	Dragging bool               `json:"dragging,omitempty"`
}

// InstanceID formats the id of the instance of t on a slide.
func InstanceID(t models.ElementType, slideIndex int) string {
	return fmt.Sprintf("%s-%d", t, slideIndex)
}

// Container returns the instance's container, or nil when detached.
func (i *Instance) Container() *Container {
	if i.Slide == nil {
		return nil
	}
	return i.Slide.Container
}

// DisplayText returns the text as drawn, with the style's transform applied.
func (i *Instance) DisplayText() string {
	text := i.Text
	if len(i.Segments) > 0 {
		text = SegmentsText(i.Segments)
	}
	return i.Style.TextTransform.Apply(text)
}

// Slide is one certificate preview. Index 0 is the example slide.
type Slide struct {
	Index     int               `json:"index"`
	Example   bool              `json:"example"`
	Row       map[string]string `json:"row,omitempty"`
	Container *Container        `json:"-"`
	Instances []*Instance       `json:"instances"`
}

// Registry indexes live instances by element type. It is rebuilt from
// scratch on every generate.
type Registry struct {
	slides []*Slide
	byType map[models.ElementType][]*Instance
	byID   map[string]*Instance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[models.ElementType][]*Instance),
		byID:   make(map[string]*Instance),
	}
}

// Reset tears down every slide and instance.
func (r *Registry) Reset() {
	for _, s := range r.slides {
		for _, inst := range s.Instances {
			inst.Slide = nil
		}
	}
	r.slides = nil
	r.byType = make(map[models.ElementType][]*Instance)
	r.byID = make(map[string]*Instance)
}

// AddSlide registers a slide and all of its instances.
func (r *Registry) AddSlide(s *Slide) {
	r.slides = append(r.slides, s)
	for _, inst := range s.Instances {
		inst.Slide = s
		r.byType[inst.Type] = append(r.byType[inst.Type], inst)
		r.byID[inst.ID] = inst
	}
}

// Slides returns the registered slides in order.
func (r *Registry) Slides() []*Slide {
	return r.slides
}

// Slide returns a slide by index.
func (r *Registry) Slide(index int) (*Slide, bool) {
	if index < 0 || index >= len(r.slides) {
		return nil, false
	}
	return r.slides[index], true
}

// Instances returns the instances of a type across all slides.
func (r *Registry) Instances(t models.ElementType) []*Instance {
	return r.byType[t]
}

// Instance finds an instance by id.
func (r *Registry) Instance(id string) (*Instance, bool) {
	inst, ok := r.byID[id]
	return inst, ok
}

// Types returns the element types that have at least one instance.
func (r *Registry) Types() []models.ElementType {
	out := make([]models.ElementType, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	return out
}

// SetSelected marks the instances of t as selected and clears the rest.
func (r *Registry) SetSelected(t models.ElementType) {
	for typ, list := range r.byType {
		for _, inst := range list {
			inst.Selected = typ == t && t != ""
		}
	}
}
