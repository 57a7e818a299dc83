package workspace

import (
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
)

// ElementView is one element type with its state.
type ElementView struct {
	Type         models.ElementType  `json:"type" msgpack:"type"`
	FriendlyName string              `json:"friendlyName" msgpack:"friendlyName"`
	State        models.ElementState `json:"state" msgpack:"state"`
}

// SlideView is a detached copy of a slide and its instance projections.
type SlideView struct {
	Index     int                `json:"index"`
	Example   bool               `json:"example"`
	Row       map[string]string  `json:"row,omitempty"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Instances []preview.Instance `json:"instances"`
}

func slideView(s *preview.Slide) SlideView {
	size := s.Container.Size()
	return SlideView{
		Index:     s.Index,
		Example:   s.Example,
		Row:       s.Row,
		Width:     size.Width,
		Height:    size.Height,
		Instances: instanceViews(s.Instances),
	}
}

func instanceViews(instances []*preview.Instance) []preview.Instance {
	out := make([]preview.Instance, 0, len(instances))
	for _, inst := range instances {
		v := *inst
		v.Slide = nil
		if len(inst.Segments) > 0 {
			v.Segments = append([]preview.Segment(nil), inst.Segments...)
		}
		out = append(out, v)
	}
	return out
}

// EventKind names a pushed batch event.
type EventKind string

const (
	// EventLayout carries the fresh projections of one type after a sync.
	EventLayout EventKind = "layout"
)

// Event is pushed to batch listeners.
type Event struct {
	Kind      EventKind            `json:"kind"`
	Type      models.ElementType   `json:"type"`
	State     *models.ElementState `json:"state,omitempty"`
	Report    preview.SyncReport   `json:"report"`
	Instances []preview.Instance   `json:"instances"`
}

// Listener receives batch events.
type Listener func(Event)
