package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/element"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/parser"
)

const (
	// ExampleDate is shown on the example slide.
	ExampleDate = "12/31/2024"

	sampleName = "Sample Name"
	sampleInfo = "Sample Info"
)

// LongestSource answers longest-value queries over the batch rows.
type LongestSource interface {
	// Longest returns the longest value of a column.
	Longest(ctx context.Context, column string) (string, error)
	// LongestJoined returns the non-empty values of the row whose values
	// joined by sep are longest.
	LongestJoined(ctx context.Context, columns []string, sep string) ([]string, error)
}

// BuildInput is everything needed to build the slides of a batch.
type BuildInput struct {
	Table         *models.DataTable
	Selected      []string
	Date          string
	Types         []models.ElementType
	ContainerSize coords.Size
	Longest       LongestSource
}

func (in BuildInput) has(t models.ElementType) bool {
	for _, v := range in.Types {
		if v == t {
			return true
		}
	}
	return false
}

// columnTypes pairs each per-column type with its source header.
func (in BuildInput) columnTypes() []columnType {
	var out []columnType
	for _, t := range in.Types {
		if t.IsFixed() {
			continue
		}
		col, ok := element.ColumnForType(t, in.Table.Headers)
		if !ok {
			continue
		}
		out = append(out, columnType{t: t, column: col})
	}
	return out
}

type columnType struct {
	t      models.ElementType
	column string
}

// Build resets the registry and creates the example slide followed by one
// slide per data row. Styles and layouts are left for the synchronizer.
func Build(ctx context.Context, in BuildInput, reg *Registry) error {
	if in.Table == nil {
		in.Table = &models.DataTable{}
	}
	reg.Reset()

	example, err := buildExample(ctx, in)
	if err != nil {
		return fmt.Errorf("building example slide: %w", err)
	}
	reg.AddSlide(example)

	columns := in.columnTypes()
	date := parser.FormatDateForDisplay(in.Date)
	for i, row := range in.Table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		reg.AddSlide(buildRow(i+1, row, in, columns, date))
	}
	return nil
}

func buildExample(ctx context.Context, in BuildInput) (*Slide, error) {
	s := &Slide{Index: 0, Example: true, Container: NewContainer(in.ContainerSize)}
	empty := in.Table.Len() == 0

	name := sampleName
	if !empty && in.Longest != nil {
		v, err := in.Longest.Longest(ctx, models.NameColumn)
		if err != nil {
			return nil, err
		}
		if v != "" {
			name = v
		}
	}
	s.Instances = append(s.Instances, newInstance(models.ElementName, s, name, nil))

	if in.has(models.ElementConcatenated) && len(in.Selected) > 0 {
		var values []string
		if empty {
			values = []string{sampleInfo}
		} else if in.Longest != nil {
			v, err := in.Longest.LongestJoined(ctx, in.Selected, PipeSeparator)
			if err != nil {
				return nil, err
			}
			values = v
		}
		if segs := JoinSegments(values); len(segs) > 0 {
			s.Instances = append(s.Instances, newInstance(models.ElementConcatenated, s, "", segs))
		}
	}

	for _, ct := range in.columnTypes() {
		if empty || in.Longest == nil {
			continue
		}
		v, err := in.Longest.Longest(ctx, ct.column)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(v) != "" {
			s.Instances = append(s.Instances, newInstance(ct.t, s, v, nil))
		}
	}

	s.Instances = append(s.Instances, newInstance(models.ElementDate, s, ExampleDate, nil))
	return s, nil
}

func buildRow(index int, row map[string]string, in BuildInput, columns []columnType, date string) *Slide {
	s := &Slide{Index: index, Row: row, Container: NewContainer(in.ContainerSize)}
	s.Instances = append(s.Instances, newInstance(models.ElementName, s, row[models.NameColumn], nil))

	if in.has(models.ElementConcatenated) && len(in.Selected) > 0 {
		values := make([]string, 0, len(in.Selected))
		for _, col := range in.Selected {
			values = append(values, row[col])
		}
		if segs := JoinSegments(values); len(segs) > 0 {
			s.Instances = append(s.Instances, newInstance(models.ElementConcatenated, s, "", segs))
		}
	}

	for _, ct := range columns {
		if v := row[ct.column]; strings.TrimSpace(v) != "" {
			s.Instances = append(s.Instances, newInstance(ct.t, s, v, nil))
		}
	}

	s.Instances = append(s.Instances, newInstance(models.ElementDate, s, date, nil))
	return s
}

func newInstance(t models.ElementType, s *Slide, text string, segs []Segment) *Instance {
	inst := &Instance{
		ID:       InstanceID(t, s.Index),
		Type:     t,
		Slide:    s,
		Text:     text,
		Segments: segs,
		Style:    Style{Visible: true, Backdrop: s.Example},
	}
	if len(segs) > 0 {
		inst.Text = SegmentsText(segs)
	}
	return inst
}
