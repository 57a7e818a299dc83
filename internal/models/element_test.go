package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextTransformCycle(t *testing.T) {
	tr := TransformNone
	seen := []TextTransform{}
	for i := 0; i < 4; i++ {
		tr = tr.Next()
		seen = append(seen, tr)
	}
	assert.Equal(t, []TextTransform{TransformUppercase, TransformLowercase, TransformCapitalize, TransformNone}, seen)

	assert.Equal(t, TransformUppercase, TextTransform("bogus").Next())
	assert.False(t, TextTransform("bogus").Valid())
	assert.True(t, TransformCapitalize.Valid())
}

func TestTextTransformApply(t *testing.T) {
	tests := []struct {
		tr   TextTransform
		in   string
		want string
	}{
		{TransformNone, "ann lee", "ann lee"},
		{TransformUppercase, "ann lee", "ANN LEE"},
		{TransformLowercase, "Ann LEE", "ann lee"},
		{TransformCapitalize, "mary-jane o'neil", "Mary-Jane O'neil"},
		{"", "as is", "as is"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tr)+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tr.Apply(tt.in))
		})
	}
}

func TestElementState(t *testing.T) {
	assert.False(t, ElementState{}.IsUppercase())
	assert.False(t, ElementState{TextTransform: TransformNone}.IsUppercase())
	assert.True(t, ElementState{TextTransform: TransformLowercase}.IsUppercase())

	assert.True(t, StatePatch{}.IsEmpty())
	assert.False(t, Position(10, 20).IsEmpty())

	assert.True(t, ElementDate.IsFixed())
	assert.False(t, ElementType("club-element").IsFixed())
	assert.Equal(t, "club", ElementType("club-element").Column())
}

func TestDataTable(t *testing.T) {
	var nilTable *DataTable
	assert.Equal(t, 0, nilTable.Len())
	assert.False(t, nilTable.HasColumn(NameColumn))

	table := &DataTable{
		Headers: []string{"Division"},
		Rows:    []map[string]string{{"Division": "Recurve", NameColumn: "Ann Lee"}},
	}
	assert.Equal(t, 1, table.Len())
	assert.True(t, table.HasColumn("Division"))
	assert.True(t, table.HasColumn(NameColumn))
	assert.False(t, table.HasColumn("Club"))
}
