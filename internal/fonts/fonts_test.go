package fonts

import (
	"testing"

	"github.com/certstudio/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureScalesWithSize(t *testing.T) {
	m, err := NewMeasurer()
	require.NoError(t, err)

	small := m.Measure(RoleBody, "Jane Archer", 10)
	large := m.Measure(RoleBody, "Jane Archer", 40)
	assert.Greater(t, small.Width, 0.0)
	assert.Greater(t, small.Height, 0.0)
	assert.InDelta(t, small.Width*4, large.Width, small.Width*0.2)
	assert.Greater(t, large.Height, small.Height)
}

func TestMeasureEmptyAndZero(t *testing.T) {
	m := MustMeasurer()
	assert.Equal(t, 0.0, m.Measure(RoleName, "", 20).Width)
	assert.Equal(t, 0.0, m.Measure(RoleName, "x", 0).Height)
}

func TestRoleFor(t *testing.T) {
	assert.Equal(t, RoleName, RoleFor(models.ElementName))
	assert.Equal(t, RoleBody, RoleFor(models.ElementDate))
	assert.Equal(t, RoleBody, RoleFor("club-element"))
	assert.NotEmpty(t, TTF(RoleName))
	assert.NotEqual(t, RoleName.Family(), RoleBody.Family())
}
