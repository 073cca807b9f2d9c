package cad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeoff-data/wallquant/internal/geom"
)

func TestBlockByName(t *testing.T) {
	d := &Drawing{
		Blocks: []Block{
			{Name: "DOOR_900"},
			{Name: "WINDOW_1200", Lines: []Line{{Layer: "0", End: geom.Vec2{X: 1200}}}},
		},
	}

	block := d.BlockByName("WINDOW_1200")
	require.NotNil(t, block)
	assert.Len(t, block.Lines, 1)

	assert.Nil(t, d.BlockByName("MISSING"))
}

func TestHeaderScalars(t *testing.T) {
	d := &Drawing{Header: map[string]float64{
		HeaderDimScale: 50,
		HeaderInsUnits: float64(UnitMillimeters),
	}}

	assert.Equal(t, 50.0, d.ScaleFactor())
	assert.Equal(t, UnitMillimeters, d.InsertionUnits())
	assert.Equal(t, 1.0, d.HeaderFloat(HeaderDimLFac, 1.0))
}

func TestHeaderScalars_Defaults(t *testing.T) {
	d := &Drawing{}

	assert.Equal(t, 1.0, d.ScaleFactor())
	assert.Equal(t, UnitUnspecified, d.InsertionUnits())
}

func TestLayerVisible(t *testing.T) {
	assert.True(t, Layer{Name: "A-WALL", IsOn: true}.Visible())
	assert.False(t, Layer{Name: "A-WALL", IsOn: true, IsFrozen: true}.Visible())
	assert.False(t, Layer{Name: "A-WALL"}.Visible())
}

func TestLookupHeaderVariable(t *testing.T) {
	v, ok := LookupHeaderVariable(HeaderDimScale)
	require.True(t, ok)
	assert.Equal(t, 1.0, v.Default)
	assert.Equal(t, 40, v.GroupCode)

	_, ok = LookupHeaderVariable("$NOSUCHVAR")
	assert.False(t, ok)
	assert.Equal(t, 0.0, HeaderDefault("$NOSUCHVAR"))
}

func TestUnitName(t *testing.T) {
	assert.Equal(t, "millimeters", UnitName(UnitMillimeters))
	assert.Equal(t, "unspecified", UnitName(UnitUnspecified))
	assert.Equal(t, "other", UnitName(99))
}

func TestKindDescription(t *testing.T) {
	assert.Equal(t, "lightweight polyline", KindDescription(KindPolyline))
	assert.Equal(t, "block reference", KindDescription(KindInsert))
	assert.Equal(t, "CUSTOM", KindDescription(EntityKind("CUSTOM")))
}
