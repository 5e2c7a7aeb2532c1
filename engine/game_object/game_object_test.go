package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameObjectDefaults(t *testing.T) {
	g := NewGameObject()

	assert.True(t, g.Enabled())
	assert.Equal(t, GeometryMesh, g.Geometry())
	assert.Nil(t, g.Mesh())
	assert.NotNil(t, g.Material())
	assert.Equal(t, common.IdentityTransform(), g.Transform())
	assert.False(t, g.Is2D())
}

func TestGeometryOptions(t *testing.T) {
	tests := []struct {
		name     string
		option   GameObjectBuilderOption
		geometry Geometry
		is2D     bool
	}{
		{"sprite", WithSprite(64, 32), GeometrySprite, true},
		{"sphere", WithSphere(4), GeometrySphere, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGameObject(tt.option)
			assert.Equal(t, tt.geometry, g.Geometry())
			assert.Equal(t, tt.name, g.Geometry().String())
			assert.Equal(t, tt.is2D, g.Is2D())
			require.NotNil(t, g.Mesh())
			assert.True(t, g.Mesh().Indexed())
		})
	}
}

func TestAdvanceAppliesRotationSpeed(t *testing.T) {
	g := NewGameObject(
		WithName("spinner"),
		WithMaterial(material.NewMaterial(material.WithName("red"))),
		WithRotationSpeed([3]float32{1, 2, 0}),
	)
	assert.Equal(t, "spinner", g.Name())

	g.Advance(0.5)
	g.Advance(0.5)
	assert.InDeltaSlice(t, []float32{1, 2, 0}, g.Transform().Rotate[:], 1e-6)

	g.SetRotationSpeed([3]float32{})
	g.Advance(10)
	assert.InDeltaSlice(t, []float32{1, 2, 0}, g.Transform().Rotate[:], 1e-6)

	g.SetEnabled(false)
	assert.False(t, g.Enabled())
	g.SetID(7)
	assert.Equal(t, uint64(7), g.ID())
}
