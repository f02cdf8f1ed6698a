package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchMaterial(t *testing.T) {
	tests := []struct {
		in   string
		want Material
		ok   bool
	}{
		{"BRICKS", Bricks, true},
		{"bricks", Bricks, true},
		{"minecraft:oak_planks", OakPlanks, true},
		{"Smooth Stone", SmoothStone, true},
		{"quartz-block", QuartzBlock, true},
		{"  AIR ", Air, true},
		{"UNOBTAINIUM", "", false},
		{"DIRT", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := MatchMaterial(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeMaterial(t *testing.T) {
	tests := []struct {
		in   string
		want Material
		ok   bool
	}{
		{"dirt", "DIRT", true},
		{"minecraft:white-wool", "WHITE_WOOL", true},
		{" Gold Block ", "GOLD_BLOCK", true},
		{"minecraft:", "", false},
		{"   ", "", false},
		{"stone;drop", "", false},
		{"stone.slab", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeMaterial(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectableMaterials(t *testing.T) {
	assert.Len(t, SelectableMaterials, 6)
	assert.True(t, IsSelectable(Bricks))
	assert.False(t, IsSelectable(Glass))
	assert.False(t, IsSelectable(Air))
}

func TestMaterialPretty(t *testing.T) {
	assert.Equal(t, "SMOOTH STONE", SmoothStone.Pretty())
	assert.Equal(t, "BRICKS", Bricks.Pretty())
}

func TestPositionOffset(t *testing.T) {
	p := Position{X: 1, Y: 70, Z: -2}
	assert.Equal(t, Position{X: 0, Y: 75, Z: -2}, p.Add(-1, 5, 0))
	assert.Equal(t, Position{X: 2, Y: 71, Z: 1}, p.Offset(Position{X: 1, Y: 1, Z: 3}))
	assert.Equal(t, "(1,70,-2)", p.String())
}
