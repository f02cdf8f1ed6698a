// pkg/core/material.go
package core

import "strings"

// Material identifies a block type using the engine's upper-snake naming (IRON_BLOCK).
type Material string

// Materials used by the layouts and the selection menu.
const (
	Air         Material = "AIR"
	Glass       Material = "GLASS"
	StoneButton Material = "STONE_BUTTON"
	Lever       Material = "LEVER"
	StoneSlab   Material = "STONE_SLAB"
	IronBlock   Material = "IRON_BLOCK"
	QuartzBlock Material = "QUARTZ_BLOCK"
	OakPlanks   Material = "OAK_PLANKS"
	Stone       Material = "STONE"
	SmoothStone Material = "SMOOTH_STONE"
	Bricks      Material = "BRICKS"
)

// knownMaterials is the catalog MatchMaterial resolves against: every
// material the layouts place or the menu offers. Hosts with a larger block
// registry resolve further names through host.MaterialResolver.
var knownMaterials = map[Material]struct{}{
	Air:         {},
	Glass:       {},
	StoneButton: {},
	Lever:       {},
	StoneSlab:   {},
	IronBlock:   {},
	QuartzBlock: {},
	OakPlanks:   {},
	Stone:       {},
	SmoothStone: {},
	Bricks:      {},
}

// SelectableMaterials is the fixed set offered in the material menu, in menu order.
var SelectableMaterials = []Material{
	IronBlock, QuartzBlock, OakPlanks, Stone, SmoothStone, Bricks,
}

// NormalizeMaterial brings a free-form material name into the engine's
// naming. It is case-insensitive, accepts an optional "minecraft:" namespace,
// and treats spaces and hyphens as underscores. It reports false for names
// that are empty or contain anything but letters, digits and underscores.
func NormalizeMaterial(name string) (Material, bool) {
	n := strings.TrimSpace(name)
	n = strings.ToUpper(n)
	n = strings.TrimPrefix(n, "MINECRAFT:")
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	if n == "" {
		return "", false
	}
	for _, r := range n {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return "", false
		}
	}
	return Material(n), true
}

// MatchMaterial resolves a free-form material name against the built-in
// catalog. Unknown names return false.
func MatchMaterial(name string) (Material, bool) {
	m, ok := NormalizeMaterial(name)
	if !ok {
		return "", false
	}
	if _, ok := knownMaterials[m]; !ok {
		return "", false
	}
	return m, true
}

// IsSelectable reports whether m is one of the menu materials.
func IsSelectable(m Material) bool {
	for _, s := range SelectableMaterials {
		if s == m {
			return true
		}
	}
	return false
}

// Pretty returns the display form used in player messages ("OAK PLANKS").
func (m Material) Pretty() string {
	return strings.ReplaceAll(string(m), "_", " ")
}

func (m Material) String() string {
	return string(m)
}
