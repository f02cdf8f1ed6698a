// Package storagetest holds the behaviour every storage.Backend must share.
// Backend packages call Run from their own tests.
package storagetest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubivismedia/aircraft/internal/storage"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// Factory returns a fresh, initialised backend. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.Backend

var falcon = core.StructureID{Owner: "alice", Name: "Falcon"}

// Run executes the shared suite against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Run("UpsertAssignsIncreasingSeq", func(t *testing.T) { testUpsertSeq(t, newBackend(t)) })
	t.Run("UpsertResetsMaterial", func(t *testing.T) { testUpsertResetsMaterial(t, newBackend(t)) })
	t.Run("FindLatestUnmaterialized", func(t *testing.T) { testFindLatest(t, newBackend(t)) })
	t.Run("SetMaterialUnknown", func(t *testing.T) { testSetMaterialUnknown(t, newBackend(t)) })
	t.Run("GetStructureNotFound", func(t *testing.T) { testGetNotFound(t, newBackend(t)) })
	t.Run("ListStructuresByOwner", func(t *testing.T) { testList(t, newBackend(t)) })
	t.Run("InvalidKeys", func(t *testing.T) { testInvalidKeys(t, newBackend(t)) })
	t.Run("LedgerRoundTrip", func(t *testing.T) { testLedgerRoundTrip(t, newBackend(t)) })
	t.Run("LedgerUpsertKeepsLast", func(t *testing.T) { testLedgerUpsert(t, newBackend(t)) })
	t.Run("LedgerScopedByOwnerAndName", func(t *testing.T) { testLedgerScope(t, newBackend(t)) })
	t.Run("LedgerSurvivesReupsert", func(t *testing.T) { testLedgerSurvivesReupsert(t, newBackend(t)) })
	t.Run("FetchBlocksEarlyStop", func(t *testing.T) { testFetchEarlyStop(t, newBackend(t)) })
	t.Run("Builds", func(t *testing.T) { testBuilds(t, newBackend(t)) })
}

func structure(id core.StructureID, seats, rows int) *core.Structure {
	return &core.Structure{StructureID: id, SeatsPerRow: seats, RowCount: rows}
}

func block(id core.StructureID, x, y, z int, m core.Material) core.BlockRecord {
	return core.BlockRecord{StructureID: id, Position: core.Position{X: x, Y: y, Z: z}, Material: m}
}

// Collect drains FetchBlocks into a map keyed by position.
func Collect(t *testing.T, b storage.Backend, owner, name string) map[core.Position]core.Material {
	t.Helper()
	out := make(map[core.Position]core.Material)
	for rec, err := range b.FetchBlocks(owner, name) {
		require.NoError(t, err)
		out[rec.Position] = rec.Material
	}
	return out
}

func testUpsertSeq(t *testing.T, b storage.Backend) {
	first := structure(falcon, 3, 5)
	require.NoError(t, b.UpsertStructure(first))
	second := structure(core.StructureID{Owner: "bob", Name: "Sparrow"}, 2, 2)
	require.NoError(t, b.UpsertStructure(second))

	assert.Greater(t, first.Seq, uint64(0))
	assert.Greater(t, second.Seq, first.Seq)

	got, err := b.GetStructure(falcon)
	require.NoError(t, err)
	assert.Equal(t, 3, got.SeatsPerRow)
	assert.Equal(t, 5, got.RowCount)
	assert.False(t, got.HasMaterial())
	assert.Equal(t, first.Seq, got.Seq)
}

func testUpsertResetsMaterial(t *testing.T, b storage.Backend) {
	require.NoError(t, b.UpsertStructure(structure(falcon, 3, 5)))
	require.NoError(t, b.SetMaterial(falcon, core.Bricks))

	got, err := b.GetStructure(falcon)
	require.NoError(t, err)
	assert.Equal(t, core.Bricks, got.Material)

	again := structure(falcon, 4, 6)
	again.Material = core.Stone
	require.NoError(t, b.UpsertStructure(again))
	assert.False(t, again.HasMaterial(), "upsert clears the material on the passed struct")

	got, err = b.GetStructure(falcon)
	require.NoError(t, err)
	assert.False(t, got.HasMaterial())
	assert.Equal(t, 4, got.SeatsPerRow)
	assert.Equal(t, 6, got.RowCount)
}

func testFindLatest(t *testing.T, b storage.Backend) {
	_, ok, err := b.FindLatestUnmaterialized("alice")
	require.NoError(t, err)
	assert.False(t, ok)

	hawk := core.StructureID{Owner: "alice", Name: "Hawk"}
	require.NoError(t, b.UpsertStructure(structure(falcon, 3, 5)))
	require.NoError(t, b.UpsertStructure(structure(hawk, 1, 1)))
	require.NoError(t, b.UpsertStructure(structure(core.StructureID{Owner: "bob", Name: "Other"}, 1, 1)))

	id, ok, err := b.FindLatestUnmaterialized("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, hawk, id)

	require.NoError(t, b.SetMaterial(hawk, core.Stone))
	id, ok, err = b.FindLatestUnmaterialized("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, falcon, id)

	// re-upserting the older structure makes it the latest again
	require.NoError(t, b.UpsertStructure(structure(hawk, 2, 2)))
	id, _, err = b.FindLatestUnmaterialized("alice")
	require.NoError(t, err)
	assert.Equal(t, hawk, id)
}

func testSetMaterialUnknown(t *testing.T, b storage.Backend) {
	err := b.SetMaterial(falcon, core.Stone)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

func testGetNotFound(t *testing.T, b storage.Backend) {
	_, err := b.GetStructure(falcon)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)

	_, err = b.LatestBuild(falcon)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
}

func testList(t *testing.T, b storage.Backend) {
	require.NoError(t, b.UpsertStructure(structure(core.StructureID{Owner: "alice", Name: "B"}, 1, 1)))
	require.NoError(t, b.UpsertStructure(structure(core.StructureID{Owner: "bob", Name: "X"}, 1, 1)))
	require.NoError(t, b.UpsertStructure(structure(core.StructureID{Owner: "alice", Name: "A"}, 1, 1)))

	list, err := b.ListStructures("alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Name)
	assert.Equal(t, "A", list[1].Name)

	list, err = b.ListStructures("nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testInvalidKeys(t *testing.T, b storage.Backend) {
	bad := core.StructureID{Owner: "alice"}

	assert.ErrorIs(t, b.UpsertStructure(structure(bad, 1, 1)), storage.ErrInvalidKey)
	assert.ErrorIs(t, b.SetMaterial(bad, core.Stone), storage.ErrInvalidKey)
	assert.ErrorIs(t, b.RecordBlock(block(bad, 0, 0, 0, core.Stone)), storage.ErrInvalidKey)
	assert.ErrorIs(t, b.RecordBuild(&core.Build{StructureID: bad}), storage.ErrInvalidKey)

	_, err := b.GetStructure(bad)
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
	_, err = b.CountBlocks("", "Falcon")
	assert.ErrorIs(t, err, storage.ErrInvalidKey)

	var fetchErr error
	for _, err := range b.FetchBlocks("alice", "") {
		fetchErr = err
	}
	assert.ErrorIs(t, fetchErr, storage.ErrInvalidKey)
}

func testLedgerRoundTrip(t *testing.T, b storage.Backend) {
	want := map[core.Position]core.Material{
		{X: -1, Y: 70, Z: -1}: core.IronBlock,
		{X: 0, Y: 71, Z: 0}:   core.StoneSlab,
		{X: 12, Y: -3, Z: 99}: core.Material("LEGACY_BLOCK"),
	}
	for pos, m := range want {
		require.NoError(t, b.RecordBlock(block(falcon, pos.X, pos.Y, pos.Z, m)))
	}

	assert.Equal(t, want, Collect(t, b, "alice", "Falcon"))

	n, err := b.CountBlocks("alice", "Falcon")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.Empty(t, Collect(t, b, "alice", "Unknown"))
}

func testLedgerUpsert(t *testing.T, b storage.Backend) {
	require.NoError(t, b.RecordBlock(block(falcon, 1, 2, 3, core.Glass)))
	require.NoError(t, b.RecordBlock(block(falcon, 1, 2, 3, core.Glass)))
	require.NoError(t, b.RecordBlock(block(falcon, 1, 2, 3, core.Lever)))

	n, err := b.CountBlocks("alice", "Falcon")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, map[core.Position]core.Material{{X: 1, Y: 2, Z: 3}: core.Lever}, Collect(t, b, "alice", "Falcon"))
}

func testLedgerScope(t *testing.T, b storage.Backend) {
	require.NoError(t, b.RecordBlock(block(falcon, 0, 0, 0, core.Stone)))
	require.NoError(t, b.RecordBlock(block(core.StructureID{Owner: "bob", Name: "Falcon"}, 0, 0, 0, core.Bricks)))
	require.NoError(t, b.RecordBlock(block(core.StructureID{Owner: "alice", Name: "Hawk"}, 0, 0, 0, core.Glass)))

	assert.Equal(t, map[core.Position]core.Material{{}: core.Stone}, Collect(t, b, "alice", "Falcon"))
	assert.Equal(t, map[core.Position]core.Material{{}: core.Bricks}, Collect(t, b, "bob", "Falcon"))
	assert.Equal(t, map[core.Position]core.Material{{}: core.Glass}, Collect(t, b, "alice", "Hawk"))
}

func testLedgerSurvivesReupsert(t *testing.T, b storage.Backend) {
	require.NoError(t, b.UpsertStructure(structure(falcon, 3, 5)))
	require.NoError(t, b.RecordBlock(block(falcon, 5, 5, 5, core.Stone)))
	require.NoError(t, b.UpsertStructure(structure(falcon, 1, 1)))

	n, err := b.CountBlocks("alice", "Falcon")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func testFetchEarlyStop(t *testing.T, b storage.Backend) {
	for x := 0; x < 10; x++ {
		require.NoError(t, b.RecordBlock(block(falcon, x, 0, 0, core.Stone)))
	}

	seen := 0
	for _, err := range b.FetchBlocks("alice", "Falcon") {
		require.NoError(t, err)
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)

	// the backend stays usable after an abandoned iteration
	require.NoError(t, b.RecordBlock(block(falcon, 100, 0, 0, core.Stone)))
	n, err := b.CountBlocks("alice", "Falcon")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
}

func testBuilds(t *testing.T, b storage.Backend) {
	first := &core.Build{
		StructureID: falcon,
		Mode:        core.BuildModeGrid,
		Origin:      core.Position{X: 0, Y: 70, Z: 0},
		Blocks:      50,
		Params:      map[string]any{"seatsPerRow": float64(3), "rowCount": float64(5)},
	}
	require.NoError(t, b.RecordBuild(first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	second := &core.Build{
		StructureID: falcon,
		Mode:        core.BuildModeSilhouette,
		Origin:      core.Position{X: 10, Y: 75, Z: -2},
		Blocks:      68,
	}
	require.NoError(t, b.RecordBuild(second))
	assert.Greater(t, second.ID, first.ID)

	got, err := b.LatestBuild(falcon)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, core.BuildModeSilhouette, got.Mode)
	assert.Equal(t, core.Position{X: 10, Y: 75, Z: -2}, got.Origin)
	assert.Equal(t, 68, got.Blocks)
}
