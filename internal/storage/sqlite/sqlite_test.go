package sqlitestorage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/logging"
	"github.com/ubivismedia/aircraft/internal/storage"
	"github.com/ubivismedia/aircraft/internal/storage/storagetest"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

var falcon = core.StructureID{Owner: "alice", Name: "Falcon"}

func open(t *testing.T, cfg config.SQLiteConfig) *Backend {
	t.Helper()
	b, err := New(cfg, logging.NewSlogManager(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	return b
}

func TestBackendConformance_File(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		b := open(t, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "aircrafts.db")})
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestBackendConformance_InMemory(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Backend {
		b := open(t, config.SQLiteConfig{InMemory: true})
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(config.SQLiteConfig{}, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestFile_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aircrafts.db")

	b := open(t, config.SQLiteConfig{Path: path})
	require.NoError(t, b.UpsertStructure(&core.Structure{StructureID: falcon, SeatsPerRow: 3, RowCount: 5}))
	require.NoError(t, b.RecordBlock(core.BlockRecord{StructureID: falcon, Position: core.Position{X: 1, Y: 70, Z: 1}, Material: core.IronBlock}))
	require.NoError(t, b.Close())

	reopened := open(t, config.SQLiteConfig{Path: path})
	defer reopened.Close()

	got, err := reopened.GetStructure(falcon)
	require.NoError(t, err)
	assert.Equal(t, 5, got.RowCount)
	assert.Equal(t, map[core.Position]core.Material{{X: 1, Y: 70, Z: 1}: core.IronBlock},
		storagetest.Collect(t, reopened, "alice", "Falcon"))
}

func TestInMemory_DumpOnCloseAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aircrafts.db")
	cfg := config.SQLiteConfig{Path: path, InMemory: true}

	b := open(t, cfg)
	require.NoError(t, b.UpsertStructure(&core.Structure{StructureID: falcon, SeatsPerRow: 3, RowCount: 5}))
	require.NoError(t, b.SetMaterial(falcon, core.QuartzBlock))
	require.NoError(t, b.RecordBlock(core.BlockRecord{StructureID: falcon, Position: core.Position{X: 2, Y: 71, Z: 0}, Material: core.StoneSlab}))
	require.NoError(t, b.RecordBuild(&core.Build{StructureID: falcon, Mode: core.BuildModeGrid, Origin: core.Position{Y: 70}, Blocks: 1}))
	require.NoError(t, b.Close())

	restored := open(t, cfg)
	defer restored.Close()

	got, err := restored.GetStructure(falcon)
	require.NoError(t, err)
	assert.Equal(t, core.QuartzBlock, got.Material)

	n, err := restored.CountBlocks("alice", "Falcon")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	build, err := restored.LatestBuild(falcon)
	require.NoError(t, err)
	assert.Equal(t, core.Position{Y: 70}, build.Origin)
}

func TestInMemory_DumpLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aircrafts.db")
	b := open(t, config.SQLiteConfig{Path: path, InMemory: true, DumpInterval: 20 * time.Millisecond})
	defer b.Close()

	require.NoError(t, b.UpsertStructure(&core.Structure{StructureID: falcon, SeatsPerRow: 1, RowCount: 1}))

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestInMemory_ConnectionAndDumpsLogged(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "aircrafts.db")

	b, err := New(config.SQLiteConfig{Path: path, InMemory: true}, nil, zerolog.New(&buf).Level(zerolog.DebugLevel))
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Dump())
	require.NoError(t, b.Close())

	out := buf.String()
	assert.Contains(t, out, `"backend":"sqlite"`)
	assert.Contains(t, out, "Using local SQLite DB in memory")
	assert.Contains(t, out, "Connected to database")
	assert.Contains(t, out, "Dumped memory DB to disk")
	assert.Contains(t, out, path)
}

func TestDump_FileModeRefuses(t *testing.T) {
	b := open(t, config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "aircrafts.db")})
	defer b.Close()

	assert.Error(t, b.Dump())
}

func TestClose_Twice(t *testing.T) {
	b := open(t, config.SQLiteConfig{InMemory: true})
	require.NoError(t, b.Close())
	assert.NotPanics(t, func() { _ = b.Close() })
}
