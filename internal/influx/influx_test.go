package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/pkg/core"
)

var falcon = core.StructureID{Owner: "alice", Name: "Falcon"}

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(data)
}

func TestBuildPoint(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	p := BuildPoint(core.Build{
		StructureID: falcon,
		Mode:        core.BuildModeGrid,
		Origin:      core.Position{X: 0, Y: 70, Z: 0},
		Blocks:      50,
		CreatedAt:   ts,
	})

	line := influxdb2_write.PointToLineProtocol(p, time.Second)
	assert.Equal(t,
		"structure_builds,mode=grid,name=Falcon,owner=alice blocks=50i,origin_x=0i,origin_y=70i,origin_z=0i 1700000000\n",
		line)
}

func TestReloadPoint(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	p := ReloadPoint(falcon, 68, 1500*time.Microsecond, ts)

	line := influxdb2_write.PointToLineProtocol(p, time.Second)
	assert.Equal(t,
		"structure_reloads,name=Falcon,owner=alice blocks=68i,duration_ms=1.5 1700000000\n",
		line)
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Enabled: false}, "")
	err := m.Connect(context.Background())
	assert.True(t, errors.Is(err, ErrDisabled))
	assert.False(t, m.IsValid)
}

func TestWritePoint_NoBackend(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, "")
	assert.Error(t, m.RecordBuild(core.Build{StructureID: falcon}))
	assert.Error(t, m.OpenBackup())
}

func TestBackupWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{}, path)
	require.NoError(t, m.OpenBackup())
	require.NoError(t, m.OpenBackup())

	require.NoError(t, m.RecordBuild(core.Build{StructureID: falcon, Mode: core.BuildModeGrid, Blocks: 50}))
	require.NoError(t, m.RecordReload(falcon, 50, time.Millisecond))
	require.NoError(t, m.Close())

	content := readBackup(t, path)
	assert.Contains(t, content, "structure_builds,mode=grid,name=Falcon,owner=alice blocks=50i")
	assert.Contains(t, content, "structure_reloads,name=Falcon,owner=alice blocks=50i")
}

func TestConnect_UnreachableFallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "aircraft-metrics",
		Bucket:   "aircraft",
	}, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.IsValid)
	assert.NotNil(t, m.BackupWriter)

	require.NoError(t, m.RecordReload(falcon, 3, time.Millisecond))
	require.NoError(t, m.Close())
	assert.Contains(t, readBackup(t, path), "structure_reloads")
}
