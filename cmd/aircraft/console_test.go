package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/dispatcher"
	"github.com/ubivismedia/aircraft/internal/handlers"
	"github.com/ubivismedia/aircraft/internal/hostsim"
	"github.com/ubivismedia/aircraft/internal/logging"
	"github.com/ubivismedia/aircraft/internal/storage/memory"
	sqlitestorage "github.com/ubivismedia/aircraft/internal/storage/sqlite"
	"github.com/ubivismedia/aircraft/pkg/core"
)

func quietGlobals(t *testing.T) {
	t.Helper()
	SlogManager = logging.NewSlogManager()
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newConsole(t *testing.T) (*console, *hostsim.Host, *bytes.Buffer) {
	t.Helper()
	quietGlobals(t)

	store := memory.New(config.MemoryConfig{})
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)

	h := hostsim.New()
	svc := handlers.NewService(handlers.Dependencies{
		Host:  h,
		Store: store,
		Hangar: config.HangarConfig{
			PlatformY:       64,
			Radius:          2,
			Spawn:           core.Position{X: 0, Y: 65, Z: 0},
			DesignOriginY:   70,
			SilhouetteLiftY: 5,
		},
		LogManager: SlogManager,
	})
	svc.RegisterHandlers(d)

	var out bytes.Buffer
	return &console{
		host:       h,
		service:    svc,
		dispatcher: d,
		spawn:      core.Position{X: 0, Y: 65, Z: 0},
		out:        &out,
	}, h, &out
}

func TestConsole_DesignSelectLoad(t *testing.T) {
	c, h, out := newConsole(t)

	script := strings.Join([]string{
		"alice: join 0,64,0",
		"alice: /aircraft design Falcon 5 10",
		"alice: click BRICKS",
		"alice: /aircraft load Falcon",
		"quit",
		"alice: /aircraft list",
	}, "\n")
	require.NoError(t, c.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "alice joined world at (0,64,0)")
	assert.Contains(t, text, `[alice] menu "Select Aircraft Material": IRON_BLOCK, QUARTZ_BLOCK, OAK_PLANKS, STONE, SMOOTH_STONE, BRICKS`)
	assert.Contains(t, text, "[alice] You selected BRICKS as your aircraft material.")
	assert.Contains(t, text, "[alice] Aircraft 'Falcon' loaded successfully.")
	assert.NotContains(t, text, "Your aircraft:", "lines after quit are not run")

	_, open := h.OpenMenu("alice")
	assert.False(t, open)
	_, ok := h.World(hostsim.AnchorName("alice"))
	assert.True(t, ok)
}

func TestConsole_ClickWithoutMenu(t *testing.T) {
	c, _, out := newConsole(t)

	assert.True(t, c.Handle("alice: join"))
	assert.True(t, c.Handle("alice: click BRICKS"))
	assert.Contains(t, out.String(), "error: alice has no open menu")
}

func TestConsole_BadLines(t *testing.T) {
	c, _, out := newConsole(t)

	assert.True(t, c.Handle(""))
	assert.True(t, c.Handle("no colon here"))
	assert.True(t, c.Handle("alice: dance"))
	assert.True(t, c.Handle("alice: move 1,2"))
	assert.False(t, c.Handle("QUIT"))

	text := out.String()
	assert.Contains(t, text, `expected "<player>: <action>"`)
	assert.Contains(t, text, `error: unknown action "dance"`)
	assert.Contains(t, text, "error: invalid coordinates provided")
}

func TestConsole_UnknownPlayerCommand(t *testing.T) {
	c, _, out := newConsole(t)

	c.Handle("bob: /aircraft")
	c.Handle("bob: /aircraft fly")

	text := out.String()
	assert.Contains(t, text, "[bob] Usage: /aircraft <design|load|info|list>")
	assert.Contains(t, text, "[bob] Unknown subcommand! Use /aircraft design or /aircraft load")
}

func TestConsole_Worlds(t *testing.T) {
	c, _, out := newConsole(t)

	c.Handle("worlds")
	assert.Contains(t, out.String(), "world: 0 blocks")
}

func TestCreateStorageBackend(t *testing.T) {
	quietGlobals(t)

	b, err := createStorageBackend(config.StorageConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend(config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{InMemory: true}})
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())

	_, err = createStorageBackend(config.StorageConfig{Type: "mongo"})
	assert.ErrorContains(t, err, "unsupported storage type: mongo")
}

func TestNewZeroLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newZeroLogger(&buf, "warn")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, zerolog.InfoLevel, newZeroLogger(&buf, "").GetLevel())
}

func TestMetricsSinks_NoneEnabled(t *testing.T) {
	InfluxManager = nil
	StreamPublisher = nil
	assert.Nil(t, metricsSinks())
}
