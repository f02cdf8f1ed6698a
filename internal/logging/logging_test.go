package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLogName(t *testing.T) {
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)
	assert.Equal(t, "aircraft.20260212_213836.log", SessionLogName("aircraft", start))
}

func TestOpenSessionLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "aircraftlogs")
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	f, path, err := OpenSessionLog(dir, "aircraft", start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "aircraft.20260212_213836.log"), path)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// a second open of the same session appends
	f, _, err = OpenSessionLog(dir, "aircraft", start)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestOpenSessionLog_DirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := OpenSessionLog(blocker, "aircraft", time.Now())
	assert.ErrorContains(t, err, "failed to create logs dir")
}
