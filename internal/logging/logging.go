// Package logging wires the extension's slog output (session file, OTel,
// Graylog) and the zerolog adapter used by the dispatcher.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionLogName is the file name of the log for a session started at start.
func SessionLogName(extensionName string, start time.Time) string {
	return fmt.Sprintf("%s.%s.log", extensionName, start.Format("20060102_150405"))
}

// OpenSessionLog creates logsDir if needed and opens the session log in
// append mode. It returns the file and its path.
func OpenSessionLog(logsDir, extensionName string, start time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs dir %s: %w", logsDir, err)
	}
	path := filepath.Join(logsDir, SessionLogName(extensionName, start))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return f, path, nil
}
