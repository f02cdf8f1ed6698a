package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFHandler returns a JSON slog handler that ships each record to a
// Graylog input over UDP. The returned closer releases the socket.
func NewGELFHandler(address, facility, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GELF writer for %s: %w", address, err)
	}
	if facility != "" {
		w.Facility = facility
	}
	return slog.NewJSONHandler(w, handlerOptions(parseLevel(level))), w, nil
}
