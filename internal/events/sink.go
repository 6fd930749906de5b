package events

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitgor/openclawpack/internal/ndjson"
)

// LogSink appends each event as one JSON line to a file, fsync'd per event
// so the run record survives a crash.
type LogSink struct {
	file    *os.File
	encoder *ndjson.Encoder
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewLogSink opens (or creates) an append-mode event log.
func NewLogSink(path string, logger *slog.Logger) (*LogSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &LogSink{
		file:    file,
		encoder: ndjson.NewEncoder(file, logger),
		logger:  logger,
	}, nil
}

// Write appends one event.
func (s *LogSink) Write(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.encoder.Encode(evt); err != nil {
		return err
	}
	return s.file.Sync()
}

// SubscribeAll registers the sink on every event type of the bus. Append
// failures are logged, never propagated into the emitting workflow.
func (s *LogSink) SubscribeAll(bus *Bus) {
	for _, t := range Types() {
		bus.On(t, func(evt Event) {
			if err := s.Write(evt); err != nil {
				s.logger.Error("failed to append event", "type", evt.Type, "error", err)
			}
		})
	}
}

// Close closes the underlying file.
func (s *LogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
