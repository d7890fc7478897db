package sse

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const writeDeadline = 60 * time.Second

// stream writes SSE frames to one response.
type stream struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	logger *slog.Logger
}

// openStream sets the event-stream headers and flushes them.
func openStream(w http.ResponseWriter, logger *slog.Logger) (*stream, error) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		return nil, fmt.Errorf("flush headers: %w", err)
	}
	return &stream{w: w, rc: rc, logger: logger}, nil
}

// send writes one "event: <type>\ndata: <json>\n\n" frame and flushes it.
func (s *stream) send(eventType EventType, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil {
		return err
	}

	// Reset after each successful write so hung connections time out.
	if err := s.rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		s.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
