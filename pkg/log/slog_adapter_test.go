package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func TestSlogAdapterLogsEvent(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		Timestamp:  time.Now(),
		Level:      LevelWarning,
		Category:   CategoryStream,
		Message:    "emit failed",
		StreamID:   "stream-1",
		RemoteAddr: "10.0.0.7:5555",
		Fields:     map[string]string{"reason": "broken pipe"},
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}

	checks := map[string]string{
		"level":       "WARN",
		"msg":         "emit failed",
		"category":    "STREAM",
		"stream_id":   "stream-1",
		"remote_addr": "10.0.0.7:5555",
		"reason":      "broken pipe",
	}
	for k, want := range checks {
		if entry[k] != want {
			t.Errorf("%s: got %v, want %q", k, entry[k], want)
		}
	}
}

func TestSlogAdapterOmitsEmptyIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))

	adapter.Log(Event{Level: LevelInfo, Category: CategorySystem, Message: "started"})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if _, ok := entry["stream_id"]; ok {
		t.Error("stream_id should be omitted when empty")
	}
	if entry["level"] != "INFO" {
		t.Errorf("level: got %v, want INFO", entry["level"])
	}
}
