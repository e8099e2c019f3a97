package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/akrauze/OpenFilamentSensor/pkg/status"
)

// StatusEventName is the SSE event name of status snapshots.
const StatusEventName = "status"

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
	ID   string
}

// EventReader parses a text/event-stream body.
type EventReader struct {
	scanner *bufio.Scanner
}

// NewEventReader creates a reader over r.
func NewEventReader(r io.Reader) *EventReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	return &EventReader{scanner: s}
}

// Next returns the next event. It returns io.EOF when the stream ends
// cleanly. Comment lines and events without data are skipped.
func (r *EventReader) Next() (Event, error) {
	var (
		ev      Event
		data    []string
		hasData bool
	)
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if line == "" {
			if hasData {
				ev.Data = strings.Join(data, "\n")
				if ev.Name == "" {
					ev.Name = "message"
				}
				return ev, nil
			}
			ev, data = Event{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
		case "data":
			data = append(data, value)
			hasData = true
		case "id":
			ev.ID = value
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// StreamStatus subscribes to the status event stream and calls fn for every
// snapshot. It returns nil when ctx is cancelled or the server ends the
// stream, and fn's error if fn fails.
func (c *Client) StreamStatus(ctx context.Context, fn func(status.Snapshot) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status_events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("%w: content type %q", ErrUnexpectedResponse, ct)
	}

	events := NewEventReader(resp.Body)
	for {
		ev, err := events.Next()
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ev.Name != StatusEventName {
			continue
		}

		var snap status.Snapshot
		if err := json.Unmarshal([]byte(ev.Data), &snap); err != nil {
			return fmt.Errorf("%w: status event: %v", ErrUnexpectedResponse, err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}
