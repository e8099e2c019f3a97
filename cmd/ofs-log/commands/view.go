// Package commands implements the ofs-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/akrauze/OpenFilamentSensor/pkg/log"
)

// timestampLayout is used for every timestamp printed by the commands.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp LEVEL CATEGORY [stream:id] message
	ts := event.Timestamp.UTC().Format(timestampLayout)
	fmt.Fprintf(w, "%s %-7s %-9s", ts, event.Level.String(), event.Category.String())
	if event.StreamID != "" {
		fmt.Fprintf(w, " [stream:%s]", shortenID(event.StreamID))
	}
	fmt.Fprintf(w, " %s\n", event.Message)

	if event.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", event.RemoteAddr)
	}
	if len(event.Fields) > 0 {
		keys := make([]string, 0, len(event.Fields))
		for k := range event.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, event.Fields[k])
		}
	}
}

// shortenID returns the first 8 characters of a stream ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// RunView reads the log file and writes matching events to w.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}
