package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/log"
)

// streamClosedPrefix matches the message the publisher logs when a
// stream ends.
const streamClosedPrefix = "stream closed"

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByLevel    map[log.Level]int
	EventsByCategory map[log.Category]int
	Streams          map[string]*StreamStats
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// StreamStats holds statistics for a single status stream.
type StreamStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	RemoteAddr string
	Closed     bool
}

// CollectStats reads every event in path and aggregates them.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLevel:    make(map[log.Level]int),
		EventsByCategory: make(map[log.Category]int),
		Streams:          make(map[string]*StreamStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLevel[event.Level]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.StreamID == "" {
			continue
		}
		s, ok := stats.Streams[event.StreamID]
		if !ok {
			s = &StreamStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Streams[event.StreamID] = s
		}
		s.Events++
		if event.Timestamp.After(s.LastSeen) {
			s.LastSeen = event.Timestamp
		}
		if event.RemoteAddr != "" && s.RemoteAddr == "" {
			s.RemoteAddr = event.RemoteAddr
		}
		if strings.HasPrefix(event.Message, streamClosedPrefix) {
			s.Closed = true
		}
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Filament Sensor Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Level:")
	for _, level := range []log.Level{log.LevelDebug, log.LevelInfo, log.LevelWarning, log.LevelError} {
		if count := stats.EventsByLevel[level]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", level.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategorySystem, log.CategoryRequest, log.CategoryStream, log.CategorySettings, log.CategoryDiscovery} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Streams: %d\n", len(stats.Streams))
	if len(stats.Streams) == 0 {
		return
	}

	type streamInfo struct {
		id    string
		stats *StreamStats
	}
	streams := make([]streamInfo, 0, len(stats.Streams))
	for id, ss := range stats.Streams {
		streams = append(streams, streamInfo{id, ss})
	}
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].stats.FirstSeen.Before(streams[j].stats.FirstSeen)
	})

	fmt.Fprintln(w)
	for _, s := range streams {
		duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
		state := "open"
		if s.stats.Closed {
			state = "closed"
		}
		fmt.Fprintf(w, "  [%s] %d events, duration %s, %s\n", shortenID(s.id), s.stats.Events, duration, state)
		if s.stats.RemoteAddr != "" {
			fmt.Fprintf(w, "           Remote: %s\n", s.stats.RemoteAddr)
		}
	}
}
