package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/akrauze/OpenFilamentSensor/pkg/log"
)

// exportRecord is the JSONL shape of one event.
type exportRecord struct {
	Timestamp  string            `json:"timestamp"`
	Level      string            `json:"level"`
	Category   string            `json:"category"`
	Message    string            `json:"message"`
	StreamID   string            `json:"stream_id,omitempty"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// RunExport writes the events of path to w in the given format.
func RunExport(path, format string, w io.Writer) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		rec := exportRecord{
			Timestamp:  event.Timestamp.UTC().Format(timestampLayout),
			Level:      event.Level.String(),
			Category:   event.Category.String(),
			Message:    event.Message,
			StreamID:   event.StreamID,
			RemoteAddr: event.RemoteAddr,
			Fields:     event.Fields,
		}
		if err := encoder.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "level", "category", "stream_id", "remote_addr", "message"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		row := []string{
			event.Timestamp.UTC().Format(timestampLayout),
			event.Level.String(),
			event.Category.String(),
			event.StreamID,
			event.RemoteAddr,
			event.Message,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
}
