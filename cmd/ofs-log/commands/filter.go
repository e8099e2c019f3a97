package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/log"
)

// FilterOptions specifies filtering criteria shared by the view and
// filter commands.
type FilterOptions struct {
	Level     string
	Category  string
	StreamID  string
	TimeStart string
	TimeEnd   string
}

// BuildFilter converts command-line options into a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{StreamID: opts.StreamID}

	if opts.Level != "" {
		l, err := log.ParseLevel(opts.Level)
		if err != nil {
			return log.Filter{}, err
		}
		filter.MinLevel = &l
	}

	if opts.Category != "" {
		c, err := log.ParseCategory(opts.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// RunFilter copies the events of path matching opts into a new log file
// and returns how many were written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	if output == "" {
		return 0, errors.New("output file required")
	}

	filter, err := BuildFilter(opts)
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}
	if err := logger.Err(); err != nil {
		return logger.Written(), err
	}
	return count, nil
}
