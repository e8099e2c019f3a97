package client

import (
	"context"
	"errors"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/status"
)

// ErrStreamEnded is returned by Watch when the server kept ending the
// stream until MaxAttempts ran out.
var ErrStreamEnded = errors.New("status stream ended")

// WatchOptions configures Watch.
type WatchOptions struct {
	// Backoff sets the reconnect delays.
	Backoff BackoffConfig

	// MaxAttempts stops Watch after this many reconnects without a
	// snapshot in between. Zero retries forever.
	MaxAttempts int

	// OnDisconnect is called with the stream error (nil when the server
	// ended the stream) and the delay before the next attempt.
	OnDisconnect func(err error, retryIn time.Duration)
}

// Watch follows the status stream like StreamStatus and reconnects when
// the stream ends or fails. It returns nil when ctx is done, fn's error
// if fn fails, or the last stream error once MaxAttempts is exhausted.
func (c *Client) Watch(ctx context.Context, fn func(status.Snapshot) error, opts WatchOptions) error {
	backoff := NewBackoff(opts.Backoff)

	for {
		delivered := false
		var fnErr error
		err := c.StreamStatus(ctx, func(s status.Snapshot) error {
			if !delivered {
				delivered = true
				backoff.Reset()
			}
			if err := fn(s); err != nil {
				fnErr = err
				return err
			}
			return nil
		})
		if fnErr != nil {
			return fnErr
		}
		if ctx.Err() != nil {
			return nil
		}
		if opts.MaxAttempts > 0 && backoff.Attempts() >= opts.MaxAttempts {
			if err == nil {
				err = ErrStreamEnded
			}
			return err
		}

		delay := backoff.Next()
		if opts.OnDisconnect != nil {
			opts.OnDisconnect(err, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}
