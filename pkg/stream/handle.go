package stream

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/log"
)

// State is the lifecycle state of a stream.
type State uint8

const (
	// StateOpen means the stream is emitting.
	StateOpen State = iota

	// StateClosed is terminal.
	StateClosed
)

// String returns OPEN or CLOSED.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Handle controls one open stream.
type Handle struct {
	id       string
	pub      *Publisher
	onEmit   EmitFunc
	onClose  func()
	interval time.Duration
	openedAt time.Time

	// mu serializes emissions with each other and with closing.
	mu    sync.Mutex
	state State
	timer *time.Timer
	err   error

	emitted atomic.Uint64
	done    chan struct{}
}

func newHandle(p *Publisher, onEmit EmitFunc, onClose func(), interval time.Duration) *Handle {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Handle{
		id:       newStreamID(),
		pub:      p,
		onEmit:   onEmit,
		onClose:  onClose,
		interval: interval,
		openedAt: time.Now(),
		done:     make(chan struct{}),
	}
}

// ID returns the stream's unique identifier.
func (h *Handle) ID() string { return h.id }

// OpenedAt returns when the stream was opened.
func (h *Handle) OpenedAt() time.Time { return h.openedAt }

// Interval returns the refresh interval captured at open.
func (h *Handle) Interval() time.Duration { return h.interval }

// Emitted returns the number of snapshots delivered successfully.
func (h *Handle) Emitted() uint64 { return h.emitted.Load() }

// Done is closed when the stream closes.
func (h *Handle) Done() <-chan struct{} { return h.done }

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns why the stream closed: nil for Close, the emission error if
// the peer went away, or ErrClosed on publisher shutdown.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Close closes the stream. It waits for an in-flight emission to finish.
// Calling Close more than once is a no-op.
func (h *Handle) Close() {
	h.closeWith(nil)
}

// start performs the immediate emission and arms the timer.
func (h *Handle) start() {
	h.mu.Lock()
	if h.state != StateOpen {
		// Closed by CloseAll before the first emission.
		h.mu.Unlock()
		return
	}
	if err := h.emitLocked(); err != nil {
		h.mu.Unlock()
		h.closeWith(err)
		return
	}
	h.timer = time.AfterFunc(h.interval, h.tick)
	h.mu.Unlock()

	ev := log.NewEvent(log.LevelInfo, log.CategoryStream, "stream opened (interval %s)", h.interval)
	ev.StreamID = h.id
	h.pub.logger.Log(ev)
}

func (h *Handle) tick() {
	h.mu.Lock()
	if h.state != StateOpen {
		h.mu.Unlock()
		return
	}
	if err := h.emitLocked(); err != nil {
		h.mu.Unlock()
		h.closeWith(err)
		return
	}
	h.timer.Reset(h.interval)
	h.mu.Unlock()
}

func (h *Handle) emitLocked() error {
	snap := h.pub.producer.Produce()
	if h.onEmit != nil {
		if err := h.onEmit(snap); err != nil {
			return fmt.Errorf("emit: %w", err)
		}
	}
	h.emitted.Add(1)
	return nil
}

func (h *Handle) closeWith(reason error) {
	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		return
	}
	h.state = StateClosed
	h.err = reason
	if h.timer != nil {
		h.timer.Stop()
	}
	h.mu.Unlock()

	h.pub.remove(h.id)
	h.finish(reason)
}

// finish signals Done, logs and runs the close callback. It runs once per
// handle: either from closeWith after the state transition or from Open
// for handles that never started.
func (h *Handle) finish(reason error) {
	h.mu.Lock()
	h.state = StateClosed
	h.err = reason
	h.mu.Unlock()

	close(h.done)

	level := log.LevelInfo
	msg := fmt.Sprintf("stream closed after %d snapshots", h.Emitted())
	if reason != nil {
		msg += ": " + reason.Error()
		if errors.Is(reason, ErrClosed) {
			level = log.LevelDebug
		}
	}
	ev := log.NewEvent(level, log.CategoryStream, "%s", msg)
	ev.StreamID = h.id
	h.pub.logger.Log(ev)

	if h.onClose != nil {
		h.onClose()
	}
}
