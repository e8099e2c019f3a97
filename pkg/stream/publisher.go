package stream

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akrauze/OpenFilamentSensor/pkg/log"
	"github.com/akrauze/OpenFilamentSensor/pkg/status"
)

// ErrClosed is the close reason of streams opened on, or still open when,
// the publisher shut down.
var ErrClosed = errors.New("publisher closed")

// Producer builds snapshots. *status.Model satisfies it.
type Producer interface {
	Produce() status.Snapshot
	RefreshInterval() time.Duration
}

// EmitFunc delivers one snapshot to a stream's peer. A non-nil error means
// the peer is gone and closes the stream. EmitFunc must not call Close on
// its own handle.
type EmitFunc func(status.Snapshot) error

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the event logger for stream lifecycle events.
func WithLogger(l log.Logger) Option {
	return func(p *Publisher) {
		p.logger = log.OrNoop(l)
	}
}

// Publisher serves snapshots in poll and stream mode.
type Publisher struct {
	producer Producer
	logger   log.Logger

	mu      sync.RWMutex
	streams map[string]*Handle
	closed  bool
}

// NewPublisher creates a publisher for p.
func NewPublisher(p Producer, opts ...Option) *Publisher {
	pub := &Publisher{
		producer: p,
		logger:   log.NoopLogger{},
		streams:  make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(pub)
	}
	return pub
}

// Poll produces exactly one snapshot.
func (p *Publisher) Poll() status.Snapshot {
	return p.producer.Produce()
}

// Open starts a stream. One snapshot is emitted before Open returns; the
// next follows one refresh interval later. onClose may be nil.
//
// If the first emission fails the returned handle is already closed. After
// Shutdown, Open returns a closed handle whose Err is ErrClosed.
func (p *Publisher) Open(onEmit EmitFunc, onClose func()) *Handle {
	h := newHandle(p, onEmit, onClose, p.producer.RefreshInterval())

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		h.finish(ErrClosed)
		return h
	}
	p.streams[h.id] = h
	p.mu.Unlock()

	h.start()
	return h
}

// Active returns the number of open streams.
func (p *Publisher) Active() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.streams)
}

// StreamInfo describes an open stream.
type StreamInfo struct {
	ID       string        `json:"id"`
	OpenedAt time.Time     `json:"openedAt"`
	Interval time.Duration `json:"interval"`
	Emitted  uint64        `json:"emitted"`
}

// Streams returns the open streams, oldest first.
func (p *Publisher) Streams() []StreamInfo {
	p.mu.RLock()
	result := make([]StreamInfo, 0, len(p.streams))
	for _, h := range p.streams {
		result = append(result, StreamInfo{
			ID:       h.id,
			OpenedAt: h.openedAt,
			Interval: h.interval,
			Emitted:  h.Emitted(),
		})
	}
	p.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].OpenedAt.Equal(result[j].OpenedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})
	return result
}

// CloseAll closes every open stream. New streams may still be opened.
func (p *Publisher) CloseAll() {
	for _, h := range p.snapshotStreams() {
		h.Close()
	}
}

// Shutdown closes every open stream with ErrClosed and rejects further
// opens.
func (p *Publisher) Shutdown() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for _, h := range p.snapshotStreams() {
		h.closeWith(ErrClosed)
	}
}

func (p *Publisher) snapshotStreams() []*Handle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	handles := make([]*Handle, 0, len(p.streams))
	for _, h := range p.streams {
		handles = append(handles, h)
	}
	return handles
}

func (p *Publisher) remove(id string) {
	p.mu.Lock()
	delete(p.streams, id)
	p.mu.Unlock()
}

func newStreamID() string {
	return uuid.New().String()
}
