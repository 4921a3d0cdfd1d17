package mem

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/roach88/spindle/internal/middleware"
)

// SystemClock is the wall monotonic clock, anchored at process start.
type SystemClock struct{}

var clockEpoch = time.Now()

// Now returns the monotonic reading since the process-start anchor.
func (SystemClock) Now() time.Duration { return time.Since(clockEpoch) }

// Sleep blocks for d; non-positive d returns immediately.
func (SystemClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Transport is one in-memory message domain. It implements
// middleware.Context; endpoints created from it implement the per-kind
// middleware interfaces.
type Transport struct {
	clock middleware.Clock

	bus    *gochannel.GoChannel
	runCtx context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	valid         bool
	services      map[string]*Service
	actionServers map[string]*ActionServer
	waiters       map[chan struct{}]struct{}

	seq atomic.Int64
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithClock overrides the clock driving timers (default SystemClock).
func WithClock(c middleware.Clock) TransportOption {
	return func(t *Transport) { t.clock = c }
}

// NewTransport creates an empty message domain.
func NewTransport(opts ...TransportOption) *Transport {
	runCtx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		clock: SystemClock{},
		bus: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(slog.Default()),
		),
		runCtx:        runCtx,
		cancel:        cancel,
		valid:         true,
		services:      make(map[string]*Service),
		actionServers: make(map[string]*ActionServer),
		waiters:       make(map[chan struct{}]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsValid reports whether the transport is still up.
func (t *Transport) IsValid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.valid
}

// Shutdown tears the transport down: running spins observe the context
// going invalid and exit. Idempotent.
func (t *Transport) Shutdown() {
	t.mu.Lock()
	if !t.valid {
		t.mu.Unlock()
		return
	}
	t.valid = false
	t.mu.Unlock()

	t.cancel()
	if err := t.bus.Close(); err != nil {
		slog.Error("bus close failed", "error", err)
	}
	t.pokeAllLocked()
}

// NewWaitSet implements middleware.Context.
func (t *Transport) NewWaitSet(counts middleware.EntityCounts) (middleware.WaitSet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil, fmt.Errorf("transport is shut down")
	}
	w := newWaitSet(t, counts)
	t.waiters[w.wake] = struct{}{}
	return w, nil
}

// Clock returns the transport's time source.
func (t *Transport) Clock() middleware.Clock { return t.clock }

// nextSeq mints a transport-wide request sequence number.
func (t *Transport) nextSeq() int64 { return t.seq.Add(1) }

// pokeAll wakes every registered wait-set. Buffered wake channels
// coalesce repeated pokes. Callers hold t.mu.
func (t *Transport) pokeAll() {
	for w := range t.waiters {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

// pokeAllLocked takes the lock and wakes every wait-set.
func (t *Transport) pokeAllLocked() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pokeAll()
}

// dropWaiter unregisters a finalized wait-set's wake channel.
func (t *Transport) dropWaiter(wake chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.waiters, wake)
}

// Publish sends one message to every subscription of topic.
func (t *Transport) Publish(topic string, payload []byte) error {
	if !t.IsValid() {
		return fmt.Errorf("transport is shut down")
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := t.bus.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %q: %w", topic, err)
	}
	return nil
}

// payloadOf extracts the byte payload from a caller buffer. A copy is
// returned so the caller may reuse the buffer immediately.
func payloadOf(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return append([]byte(nil), b...), nil
	case *[]byte:
		return append([]byte(nil), *b...), nil
	case string:
		return []byte(b), nil
	case *string:
		return []byte(*b), nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", v)
	}
}

// copyInto copies a payload into a caller-owned take buffer.
func copyInto(into any, payload []byte) error {
	switch b := into.(type) {
	case *[]byte:
		*b = append((*b)[:0], payload...)
		return nil
	case *string:
		*b = string(payload)
		return nil
	default:
		return fmt.Errorf("unsupported buffer type %T", into)
	}
}
