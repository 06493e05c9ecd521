// Package scrape contains the orchestration core: the command bus that
// fans Run/Shutdown out to every scraper goroutine, the cron scheduler,
// and the supervisor that drains results and applies them to the store.
package scrape

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Command is broadcast to every scraper goroutine.
type Command int

// The two commands a scraper loop reacts to.
const (
	CommandRun Command = iota
	CommandShutdown
)

func (c Command) String() string {
	switch c {
	case CommandRun:
		return "run"
	case CommandShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// ErrBusClosed is returned by Subscription.Recv once the bus has been
// closed. It signals normal termination, not a failure.
var ErrBusClosed = errors.New("command bus closed")

// Bus broadcasts commands to all subscriptions. Every subscriber sees
// every command, each through its own bounded buffer. A subscriber that
// falls behind loses its oldest buffered commands rather than blocking
// the publisher or its siblings.
type Bus struct {
	mu     sync.Mutex
	subs   []*Subscription
	buffer int
	closed bool
	logger *zap.Logger
}

// NewBus creates a Bus whose subscriptions buffer up to buffer commands.
func NewBus(buffer int, logger *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		buffer: buffer,
		logger: logger,
	}
}

// Subscription is one subscriber's view of the bus.
type Subscription struct {
	ch chan Command
}

// Subscribe registers a new subscriber. Subscribing after Close returns a
// subscription whose Recv immediately reports ErrBusClosed.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscription{ch: make(chan Command, b.buffer)}
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

// Publish broadcasts cmd to every subscription. A full subscription drops
// its oldest buffered command to make room; the lag is counted and
// logged, and the subscriber simply misses that command.
func (b *Bus) Publish(cmd Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- cmd:
			continue
		default:
		}
		// slow subscriber: drop the oldest command, then retry once. The
		// inner selects guard against the subscriber draining its buffer
		// between our checks.
		select {
		case <-sub.ch:
			busLagged.Inc()
			b.logger.Warn("subscriber lagging, dropped oldest command")
		default:
		}
		select {
		case sub.ch <- cmd:
		default:
		}
	}
}

// Close terminates all subscriptions. Pending buffered commands are still
// delivered before Recv reports ErrBusClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

// Recv blocks until the next command, the bus closing, or ctx ending.
func (s *Subscription) Recv(ctx context.Context) (Command, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case cmd, ok := <-s.ch:
		if !ok {
			return 0, ErrBusClosed
		}
		return cmd, nil
	}
}
