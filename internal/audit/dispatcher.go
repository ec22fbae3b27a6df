package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering. Now stamps events that arrive
// without a Timestamp; it defaults to time.Now.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	Now        func() time.Time
}

// queued pairs an event with the request context it was emitted under,
// detached from cancellation so sinks still see trace ids after the
// request returns.
type queued struct {
	ctx   context.Context
	event Event
}

// Dispatcher relays events to a Sink from a single goroutine. A nil
// *Dispatcher is valid and discards everything.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool
	now        func() time.Time

	queue     chan queued
	stop      chan struct{}
	stopped   sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher starts the relay goroutine, or returns nil when auditing is
// disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		now:        now,
		queue:      make(chan queued, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}

	d.stopped.Add(1)
	go d.relay()

	return d
}

func (d *Dispatcher) relay() {
	defer d.stopped.Done()

	for {
		select {
		case item := <-d.queue:
			d.deliver(item)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case item := <-d.queue:
			d.deliver(item)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(item queued) {
	d.sink.Emit(item.ctx, item.event)
	d.delivered.Add(1)
}

// Emit queues event. With DropIfFull a full buffer discards the event and
// bumps Dropped; otherwise Emit waits for room or for ctx to end.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}
	item := queued{ctx: context.WithoutCancel(ctx), event: event}

	if d.dropIfFull {
		select {
		case d.queue <- item:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- item:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
	}
}

// Close stops accepting events, flushes the buffer and waits for the relay
// goroutine. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.stopped.Wait()
	})
}

// Dropped counts events lost to a full buffer or a cancelled caller.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered counts events handed to the sink.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
