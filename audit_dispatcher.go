package goToken

import (
	"context"
	"sync"
	"sync/atomic"
)

// auditDispatcher hands events to a sink on a single goroutine so Issue and
// Verify never wait on sink I/O. Close closes the queue and cancels the sink
// context; the loop drains whatever was accepted before it exits.
type auditDispatcher struct {
	sink       AuditSink
	queue      chan AuditEvent
	dropIfFull bool
	finished   chan struct{}
	dropped    atomic.Uint64

	// sinkCtx is passed to every sink Emit and cancelled by Close, releasing
	// a sink blocked on a consumer that stopped reading.
	sinkCtx    context.Context
	cancelSink context.CancelFunc

	// mu orders Emit sends against Close closing the queue.
	mu     sync.RWMutex
	closed bool
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}

	d := &auditDispatcher{
		sink:       sink,
		queue:      make(chan AuditEvent, size),
		dropIfFull: cfg.DropIfFull,
		finished:   make(chan struct{}),
	}
	d.sinkCtx, d.cancelSink = context.WithCancel(context.Background())
	go d.loop()
	return d
}

func (d *auditDispatcher) loop() {
	defer close(d.finished)
	for event := range d.queue {
		d.sink.Emit(d.sinkCtx, event)
	}
}

// Emit queues event. With dropIfFull a full queue drops the event; otherwise
// Emit waits for space until ctx is done, and a cancelled wait also counts as
// a drop. Events emitted after Close are ignored.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close stops accepting events and returns once queued events were handed to
// the sink. Events still queued are delivered with a cancelled context, so a
// sink that blocks on a stalled consumer gives up instead of hanging Close.
// Safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.cancelSink()
	<-d.finished
}

// Dropped reports events lost to a full queue or a cancelled wait.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
