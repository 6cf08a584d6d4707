package portalauth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// auditDispatcher delivers one view's audit events to the sink on a single
// goroutine, in the order they were accepted.
//
// Every offered event is stamped with the view ID and the next sequence
// number before it is queued. A dropped event still consumes its number, so a
// sink merging several views sees each view's gaps.
type auditDispatcher struct {
	viewID string
	sink   AuditSink
	queue  chan AuditEvent
	block  bool

	// mu keeps sequence numbers in queue order.
	mu  sync.Mutex
	seq uint64

	stopped context.Context
	stop    context.CancelFunc
	flushed chan struct{}

	dropped   atomic.Uint64
	delivered atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, viewID string) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	stopped, stop := context.WithCancel(context.Background())
	d := &auditDispatcher{
		viewID:  viewID,
		sink:    sink,
		queue:   make(chan AuditEvent, max(cfg.BufferSize, 1)),
		block:   !cfg.DropIfFull,
		stopped: stopped,
		stop:    stop,
		flushed: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer close(d.flushed)

	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stopped.Done():
			// run is the only receiver, so a non-empty queue never blocks.
			for len(d.queue) > 0 {
				d.deliver(<-d.queue)
			}
			return
		}
	}
}

func (d *auditDispatcher) deliver(ev AuditEvent) {
	d.sink.Emit(context.Background(), ev)
	d.delivered.Add(1)
}

// Emit stamps ev for this view and queues it. With DropIfFull a full queue
// drops the event; otherwise Emit waits for room, ctx, or Close.
func (d *auditDispatcher) Emit(ctx context.Context, ev AuditEvent) {
	if d == nil || d.stopped.Err() != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	ev.Seq = d.seq
	ev.ViewID = d.viewID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	if !d.block {
		select {
		case d.queue <- ev:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stopped.Done():
		d.dropped.Add(1)
	}
}

// Close stops accepting events and returns once every queued event reached
// the sink. It is safe to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.stop()
	<-d.flushed
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

func (d *auditDispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}
