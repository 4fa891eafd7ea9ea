package bot

import (
	"context"
	"sync"

	"github.com/avelar/vidvault/internal/flow"
)

// HandleFunc processes one engine event and returns the outbound actions.
type HandleFunc func(ctx context.Context, ev flow.Event) []flow.Action

// DeliverFunc sends the actions produced by one turn back to the
// originating platform.
type DeliverFunc func(ctx context.Context, src Inbound, actions []flow.Action)

// Dispatcher fans inbound messages out to per-user workers. Messages
// from the same user are processed strictly in arrival order; messages
// from different users run concurrently.
type Dispatcher struct {
	handle  HandleFunc
	deliver DeliverFunc

	mu     sync.Mutex
	queues map[string]*userQueue
	wg     sync.WaitGroup
}

type userQueue struct {
	pending []queuedMsg
}

type queuedMsg struct {
	src Inbound
	ev  flow.Event
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(handle HandleFunc, deliver DeliverFunc) *Dispatcher {
	return &Dispatcher{
		handle:  handle,
		deliver: deliver,
		queues:  make(map[string]*userQueue),
	}
}

// Dispatch enqueues one inbound message for its user. The first message
// for an idle user starts a worker goroutine; the worker exits once the
// user's queue drains.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Inbound) {
	ev := ParseInbound(msg)
	if ev.UserID == "" {
		return
	}

	d.mu.Lock()
	q, running := d.queues[ev.UserID]
	if !running {
		q = &userQueue{}
		d.queues[ev.UserID] = q
	}
	q.pending = append(q.pending, queuedMsg{src: msg, ev: ev})
	d.mu.Unlock()

	if !running {
		d.wg.Add(1)
		go d.drain(ctx, ev.UserID)
	}
}

// drain processes one user's queue in order. The empty-check and the
// map removal happen under the same lock as enqueue, so a message
// arriving during the final check either lands in this worker or starts
// a fresh one, never neither.
func (d *Dispatcher) drain(ctx context.Context, userID string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[userID]
		if q == nil || len(q.pending) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		d.mu.Unlock()

		if ctx.Err() != nil {
			continue // keep draining the queue so Wait can return
		}
		actions := d.handle(ctx, next.ev)
		if len(actions) > 0 {
			d.deliver(ctx, next.src, actions)
		}
	}
}

// Wait blocks until all in-flight workers have drained.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
