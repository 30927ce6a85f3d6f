package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/emirpasic/gods/queues/circularbuffer"

	"ticksched/internal/sched"
)

var (
	ErrNoInbox   = errors.New("no inbox for task")
	ErrInboxFull = errors.New("inbox full")
)

// DefaultInboxSlots is the inbox depth used when none is configured.
const DefaultInboxSlots = 8

// PendingCounter is told about every message queued or consumed so the
// task table can keep its pending count current.
type PendingCounter interface {
	AdjustPending(id sched.TaskID, delta int) error
}

type inbox struct {
	mu sync.Mutex
	q  *circularbuffer.Queue
}

// Router owns one bounded inbox per task.
type Router struct {
	mu      sync.RWMutex
	slots   int
	inboxes map[sched.TaskID]*inbox
	counter PendingCounter
	log     *slog.Logger
	dropped int
}

// NewRouter returns a router whose inboxes hold slots messages each.
// counter may be nil.
func NewRouter(slots int, counter PendingCounter, logger *slog.Logger) *Router {
	if slots <= 0 {
		slots = DefaultInboxSlots
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		slots:   slots,
		inboxes: make(map[sched.TaskID]*inbox),
		counter: counter,
		log:     logger,
	}
}

// Open creates the inbox of id. Opening an existing inbox keeps its
// contents.
func (r *Router) Open(id sched.TaskID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inboxes[id]; ok {
		return
	}
	r.inboxes[id] = &inbox{q: circularbuffer.New(r.slots)}
}

// TrySend queues msg for to without blocking.
func (r *Router) TrySend(to sched.TaskID, msg Message) error {
	r.mu.RLock()
	in, ok := r.inboxes[to]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("send to task %d: %w", to, ErrNoInbox)
	}

	in.mu.Lock()
	if in.q.Full() {
		in.mu.Unlock()
		return fmt.Errorf("send to task %d: %w", to, ErrInboxFull)
	}
	in.q.Enqueue(msg)
	in.mu.Unlock()

	if r.counter != nil {
		if err := r.counter.AdjustPending(to, 1); err != nil {
			r.log.Debug("pending count not updated", "task", to, "err", err)
		}
	}
	return nil
}

// Send is the fire-and-forget form of TrySend: failures are logged and
// counted, never reported to the caller.
func (r *Router) Send(to sched.TaskID, msg Message) {
	if err := r.TrySend(to, msg); err != nil {
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.log.Debug("message dropped", "task", to, "kind", msg.Kind, "err", err)
	}
}

// Recv takes the oldest message from the inbox of id.
func (r *Router) Recv(id sched.TaskID) (Message, bool) {
	r.mu.RLock()
	in, ok := r.inboxes[id]
	r.mu.RUnlock()
	if !ok {
		return Message{}, false
	}

	in.mu.Lock()
	v, ok := in.q.Dequeue()
	in.mu.Unlock()
	if !ok {
		return Message{}, false
	}

	if r.counter != nil {
		_ = r.counter.AdjustPending(id, -1)
	}
	return v.(Message), true
}

// Dropped returns how many fire-and-forget sends were lost.
func (r *Router) Dropped() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}
