// internal/sched/scheduler.go

package sched

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ticksched/internal/hal"
)

var (
	ErrCapacityExceeded = errors.New("task table full")
	ErrDuplicateID      = errors.New("task id already exists")
	ErrNotFound         = errors.New("no such task")
)

// Scheduler owns the task table, the per-slot stacks and the round-robin
// cursor. Slots are addressed by index; callers only ever receive copies of
// control blocks.
type Scheduler struct {
	mu     sync.Mutex // protects the table and the cursor
	cpu    hal.CPU
	tasks  [MaxTasks]TaskControlBlock
	stacks [MaxTasks][StackSize]byte
	cursor int // most recently selected slot, or NoCursor

	events chan<- StatusEvent
	log    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithEvents streams status events to ch. Sends never block: when ch is
// full the event is dropped.
func WithEvents(ch chan<- StatusEvent) Option {
	return func(s *Scheduler) { s.events = ch }
}

// WithLogger sets the logger used for registry diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New returns an empty task table. New tasks inherit flags and selectors
// from cpu.
func New(cpu hal.CPU, opts ...Option) *Scheduler {
	s := &Scheduler{
		cpu:    cpu,
		cursor: NoCursor,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create places a new Blocked task in the first free slot. The task starts
// at entry on the top of its slot's stack with zeroed registers.
func (s *Scheduler) Create(id TaskID, entry uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("creating task", "id", id, "entry", fmt.Sprintf("%#08x", entry))

	index := s.freeIndexLocked()
	if index == -1 {
		s.log.Warn("cannot create task", "id", id, "capacity", MaxTasks, "err", ErrCapacityExceeded)
		return fmt.Errorf("create task %d: %w", id, ErrCapacityExceeded)
	}

	// deny duplicates
	if _, ok := s.findIndexLocked(id); ok {
		s.log.Warn("cannot create task", "id", id, "err", ErrDuplicateID)
		return fmt.Errorf("create task %d: %w", id, ErrDuplicateID)
	}

	s.tasks[index] = TaskControlBlock{
		ID:       id,
		Occupied: true,
		Status:   Blocked,
		Flags:    s.cpu.Flags(),
		Seg: Segments{
			CS:  s.cpu.CS(),
			DS:  s.cpu.DS(),
			SS:  s.cpu.SS(),
			EIP: entry,
			ESP: StackTop(index),
		},
	}

	s.emit(StatusEvent{Kind: StatusCreate, TaskID: id, Index: index})
	return nil
}

// Destroy frees the slot held by id. The slot's stack region is not
// cleared; the next task created in that slot inherits its bytes. If the
// slot was the cursor, the next tick saves nothing.
func (s *Scheduler) Destroy(id TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.findIndexLocked(id)
	if !ok {
		s.log.Warn("cannot destroy task", "id", id, "err", ErrNotFound)
		return fmt.Errorf("destroy task %d: %w", id, ErrNotFound)
	}
	s.tasks[index] = TaskControlBlock{}
	if s.cursor == index {
		s.cursor = NoCursor
	}

	s.emit(StatusEvent{Kind: StatusDestroy, TaskID: id, Index: index})
	return nil
}

// SetEvents replaces the event channel; nil stops event delivery. Call it
// before closing the previous channel.
func (s *Scheduler) SetEvents(ch chan<- StatusEvent) {
	s.mu.Lock()
	s.events = ch
	s.mu.Unlock()
}

// FindIndex returns the slot index of id.
func (s *Scheduler) FindIndex(id TaskID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findIndexLocked(id)
}

// SetStatus overwrites the status of id.
func (s *Scheduler) SetStatus(id TaskID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.findIndexLocked(id)
	if !ok {
		s.log.Warn("cannot set task status", "id", id, "status", status, "err", ErrNotFound)
		return fmt.Errorf("set status of task %d: %w", id, ErrNotFound)
	}
	s.tasks[index].Status = status

	kind := StatusStop
	if status == Runnable {
		kind = StatusStart
	}
	s.emit(StatusEvent{Kind: kind, TaskID: id, Index: index})
	return nil
}

// Start makes id eligible for scheduling.
func (s *Scheduler) Start(id TaskID) error { return s.SetStatus(id, Runnable) }

// Stop makes id ineligible for scheduling.
func (s *Scheduler) Stop(id TaskID) error { return s.SetStatus(id, Blocked) }

// GetByIndex returns a copy of the control block at index, which must come
// from a prior lookup.
func (s *Scheduler) GetByIndex(index int) TaskControlBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[index]
}

// AdjustPending adds delta to the inbound message count of id, never going
// below zero.
func (s *Scheduler) AdjustPending(id TaskID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.findIndexLocked(id)
	if !ok {
		return fmt.Errorf("adjust pending of task %d: %w", id, ErrNotFound)
	}
	t := &s.tasks[index]
	t.PendingMessages += delta
	if t.PendingMessages < 0 {
		t.PendingMessages = 0
	}
	return nil
}

// Snapshot returns copies of all occupied slots in table order.
func (s *Scheduler) Snapshot() []TaskControlBlock {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []TaskControlBlock
	for _, t := range s.tasks {
		if t.Occupied {
			out = append(out, t)
		}
	}
	return out
}

func (s *Scheduler) findIndexLocked(id TaskID) (int, bool) {
	for i := range s.tasks {
		if s.tasks[i].Occupied && s.tasks[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Scheduler) freeIndexLocked() int {
	for i := range s.tasks {
		if !s.tasks[i].Occupied {
			return i
		}
	}
	return -1
}

// emit must not block: it can run from the timer path. Callers hold s.mu.
func (s *Scheduler) emit(ev StatusEvent) {
	if s.events == nil {
		return
	}
	ev.Time = time.Now()
	select {
	case s.events <- ev:
	default:
	}
}
