package sched

import "encoding/binary"

// NoCursor means no slot has been selected yet, or the last selected slot
// was destroyed.
const NoCursor = -1

// FindNextRunnable returns the first runnable slot after from, wrapping
// around to the start of the table and ending at from itself. It reports
// false when nothing is runnable. A from of NoCursor scans the whole table.
func (s *Scheduler) FindNextRunnable(from int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findNextRunnableLocked(from)
}

func (s *Scheduler) findNextRunnableLocked(from int) (int, bool) {
	// after from
	for i := from + 1; i < MaxTasks; i++ {
		if s.runnable(i) {
			return i, true
		}
	}
	// wrap, including from
	for i := 0; i <= from && i < MaxTasks; i++ {
		if s.runnable(i) {
			return i, true
		}
	}
	return -1, false
}

func (s *Scheduler) runnable(i int) bool {
	return s.tasks[i].Occupied && s.tasks[i].Status == Runnable
}

// Cursor returns the index of the most recently selected slot, or NoCursor.
func (s *Scheduler) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// SetCursor marks index as the slot currently on the CPU, typically the
// task bring-up code jumps into first. Out-of-range indices are ignored.
func (s *Scheduler) SetCursor(index int) {
	if index < 0 || index >= MaxTasks {
		return
	}
	s.mu.Lock()
	s.cursor = index
	s.mu.Unlock()
}

// ResumeFrame returns the state a switch to the slot at index would load,
// without switching.
func (s *Scheduler) ResumeFrame(index int) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeFrameLocked(index)
}

// Schedule runs on every timer tick. The interrupted state in f is saved
// into the current slot, the next runnable slot after it is selected, and
// f is overwritten with that slot's saved state so the interrupt return
// resumes it. When nothing is runnable f is left untouched. Nothing is
// saved while no slot has been selected, so a task that never ran keeps
// its entry state.
//
// The whole sequence happens under the table lock, so no caller observes a
// half-finished switch.
func (s *Scheduler) Schedule(f *Frame) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.cursor
	if from != NoCursor && s.tasks[from].Occupied {
		s.saveLocked(from, f)
		s.tasks[from].ElapsedTicks++
	}

	next, ok := s.findNextRunnableLocked(from)
	if !ok {
		s.emit(StatusEvent{Kind: StatusIdle, Index: from})
		return from, false
	}

	s.cursor = next
	s.restoreLocked(next, f)

	t := &s.tasks[next]
	s.emit(StatusEvent{
		Kind:         StatusDispatch,
		TaskID:       t.ID,
		Index:        next,
		ElapsedTicks: t.ElapsedTicks,
	})
	return next, true
}

// saveLocked stores f in slot i. When f's stack pointer lies in the slot's
// own stack, the interrupt return frame is pushed there the way the CPU
// leaves it on interrupt entry.
func (s *Scheduler) saveLocked(i int, f *Frame) {
	t := &s.tasks[i]
	t.GP = f.Regs
	t.Flags = f.Flags
	t.Seg.EIP = f.IP
	t.Seg.ESP = f.SP
	t.Preempted = false

	off, ok := stackOffset(i, f.SP)
	if !ok || off < IretFrameSize {
		return
	}
	off -= IretFrameSize
	stack := s.stacks[i][off : off+IretFrameSize]
	binary.LittleEndian.PutUint32(stack[0:4], f.IP)
	binary.LittleEndian.PutUint32(stack[4:8], uint32(t.Seg.CS))
	binary.LittleEndian.PutUint32(stack[8:12], f.Flags)
	t.Seg.ESP = f.SP - IretFrameSize
	t.Preempted = true
}

// restoreLocked loads slot i into f, popping its interrupt return frame.
func (s *Scheduler) restoreLocked(i int, f *Frame) {
	*f = s.resumeFrameLocked(i)
	t := &s.tasks[i]
	t.Seg.ESP = f.SP
	t.Preempted = false
}

func (s *Scheduler) resumeFrameLocked(i int) Frame {
	t := &s.tasks[i]
	f := Frame{
		IP:    t.Seg.EIP,
		SP:    t.Seg.ESP,
		Flags: t.Flags,
		Regs:  t.GP,
	}
	if !t.Preempted {
		return f
	}
	off, _ := stackOffset(i, t.Seg.ESP)
	stack := s.stacks[i][off : off+IretFrameSize]
	f.IP = binary.LittleEndian.Uint32(stack[0:4])
	f.Flags = binary.LittleEndian.Uint32(stack[8:12])
	f.SP = t.Seg.ESP + IretFrameSize
	return f
}

// stackOffset maps a stack address to an offset into slot i's region.
// The top of the region maps to StackSize.
func stackOffset(i int, sp uint32) (uint32, bool) {
	base := StackTop(i) - StackSize
	if sp < base || sp > StackTop(i) {
		return 0, false
	}
	return sp - base, true
}
