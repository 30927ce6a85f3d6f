package sched

import (
	"sync"
	"testing"
)

// Run with -race.
func TestScheduleConcurrentWithRegistry(t *testing.T) {
	s := newTestScheduler(t)
	togglable := []TaskID{1, 2, 3, 4}
	createRunnable(t, s, togglable...)

	const ticks = 2000
	late := []TaskID{10, 11, 12, 13, 14, 15}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	defer func() {
		close(stop)
		wg.Wait()
	}()

	// flip the first tasks between runnable and blocked
	for _, id := range togglable[1:] {
		wg.Add(1)
		go func(id TaskID) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				if i%2 == 0 {
					_ = s.Stop(id)
				} else {
					_ = s.Start(id)
				}
			}
		}(id)
	}

	// tasks created mid-run stay blocked forever
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, id := range late {
			if err := s.Create(id, 0xf000); err != nil {
				t.Errorf("Create(%d) error = %v", id, err)
			}
		}
	}()

	// readers
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			for i := 0; i < MaxTasks; i++ {
				tcb := s.GetByIndex(i)
				if tcb.Occupied && tcb.ID >= 10 && tcb.Status != Blocked {
					t.Errorf("late task %d became %s", tcb.ID, tcb.Status)
				}
			}
			s.FindNextRunnable(s.Cursor())
		}
	}()

	// the timer path, tracking what it saved for each slot
	var (
		f     Frame
		cur   = NoCursor
		saved = map[int]Frame{}
	)
	for tick := 0; tick < ticks; tick++ {
		if cur != NoCursor {
			f.IP += 4
			f.Regs.EBX = uint32(cur) + 1
			saved[cur] = f
		}

		next, ok := s.Schedule(&f)
		if !ok {
			continue
		}
		cur = next

		tcb := s.GetByIndex(next)
		if tcb.ID >= 10 {
			t.Fatalf("tick %d: selected never-started task %d", tick, tcb.ID)
		}

		want, seen := saved[next]
		if !seen {
			want = Frame{IP: 0x1000 * uint32(tcb.ID), SP: StackTop(next), Flags: tcb.Flags}
		}
		if f != want {
			t.Fatalf("tick %d: slot %d resumed %+v, want %+v", tick, next, f, want)
		}
	}

	// task 1 is never stopped, so the rotation can never idle out of it
	if _, ok := saved[0]; !ok {
		t.Fatal("task 1 was never preempted")
	}
}
