package hal

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is the programmable interval timer wired to IRQ0. Ticks that find
// the channel full are counted as missed instead of queueing up, the same
// way a real PIT drops a pulse while IRQ0 is still in service.
type Timer struct {
	C <-chan struct{}

	ch       chan struct{}
	count    atomic.Int64
	missed   atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

// NewTimer creates a stopped timer.
func NewTimer(buffer int) *Timer {
	ch := make(chan struct{}, buffer)
	return &Timer{
		C:    ch,
		ch:   ch,
		stop: make(chan struct{}),
	}
}

// Start begins firing at the given interval.
func (t *Timer) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.count.Add(1)
				select {
				case t.ch <- struct{}{}:
				default:
					t.missed.Add(1)
				}
			case <-t.stop:
				return
			}
		}
	}()
}

// Stop halts the timer. It is safe to call more than once.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Count returns the number of pulses fired so far.
func (t *Timer) Count() int64 {
	return t.count.Load()
}

// Missed returns the number of pulses dropped because nobody was listening.
func (t *Timer) Missed() int64 {
	return t.missed.Load()
}
