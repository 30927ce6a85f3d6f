package hal

import (
	"sync"

	"github.com/emirpasic/gods/queues/arrayqueue"
)

// Keyboard is a PS/2 controller holding scan codes that have not been read
// from the data port yet.
type Keyboard struct {
	mu      sync.Mutex
	pending *arrayqueue.Queue
}

// NewKeyboard returns a controller with an empty output buffer.
func NewKeyboard() *Keyboard {
	return &Keyboard{pending: arrayqueue.New()}
}

// Press queues a raw scan code.
func (k *Keyboard) Press(code uint8) {
	k.mu.Lock()
	k.pending.Enqueue(code)
	k.mu.Unlock()
}

// Pending returns how many scan codes are still buffered.
func (k *Keyboard) Pending() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pending.Size()
}

func (k *Keyboard) status() uint8 {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.pending.Empty() {
		return 0
	}
	return KeyboardOutputFull
}

func (k *Keyboard) data() uint8 {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.pending.Dequeue()
	if !ok {
		return 0
	}
	return v.(uint8)
}
