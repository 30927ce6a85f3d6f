package hal

import "sync"

// PIC models the master 8259A closely enough to observe acknowledgements.
type PIC struct {
	mu   sync.Mutex
	isr  uint8 // in-service register
	imr  uint8 // interrupt mask register
	eois int
}

// Raise marks irq as in service. It reports false when the line is masked or
// a previous request on it has not been acknowledged yet.
func (p *PIC) Raise(irq uint8) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	bit := uint8(1) << irq
	if p.imr&bit != 0 || p.isr&bit != 0 {
		return false
	}
	p.isr |= bit
	return true
}

// EOICount returns the number of end-of-interrupt commands received.
func (p *PIC) EOICount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eois
}

func (p *PIC) command(v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v != EOI {
		return
	}
	p.eois++
	// non-specific EOI clears the highest priority (lowest numbered) bit
	for i := uint8(0); i < 8; i++ {
		if p.isr&(1<<i) != 0 {
			p.isr &^= 1 << i
			return
		}
	}
}

func (p *PIC) setMask(v uint8) {
	p.mu.Lock()
	p.imr = v
	p.mu.Unlock()
}

func (p *PIC) mask() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imr
}
