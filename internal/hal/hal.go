// Package hal is the boundary between the scheduling core and the machine it
// runs on. The core only sees the CPU and Ports interfaces; Machine is the
// host-side implementation used by the simulator and the tests.
package hal

// Well-known I/O ports.
const (
	PIC1CommandPort    uint16 = 0x20
	PIC1DataPort       uint16 = 0x21
	KeyboardDataPort   uint16 = 0x60
	KeyboardStatusPort uint16 = 0x64
)

// EOI is the non-specific end-of-interrupt command for the 8259 PIC.
const EOI uint8 = 0x20

// KeyboardOutputFull is the status bit set when the data port holds a byte.
const KeyboardOutputFull uint8 = 0x01

// CPU exposes the register state a new task inherits from its creator.
type CPU interface {
	Flags() uint32
	CS() uint16
	DS() uint16
	SS() uint16
}

// Ports is byte-granularity port I/O.
type Ports interface {
	ReadPort(port uint16) uint8
	WritePort(port uint16, value uint8)
}
