// Package irq is the single entry point for CPU exceptions and hardware
// interrupts. Each Cause maps to exactly one handler.
package irq

import "fmt"

// Cause is an interrupt vector number.
type Cause uint8

const (
	DivideError       Cause = 0
	InvalidOpcode     Cause = 6
	DoubleFault       Cause = 8
	GeneralProtection Cause = 13
	PageFault         Cause = 14
	AlignmentCheck    Cause = 17

	// IRQ0 and IRQ1 after the PIC is remapped past the exception vectors.
	Timer    Cause = 32
	Keyboard Cause = 33
)

// IRQ lines behind the master PIC.
const (
	TimerIRQ    uint8 = 0
	KeyboardIRQ uint8 = 1
)

var causeNames = map[Cause]string{
	DivideError:       "divide-error",
	InvalidOpcode:     "invalid-opcode",
	DoubleFault:       "double-fault",
	GeneralProtection: "general-protection",
	PageFault:         "page-fault",
	AlignmentCheck:    "alignment-check",
	Timer:             "timer",
	Keyboard:          "keyboard",
}

func (c Cause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("vector-%d", uint8(c))
}

// ParseCause accepts the names returned by Cause.String.
func ParseCause(s string) (Cause, error) {
	for c, name := range causeNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown interrupt cause %q", s)
}

// Fatal reports whether c is a CPU exception the kernel cannot recover from.
func (c Cause) Fatal() bool {
	_, ok := exceptionMessages[c]
	return ok
}

// exceptionMessages are the panic messages of the fatal causes.
var exceptionMessages = map[Cause]string{
	DivideError:       "division by zero!",
	InvalidOpcode:     "invalid opcode!",
	DoubleFault:       "double fault!",
	GeneralProtection: "general protect!",
	PageFault:         "page fault!",
	AlignmentCheck:    "alignment check!",
}
