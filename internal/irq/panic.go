package irq

import (
	"fmt"
	"log/slog"
)

// Panicker halts the system. Panic must not return.
type Panicker interface {
	Panic(msg string)
}

// KernelPanic is the value HaltPanicker panics with.
type KernelPanic struct {
	Message string
}

func (p *KernelPanic) Error() string {
	return fmt.Sprintf("kernel panic: %s", p.Message)
}

// HaltPanicker logs the message and unwinds the current goroutine with a
// *KernelPanic. Whoever drives the dispatcher recovers it and stops the
// machine.
type HaltPanicker struct {
	Log *slog.Logger
}

func (h HaltPanicker) Panic(msg string) {
	logger := h.Log
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("kernel panic", "msg", msg)
	panic(&KernelPanic{Message: msg})
}

// Recovered converts a recovered value into an error when it is a kernel
// panic. Any other value is re-raised.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	if kp, ok := v.(*KernelPanic); ok {
		return kp
	}
	panic(v)
}
