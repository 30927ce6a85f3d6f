package irq

import (
	"errors"
	"fmt"
	"log/slog"

	"ticksched/internal/hal"
	"ticksched/internal/ipc"
	"ticksched/internal/sched"
)

var ErrUnhandledCause = errors.New("unhandled interrupt cause")

// Scheduler is the context switch the timer handler drives.
type Scheduler interface {
	Schedule(f *sched.Frame) (int, bool)
}

// Sender is the fire-and-forget IPC send primitive.
type Sender interface {
	Send(to sched.TaskID, msg ipc.Message)
}

type handler func(d *Dispatcher, f *sched.Frame)

// Dispatcher routes each interrupt cause to its handler.
type Dispatcher struct {
	ports    hal.Ports
	sched    Scheduler
	sender   Sender
	panicker Panicker
	log      *slog.Logger

	handlers map[Cause]handler
}

// NewDispatcher wires the handlers to their collaborators. A nil panicker
// defaults to HaltPanicker.
func NewDispatcher(ports hal.Ports, s Scheduler, sender Sender, panicker Panicker, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if panicker == nil {
		panicker = HaltPanicker{Log: logger}
	}

	d := &Dispatcher{
		ports:    ports,
		sched:    s,
		sender:   sender,
		panicker: panicker,
		log:      logger,
		handlers: map[Cause]handler{
			Timer:    (*Dispatcher).timer,
			Keyboard: (*Dispatcher).keyboard,
		},
	}
	for c := range exceptionMessages {
		d.handlers[c] = exceptionHandler(c)
	}
	return d
}

// Dispatch runs the handler of cause. f is the interrupted task's frame;
// after a timer interrupt it holds the state to resume instead.
func (d *Dispatcher) Dispatch(cause Cause, f *sched.Frame) error {
	h, ok := d.handlers[cause]
	if !ok {
		return fmt.Errorf("dispatch %s: %w", cause, ErrUnhandledCause)
	}
	h(d, f)
	return nil
}

func exceptionHandler(c Cause) handler {
	msg := exceptionMessages[c]
	return func(d *Dispatcher, _ *sched.Frame) {
		d.panicker.Panic(msg)
	}
}

func (d *Dispatcher) timer(f *sched.Frame) {
	d.ack()
	d.sched.Schedule(f)
}

func (d *Dispatcher) keyboard(_ *sched.Frame) {
	d.log.Debug("irq", "cause", Keyboard)

	// EOI goes out last whatever happens below
	defer d.ack()

	if d.ports.ReadPort(hal.KeyboardStatusPort)&hal.KeyboardOutputFull == 0 {
		return
	}
	code := int8(d.ports.ReadPort(hal.KeyboardDataPort))
	if code < 1 {
		return
	}

	d.sender.Send(ipc.TTY, ipc.NewMessage(ipc.KindGetc, []byte{byte(code)}))
}

func (d *Dispatcher) ack() {
	d.ports.WritePort(hal.PIC1CommandPort, hal.EOI)
}
