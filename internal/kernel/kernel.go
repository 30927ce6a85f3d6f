// Package kernel brings the scheduling core up on a simulated machine and
// drives it with timer, keyboard and fault interrupts.
package kernel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ticksched/internal/hal"
	"ticksched/internal/ipc"
	"ticksched/internal/irq"
	"ticksched/internal/job"
	"ticksched/internal/sched"
)

// Kernel owns the machine, the task table and the interrupt path.
type Kernel struct {
	cfg Config
	log *slog.Logger

	machine  *hal.Machine
	sched    *sched.Scheduler
	router   *ipc.Router
	irq      *irq.Dispatcher
	recorder *sched.Recorder
	events   chan sched.StatusEvent

	frame sched.Frame // state of whatever the CPU is running
	work  map[sched.TaskID]job.Work
	keys  map[int][]uint8
	fault map[int][]irq.Cause
	tty   bytes.Buffer
	tick  int
}

// New wires a kernel from cfg. Fault causes are validated here so a bad
// config fails before anything runs.
func New(cfg Config, logger *slog.Logger) (*Kernel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	k := &Kernel{
		cfg:      cfg,
		log:      logger,
		machine:  hal.NewMachine(),
		events:   make(chan sched.StatusEvent, cfg.EventBuffer),
		recorder: sched.NewRecorder(logger),
		work:     make(map[sched.TaskID]job.Work),
		keys:     make(map[int][]uint8),
		fault:    make(map[int][]irq.Cause),
	}
	k.sched = sched.New(k.machine, sched.WithEvents(k.events), sched.WithLogger(logger))
	k.router = ipc.NewRouter(cfg.InboxSlots, k.sched, logger)
	k.irq = irq.NewDispatcher(k.machine, k.sched, k.router, irq.HaltPanicker{Log: logger}, logger)

	for _, ev := range cfg.Keyboard {
		k.keys[ev.Tick] = append(k.keys[ev.Tick], ev.Code)
	}
	for _, ev := range cfg.Faults {
		c, err := irq.ParseCause(ev.Cause)
		if err != nil {
			return nil, fmt.Errorf("fault at tick %d: %w", ev.Tick, err)
		}
		k.fault[ev.Tick] = append(k.fault[ev.Tick], c)
	}

	if cfg.TraceCSV != "" {
		if err := k.recorder.EnableCSVLogging(cfg.TraceCSV); err != nil {
			return nil, fmt.Errorf("open trace: %w", err)
		}
	}
	return k, nil
}

// Boot populates the task table and loads the first runnable task onto the
// CPU. Tasks that cannot be created are logged and skipped; their errors
// are returned joined so the caller can decide whether to go on.
func (k *Kernel) Boot() error {
	var errs []error
	for _, tc := range k.cfg.Tasks {
		id := sched.TaskID(tc.ID)
		if err := k.sched.Create(id, tc.Entry); err != nil {
			errs = append(errs, err)
			continue
		}
		k.router.Open(id)
		if id == ipc.TTY {
			k.work[id] = job.Drain(k.router, id, &k.tty)
		} else {
			k.work[id] = job.Spin(tc.Step)
		}
		if tc.Runnable {
			if err := k.sched.Start(id); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if first, ok := k.sched.FindNextRunnable(sched.MaxTasks - 1); ok {
		k.sched.SetCursor(first)
		k.frame = k.sched.ResumeFrame(first)
		k.log.Info("boot", "tasks", len(k.sched.Snapshot()), "first", k.sched.GetByIndex(first).ID)
	} else {
		k.log.Warn("boot: nothing runnable, idling")
	}
	return errors.Join(errs...)
}

// Step advances the machine by one timer period: the current task runs,
// pending keyboard and fault interrupts for this tick are raised, then the
// timer fires. A fatal exception unwinds with *irq.KernelPanic.
func (k *Kernel) Step() error {
	k.tick++

	k.runCurrent()

	for _, code := range k.keys[k.tick] {
		k.machine.Keyboard.Press(code)
		if err := k.raise(irq.Keyboard); err != nil {
			return err
		}
	}
	for _, c := range k.fault[k.tick] {
		if err := k.raise(c); err != nil {
			return err
		}
	}
	return k.raise(irq.Timer)
}

// Run steps the kernel on every timer pulse until the configured number of
// ticks has elapsed, ctx is cancelled or the kernel panics. A kernel panic
// is returned as an error. Run may only be called once; events raised after
// it returns are not recorded.
func (k *Kernel) Run(ctx context.Context) (err error) {
	done := make(chan struct{})
	go func() {
		k.recorder.Consume(k.events)
		close(done)
	}()
	defer func() {
		k.sched.SetEvents(nil)
		close(k.events)
		<-done
		if cerr := k.recorder.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	defer func() {
		if v := recover(); v != nil {
			err = irq.Recovered(v)
		}
	}()

	timer := hal.NewTimer(1)
	timer.Start(time.Duration(k.cfg.TickMS) * time.Millisecond)
	defer timer.Stop()

	for k.cfg.Ticks == 0 || k.tick < k.cfg.Ticks {
		select {
		case <-ctx.Done():
			k.log.Info("stopping", "tick", k.tick)
			return nil
		case <-timer.C:
		}
		if err := k.Step(); err != nil {
			return err
		}
	}
	k.log.Debug("timer stopped", "pulses", timer.Count(), "missed", timer.Missed())
	return nil
}

func (k *Kernel) runCurrent() {
	cur := k.sched.Cursor()
	if cur == sched.NoCursor {
		return
	}
	t := k.sched.GetByIndex(cur)
	if !t.Occupied || t.Status != sched.Runnable {
		return
	}
	if w := k.work[t.ID]; w != nil {
		w(&k.frame)
	}
}

func (k *Kernel) raise(c irq.Cause) error {
	line, isIRQ := irqLine(c)
	if isIRQ && !k.machine.PIC.Raise(line) {
		k.log.Debug("irq not delivered", "cause", c)
		return nil
	}
	return k.irq.Dispatch(c, &k.frame)
}

func irqLine(c irq.Cause) (uint8, bool) {
	switch c {
	case irq.Timer:
		return irq.TimerIRQ, true
	case irq.Keyboard:
		return irq.KeyboardIRQ, true
	default:
		return 0, false
	}
}

// Tick returns the number of timer periods elapsed.
func (k *Kernel) Tick() int { return k.tick }

// Frame returns the CPU state the kernel will resume next.
func (k *Kernel) Frame() sched.Frame { return k.frame }

// TTYOutput returns the bytes the tty task has consumed so far.
func (k *Kernel) TTYOutput() []byte { return k.tty.Bytes() }

func (k *Kernel) Scheduler() *sched.Scheduler { return k.sched }
func (k *Kernel) Router() *ipc.Router         { return k.router }
func (k *Kernel) Machine() *hal.Machine       { return k.machine }
func (k *Kernel) Recorder() *sched.Recorder   { return k.recorder }
