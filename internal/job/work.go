// Package job holds the simulated bodies of tasks: what a task does to its
// own register state while it owns the CPU between two timer interrupts.
package job

import (
	"bytes"

	"ticksched/internal/ipc"
	"ticksched/internal/sched"
)

// Work runs the current task for one timer period.
type Work func(f *sched.Frame)

// Spin returns work that advances the instruction pointer by step bytes and
// counts iterations in EAX.
func Spin(step uint32) Work {
	if step == 0 {
		step = 4
	}
	return func(f *sched.Frame) {
		f.IP += step
		f.Regs.EAX++
	}
}

// Inbox is the receive side of the IPC router.
type Inbox interface {
	Recv(id sched.TaskID) (ipc.Message, bool)
}

// Drain returns work that consumes every queued getc message of id and
// appends the scan codes to out. Other message kinds are discarded. ECX
// holds the number of bytes consumed so far.
func Drain(in Inbox, id sched.TaskID, out *bytes.Buffer) Work {
	return func(f *sched.Frame) {
		for {
			msg, ok := in.Recv(id)
			if !ok {
				break
			}
			if msg.Kind != ipc.KindGetc {
				continue
			}
			out.Write(msg.Payload())
			f.Regs.ECX += uint32(msg.Len)
		}
		f.IP += 4
	}
}
