// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusCreate
	StatusStart
	StatusStop
	StatusDispatch
	StatusDestroy
)

// StatusEvent is emitted on every context switch attempt and registry change.
type StatusEvent struct {
	Time         time.Time
	Kind         StatusKind
	TaskID       TaskID
	Index        int
	ElapsedTicks uint64
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusCreate:
		return "Create"
	case StatusStart:
		return "Start"
	case StatusStop:
		return "Stop"
	case StatusDispatch:
		return "Dispatch"
	case StatusDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}
