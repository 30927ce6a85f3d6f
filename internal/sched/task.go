package sched

// TaskID identifies a task. It is assigned by whoever creates the task and
// is unique among occupied slots.
type TaskID uint16

// Status is the scheduling state of an occupied slot.
type Status uint8

const (
	Blocked  Status = iota // not eligible for scheduling
	Runnable               // eligible for scheduling
)

func (st Status) String() string {
	switch st {
	case Blocked:
		return "blocked"
	case Runnable:
		return "runnable"
	default:
		return "unknown"
	}
}

// Table geometry. Stack regions are laid out back to back from StackBase.
const (
	MaxTasks  = 16
	StackSize = 4096
	StackBase = 0x00200000
)

// StackTop returns the initial stack pointer of the slot at index.
func StackTop(index int) uint32 {
	return StackBase + uint32(index+1)*StackSize
}

// IretFrameSize is what the CPU pushes on interrupt: EIP, CS, EFLAGS.
const IretFrameSize = 12

// GPRegisters is the general-purpose register file in pushad order.
type GPRegisters struct {
	EDI uint32
	ESI uint32
	EBP uint32
	ESP uint32 // ignored by popad
	EBX uint32
	EDX uint32
	ECX uint32
	EAX uint32
}

// Segments holds the selectors and the resumable execution point.
type Segments struct {
	CS  uint16
	DS  uint16
	SS  uint16
	EIP uint32
	ESP uint32
}

// TaskControlBlock is the saved machine state of one slot.
type TaskControlBlock struct {
	ID              TaskID
	Occupied        bool
	Status          Status
	PendingMessages int    // maintained by the IPC layer
	ElapsedTicks    uint64 // timer ticks spent as the current task
	Flags           uint32
	GP              GPRegisters
	Seg             Segments
	Preempted       bool // an interrupt return frame sits at Seg.ESP
}

// Frame is the state the timer entry stub captured from the interrupted
// task. Schedule reads it and, on a switch, overwrites it with the state
// the interrupt return path should resume.
type Frame struct {
	IP    uint32
	SP    uint32
	Flags uint32
	Regs  GPRegisters
}
