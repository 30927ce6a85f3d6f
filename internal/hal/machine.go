package hal

// Selector and flag values a freshly booted protected-mode kernel runs with.
const (
	DefaultFlags uint32 = 0x00000202 // IF set, reserved bit 1
	KernelCS     uint16 = 0x08
	KernelDS     uint16 = 0x10
)

// Machine is a host-side stand-in for the real hardware: a CPU whose
// flags and selectors are fixed, plus the PIC and keyboard behind the port
// space.
type Machine struct {
	PIC      *PIC
	Keyboard *Keyboard

	flags uint32
	cs    uint16
	ds    uint16
}

// NewMachine returns a machine in the state the boot code leaves it in.
func NewMachine() *Machine {
	return &Machine{
		PIC:      &PIC{},
		Keyboard: NewKeyboard(),
		flags:    DefaultFlags,
		cs:       KernelCS,
		ds:       KernelDS,
	}
}

func (m *Machine) Flags() uint32 { return m.flags }
func (m *Machine) CS() uint16    { return m.cs }
func (m *Machine) DS() uint16    { return m.ds }
func (m *Machine) SS() uint16    { return m.ds }

// ReadPort returns the byte present at port; unmapped ports read as 0xff.
func (m *Machine) ReadPort(port uint16) uint8 {
	switch port {
	case KeyboardStatusPort:
		return m.Keyboard.status()
	case KeyboardDataPort:
		return m.Keyboard.data()
	case PIC1DataPort:
		return m.PIC.mask()
	default:
		return 0xff
	}
}

// WritePort writes value to port; writes to unmapped ports are ignored.
func (m *Machine) WritePort(port uint16, value uint8) {
	switch port {
	case PIC1CommandPort:
		m.PIC.command(value)
	case PIC1DataPort:
		m.PIC.setMask(value)
	}
}
