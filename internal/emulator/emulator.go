// Package emulator wires the CPU core, the memory subsystem, and the
// keyboard/character-out I/O peripherals into the single stable entry point
// described by the core's external interface: New, LoadROM, Boot, Step,
// Run, the trigger/send operations, and introspection.
package emulator

import (
	"mos6502/internal/cpu"
	"mos6502/internal/disasm"
	"mos6502/internal/ioterm"
	"mos6502/internal/memory"
)

const defaultEventBuffer = 256

// Emulator bundles a CPU, its memory, and its I/O peripherals into the one
// object a host program constructs and drives.
type Emulator struct {
	cpu  *cpu.CPU
	mem  *memory.Memory
	kbd  *ioterm.Keyboard
	sink *ioterm.Sink
}

// New creates an emulator in power-on state: 64 KiB zeroed RAM, an empty
// keyboard buffer, and PC loaded from whatever currently sits at the RESET
// vector (0x0000 until a ROM is loaded and Boot is called).
func New() *Emulator {
	kbd := ioterm.NewKeyboard()
	sink := ioterm.NewSink(defaultEventBuffer)
	mem := memory.New(kbd, sink)
	c := cpu.New(mem, sink)

	e := &Emulator{cpu: c, mem: mem, kbd: kbd, sink: sink}
	e.cpu.Boot()
	return e
}

// Events is the receive-only channel of observable Event values: CharOut on
// every IO_TTY write, ProgramHalted at the end of Run, and optional
// TracePC/TraceJSR when tracing is enabled.
func (e *Emulator) Events() <-chan ioterm.Event { return e.sink.Events }

// LoadROM is a one-shot copy of bytes into RAM starting at base. Call it
// before Boot so the RESET vector the ROM carries takes effect.
func (e *Emulator) LoadROM(bytes []byte, base uint16) error {
	return e.mem.LoadROM(bytes, base)
}

// Boot resets the CPU to power-on state and rewinds the keyboard cursor, so
// a previously-sent keyboard buffer replays from its start.
func (e *Emulator) Boot() {
	e.cpu.Boot()
	e.kbd.Rewind()
}

// Step executes exactly one instruction, servicing any pending interrupt
// first.
func (e *Emulator) Step() error { return e.cpu.Step() }

// Run executes up to maxSteps instructions, stopping early on halt, and
// emits ProgramHalted with the actual step count on exit.
func (e *Emulator) Run(maxSteps uint64) error { return e.cpu.Run(maxSteps) }

// TriggerIRQ latches a maskable interrupt request.
func (e *Emulator) TriggerIRQ() { e.cpu.TriggerIRQ() }

// TriggerNMI latches a non-maskable interrupt.
func (e *Emulator) TriggerNMI() { e.cpu.TriggerNMI() }

// SendKeys appends bytes to the keyboard buffer for later IO_KBD reads.
func (e *Emulator) SendKeys(bytes []byte) error { return e.kbd.Send(bytes) }

// Peek reads addr without any MMIO side effect.
func (e *Emulator) Peek(addr uint16) uint8 { return e.mem.Peek(addr) }

// Poke writes addr without any MMIO side effect.
func (e *Emulator) Poke(addr uint16, value uint8) { e.mem.Poke(addr, value) }

// Halted reports whether the CPU halted on a BRK.
func (e *Emulator) Halted() bool { return e.cpu.Halted() }

// ClearHalted clears the halt latch so a subsequent RTI and Run can resume.
func (e *Emulator) ClearHalted() { e.cpu.ClearHalted() }

// SetTrace enables or disables TracePC/TraceJSR event emission.
func (e *Emulator) SetTrace(enabled bool) { e.cpu.SetTrace(enabled) }

// Snapshot returns a point-in-time view of the register file.
func (e *Emulator) Snapshot() cpu.Snapshot { return e.cpu.Snap() }

// SetRegisters pokes the register file directly, for test harnesses
// establishing a precondition without running code.
func (e *Emulator) SetRegisters(s cpu.Snapshot) { e.cpu.SetRegisters(s) }

// Disassemble renders the instruction at addr as a mnemonic and its total
// length in bytes, without mutating CPU or memory state.
func (e *Emulator) Disassemble(addr uint16) (mnemonic string, length int) {
	return disasm.Disassemble(e.cpu, e.mem, addr)
}
