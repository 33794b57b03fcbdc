// Package cpu implements the MOS 6502 NMOS CPU core: registers, the 13
// addressing modes, the opcode dispatcher, the stack, and the
// interrupt/reset controller. It executes through a Memory interface so the
// host's MMIO overlay (keyboard/character-out) is exercised on every fetch,
// read, write, and stack or vector access, exactly as real hardware would.
package cpu

import (
	"fmt"

	"mos6502/internal/ioterm"
)

// Processor status bit positions, per the 6502 "NV_BDIZC" layout.
const (
	FlagC uint8 = 1 << 0 // Carry
	FlagZ uint8 = 1 << 1 // Zero
	FlagI uint8 = 1 << 2 // Interrupt disable
	FlagD uint8 = 1 << 3 // Decimal mode (tracked only; binary arithmetic always)
	FlagB uint8 = 1 << 4 // Break (meaningful only in the pushed byte)
	FlagU uint8 = 1 << 5 // Unused, always set when pushed
	FlagV uint8 = 1 << 6 // Overflow
	FlagN uint8 = 1 << 7 // Negative
)

const (
	stackBase   uint16 = 0x0100
	nmiVector   uint16 = 0xFFFA
	resetVector uint16 = 0xFFFC
	irqVector   uint16 = 0xFFFE
)

// Memory is the byte-addressable bus the CPU executes against. Every
// register-visible memory access — opcode fetch, operand fetch, stack
// push/pop, vector fetch — goes through it, which is how memory-mapped I/O
// participates in instruction execution without the dispatcher knowing
// about it.
type Memory interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// CPU is a single MOS 6502 core. The zero value is not ready for use;
// construct with New.
type CPU struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16
	P       uint8

	cycles uint64

	irqPending bool
	nmiPending bool
	halted     bool

	traceEnabled bool

	mem    Memory
	events *ioterm.Sink

	dispatch [256]opcodeEntry
}

// New creates a CPU wired to mem and events. Callers must call Boot before
// Step/Run to establish the documented power-on state.
func New(mem Memory, events *ioterm.Sink) *CPU {
	c := &CPU{mem: mem, events: events}
	c.buildDispatchTable()
	return c
}

// Halted reports whether BRK has halted execution.
func (c *CPU) Halted() bool { return c.halted }

// ClearHalted resets the halt latch so a subsequent RTI/Run can resume
// execution, per spec.md's "Halt-on-BRK" design note.
func (c *CPU) ClearHalted() { c.halted = false }

// SetTrace enables or disables TracePC/TraceJSR event emission.
func (c *CPU) SetTrace(enabled bool) { c.traceEnabled = enabled }

// Cycles returns the best-effort monotonic cycle counter.
func (c *CPU) Cycles() uint64 { return c.cycles }

// GetFlag reports whether the status bit given by mask (one of the Flag*
// constants) is set in P.
func (c *CPU) GetFlag(mask uint8) bool {
	return c.P&mask != 0
}

// SetFlag sets or clears the status bit given by mask in P.
func (c *CPU) SetFlag(mask uint8, set bool) {
	if set {
		c.P |= mask
	} else {
		c.P &^= mask
	}
}

// updateZN sets Z iff value is zero and N iff bit 7 of value is set.
func (c *CPU) updateZN(value uint8) {
	c.SetFlag(FlagZ, value == 0)
	c.SetFlag(FlagN, value&0x80 != 0)
}

// Boot performs the documented reset sequence: zero A/X/Y, SP=0xFD, P with
// only I set, PC loaded from the RESET vector, halt/interrupt latches
// cleared, cycle counter cleared.
func (c *CPU) Boot() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = FlagI
	c.halted = false
	c.irqPending = false
	c.nmiPending = false
	c.cycles = 0
	c.PC = c.readWord(resetVector)
}

// TriggerIRQ latches a maskable interrupt request. It remains pending,
// level-like, until serviced.
func (c *CPU) TriggerIRQ() { c.irqPending = true }

// TriggerNMI latches a non-maskable interrupt. It is edge-like: cleared the
// moment it is serviced.
func (c *CPU) TriggerNMI() { c.nmiPending = true }

// push writes value to the stack page at SP then decrements SP (wrapping
// mod 256).
func (c *CPU) push(value uint8) {
	c.mem.Write(stackBase+uint16(c.SP), value)
	c.SP--
}

// pop increments SP (wrapping mod 256) then reads the stack page at SP.
func (c *CPU) pop() uint8 {
	c.SP++
	return c.mem.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value & 0xFF))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// readWord reads a little-endian 16-bit word at addr via the normal Memory
// interface (so vector fetches observe MMIO like any other read).
func (c *CPU) readWord(addr uint16) uint16 {
	lo := uint16(c.mem.Read(addr))
	hi := uint16(c.mem.Read(addr + 1))
	return hi<<8 | lo
}

// serviceInterrupt pushes PC and status (with B set according to setB),
// sets I, and loads PC from vector. It is used by both the NMI/IRQ
// controller and, with setB=true, by BRK.
func (c *CPU) serviceInterrupt(vector uint16, setB bool) {
	c.pushWord(c.PC)
	status := c.P | FlagU
	if setB {
		status |= FlagB
	} else {
		status &^= FlagB
	}
	c.push(status)
	c.SetFlag(FlagI, true)
	c.PC = c.readWord(vector)
}

// serviceInterrupts applies NMI > IRQ priority at the head of Step. NMI is
// edge-latched and always cleared once serviced; IRQ is level-latched and
// only serviced (and cleared) while the I flag is clear.
func (c *CPU) serviceInterrupts() {
	switch {
	case c.nmiPending:
		c.nmiPending = false
		c.serviceInterrupt(nmiVector, false)
		c.cycles += 7
	case c.irqPending && !c.GetFlag(FlagI):
		c.irqPending = false
		c.serviceInterrupt(irqVector, false)
		c.cycles += 7
	}
}

// Step services pending interrupts, then fetches and dispatches exactly one
// instruction. It returns ErrOpcodeNotImplemented if the fetched opcode has
// no handler; in that case PC has already advanced past the opcode byte.
func (c *CPU) Step() error {
	c.serviceInterrupts()

	if c.traceEnabled {
		c.events.EmitTracePC(c.PC)
	}

	opcode := c.mem.Read(c.PC)
	c.PC++

	entry := c.dispatch[opcode]
	addr, pageCrossed := c.resolveAddress(entry.mode)

	extra, err := entry.handler(c, addr, pageCrossed)
	if err != nil {
		return err
	}

	total := uint64(entry.cycles)
	if pageCrossed && entry.pageCrossPenalty {
		total++
	}
	total += uint64(extra)
	c.cycles += total

	return nil
}

// ErrZeroBudget is returned by Run when maxSteps is zero.
var ErrZeroBudget = fmt.Errorf("cpu: run budget must be greater than zero")

// Run executes up to maxSteps instructions, stopping early if the CPU
// halts (via BRK). It emits a ProgramHalted event carrying the number of
// steps actually executed when it returns, whether by halt or by budget
// exhaustion.
func (c *CPU) Run(maxSteps uint64) error {
	if maxSteps == 0 {
		return ErrZeroBudget
	}

	var executed uint64
	for executed < maxSteps && !c.halted {
		if err := c.Step(); err != nil {
			return err
		}
		executed++
	}

	c.events.EmitHalted(executed)
	return nil
}

// Snapshot is a point-in-time, side-effect-free view of CPU state for test
// harnesses and host introspection.
type Snapshot struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16
	P       uint8
	Cycles  uint64
	Halted  bool
}

// Snap returns a Snapshot of the current register file.
func (c *CPU) Snap() Snapshot {
	return Snapshot{
		A: c.A, X: c.X, Y: c.Y,
		SP: c.SP, PC: c.PC, P: c.P,
		Cycles: c.cycles, Halted: c.halted,
	}
}

// SetRegisters pokes the register file directly, for test harnesses that
// need to establish a precondition without running code.
func (c *CPU) SetRegisters(s Snapshot) {
	c.A, c.X, c.Y = s.A, s.X, s.Y
	c.SP = s.SP
	c.PC = s.PC
	c.P = s.P
	c.cycles = s.Cycles
	c.halted = s.Halted
}
