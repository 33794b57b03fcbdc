// Package memory implements the 64 KiB linear address space and its two
// memory-mapped I/O registers.
package memory

import "fmt"

// Special addresses with I/O semantics. All other addresses behave as plain
// RAM.
const (
	IOKeyboard uint16 = 0xF000 // reads consume the next buffered keystroke
	IOTTY      uint16 = 0xF001 // writes emit a character-out event
)

const size = 0x10000

// ErrRomAlreadyLoaded is returned by LoadROM when a ROM has already been
// loaded into this Memory instance.
var ErrRomAlreadyLoaded = fmt.Errorf("memory: ROM already loaded")

// ErrRomTooBig is returned by LoadROM when the image does not fit the
// address space from the requested base, or is empty.
var ErrRomTooBig = fmt.Errorf("memory: ROM too big for address space")

// Keyboard is the append-only, cursor-tracked keyboard buffer backing
// IOKeyboard reads. It is satisfied by *ioterm.Keyboard; declared here so
// that memory does not import ioterm.
type Keyboard interface {
	ReadByte() uint8
}

// TTYSink receives every byte written to IOTTY.
type TTYSink interface {
	Emit(value uint8)
}

// Memory is the machine's 64 KiB byte-addressable RAM with an MMIO overlay
// on IOKeyboard and IOTTY. The zero value is not ready for use; construct
// with New.
type Memory struct {
	ram [size]byte

	keyboard Keyboard
	tty      TTYSink

	romLoaded bool
}

// New creates a zeroed 64 KiB memory with the given I/O peripherals attached.
func New(keyboard Keyboard, tty TTYSink) *Memory {
	return &Memory{keyboard: keyboard, tty: tty}
}

// Read returns the byte at addr. Reading IOKeyboard consumes the next
// buffered keystroke (or 0x00 if the buffer is exhausted) instead of
// consulting RAM. No other address has a read side effect.
func (m *Memory) Read(addr uint16) uint8 {
	if addr == IOKeyboard {
		return m.keyboard.ReadByte()
	}
	return m.ram[addr]
}

// Write stores value at addr. Writing IOTTY additionally emits a
// character-out event carrying value; the byte is also stored in RAM so a
// subsequent read reflects it.
func (m *Memory) Write(addr uint16, value uint8) {
	m.ram[addr] = value
	if addr == IOTTY {
		m.tty.Emit(value)
	}
}

// Peek reads addr without triggering any MMIO side effect. Used by test
// harnesses and debug tooling.
func (m *Memory) Peek(addr uint16) uint8 {
	return m.ram[addr]
}

// Poke writes addr without triggering any MMIO side effect.
func (m *Memory) Poke(addr uint16, value uint8) {
	m.ram[addr] = value
}

// LoadROM copies bytes into RAM starting at base. It may be called only
// once per Memory instance.
func (m *Memory) LoadROM(bytes []byte, base uint16) error {
	if m.romLoaded {
		return ErrRomAlreadyLoaded
	}
	if len(bytes) == 0 || int(base)+len(bytes) > size {
		return ErrRomTooBig
	}
	copy(m.ram[base:], bytes)
	m.romLoaded = true
	return nil
}
