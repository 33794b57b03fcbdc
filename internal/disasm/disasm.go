// Package disasm renders a single instruction at a memory address as a
// mnemonic and byte length, sharing the cpu package's dispatch table as the
// single source of truth for opcode-to-mnemonic/mode mapping instead of
// duplicating it.
package disasm

import (
	"fmt"

	"mos6502/internal/cpu"
)

// Peeker is the side-effect-free memory access disassembly needs: it must
// never consume a keyboard byte or trigger any other MMIO effect.
type Peeker interface {
	Peek(addr uint16) uint8
}

// operandLength returns how many bytes follow the opcode byte for mode.
func operandLength(mode cpu.AddressingMode) int {
	switch mode {
	case cpu.Implied, cpu.Accumulator:
		return 0
	case cpu.Immediate, cpu.ZeroPage, cpu.ZeroPageX, cpu.ZeroPageY,
		cpu.IndexedIndirect, cpu.IndirectIndexed, cpu.Relative:
		return 1
	case cpu.Absolute, cpu.AbsoluteX, cpu.AbsoluteY, cpu.Indirect:
		return 2
	default:
		return 0
	}
}

// Disassemble reads the opcode at addr from mem and returns its mnemonic
// and total instruction length in bytes (opcode plus operand). Unknown
// opcodes render as "???" with a length of 1, so callers can always advance
// past them.
func Disassemble(c *cpu.CPU, mem Peeker, addr uint16) (mnemonic string, length int) {
	opcode := mem.Peek(addr)
	name := c.Mnemonic(opcode)
	mode := c.Mode(opcode)
	length = 1 + operandLength(mode)

	switch operandLength(mode) {
	case 0:
		return name, length
	case 1:
		operand := mem.Peek(addr + 1)
		return fmt.Sprintf("%s %s", name, formatMode(mode, uint16(operand))), length
	default:
		lo := uint16(mem.Peek(addr + 1))
		hi := uint16(mem.Peek(addr + 2))
		return fmt.Sprintf("%s %s", name, formatMode(mode, hi<<8|lo)), length
	}
}

func formatMode(mode cpu.AddressingMode, operand uint16) string {
	switch mode {
	case cpu.Immediate:
		return fmt.Sprintf("#$%02X", operand)
	case cpu.ZeroPage:
		return fmt.Sprintf("$%02X", operand)
	case cpu.ZeroPageX:
		return fmt.Sprintf("$%02X,X", operand)
	case cpu.ZeroPageY:
		return fmt.Sprintf("$%02X,Y", operand)
	case cpu.Absolute:
		return fmt.Sprintf("$%04X", operand)
	case cpu.AbsoluteX:
		return fmt.Sprintf("$%04X,X", operand)
	case cpu.AbsoluteY:
		return fmt.Sprintf("$%04X,Y", operand)
	case cpu.Indirect:
		return fmt.Sprintf("($%04X)", operand)
	case cpu.IndexedIndirect:
		return fmt.Sprintf("($%02X,X)", operand)
	case cpu.IndirectIndexed:
		return fmt.Sprintf("($%02X),Y", operand)
	case cpu.Relative:
		return fmt.Sprintf("$%02X", operand)
	default:
		return ""
	}
}
