package cpu

import "fmt"

// ErrOpcodeNotImplemented is returned by Step when the fetched opcode has
// no handler in the dispatch table.
type ErrOpcodeNotImplemented struct {
	Opcode uint8
}

func (e ErrOpcodeNotImplemented) Error() string {
	return fmt.Sprintf("cpu: opcode %#02x not implemented", e.Opcode)
}

// opcodeEntry is one slot of the 256-entry dispatch table: a handler, the
// addressing mode it operates through, its base cycle count, and whether a
// page-crossing address computation costs it an extra cycle.
type opcodeEntry struct {
	name             string
	mode             AddressingMode
	cycles           uint8
	pageCrossPenalty bool
	handler          opcodeHandler
}

func notImplemented(opcode uint8) opcodeHandler {
	return func(_ *CPU, _ uint16, _ bool) (uint8, error) {
		return 0, ErrOpcodeNotImplemented{Opcode: opcode}
	}
}

// buildDispatchTable populates the 256-entry opcode table. Unfilled slots
// default to a sentinel handler reporting ErrOpcodeNotImplemented instead of
// silently behaving as a no-op.
func (c *CPU) buildDispatchTable() {
	for i := range c.dispatch {
		c.dispatch[i] = opcodeEntry{
			name:    "???",
			mode:    Implied,
			cycles:  0,
			handler: notImplemented(uint8(i)),
		}
	}

	set := func(opcode uint8, name string, mode AddressingMode, cycles uint8, pageCrossPenalty bool, handler opcodeHandler) {
		c.dispatch[opcode] = opcodeEntry{name: name, mode: mode, cycles: cycles, pageCrossPenalty: pageCrossPenalty, handler: handler}
	}

	// Load/Store
	set(0xA9, "LDA", Immediate, 2, false, opLDA)
	set(0xA5, "LDA", ZeroPage, 3, false, opLDA)
	set(0xB5, "LDA", ZeroPageX, 4, false, opLDA)
	set(0xAD, "LDA", Absolute, 4, false, opLDA)
	set(0xBD, "LDA", AbsoluteX, 4, true, opLDA)
	set(0xB9, "LDA", AbsoluteY, 4, true, opLDA)
	set(0xA1, "LDA", IndexedIndirect, 6, false, opLDA)
	set(0xB1, "LDA", IndirectIndexed, 5, true, opLDA)

	set(0xA2, "LDX", Immediate, 2, false, opLDX)
	set(0xA6, "LDX", ZeroPage, 3, false, opLDX)
	set(0xB6, "LDX", ZeroPageY, 4, false, opLDX)
	set(0xAE, "LDX", Absolute, 4, false, opLDX)
	set(0xBE, "LDX", AbsoluteY, 4, true, opLDX)

	set(0xA0, "LDY", Immediate, 2, false, opLDY)
	set(0xA4, "LDY", ZeroPage, 3, false, opLDY)
	set(0xB4, "LDY", ZeroPageX, 4, false, opLDY)
	set(0xAC, "LDY", Absolute, 4, false, opLDY)
	set(0xBC, "LDY", AbsoluteX, 4, true, opLDY)

	set(0x85, "STA", ZeroPage, 3, false, opSTA)
	set(0x95, "STA", ZeroPageX, 4, false, opSTA)
	set(0x8D, "STA", Absolute, 4, false, opSTA)
	set(0x9D, "STA", AbsoluteX, 5, false, opSTA)
	set(0x99, "STA", AbsoluteY, 5, false, opSTA)
	set(0x81, "STA", IndexedIndirect, 6, false, opSTA)
	set(0x91, "STA", IndirectIndexed, 6, false, opSTA)

	set(0x86, "STX", ZeroPage, 3, false, opSTX)
	set(0x96, "STX", ZeroPageY, 4, false, opSTX)
	set(0x8E, "STX", Absolute, 4, false, opSTX)

	set(0x84, "STY", ZeroPage, 3, false, opSTY)
	set(0x94, "STY", ZeroPageX, 4, false, opSTY)
	set(0x8C, "STY", Absolute, 4, false, opSTY)

	// Arithmetic
	set(0x69, "ADC", Immediate, 2, false, opADC)
	set(0x65, "ADC", ZeroPage, 3, false, opADC)
	set(0x75, "ADC", ZeroPageX, 4, false, opADC)
	set(0x6D, "ADC", Absolute, 4, false, opADC)
	set(0x7D, "ADC", AbsoluteX, 4, true, opADC)
	set(0x79, "ADC", AbsoluteY, 4, true, opADC)
	set(0x61, "ADC", IndexedIndirect, 6, false, opADC)
	set(0x71, "ADC", IndirectIndexed, 5, true, opADC)

	set(0xE9, "SBC", Immediate, 2, false, opSBC)
	set(0xEB, "SBC", Immediate, 2, false, opSBC) // unofficial duplicate
	set(0xE5, "SBC", ZeroPage, 3, false, opSBC)
	set(0xF5, "SBC", ZeroPageX, 4, false, opSBC)
	set(0xED, "SBC", Absolute, 4, false, opSBC)
	set(0xFD, "SBC", AbsoluteX, 4, true, opSBC)
	set(0xF9, "SBC", AbsoluteY, 4, true, opSBC)
	set(0xE1, "SBC", IndexedIndirect, 6, false, opSBC)
	set(0xF1, "SBC", IndirectIndexed, 5, true, opSBC)

	// Logic
	set(0x29, "AND", Immediate, 2, false, opAND)
	set(0x25, "AND", ZeroPage, 3, false, opAND)
	set(0x35, "AND", ZeroPageX, 4, false, opAND)
	set(0x2D, "AND", Absolute, 4, false, opAND)
	set(0x3D, "AND", AbsoluteX, 4, true, opAND)
	set(0x39, "AND", AbsoluteY, 4, true, opAND)
	set(0x21, "AND", IndexedIndirect, 6, false, opAND)
	set(0x31, "AND", IndirectIndexed, 5, true, opAND)

	set(0x09, "ORA", Immediate, 2, false, opORA)
	set(0x05, "ORA", ZeroPage, 3, false, opORA)
	set(0x15, "ORA", ZeroPageX, 4, false, opORA)
	set(0x0D, "ORA", Absolute, 4, false, opORA)
	set(0x1D, "ORA", AbsoluteX, 4, true, opORA)
	set(0x19, "ORA", AbsoluteY, 4, true, opORA)
	set(0x01, "ORA", IndexedIndirect, 6, false, opORA)
	set(0x11, "ORA", IndirectIndexed, 5, true, opORA)

	set(0x49, "EOR", Immediate, 2, false, opEOR)
	set(0x45, "EOR", ZeroPage, 3, false, opEOR)
	set(0x55, "EOR", ZeroPageX, 4, false, opEOR)
	set(0x4D, "EOR", Absolute, 4, false, opEOR)
	set(0x5D, "EOR", AbsoluteX, 4, true, opEOR)
	set(0x59, "EOR", AbsoluteY, 4, true, opEOR)
	set(0x41, "EOR", IndexedIndirect, 6, false, opEOR)
	set(0x51, "EOR", IndirectIndexed, 5, true, opEOR)

	set(0x24, "BIT", ZeroPage, 3, false, opBIT)
	set(0x2C, "BIT", Absolute, 4, false, opBIT)

	// Compare
	set(0xC9, "CMP", Immediate, 2, false, opCMP)
	set(0xC5, "CMP", ZeroPage, 3, false, opCMP)
	set(0xD5, "CMP", ZeroPageX, 4, false, opCMP)
	set(0xCD, "CMP", Absolute, 4, false, opCMP)
	set(0xDD, "CMP", AbsoluteX, 4, true, opCMP)
	set(0xD9, "CMP", AbsoluteY, 4, true, opCMP)
	set(0xC1, "CMP", IndexedIndirect, 6, false, opCMP)
	set(0xD1, "CMP", IndirectIndexed, 5, true, opCMP)

	set(0xE0, "CPX", Immediate, 2, false, opCPX)
	set(0xE4, "CPX", ZeroPage, 3, false, opCPX)
	set(0xEC, "CPX", Absolute, 4, false, opCPX)

	set(0xC0, "CPY", Immediate, 2, false, opCPY)
	set(0xC4, "CPY", ZeroPage, 3, false, opCPY)
	set(0xCC, "CPY", Absolute, 4, false, opCPY)

	// Shifts / rotates
	set(0x0A, "ASL", Accumulator, 2, false, opASLAcc)
	set(0x06, "ASL", ZeroPage, 5, false, opASLMem)
	set(0x16, "ASL", ZeroPageX, 6, false, opASLMem)
	set(0x0E, "ASL", Absolute, 6, false, opASLMem)
	set(0x1E, "ASL", AbsoluteX, 7, false, opASLMem)

	set(0x4A, "LSR", Accumulator, 2, false, opLSRAcc)
	set(0x46, "LSR", ZeroPage, 5, false, opLSRMem)
	set(0x56, "LSR", ZeroPageX, 6, false, opLSRMem)
	set(0x4E, "LSR", Absolute, 6, false, opLSRMem)
	set(0x5E, "LSR", AbsoluteX, 7, false, opLSRMem)

	set(0x2A, "ROL", Accumulator, 2, false, opROLAcc)
	set(0x26, "ROL", ZeroPage, 5, false, opROLMem)
	set(0x36, "ROL", ZeroPageX, 6, false, opROLMem)
	set(0x2E, "ROL", Absolute, 6, false, opROLMem)
	set(0x3E, "ROL", AbsoluteX, 7, false, opROLMem)

	set(0x6A, "ROR", Accumulator, 2, false, opRORAcc)
	set(0x66, "ROR", ZeroPage, 5, false, opRORMem)
	set(0x76, "ROR", ZeroPageX, 6, false, opRORMem)
	set(0x6E, "ROR", Absolute, 6, false, opRORMem)
	set(0x7E, "ROR", AbsoluteX, 7, false, opRORMem)

	// Inc/Dec
	set(0xE6, "INC", ZeroPage, 5, false, opINC)
	set(0xF6, "INC", ZeroPageX, 6, false, opINC)
	set(0xEE, "INC", Absolute, 6, false, opINC)
	set(0xFE, "INC", AbsoluteX, 7, false, opINC)

	set(0xC6, "DEC", ZeroPage, 5, false, opDEC)
	set(0xD6, "DEC", ZeroPageX, 6, false, opDEC)
	set(0xCE, "DEC", Absolute, 6, false, opDEC)
	set(0xDE, "DEC", AbsoluteX, 7, false, opDEC)

	set(0xE8, "INX", Implied, 2, false, opINX)
	set(0xCA, "DEX", Implied, 2, false, opDEX)
	set(0xC8, "INY", Implied, 2, false, opINY)
	set(0x88, "DEY", Implied, 2, false, opDEY)

	// Transfers
	set(0xAA, "TAX", Implied, 2, false, opTAX)
	set(0x8A, "TXA", Implied, 2, false, opTXA)
	set(0xA8, "TAY", Implied, 2, false, opTAY)
	set(0x98, "TYA", Implied, 2, false, opTYA)
	set(0xBA, "TSX", Implied, 2, false, opTSX)
	set(0x9A, "TXS", Implied, 2, false, opTXS)

	// Flags
	set(0x18, "CLC", Implied, 2, false, opCLC)
	set(0x38, "SEC", Implied, 2, false, opSEC)
	set(0x58, "CLI", Implied, 2, false, opCLI)
	set(0x78, "SEI", Implied, 2, false, opSEI)
	set(0xB8, "CLV", Implied, 2, false, opCLV)
	set(0xD8, "CLD", Implied, 2, false, opCLD)
	set(0xF8, "SED", Implied, 2, false, opSED)

	// Jumps / subroutine
	set(0x4C, "JMP", Absolute, 3, false, opJMP)
	set(0x6C, "JMP", Indirect, 5, false, opJMP)
	set(0x20, "JSR", Absolute, 6, false, opJSR)
	set(0x60, "RTS", Implied, 6, false, opRTS)

	// Stack
	set(0x48, "PHA", Implied, 3, false, opPHA)
	set(0x68, "PLA", Implied, 4, false, opPLA)
	set(0x08, "PHP", Implied, 3, false, opPHP)
	set(0x28, "PLP", Implied, 4, false, opPLP)

	// Branches
	set(0x90, "BCC", Relative, 2, false, opBCC)
	set(0xB0, "BCS", Relative, 2, false, opBCS)
	set(0xD0, "BNE", Relative, 2, false, opBNE)
	set(0xF0, "BEQ", Relative, 2, false, opBEQ)
	set(0x10, "BPL", Relative, 2, false, opBPL)
	set(0x30, "BMI", Relative, 2, false, opBMI)
	set(0x50, "BVC", Relative, 2, false, opBVC)
	set(0x70, "BVS", Relative, 2, false, opBVS)

	// Interrupts / misc
	set(0x00, "BRK", Implied, 7, false, opBRK)
	set(0x40, "RTI", Implied, 6, false, opRTI)
	set(0xEA, "NOP", Implied, 2, false, opNOP)

	// Commonly-emulated undocumented opcodes
	set(0xA7, "LAX", ZeroPage, 3, false, opLAX)
	set(0xB7, "LAX", ZeroPageY, 4, false, opLAX)
	set(0xAF, "LAX", Absolute, 4, false, opLAX)
	set(0xBF, "LAX", AbsoluteY, 4, true, opLAX)
	set(0xA3, "LAX", IndexedIndirect, 6, false, opLAX)
	set(0xB3, "LAX", IndirectIndexed, 5, true, opLAX)

	set(0x87, "SAX", ZeroPage, 3, false, opSAX)
	set(0x97, "SAX", ZeroPageY, 4, false, opSAX)
	set(0x8F, "SAX", Absolute, 4, false, opSAX)
	set(0x83, "SAX", IndexedIndirect, 6, false, opSAX)

	set(0xC7, "DCP", ZeroPage, 5, false, opDCP)
	set(0xD7, "DCP", ZeroPageX, 6, false, opDCP)
	set(0xCF, "DCP", Absolute, 6, false, opDCP)
	set(0xDF, "DCP", AbsoluteX, 7, false, opDCP)
	set(0xDB, "DCP", AbsoluteY, 7, false, opDCP)
	set(0xC3, "DCP", IndexedIndirect, 8, false, opDCP)
	set(0xD3, "DCP", IndirectIndexed, 8, false, opDCP)

	set(0xE7, "ISC", ZeroPage, 5, false, opISC)
	set(0xF7, "ISC", ZeroPageX, 6, false, opISC)
	set(0xEF, "ISC", Absolute, 6, false, opISC)
	set(0xFF, "ISC", AbsoluteX, 7, false, opISC)
	set(0xFB, "ISC", AbsoluteY, 7, false, opISC)
	set(0xE3, "ISC", IndexedIndirect, 8, false, opISC)
	set(0xF3, "ISC", IndirectIndexed, 8, false, opISC)

	set(0x07, "SLO", ZeroPage, 5, false, opSLO)
	set(0x17, "SLO", ZeroPageX, 6, false, opSLO)
	set(0x0F, "SLO", Absolute, 6, false, opSLO)
	set(0x1F, "SLO", AbsoluteX, 7, false, opSLO)
	set(0x1B, "SLO", AbsoluteY, 7, false, opSLO)
	set(0x03, "SLO", IndexedIndirect, 8, false, opSLO)
	set(0x13, "SLO", IndirectIndexed, 8, false, opSLO)

	set(0x27, "RLA", ZeroPage, 5, false, opRLA)
	set(0x37, "RLA", ZeroPageX, 6, false, opRLA)
	set(0x2F, "RLA", Absolute, 6, false, opRLA)
	set(0x3F, "RLA", AbsoluteX, 7, false, opRLA)
	set(0x3B, "RLA", AbsoluteY, 7, false, opRLA)
	set(0x23, "RLA", IndexedIndirect, 8, false, opRLA)
	set(0x33, "RLA", IndirectIndexed, 8, false, opRLA)

	set(0x47, "SRE", ZeroPage, 5, false, opSRE)
	set(0x57, "SRE", ZeroPageX, 6, false, opSRE)
	set(0x4F, "SRE", Absolute, 6, false, opSRE)
	set(0x5F, "SRE", AbsoluteX, 7, false, opSRE)
	set(0x5B, "SRE", AbsoluteY, 7, false, opSRE)
	set(0x43, "SRE", IndexedIndirect, 8, false, opSRE)
	set(0x53, "SRE", IndirectIndexed, 8, false, opSRE)

	set(0x67, "RRA", ZeroPage, 5, false, opRRA)
	set(0x77, "RRA", ZeroPageX, 6, false, opRRA)
	set(0x6F, "RRA", Absolute, 6, false, opRRA)
	set(0x7F, "RRA", AbsoluteX, 7, false, opRRA)
	set(0x7B, "RRA", AbsoluteY, 7, false, opRRA)
	set(0x63, "RRA", IndexedIndirect, 8, false, opRRA)
	set(0x73, "RRA", IndirectIndexed, 8, false, opRRA)

	// Undocumented NOP family (functional no-ops that still consume their
	// operand through the stated addressing mode).
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		set(op, "NOP", Implied, 2, false, opNOPUndoc)
	}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		set(op, "NOP", Immediate, 2, false, opNOPUndoc)
	}
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		set(op, "NOP", ZeroPage, 3, false, opNOPUndoc)
	}
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		set(op, "NOP", ZeroPageX, 4, false, opNOPUndoc)
	}
	set(0x0C, "NOP", Absolute, 4, false, opNOPUndoc)
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		set(op, "NOP", AbsoluteX, 4, true, opNOPUndoc)
	}
}

// Mnemonic returns the dispatch table's name for opcode, or "???" if it is
// not implemented.
func (c *CPU) Mnemonic(opcode uint8) string {
	return c.dispatch[opcode].name
}

// Mode returns the addressing mode the dispatch table assigns opcode.
func (c *CPU) Mode(opcode uint8) AddressingMode {
	return c.dispatch[opcode].mode
}
