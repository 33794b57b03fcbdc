package cpu

// opcodeHandler performs one instruction's effect given its resolved
// operand address (meaningless for Implied/Accumulator modes) and whether
// addressing crossed a page boundary (meaningful only to branches, which
// use it for their own taken/page-cross cycle accounting). It returns any
// cycles beyond the dispatch table's base count.
type opcodeHandler func(c *CPU, addr uint16, pageCrossed bool) (extraCycles uint8, err error)

// --- Load / Store ---

func opLDA(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.A = c.mem.Read(addr)
	c.updateZN(c.A)
	return 0, nil
}

func opLDX(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.X = c.mem.Read(addr)
	c.updateZN(c.X)
	return 0, nil
}

func opLDY(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.Y = c.mem.Read(addr)
	c.updateZN(c.Y)
	return 0, nil
}

func opSTA(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.A)
	return 0, nil
}

func opSTX(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.X)
	return 0, nil
}

func opSTY(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.Y)
	return 0, nil
}

// --- Arithmetic ---

// adc performs A = A + value + C with the documented flag effects, shared
// by ADC and (via value^0xFF) SBC.
func (c *CPU) adc(value uint8) {
	carry := uint16(0)
	if c.GetFlag(FlagC) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(value) + carry
	result := uint8(sum & 0xFF)

	c.SetFlag(FlagV, (^(c.A^value))&(c.A^result)&0x80 != 0)
	c.SetFlag(FlagC, sum > 0xFF)
	c.A = result
	c.updateZN(c.A)
}

func opADC(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.adc(c.mem.Read(addr))
	return 0, nil
}

func opSBC(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.adc(c.mem.Read(addr) ^ 0xFF)
	return 0, nil
}

// --- Logic ---

func opAND(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.A &= c.mem.Read(addr)
	c.updateZN(c.A)
	return 0, nil
}

func opORA(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.A |= c.mem.Read(addr)
	c.updateZN(c.A)
	return 0, nil
}

func opEOR(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.A ^= c.mem.Read(addr)
	c.updateZN(c.A)
	return 0, nil
}

func opBIT(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.mem.Read(addr)
	c.SetFlag(FlagZ, c.A&value == 0)
	c.SetFlag(FlagN, value&0x80 != 0)
	c.SetFlag(FlagV, value&0x40 != 0)
	return 0, nil
}

// --- Compare ---

func (c *CPU) compare(reg, value uint8) {
	result := reg - value
	c.SetFlag(FlagC, reg >= value)
	c.updateZN(result)
}

func opCMP(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.compare(c.A, c.mem.Read(addr))
	return 0, nil
}

func opCPX(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.compare(c.X, c.mem.Read(addr))
	return 0, nil
}

func opCPY(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.compare(c.Y, c.mem.Read(addr))
	return 0, nil
}

// --- Shifts / Rotates ---

func (c *CPU) asl(value uint8) uint8 {
	c.SetFlag(FlagC, value&0x80 != 0)
	result := (value << 1) & 0xFF
	c.updateZN(result)
	return result
}

func (c *CPU) lsr(value uint8) uint8 {
	c.SetFlag(FlagC, value&0x01 != 0)
	result := value >> 1
	c.updateZN(result)
	return result
}

func (c *CPU) rol(value uint8) uint8 {
	oldCarry := c.GetFlag(FlagC)
	c.SetFlag(FlagC, value&0x80 != 0)
	result := (value << 1) & 0xFF
	if oldCarry {
		result |= 0x01
	}
	c.updateZN(result)
	return result
}

func (c *CPU) ror(value uint8) uint8 {
	oldCarry := c.GetFlag(FlagC)
	c.SetFlag(FlagC, value&0x01 != 0)
	result := value >> 1
	if oldCarry {
		result |= 0x80
	}
	c.updateZN(result)
	return result
}

func opASLAcc(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.A = c.asl(c.A)
	return 0, nil
}

func opASLMem(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.asl(c.mem.Read(addr)))
	return 0, nil
}

func opLSRAcc(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.A = c.lsr(c.A)
	return 0, nil
}

func opLSRMem(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.lsr(c.mem.Read(addr)))
	return 0, nil
}

func opROLAcc(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.A = c.rol(c.A)
	return 0, nil
}

func opROLMem(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.rol(c.mem.Read(addr)))
	return 0, nil
}

func opRORAcc(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.A = c.ror(c.A)
	return 0, nil
}

func opRORMem(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.ror(c.mem.Read(addr)))
	return 0, nil
}

// --- Inc / Dec ---

func opINC(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.mem.Read(addr) + 1
	c.mem.Write(addr, value)
	c.updateZN(value)
	return 0, nil
}

func opDEC(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.mem.Read(addr) - 1
	c.mem.Write(addr, value)
	c.updateZN(value)
	return 0, nil
}

func opINX(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.X++
	c.updateZN(c.X)
	return 0, nil
}

func opDEX(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.X--
	c.updateZN(c.X)
	return 0, nil
}

func opINY(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.Y++
	c.updateZN(c.Y)
	return 0, nil
}

func opDEY(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.Y--
	c.updateZN(c.Y)
	return 0, nil
}

// --- Transfers ---

func opTAX(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.X = c.A
	c.updateZN(c.X)
	return 0, nil
}

func opTXA(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.A = c.X
	c.updateZN(c.A)
	return 0, nil
}

func opTAY(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.Y = c.A
	c.updateZN(c.Y)
	return 0, nil
}

func opTYA(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.A = c.Y
	c.updateZN(c.A)
	return 0, nil
}

func opTSX(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.X = c.SP
	c.updateZN(c.X)
	return 0, nil
}

// opTXS does not update flags — the one documented exception among the
// transfer instructions.
func opTXS(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.SP = c.X
	return 0, nil
}

// --- Flag operations ---

func opCLC(c *CPU, _ uint16, _ bool) (uint8, error) { c.SetFlag(FlagC, false); return 0, nil }
func opSEC(c *CPU, _ uint16, _ bool) (uint8, error) { c.SetFlag(FlagC, true); return 0, nil }
func opCLI(c *CPU, _ uint16, _ bool) (uint8, error) { c.SetFlag(FlagI, false); return 0, nil }
func opSEI(c *CPU, _ uint16, _ bool) (uint8, error) { c.SetFlag(FlagI, true); return 0, nil }
func opCLV(c *CPU, _ uint16, _ bool) (uint8, error) { c.SetFlag(FlagV, false); return 0, nil }
func opCLD(c *CPU, _ uint16, _ bool) (uint8, error) { c.SetFlag(FlagD, false); return 0, nil }
func opSED(c *CPU, _ uint16, _ bool) (uint8, error) { c.SetFlag(FlagD, true); return 0, nil }

// --- Jumps / Subroutine ---

func opJMP(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.PC = addr
	return 0, nil
}

func opJSR(c *CPU, addr uint16, _ bool) (uint8, error) {
	if c.traceEnabled {
		c.events.EmitTraceJSR(addr)
	}
	c.pushWord(c.PC - 1)
	c.PC = addr
	return 0, nil
}

func opRTS(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.PC = c.popWord() + 1
	return 0, nil
}

// --- Stack ---

func opPHA(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.push(c.A)
	return 0, nil
}

func opPLA(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.A = c.pop()
	c.updateZN(c.A)
	return 0, nil
}

// opPHP pushes P with both B and the unused bit set, regardless of their
// live (don't-care) value in the register.
func opPHP(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.push(c.P | FlagB | FlagU)
	return 0, nil
}

// opPLP restores P from the stack with B cleared and the unused bit set,
// per the pull-side half of the "B flag" rule.
func opPLP(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.P = (c.pop() &^ FlagB) | FlagU
	return 0, nil
}

// --- Branches ---

// branch centralizes the taken/not-taken and page-cross cycle accounting
// shared by all eight conditional branches.
func branch(c *CPU, taken bool, addr uint16, pageCrossed bool) (uint8, error) {
	if !taken {
		return 0, nil
	}
	c.PC = addr
	if pageCrossed {
		return 2, nil
	}
	return 1, nil
}

func opBCC(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, !c.GetFlag(FlagC), addr, pc) }
func opBCS(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, c.GetFlag(FlagC), addr, pc) }
func opBNE(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, !c.GetFlag(FlagZ), addr, pc) }
func opBEQ(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, c.GetFlag(FlagZ), addr, pc) }
func opBPL(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, !c.GetFlag(FlagN), addr, pc) }
func opBMI(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, c.GetFlag(FlagN), addr, pc) }
func opBVC(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, !c.GetFlag(FlagV), addr, pc) }
func opBVS(c *CPU, addr uint16, pc bool) (uint8, error) { return branch(c, c.GetFlag(FlagV), addr, pc) }

// --- Interrupts / misc ---

func opNOP(c *CPU, _ uint16, _ bool) (uint8, error) { return 0, nil }

// opBRK fetches and discards the padding byte (PC now points at
// BRK_addr+2), then services the IRQ vector with B=1, and halts execution
// so a host without an OS/ROM can use BRK as a stop signal.
func opBRK(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.PC++
	c.serviceInterrupt(irqVector, true)
	c.halted = true
	return 0, nil
}

func opRTI(c *CPU, _ uint16, _ bool) (uint8, error) {
	c.P = (c.pop() &^ FlagB) | FlagU
	c.PC = c.popWord()
	return 0, nil
}

// --- Commonly-emulated undocumented opcodes ---

func opLAX(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.A = c.mem.Read(addr)
	c.X = c.A
	c.updateZN(c.A)
	return 0, nil
}

func opSAX(c *CPU, addr uint16, _ bool) (uint8, error) {
	c.mem.Write(addr, c.A&c.X)
	return 0, nil
}

func opDCP(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.mem.Read(addr) - 1
	c.mem.Write(addr, value)
	c.compare(c.A, value)
	return 0, nil
}

func opISC(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.mem.Read(addr) + 1
	c.mem.Write(addr, value)
	c.adc(value ^ 0xFF)
	return 0, nil
}

func opSLO(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.asl(c.mem.Read(addr))
	c.mem.Write(addr, value)
	c.A |= value
	c.updateZN(c.A)
	return 0, nil
}

func opRLA(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.rol(c.mem.Read(addr))
	c.mem.Write(addr, value)
	c.A &= value
	c.updateZN(c.A)
	return 0, nil
}

func opSRE(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.lsr(c.mem.Read(addr))
	c.mem.Write(addr, value)
	c.A ^= value
	c.updateZN(c.A)
	return 0, nil
}

func opRRA(c *CPU, addr uint16, _ bool) (uint8, error) {
	value := c.ror(c.mem.Read(addr))
	c.mem.Write(addr, value)
	c.adc(value)
	return 0, nil
}

// opNOPUndoc consumes its operand via the addressing mode the dispatch
// table assigns it (for page-cross cycle accounting) and otherwise has no
// effect.
func opNOPUndoc(c *CPU, _ uint16, _ bool) (uint8, error) { return 0, nil }
