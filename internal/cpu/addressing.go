package cpu

// AddressingMode identifies one of the CPU's 13 operand-resolution
// strategies.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
	Relative
	Indirect // JMP only: page-wrap bug REQUIRED
)

// resolveAddress computes the effective address for mode, advancing PC past
// any operand bytes. The boolean result reports whether a page boundary was
// crossed, which matters for opcodes that the dispatch table marks as taking
// a page-cross cycle penalty and for branches, which add their own penalty.
//
// PC is assumed to already point at the first operand byte (the opcode
// byte itself was consumed by Step before calling this).
func (c *CPU) resolveAddress(mode AddressingMode) (addr uint16, pageCrossed bool) {
	switch mode {
	case Implied, Accumulator:
		return 0, false

	case Immediate:
		addr = c.PC
		c.PC++
		return addr, false

	case ZeroPage:
		addr = uint16(c.mem.Read(c.PC))
		c.PC++
		return addr, false

	case ZeroPageX:
		base := c.mem.Read(c.PC)
		c.PC++
		return uint16(base + c.X), false

	case ZeroPageY:
		base := c.mem.Read(c.PC)
		c.PC++
		return uint16(base + c.Y), false

	case Absolute:
		addr = c.readWord(c.PC)
		c.PC += 2
		return addr, false

	case AbsoluteX:
		base := c.readWord(c.PC)
		c.PC += 2
		addr = base + uint16(c.X)
		return addr, pageCross(base, addr)

	case AbsoluteY:
		base := c.readWord(c.PC)
		c.PC += 2
		addr = base + uint16(c.Y)
		return addr, pageCross(base, addr)

	case IndexedIndirect:
		operand := c.mem.Read(c.PC)
		c.PC++
		ptr := operand + c.X
		lo := uint16(c.mem.Read(uint16(ptr)))
		hi := uint16(c.mem.Read(uint16(ptr + 1)))
		return hi<<8 | lo, false

	case IndirectIndexed:
		ptr := c.mem.Read(c.PC)
		c.PC++
		lo := uint16(c.mem.Read(uint16(ptr)))
		hi := uint16(c.mem.Read(uint16(ptr + 1)))
		base := hi<<8 | lo
		addr = base + uint16(c.Y)
		return addr, pageCross(base, addr)

	case Relative:
		offset := int8(c.mem.Read(c.PC))
		c.PC++
		origin := c.PC
		target := uint16(int32(origin) + int32(offset))
		return target, pageCross(origin, target)

	case Indirect:
		ptr := c.readWord(c.PC)
		c.PC += 2
		lo := uint16(c.mem.Read(ptr))
		// 6502 page-wrap bug: the high byte is fetched from the start of
		// the same page, not from ptr+1, when ptr's low byte is 0xFF.
		hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
		hi := uint16(c.mem.Read(hiAddr))
		return hi<<8 | lo, false

	default:
		return 0, false
	}
}

// pageCross reports whether a and b fall in different 256-byte pages.
func pageCross(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}
