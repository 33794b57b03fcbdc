package cpu

import (
	"errors"
	"testing"

	"mos6502/internal/ioterm"
	"mos6502/internal/memory"
)

// mockMemory is a flat 64 KiB byte array satisfying the Memory interface.
type mockMemory struct {
	data [0x10000]uint8
}

func (m *mockMemory) Read(addr uint16) uint8        { return m.data[addr] }
func (m *mockMemory) Write(addr uint16, value uint8) { m.data[addr] = value }

func (m *mockMemory) setBytes(addr uint16, values ...uint8) {
	for i, v := range values {
		m.data[addr+uint16(i)] = v
	}
}

func (m *mockMemory) setWord(addr uint16, value uint16) {
	m.data[addr] = uint8(value & 0xFF)
	m.data[addr+1] = uint8(value >> 8)
}

// newTestCPU builds a CPU with a generously-buffered event sink so tests
// never block on an unread channel.
func newTestCPU() (*CPU, *mockMemory, *ioterm.Sink) {
	mem := &mockMemory{}
	sink := ioterm.NewSink(64)
	c := New(mem, sink)
	return c, mem, sink
}

func TestBootEstablishesPowerOnState(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x9000)

	c.Boot()

	if c.A != 0 || c.X != 0 || c.Y != 0 {
		t.Fatalf("A/X/Y = %d/%d/%d, want 0/0/0", c.A, c.X, c.Y)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#02x, want 0xFD", c.SP)
	}
	if !c.GetFlag(FlagI) {
		t.Fatal("I flag not set after boot")
	}
	if c.P&^FlagI != 0 {
		t.Fatalf("unexpected flags set: P = %#02x", c.P)
	}
	if c.Cycles() != 0 {
		t.Fatalf("cycles = %d, want 0", c.Cycles())
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC = %#04x, want 0x9000", c.PC)
	}
}

func TestUpdateZN(t *testing.T) {
	for v := 0; v <= 255; v++ {
		c, _, _ := newTestCPU()
		c.updateZN(uint8(v))
		if got, want := c.GetFlag(FlagZ), v == 0; got != want {
			t.Fatalf("v=%d: Z = %v, want %v", v, got, want)
		}
		if got, want := c.GetFlag(FlagN), v&0x80 != 0; got != want {
			t.Fatalf("v=%d: N = %v, want %v", v, got, want)
		}
	}
}

func TestADCFlags(t *testing.T) {
	cases := []struct{ a, m, carry uint8 }{
		{0x00, 0x00, 0}, {0xFF, 0x01, 0}, {0x7F, 0x01, 0}, {0x80, 0xFF, 1}, {0x50, 0x50, 0},
	}
	for _, tc := range cases {
		c, _, _ := newTestCPU()
		c.SetFlag(FlagC, tc.carry == 1)
		c.A = tc.a
		c.adc(tc.m)

		sum := uint16(tc.a) + uint16(tc.m) + uint16(tc.carry)
		wantResult := uint8(sum & 0xFF)
		wantCarry := sum > 0xFF
		wantOverflow := (^(tc.a ^ tc.m))&(tc.a^wantResult)&0x80 != 0

		if c.A != wantResult {
			t.Fatalf("a=%#02x m=%#02x c=%d: A = %#02x, want %#02x", tc.a, tc.m, tc.carry, c.A, wantResult)
		}
		if c.GetFlag(FlagC) != wantCarry {
			t.Fatalf("a=%#02x m=%#02x c=%d: carry = %v, want %v", tc.a, tc.m, tc.carry, c.GetFlag(FlagC), wantCarry)
		}
		if c.GetFlag(FlagV) != wantOverflow {
			t.Fatalf("a=%#02x m=%#02x c=%d: overflow = %v, want %v", tc.a, tc.m, tc.carry, c.GetFlag(FlagV), wantOverflow)
		}
	}
}

func TestSBCIsADCWithInvertedOperand(t *testing.T) {
	for a := 0; a <= 255; a += 17 {
		for m := 0; m <= 255; m += 23 {
			for carry := 0; carry <= 1; carry++ {
				c1, _, _ := newTestCPU()
				c1.SetFlag(FlagC, carry == 1)
				c1.A = uint8(a)
				c1.adc(uint8(m) ^ 0xFF)

				c2, mem2, _ := newTestCPU()
				c2.SetFlag(FlagC, carry == 1)
				c2.A = uint8(a)
				mem2.data[0x10] = uint8(m)
				if _, err := opSBC(c2, 0x10, false); err != nil {
					t.Fatalf("opSBC: %v", err)
				}

				if c1.A != c2.A || c1.P != c2.P {
					t.Fatalf("a=%d m=%d carry=%d: mismatch A(%#02x vs %#02x) P(%#02x vs %#02x)",
						a, m, carry, c1.A, c2.A, c1.P, c2.P)
				}
			}
		}
	}
}

func TestPush8RoundTrip(t *testing.T) {
	c, _, _ := newTestCPU()
	c.SP = 0xFD
	for b := 0; b <= 255; b += 7 {
		sp := c.SP
		c.push(uint8(b))
		if c.pop() != uint8(b) {
			t.Fatalf("push/pop(%d) did not round-trip", b)
		}
		if c.SP != sp {
			t.Fatalf("SP not restored: got %#02x want %#02x", c.SP, sp)
		}
	}
}

func TestPush16RoundTrip(t *testing.T) {
	c, _, _ := newTestCPU()
	c.SP = 0xFD
	words := []uint16{0x0000, 0x1234, 0xFFFF, 0xBEEF}
	for _, w := range words {
		sp := c.SP
		c.pushWord(w)
		if got := c.popWord(); got != w {
			t.Fatalf("push16/pop16(%#04x) round-tripped to %#04x", w, got)
		}
		if c.SP != sp {
			t.Fatalf("SP not restored after word round-trip: got %#02x want %#02x", c.SP, sp)
		}
	}
}

func TestJSRRTSRoundTrip(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x8000)
	c.Boot()

	// JSR $9000 ; (next opcode at $8003)
	mem.setBytes(0x8000, 0x20, 0x00, 0x90)
	mem.setBytes(0x9000, 0x60) // RTS

	if err := c.Step(); err != nil { // JSR
		t.Fatalf("JSR step: %v", err)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC after JSR = %#04x, want 0x9000", c.PC)
	}
	if err := c.Step(); err != nil { // RTS
		t.Fatalf("RTS step: %v", err)
	}
	if c.PC != 0x8003 {
		t.Fatalf("PC after RTS = %#04x, want 0x8003", c.PC)
	}
}

func TestJMPIndirectPageWrapBug(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x8000)
	c.Boot()

	mem.setBytes(0x8000, 0x6C, 0xFF, 0x12) // JMP ($12FF)
	mem.data[0x12FF] = 0x34
	mem.data[0x1200] = 0x12 // wrap: high byte fetched from $1200, not $1300

	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if c.PC != 0x1234 {
		t.Fatalf("PC = %#04x, want 0x1234", c.PC)
	}
}

func TestZeroPageXWrap(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x8000)
	c.Boot()
	c.X = 0x0F
	mem.data[c.PC] = 0xF8

	addr, _ := c.resolveAddress(ZeroPageX)
	if addr != 0x0007 {
		t.Fatalf("effective address = %#04x, want 0x0007", addr)
	}
}

func TestRelativeBranchPageCross(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x8000)
	c.Boot()
	// Operand at 0xC000, so the PC after the operand fetch is 0xC001.
	c.PC = 0xC000
	mem.data[0xC000] = 0x80

	addr, pageCrossed := c.resolveAddress(Relative)
	if addr != 0xBF81 {
		t.Fatalf("branch target = %#04x, want 0xBF81", addr)
	}
	if !pageCrossed {
		t.Fatal("expected page-cross to be reported")
	}
}

func TestBRKRTIRoundTrip(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(irqVector, 0x9000)
	mem.setWord(resetVector, 0x8000)
	c.Boot()

	mem.setBytes(0x8000, 0x00) // BRK
	mem.setBytes(0x9000, 0x40) // RTI

	if err := c.Step(); err != nil {
		t.Fatalf("BRK step: %v", err)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC after BRK = %#04x, want 0x9000", c.PC)
	}
	if c.SP != 0xFD-3 {
		t.Fatalf("SP after BRK = %#02x, want %#02x", c.SP, uint8(0xFD-3))
	}
	if !c.Halted() {
		t.Fatal("BRK did not set halted")
	}

	status := mem.data[stackBase+uint16(c.SP)+1]
	if status&FlagB == 0 || status&FlagU == 0 {
		t.Fatalf("pushed status = %#02x, want B and U set", status)
	}

	c.ClearHalted()
	if err := c.Step(); err != nil {
		t.Fatalf("RTI step: %v", err)
	}
	if c.PC != 0x8002 {
		t.Fatalf("PC after RTI = %#04x, want 0x8002", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP after RTI = %#02x, want 0xFD", c.SP)
	}
}

func TestIRQMaskedWhenISet(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x8000)
	c.Boot() // I is set by Boot

	mem.setBytes(0x8000, 0xA9, 0x01) // LDA #1
	c.TriggerIRQ()

	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if c.PC != 0x8002 {
		t.Fatalf("PC = %#04x, want 0x8002 (IRQ should have been masked)", c.PC)
	}
	if c.SP != 0xFD {
		t.Fatalf("SP = %#02x, want 0xFD (no vector fetch should have occurred)", c.SP)
	}
	if c.A != 1 {
		t.Fatalf("A = %d, want 1", c.A)
	}
}

func TestNMIOverridesIRQ(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x8000)
	c.Boot()
	c.SetFlag(FlagI, false)

	mem.setWord(irqVector, 0x9000)
	mem.setWord(nmiVector, 0x9100)
	mem.setBytes(0x9000, 0x40) // RTI
	mem.setBytes(0x9100, 0x40) // RTI

	c.TriggerIRQ()
	c.TriggerNMI()

	// Step services the NMI first, then executes the handler's RTI in the
	// same call; the IRQ stays pending.
	if err := c.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if c.nmiPending || !c.irqPending {
		t.Fatalf("nmiPending=%v irqPending=%v, want NMI serviced and IRQ still pending (NMI should win)", c.nmiPending, c.irqPending)
	}
	if c.PC != 0x8000 {
		t.Fatalf("PC after NMI's RTI = %#04x, want 0x8000", c.PC)
	}

	if err := c.Step(); err != nil { // services the still-pending IRQ, then its RTI
		t.Fatalf("step: %v", err)
	}
	if c.irqPending || c.PC != 0x8000 {
		t.Fatalf("irqPending=%v PC=%#04x after IRQ's RTI, want false/0x8000", c.irqPending, c.PC)
	}
}

func TestRunHelloWorld(t *testing.T) {
	// CharOut events come from the memory package's IO_TTY overlay, which
	// mockMemory lacks, so this end-to-end run uses the real memory.
	sink := ioterm.NewSink(64)
	mem := memory.New(ioterm.NewKeyboard(), sink)
	c := New(mem, sink)
	mem.Poke(resetVector, 0x00)
	mem.Poke(resetVector+1, 0x90)
	c.Boot()

	program := []uint8{
		0xA2, 0x00, 0xBD, 0x0D, 0x90, 0xF0, 0x13, 0x8D, 0x01, 0xF0, 0xE8, 0xD0, 0xF5, 0x48,
		0x45, 0x4C, 0x4C, 0x4F, 0x20, 0x57, 0x4F, 0x52, 0x4C, 0x44, 0x21, 0x00, 0x00,
	}
	for i, b := range program {
		mem.Poke(0x9000+uint16(i), b)
	}

	var out []byte
	done := make(chan struct{})
	go func() {
		for ev := range sink.Events {
			if ev.Kind == ioterm.CharOut {
				out = append(out, ev.Byte)
			}
			if ev.Kind == ioterm.ProgramHalted {
				close(done)
				return
			}
		}
	}()

	if err := c.Run(5000); err != nil {
		t.Fatalf("run: %v", err)
	}
	<-done

	if string(out) != "HELLO WORLD!" {
		t.Fatalf("output = %q, want %q", out, "HELLO WORLD!")
	}
	if !c.Halted() {
		t.Fatal("expected halted after BRK")
	}
}

func TestRunZeroBudgetRejected(t *testing.T) {
	c, _, sink := newTestCPU()
	go func() {
		for range sink.Events {
		}
	}()
	if err := c.Run(0); !errors.Is(err, ErrZeroBudget) {
		t.Fatalf("Run(0) error = %v, want ErrZeroBudget", err)
	}
}

func TestOpcodeMatrixNeverPanics(t *testing.T) {
	for opcode := 0; opcode <= 0xFF; opcode++ {
		c, mem, _ := newTestCPU()
		mem.setWord(resetVector, 0x8000)
		c.Boot()
		mem.setBytes(0x8000, uint8(opcode), 0x00, 0x00, 0x00)

		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("opcode %#02x panicked: %v", opcode, r)
				}
			}()
			err := c.Step()
			var notImpl ErrOpcodeNotImplemented
			if err != nil && !errors.As(err, &notImpl) {
				t.Fatalf("opcode %#02x returned unexpected error: %v", opcode, err)
			}
		}()
	}
}

func TestUndocumentedLAXSAXRoundTrip(t *testing.T) {
	c, mem, _ := newTestCPU()
	mem.setWord(resetVector, 0x8000)
	c.Boot()

	mem.setBytes(0x8000, 0xA7, 0x10) // LAX $10
	mem.data[0x10] = 0x80
	if err := c.Step(); err != nil {
		t.Fatalf("LAX step: %v", err)
	}
	if c.A != 0x80 || c.X != 0x80 {
		t.Fatalf("A/X after LAX = %#02x/%#02x, want 0x80/0x80", c.A, c.X)
	}
	if !c.GetFlag(FlagN) || c.GetFlag(FlagZ) {
		t.Fatalf("flags after LAX = %#02x, want N set Z clear", c.P)
	}

	c.A = 0x0F
	c.X = 0xF0
	mem.setBytes(0x8002, 0x87, 0x11) // SAX $11
	if err := c.Step(); err != nil {
		t.Fatalf("SAX step: %v", err)
	}
	if got := mem.data[0x11]; got != 0x00 {
		t.Fatalf("SAX stored %#02x, want 0x00 (0x0F & 0xF0)", got)
	}
}
