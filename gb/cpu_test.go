package gb

import "testing"

// newTestMachine builds a 32 KiB MBC-none cartridge with the given
// machine code placed at 0x0100 (the cartridge entry point), computes a
// valid header checksum so ParseCartridge accepts it, and returns a
// ready-to-step GameBoy.
func newTestMachine(t *testing.T, code []byte) *GameBoy {
	t.Helper()
	rom := make([]byte, 32*1024)
	copy(rom[0x0100:], code)
	rom[0x0147] = 0x00 // MBCNone
	rom[0x0148] = 0x00 // 32 KiB
	rom[0x0149] = 0x00 // no RAM

	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum

	cart, err := ParseCartridge(rom)
	if err != nil {
		t.Fatalf("ParseCartridge: %v", err)
	}
	return NewGameBoy(cart)
}

func TestLoadRImmAndIncR(t *testing.T) {
	// LD B,0x05; INC B
	g := newTestMachine(t, []byte{0x06, 0x05, 0x04})

	n, err := g.Step()
	if err != nil {
		t.Fatalf("LD B,d8: %v", err)
	}
	if n != 2 {
		t.Errorf("LD B,d8 cycles = %d, want 2", n)
	}
	if g.cpu.Regs.B != 0x05 {
		t.Errorf("B = %#02x, want 0x05", g.cpu.Regs.B)
	}

	n, err = g.Step()
	if err != nil {
		t.Fatalf("INC B: %v", err)
	}
	if n != 1 {
		t.Errorf("INC B cycles = %d, want 1", n)
	}
	if g.cpu.Regs.B != 0x06 {
		t.Errorf("B = %#02x, want 0x06", g.cpu.Regs.B)
	}
}

func TestJPConditionalCycleCounts(t *testing.T) {
	// JP NZ,a16 with Z already set -> not taken, falls through to NOP.
	g := newTestMachine(t, []byte{0xC2, 0x00, 0x02, 0x00})
	g.cpu.Regs.SetFlag(FlagZ, true)

	n, err := g.Step()
	if err != nil {
		t.Fatalf("JP NZ,a16: %v", err)
	}
	if n != 3 {
		t.Errorf("JP NZ,a16 (not taken) cycles = %d, want 3", n)
	}
	if g.cpu.Regs.PC != 0x0103 {
		t.Errorf("PC = %#04x, want 0x0103 (fell through)", g.cpu.Regs.PC)
	}
}

func TestJPConditionalTaken(t *testing.T) {
	g := newTestMachine(t, []byte{0xC2, 0x50, 0x01})
	g.cpu.Regs.SetFlag(FlagZ, false)

	n, err := g.Step()
	if err != nil {
		t.Fatalf("JP NZ,a16: %v", err)
	}
	if n != 4 {
		t.Errorf("JP NZ,a16 (taken) cycles = %d, want 4", n)
	}
	if g.cpu.Regs.PC != 0x0150 {
		t.Errorf("PC = %#04x, want 0x0150", g.cpu.Regs.PC)
	}
}

func TestCallAndRetRoundTrip(t *testing.T) {
	// CALL 0x0200; at 0x0200: RET.
	code := make([]byte, 0x110)
	code[0] = 0xCD
	code[1] = 0x00
	code[2] = 0x02
	code[3] = 0x00     // NOP after the call returns
	code[0x100] = 0xC9 // RET at 0x0200 (ROM is not writable through the bus)
	g := newTestMachine(t, code)

	n, err := g.Step() // CALL
	if err != nil {
		t.Fatalf("CALL a16: %v", err)
	}
	if n != 6 {
		t.Errorf("CALL a16 cycles = %d, want 6", n)
	}
	if g.cpu.Regs.PC != 0x0200 {
		t.Errorf("PC after CALL = %#04x, want 0x0200", g.cpu.Regs.PC)
	}
	if g.cpu.Regs.SP != 0xFFFC {
		t.Errorf("SP after CALL = %#04x, want 0xFFFC", g.cpu.Regs.SP)
	}

	n, err = g.Step() // RET
	if err != nil {
		t.Fatalf("RET: %v", err)
	}
	if n != 4 {
		t.Errorf("RET cycles = %d, want 4", n)
	}
	if g.cpu.Regs.PC != 0x0103 {
		t.Errorf("PC after RET = %#04x, want 0x0103", g.cpu.Regs.PC)
	}
}

func TestReservedOpcodeFault(t *testing.T) {
	g := newTestMachine(t, []byte{0xD3})

	_, err := g.Step()
	if err == nil {
		t.Fatal("expected a Fault for reserved opcode 0xD3")
	}
	var fault *Fault
	if !asFault(err, &fault) {
		t.Fatalf("expected *Fault, got %T: %v", err, err)
	}
	if fault.Opcode != 0xD3 {
		t.Errorf("fault opcode = %#02x, want 0xD3", fault.Opcode)
	}
}

func asFault(err error, target **Fault) bool {
	f, ok := err.(*Fault)
	if ok {
		*target = f
	}
	return ok
}

func TestDAAAfterBCDAdd(t *testing.T) {
	// LD A,0x45; LD B,0x38; ADD A,B; DAA -- 45 + 38 = 7D, DAA corrects to 0x83.
	g := newTestMachine(t, []byte{0x3E, 0x45, 0x06, 0x38, 0x80, 0x27})
	for i := 0; i < 4; i++ {
		if _, err := g.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if g.cpu.Regs.A != 0x83 {
		t.Errorf("A after DAA = %#02x, want 0x83", g.cpu.Regs.A)
	}
}

func TestRETIUsesTwoStepIMELatchLikeEI(t *testing.T) {
	// RETI; NOP; NOP, with the stack primed to return to the NOP right
	// after RETI, and a timer interrupt already pending at IME-off.
	g := newTestMachine(t, []byte{0xD9, 0x00, 0x00})
	g.cpu.Regs.SP = 0xFFFC
	g.bus.Write(0xFFFC, 0x01) // low byte of return address 0x0101
	g.bus.Write(0xFFFD, 0x01) // high byte
	g.bus.ic.writeIE(1 << byte(IntTimer))
	g.bus.ic.request(IntTimer)

	if _, err := g.Step(); err != nil { // RETI
		t.Fatalf("RETI: %v", err)
	}
	if g.cpu.Regs.PC != 0x0101 {
		t.Errorf("PC after RETI = %#04x, want 0x0101", g.cpu.Regs.PC)
	}
	if g.cpu.ime {
		t.Fatal("IME must not be enabled immediately by RETI, only after the two-step latch like EI")
	}

	if _, err := g.Step(); err != nil { // NOP right after RETI: must still run uninterrupted
		t.Fatalf("NOP: %v", err)
	}
	if g.cpu.Regs.PC != 0x0102 {
		t.Errorf("PC after first post-RETI NOP = %#04x, want 0x0102 (ran, not interrupted)", g.cpu.Regs.PC)
	}
	if g.cpu.ime {
		t.Fatal("IME should still be latched off for the instruction immediately following RETI")
	}

	n, err := g.Step() // the pending timer interrupt should now dispatch instead of the second NOP
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if n != 5 {
		t.Errorf("interrupt dispatch cycles = %d, want 5", n)
	}
	if g.cpu.Regs.PC != vectors[IntTimer] {
		t.Errorf("PC after dispatch = %#04x, want timer vector %#04x", g.cpu.Regs.PC, vectors[IntTimer])
	}
}

func TestHaltBugWhenInterruptAlreadyPending(t *testing.T) {
	g := newTestMachine(t, []byte{0x76, 0x00}) // HALT; NOP
	g.cpu.ime = false
	g.bus.ic.writeIE(1 << byte(IntTimer))
	g.bus.ic.request(IntTimer)

	if _, err := g.Step(); err != nil { // HALT: IME off + pending -> halt bug, not real halt
		t.Fatalf("HALT: %v", err)
	}
	if g.cpu.halted {
		t.Fatal("CPU should not enter HALT when IME is off and an interrupt is already pending")
	}
}
