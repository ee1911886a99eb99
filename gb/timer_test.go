package gb

import "testing"

func TestTimerFallingEdgeIncrementsTIMA(t *testing.T) {
	var tm timer
	tm.reset()
	tm.writeTAC(0x05) // enabled, rate index 1 -> bit 3 (16 sysclock cycles)

	var irq bool
	for i := 0; i < 16/4; i++ {
		irq = tm.tick()
	}
	if tm.readTIMA() != 1 {
		t.Fatalf("TIMA = %d, want 1 after one falling edge", tm.readTIMA())
	}
	if irq {
		t.Fatal("no overflow yet, irq should not fire")
	}
}

func TestTimerOverflowReloadsFromTMAOneCycleLater(t *testing.T) {
	var tm timer
	tm.reset()
	tm.writeTMA(0xAB)
	tm.writeTAC(0x05)
	tm.tima = 0xFF

	// Drive one falling edge to trigger the overflow.
	for i := 0; i < 4; i++ {
		tm.tick()
	}
	if tm.readTIMA() != 0 {
		t.Fatalf("TIMA = %#02x immediately after overflow, want 0x00", tm.readTIMA())
	}

	irq := tm.tick()
	if !irq {
		t.Fatal("expected TIMER irq exactly one cycle after overflow")
	}
	if tm.readTIMA() != 0xAB {
		t.Fatalf("TIMA = %#02x after reload, want 0xAB", tm.readTIMA())
	}
}

func TestTimerDisabledNeverIncrements(t *testing.T) {
	var tm timer
	tm.reset()
	tm.writeTAC(0x00) // disabled

	for i := 0; i < 1024; i++ {
		tm.tick()
	}
	if tm.readTIMA() != 0 {
		t.Errorf("TIMA = %d, want 0 while disabled", tm.readTIMA())
	}
}

func TestWriteDIVResetsAndCanSpuriouslyIncrement(t *testing.T) {
	var tm timer
	tm.reset()
	tm.writeTAC(0x05) // bit 3
	tm.sysclock = 0x0008
	tm.selectedBit = true // pretend the selected bit was high

	tm.writeDIV() // sysclock -> 0, selected bit now low: falling edge
	if tm.readTIMA() != 1 {
		t.Errorf("TIMA = %d, want 1 (spurious increment on DIV reset)", tm.readTIMA())
	}
	if tm.readDIV() != 0 {
		t.Errorf("DIV = %#02x, want 0x00 after reset", tm.readDIV())
	}
}
