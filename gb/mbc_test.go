package gb

import "testing"

func TestMBC1BankZeroCoercion(t *testing.T) {
	m := newMBC(MBC1, 1024*1024, 0)
	m.writeControl(0x2000, 0x00) // select bank 0 -> coerced to 1

	off := m.romOffset(0x4000)
	if off != 0x4000 {
		t.Errorf("romOffset = %#x, want 0x4000 (bank 1)", off)
	}
}

func TestMBC1AdvancedModeSecondaryFeedsHighROMBits(t *testing.T) {
	m := newMBC(MBC1, 2*1024*1024, 0)
	m.writeControl(0x6000, 0x01) // advanced mode
	m.writeControl(0x2000, 0x01) // primary bank 1
	m.writeControl(0x4000, 0x02) // secondary 2 -> bits 19-20

	off := m.romOffset(0x4000)
	wantBank := 0x02<<5 | 0x01
	if off != wantBank*0x4000 {
		t.Errorf("romOffset = %#x, want bank %#x", off, wantBank)
	}
}

func TestMBC1SmallROMIgnoresSecondaryRegister(t *testing.T) {
	m := newMBC(MBC1, 256*1024, 0) // <= 512KiB, secondary register never reaches the bus
	m.writeControl(0x6000, 0x01)
	m.writeControl(0x2000, 0x01)
	m.writeControl(0x4000, 0x03)

	off := m.romOffset(0x4000)
	if off != 0x4000 {
		t.Errorf("romOffset = %#x, want 0x4000 (secondary register should not reach a <=512KiB ROM)", off)
	}
}

func TestMBC3BankZeroCoercion(t *testing.T) {
	m := newMBC(MBC3, 512*1024, 0)
	m.writeControl(0x2000, 0x00)

	off := m.romOffset(0x4000)
	if off != 0x4000 {
		t.Errorf("romOffset = %#x, want 0x4000 (bank 1)", off)
	}
}

func TestMBC3RTCWritesDoNotTouchRAM(t *testing.T) {
	ramSize := 8 * 1024
	m := newMBC(MBC3, 128*1024, ramSize).(*mbc3)
	m.ramEnable = true
	m.writeControl(0x2000, 0x01)
	m.writeControl(0x4000, 0x08) // select RTC seconds register, not a RAM bank

	if off := m.ramOffset(0xA000); off != -1 {
		t.Errorf("ramOffset = %d while RTC register selected, want -1 (not RAM)", off)
	}
	m.writeRTC(0x2A)
	if got := m.readRTC(); got != 0x2A {
		t.Errorf("readRTC() = %#02x, want 0x2A", got)
	}
}

func TestMBC5NoBankZeroCoercion(t *testing.T) {
	m := newMBC(MBC5, 1024*1024, 0)
	m.writeControl(0x2000, 0x00) // bank 0 is valid on MBC5

	off := m.romOffset(0x4000)
	if off != 0x0000 {
		t.Errorf("romOffset = %#x, want 0x0000 (bank 0, no coercion)", off)
	}
}

func TestMBCRamDisabledByDefault(t *testing.T) {
	m := newMBC(MBC1, 32*1024, 8*1024)
	if m.ramEnabled() {
		t.Fatal("RAM should be disabled until 0x0A is written to the enable region")
	}
	m.writeControl(0x0000, 0x0A)
	if !m.ramEnabled() {
		t.Fatal("expected RAM enabled after writing 0x0A")
	}
}
