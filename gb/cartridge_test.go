package gb

import "testing"

func validTestROM() []byte {
	rom := make([]byte, 32*1024)
	copy(rom[0x0134:], "TESTROM")
	rom[0x0147] = 0x00
	rom[0x0148] = 0x00
	rom[0x0149] = 0x00
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum
	return rom
}

func TestParseCartridgeValid(t *testing.T) {
	cart, err := ParseCartridge(validTestROM())
	if err != nil {
		t.Fatalf("ParseCartridge: %v", err)
	}
	if cart.Title != "TESTROM" {
		t.Errorf("Title = %q, want TESTROM", cart.Title)
	}
	if cart.mbcType != MBCNone {
		t.Errorf("mbcType = %v, want MBCNone", cart.mbcType)
	}
}

func TestParseCartridgeBadChecksum(t *testing.T) {
	rom := validTestROM()
	rom[0x014D] ^= 0xFF
	if _, err := ParseCartridge(rom); err == nil {
		t.Fatal("expected a header checksum error")
	}
}

func TestParseCartridgeBadLength(t *testing.T) {
	rom := make([]byte, 100) // not a power of two, and too short
	if _, err := ParseCartridge(rom); err == nil {
		t.Fatal("expected a length error")
	}
}

func TestParseCartridgeReservedRAMCode(t *testing.T) {
	rom := validTestROM()
	rom[0x0149] = 0x01 // reserved/unused code
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum
	if _, err := ParseCartridge(rom); err == nil {
		t.Fatal("expected an error for RAM-size code 0x01")
	}
}

func TestCartridgeRAMReadWrite(t *testing.T) {
	rom := validTestROM()
	rom[0x0147] = 0x03 // MBC1+RAM+battery
	rom[0x0149] = 0x02 // 8 KiB RAM
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum

	cart, err := ParseCartridge(rom)
	if err != nil {
		t.Fatalf("ParseCartridge: %v", err)
	}
	cart.WriteROM(0x0000, 0x0A) // enable RAM
	cart.WriteRAM(0xA000, 0x42)
	if got := cart.ReadRAM(0xA000); got != 0x42 {
		t.Errorf("ReadRAM = %#02x, want 0x42", got)
	}
}

func TestCartridgeRTCAccessRoutesThroughMBC3(t *testing.T) {
	rom := validTestROM()
	rom[0x0147] = 0x10 // MBC3+TIMER+RAM+BATTERY
	rom[0x0149] = 0x03 // 32 KiB RAM
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	rom[0x014D] = sum

	cart, err := ParseCartridge(rom)
	if err != nil {
		t.Fatalf("ParseCartridge: %v", err)
	}
	cart.WriteROM(0x0000, 0x0A) // enable RAM/RTC
	cart.WriteRAM(0xA000, 0x11) // RAM bank 0, byte should be visible before RTC select
	cart.WriteROM(0x4000, 0x08) // select RTC seconds register instead of a RAM bank

	cart.WriteRAM(0xA000, 0x2A) // writes the RTC register, must not disturb cart.ram
	if got := cart.ReadRAM(0xA000); got != 0x2A {
		t.Errorf("ReadRAM while RTC register selected = %#02x, want 0x2A (from RTC, not RAM)", got)
	}

	cart.WriteROM(0x4000, 0x00) // back to RAM bank 0
	if got := cart.ReadRAM(0xA000); got != 0x11 {
		t.Errorf("ReadRAM after returning to RAM bank 0 = %#02x, want 0x11 (untouched by the RTC write)", got)
	}
}
