package gb

// mbc is the cartridge-side bank controller interface, generalizing the
// teacher's Mapper interface (cpuMapRead/cpuMapWrite) from a fixed NES
// address translation to the Game Boy's {ROM read, ROM-control write,
// RAM read/write, RAM-enable} surface that MBC1/MBC3/MBC5 all share.
type mbc interface {
	romOffset(addr uint16) int
	writeControl(addr uint16, v byte)
	ramEnabled() bool
	ramOffset(addr uint16) int

	// registerWrites replays the bank-control register writes that put
	// this MBC into its current state, in order, for the `MBC ` save-state
	// block (§6).
	registerWrites() []regWrite
}

type regWrite struct {
	Addr uint16
	Val  byte
}

func newMBC(t MBCType, romSize, ramSize int) mbc {
	switch t {
	case MBC1:
		return &mbc1{romSize: romSize, ramSize: ramSize}
	case MBC3:
		return &mbc3{romSize: romSize, ramSize: ramSize}
	case MBC5:
		return &mbc5{romSize: romSize, ramSize: ramSize}
	default:
		return &mbcNone{romSize: romSize}
	}
}

// mbcNone is a direct-mapped cartridge: bank 0 at 0x0000-0x3FFF, bank 1
// at 0x4000-0x7FFF, no ROM or RAM banking.
type mbcNone struct {
	romSize int
}

func (m *mbcNone) romOffset(addr uint16) int { return int(addr) % m.romSize }
func (m *mbcNone) writeControl(uint16, byte) {}
func (m *mbcNone) ramEnabled() bool          { return true }
func (m *mbcNone) ramOffset(addr uint16) int { return int(addr - 0xA000) }
func (m *mbcNone) registerWrites() []regWrite { return nil }

// mbc1 implements the published MBC1 bank-register semantics: a 5-bit
// primary ROM-bank register (0 coerced to 1, per §4.5), a 2-bit secondary
// register that in advanced mode feeds ROM bits 19-20 for the 0x0000-0x3FFF
// window or selects an 8 KiB RAM bank, and a banking-mode flip-flop.
//
// The "1MiB+ ROM" wiring quirk (supplemented feature #3) -- the secondary
// register only ever reaches the ROM address bus above 512 KiB ROM size --
// is implemented via romBank20() gating the high bits on romSize.
type mbc1 struct {
	romSize, ramSize int

	ramEnable bool
	bank5     byte // primary 5-bit register
	bank2     byte // secondary 2-bit register
	advanced  bool
}

func (m *mbc1) primaryBank() byte {
	b := m.bank5
	if b == 0 {
		b = 1
	}
	return b
}

func (m *mbc1) romOffset(addr uint16) int {
	if addr < 0x4000 {
		bank := 0
		if m.advanced && m.romSize > 512*1024 {
			bank = int(m.bank2) << 5
		}
		return (bank * 0x4000) + int(addr)
	}
	bank := int(m.primaryBank())
	if m.romSize > 512*1024 {
		bank |= int(m.bank2) << 5
	}
	return (bank*0x4000 + int(addr-0x4000)) % m.romSize
}

func (m *mbc1) writeControl(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnable = v&0x0F == 0x0A
	case addr < 0x4000:
		m.bank5 = v & 0x1F
	case addr < 0x6000:
		m.bank2 = v & 0x03
	default:
		m.advanced = v&0x01 != 0
	}
}

func (m *mbc1) ramEnabled() bool { return m.ramEnable }

func (m *mbc1) ramOffset(addr uint16) int {
	bank := 0
	if m.advanced && m.ramSize >= 32*1024 {
		bank = int(m.bank2)
	}
	return bank*0x2000 + int(addr-0xA000)
}

func (m *mbc1) registerWrites() []regWrite {
	ws := []regWrite{{0x0000, 0x00}}
	if m.ramEnable {
		ws[0].Val = 0x0A
	}
	ws = append(ws, regWrite{0x2000, m.bank5}, regWrite{0x4000, m.bank2})
	mode := byte(0)
	if m.advanced {
		mode = 1
	}
	return append(ws, regWrite{0x6000, mode})
}

// mbc3 implements a 7-bit primary ROM bank (0 coerced to 1) and a 2-bit
// secondary register selecting either a RAM bank (0-3) or one of the RTC
// shadow registers (0x08-0x0C). RTC itself is an external collaborator
// per §4.5/§9: writes to the RTC region are accepted without corrupting
// RAM state but the clock does not advance.
type mbc3 struct {
	romSize, ramSize int

	ramEnable  bool
	bank7      byte
	bank2OrRTC byte
	rtcLatch   [5]byte // shadow registers so RTC writes don't corrupt RAM
}

func (m *mbc3) primaryBank() byte {
	b := m.bank7
	if b == 0 {
		b = 1
	}
	return b
}

func (m *mbc3) romOffset(addr uint16) int {
	if addr < 0x4000 {
		return int(addr)
	}
	return (int(m.primaryBank())*0x4000 + int(addr-0x4000)) % m.romSize
}

func (m *mbc3) writeControl(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnable = v&0x0F == 0x0A
	case addr < 0x4000:
		m.bank7 = v & 0x7F
	case addr < 0x6000:
		m.bank2OrRTC = v
	default:
		// RTC latch trigger (write 0x00 then 0x01): accepted as a no-op,
		// RTC behavior is deferred per §9's open question.
	}
}

func (m *mbc3) ramEnabled() bool { return m.ramEnable }

func (m *mbc3) ramOffset(addr uint16) int {
	if m.bank2OrRTC >= 0x08 && m.bank2OrRTC <= 0x0C {
		return -1 // RTC register selected; handled by readRTC/writeRTC, not RAM
	}
	return int(m.bank2OrRTC&0x03)*0x2000 + int(addr-0xA000)
}

func (m *mbc3) readRTC() byte {
	idx := m.bank2OrRTC - 0x08
	if idx > 4 {
		return 0xFF
	}
	return m.rtcLatch[idx]
}

func (m *mbc3) writeRTC(v byte) {
	idx := m.bank2OrRTC - 0x08
	if idx <= 4 {
		m.rtcLatch[idx] = v
	}
}

func (m *mbc3) registerWrites() []regWrite {
	ws := []regWrite{{0x0000, 0x00}}
	if m.ramEnable {
		ws[0].Val = 0x0A
	}
	return append(ws, regWrite{0x2000, m.bank7}, regWrite{0x4000, m.bank2OrRTC})
}

// mbc5 implements a 9-bit ROM bank (8 bits at 0x2000-0x2FFF, one more bit
// at 0x3000-0x3FFF) and a 4-bit RAM bank. Unlike MBC1/MBC3, bank 0 is
// valid and not coerced, per §4.5.
type mbc5 struct {
	romSize, ramSize int

	ramEnable bool
	bankLo    byte
	bankHi    byte
	ramBank   byte
}

func (m *mbc5) romOffset(addr uint16) int {
	if addr < 0x4000 {
		return int(addr)
	}
	bank := int(m.bankHi&0x01)<<8 | int(m.bankLo)
	return (bank*0x4000 + int(addr-0x4000)) % m.romSize
}

func (m *mbc5) writeControl(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnable = v&0x0F == 0x0A
	case addr < 0x3000:
		m.bankLo = v
	case addr < 0x4000:
		m.bankHi = v & 0x01
	case addr < 0x6000:
		m.ramBank = v & 0x0F
	}
}

func (m *mbc5) ramEnabled() bool { return m.ramEnable }

func (m *mbc5) ramOffset(addr uint16) int {
	return int(m.ramBank)*0x2000 + int(addr-0xA000)
}

func (m *mbc5) registerWrites() []regWrite {
	ws := []regWrite{{0x0000, 0x00}}
	if m.ramEnable {
		ws[0].Val = 0x0A
	}
	return append(ws, regWrite{0x2000, m.bankLo}, regWrite{0x3000, m.bankHi}, regWrite{0x4000, m.ramBank})
}
