package gb

// Bus owns every memory-mapped component and performs the full address
// decode, the way the teacher's Bus owns the CPU/PPU/Cartridge/RAM and
// dispatches cpuRead/cpuWrite by address range. There is deliberately no
// back-pointer from Bus to CPU (§9): interrupts are communicated purely
// by the interruptController's IE/IF state, which CPU polls each step.
type Bus struct {
	Cart *Cartridge
	PPU  PPU
	timer timer
	joypad joypad
	ic    interruptController

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	bootROM     []byte
	bootMapped  bool
	serialData  byte
	serialCtrl  byte

	dma       oamDMA
}

// oamDMA models the OAM DMA unit (§4.5 supplemented feature #4): writing
// 0xFF46 latches a source page and starts a 160-byte, one-byte-per-cycle
// transfer to OAM that proceeds independent of what the CPU executes,
// landing regardless of the PPU's own OAM access-blocking rules.
type oamDMA struct {
	active bool
	src    uint16
	cursor int
}

func NewBus(cart *Cartridge) *Bus {
	b := &Bus{Cart: cart}
	b.Reset()
	return b
}

func (b *Bus) Reset() {
	b.PPU.reset()
	b.timer.reset()
	b.joypad.reset()
	b.ic = interruptController{}
	b.dma = oamDMA{}
}

// Interrupts exposes the controller for the CPU's dispatch loop.
func (b *Bus) Interrupts() *interruptController { return &b.ic }

// OAMBlocked reports whether an OAM DMA transfer is in flight (supplemented
// feature #4): a second trigger while one is active restarts it from its
// own new source address rather than queuing or being ignored, since
// writeIO's 0xFF46 case always replaces b.dma outright.
func (b *Bus) OAMBlocked() bool { return b.dma.active }

// SetButtons feeds the current input snapshot in, and requests a joypad
// interrupt on a press edge.
func (b *Bus) SetButtons(held Button) {
	b.joypad.setState(held)
	if b.joypad.poll() {
		b.ic.request(IntJoypad)
	}
}

// Step advances every bus-owned peripheral by one machine cycle (4 dots),
// the unit the CPU's executor loop ticks the bus in.
func (b *Bus) Step() {
	if b.timer.tick() {
		b.ic.request(IntTimer)
	}
	b.PPU.tick()
	if b.PPU.requestVBlank {
		b.ic.request(IntVBlank)
		b.PPU.requestVBlank = false
	}
	if b.PPU.requestSTAT {
		b.ic.request(IntSTAT)
		b.PPU.requestSTAT = false
	}
	b.stepDMA()
}

func (b *Bus) stepDMA() {
	if !b.dma.active {
		return
	}
	v := b.readForDMA(b.dma.src + uint16(b.dma.cursor))
	b.PPU.writeOAMRaw(uint16(b.dma.cursor), v)
	b.dma.cursor++
	if b.dma.cursor == 160 {
		b.dma.active = false
	}
}

// readForDMA bypasses the PPU's mode-based OAM/VRAM access blocking,
// since DMA is driven by its own sequencer, not the CPU bus.
func (b *Bus) readForDMA(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return b.Cart.ReadROM(addr)
	case addr < 0xA000:
		return b.PPU.vram[addr-0x8000]
	case addr < 0xC000:
		return b.Cart.ReadRAM(addr)
	default:
		return b.wram[addr%0x2000]
	}
}

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x0100 && b.bootMapped:
		return b.bootROM[addr]
	case addr < 0x8000:
		return b.Cart.ReadROM(addr)
	case addr < 0xA000:
		return b.PPU.readVRAM(addr)
	case addr < 0xC000:
		return b.Cart.ReadRAM(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00:
		return b.wram[addr-0xE000] // echo RAM
	case addr < 0xFEA0:
		return b.PPU.readOAM(addr)
	case addr < 0xFF00:
		return 0xFF // prohibited region
	case addr < 0xFF80:
		return b.readIO(addr)
	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	default:
		return b.ic.readIE()
	}
}

func (b *Bus) Write(addr uint16, v byte) {
	switch {
	case addr < 0x8000:
		b.Cart.WriteROM(addr, v)
	case addr < 0xA000:
		b.PPU.writeVRAM(addr, v)
	case addr < 0xC000:
		b.Cart.WriteRAM(addr, v)
	case addr < 0xE000:
		b.wram[addr-0xC000] = v
	case addr < 0xFE00:
		// echo RAM: writes prohibited, dropped (§2); reads still mirror wram
	case addr < 0xFEA0:
		b.PPU.writeOAM(addr, v)
	case addr < 0xFF00:
		// prohibited region, writes dropped
	case addr < 0xFF80:
		b.writeIO(addr, v)
	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = v
	default:
		b.ic.writeIE(v)
	}
}

func (b *Bus) readIO(addr uint16) byte {
	switch {
	case addr == 0xFF00:
		return b.joypad.read()
	case addr == 0xFF01:
		return b.serialData
	case addr == 0xFF02:
		return b.serialCtrl | 0x7E
	case addr == 0xFF04:
		return b.timer.readDIV()
	case addr == 0xFF05:
		return b.timer.readTIMA()
	case addr == 0xFF06:
		return b.timer.readTMA()
	case addr == 0xFF07:
		return b.timer.readTAC()
	case addr == 0xFF0F:
		return b.ic.readIF()
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.PPU.readReg(addr)
	case addr == 0xFF50:
		if b.bootMapped {
			return 0
		}
		return 1
	default:
		return 0xFF
	}
}

func (b *Bus) writeIO(addr uint16, v byte) {
	switch {
	case addr == 0xFF00:
		b.joypad.write(v)
	case addr == 0xFF01:
		b.serialData = v
	case addr == 0xFF02:
		b.serialCtrl = v
	case addr == 0xFF04:
		b.timer.writeDIV()
	case addr == 0xFF05:
		b.timer.writeTIMA(v)
	case addr == 0xFF06:
		b.timer.writeTMA(v)
	case addr == 0xFF07:
		b.timer.writeTAC(v)
	case addr == 0xFF0F:
		b.ic.writeIF(v)
	case addr == 0xFF46:
		b.dma = oamDMA{active: true, src: uint16(v) << 8}
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.PPU.writeReg(addr, v)
	case addr == 0xFF50:
		if v != 0 {
			b.bootMapped = false
		}
	}
}

// LoadBootROM installs a boot ROM image to be mapped over 0x0000-0x00FF
// until the cartridge writes any non-zero value to 0xFF50.
func (b *Bus) LoadBootROM(rom []byte) {
	b.bootROM = rom
	b.bootMapped = len(rom) > 0
}
