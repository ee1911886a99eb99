package gb

// GameBoy wires a Cartridge, Bus and CPU together into a runnable
// machine, the way the teacher's top-level Nes type owns a Bus wrapping
// Cpu/Ppu/Cartridge. There are no back-pointers from Bus or PPU to CPU
// (§9): the CPU alone drives time forward by calling Bus.Step once per
// machine cycle, and interrupts are communicated purely through
// Bus.Interrupts()'s IE/IF state.
type GameBoy struct {
	cart *Cartridge
	bus  *Bus
	cpu  *CPU
}

// NewGameBoy constructs a machine around a parsed cartridge and applies
// the published post-boot register/IO defaults (supplemented feature
// #7), skipping the Nintendo boot ROM entirely unless one is supplied
// via LoadBootROM before the first Step.
func NewGameBoy(cart *Cartridge) *GameBoy {
	bus := NewBus(cart)
	cpu := NewCPU(bus)
	g := &GameBoy{cart: cart, bus: bus, cpu: cpu}
	g.applyPostBootDefaults()
	return g
}

// applyPostBootDefaults sets the register and I/O state real hardware
// reaches after its internal boot ROM finishes, the values every
// boot-ROM-skipping emulator reproduces so cartridge code that inspects
// them (a common "is this real hardware" check) finds unsurprising
// values.
func (g *GameBoy) applyPostBootDefaults() {
	g.cpu.Regs.SetAF(0x01B0)
	g.cpu.Regs.SetBC(0x0013)
	g.cpu.Regs.SetDE(0x00D8)
	g.cpu.Regs.SetHL(0x014D)
	g.cpu.Regs.SP = 0xFFFE
	g.cpu.Regs.PC = 0x0100

	g.bus.joypad.reset()
	g.bus.PPU.lcdc = 0x91
	g.bus.PPU.bgp = 0xFC
}

// LoadBootROM installs a boot image to run from 0x0000 instead of the
// post-boot defaults; call it before the first Step if the caller wants
// boot-ROM fidelity (logo scroll, header checksum halt, etc).
func (g *GameBoy) LoadBootROM(rom []byte) {
	g.bus.LoadBootROM(rom)
	g.cpu.Regs.Reset()
}

// SetButtons feeds the current input snapshot into the joypad.
func (g *GameBoy) SetButtons(held Button) { g.bus.SetButtons(held) }

// Framebuffer exposes the PPU's current 160x144 shade-index grid.
func (g *GameBoy) Framebuffer() *[144][160]byte { return &g.bus.PPU.Framebuffer }

// Step runs one CPU instruction (or interrupt dispatch, or HALT idle
// cycle) and returns the number of machine cycles it took. A non-nil
// error is a *Fault from a reserved opcode; the machine's register/bus
// state is left exactly as hardware would leave it (frozen at the
// offending PC), so a caller can inspect it before deciding how to
// recover.
func (g *GameBoy) Step() (int, error) {
	if g.cpu.stopped {
		if g.bus.joypad.stopWakeMatches() {
			g.cpu.stopped = false
			g.cpu.halted = false
		} else {
			return 1, nil
		}
	}
	return g.cpu.Step()
}

// StepFrame runs CPU steps until the PPU completes a full frame (one
// full pass from scanline 0 back to scanline 0), returning the total
// machine-cycle count and stopping early with an error if a fault
// occurs mid-frame.
func (g *GameBoy) StepFrame() (int, error) {
	g.bus.PPU.frameComplete = false
	total := 0
	for !g.bus.PPU.frameComplete {
		n, err := g.Step()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// CPU exposes the register/execution core for introspection (debuggers,
// tests).
func (g *GameBoy) CPU() *CPU { return g.cpu }

// Bus exposes the shared address space for introspection.
func (g *GameBoy) Bus() *Bus { return g.bus }
