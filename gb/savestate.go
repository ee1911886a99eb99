package gb

import (
	"bytes"
	"encoding/binary"
	stdio "io"

	"github.com/pkg/errors"
)

// Save-states use a small BESS-inspired chunked container (§6): a
// sequence of named, length-prefixed blocks terminated by an "END "
// block, with a trailing footer giving the offset of that terminator
// plus a four-byte "BESS" signature -- letting a reader seek straight to
// the end, confirm the signature, then walk blocks forward from offset 0
// up to the footer-given terminator. The footer offset points at the END
// block, not at the first block. Modeled on the length-prefixed block framing in
// the snapshot/serialize reference material reviewed for this core
// (fixed-size header fields via encoding/binary, variable payload via a
// preceding length).
const bessSignature = "BESS"

// coreRegionCount is the number of size/offset-described raw memory
// regions the CORE block carries after its 128-byte IO-region snapshot:
// WRAM, VRAM, SRAM (cartridge RAM), OAM, HRAM, in that order (§6).
const coreRegionCount = 5

func writeBlock(buf *bytes.Buffer, name string, payload []byte) {
	var nameBytes [4]byte
	copy(nameBytes[:], name)
	for i := len(name); i < 4; i++ {
		nameBytes[i] = ' '
	}
	buf.Write(nameBytes[:])
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Save serializes the full machine state into the container §6 describes:
// NAME (emulator identity), INFO (cartridge title + global checksum),
// CORE (CPU register file, IME/halted, a 128-byte 0xFF00-0xFF7F IO-region
// snapshot, then the WRAM/VRAM/SRAM/OAM/HRAM regions by size/offset), and
// MBC (the ordered (address, value) tuples that re-drive the cartridge's
// bank-control registers).
func (g *GameBoy) Save() []byte {
	var buf bytes.Buffer

	writeBlock(&buf, "NAME", []byte("gb-core"))

	info := new(bytes.Buffer)
	info.Write(g.cart.TitleRaw[:])
	info.Write(g.cart.GlobalChecksum[:])
	writeBlock(&buf, "INFO", info.Bytes())

	writeBlock(&buf, "CORE", g.buildCoreBlock())

	mbcBlock := new(bytes.Buffer)
	for _, w := range g.cart.mbc.registerWrites() {
		binary.Write(mbcBlock, binary.LittleEndian, w.Addr)
		mbcBlock.WriteByte(w.Val)
	}
	writeBlock(&buf, "MBC ", mbcBlock.Bytes())

	endOffset := uint32(buf.Len())
	writeBlock(&buf, "END ", nil)

	binary.Write(&buf, binary.LittleEndian, endOffset)
	buf.WriteString(bessSignature)
	return buf.Bytes()
}

// buildCoreBlock lays out the CORE payload in the literal order §6 names:
// PC, F, A, C, B, E, D, L, H, SP, IME, IE, halted, then the 128-byte
// IO-region snapshot, then a (size, offset) pair per memory region
// followed by the regions' raw bytes in the same order. A short fidelity
// extension -- eiPending and haltBug -- is appended after that; neither
// is part of §6's required layout, but without them a restore landing
// mid-EI/RETI-latch or mid-HALT-bug would silently lose those states.
func (g *GameBoy) buildCoreBlock() []byte {
	core := new(bytes.Buffer)
	r := &g.cpu.Regs

	binary.Write(core, binary.LittleEndian, r.PC)
	core.Write([]byte{r.F, r.A, r.C, r.B, r.E, r.D, r.L, r.H})
	binary.Write(core, binary.LittleEndian, r.SP)
	core.WriteByte(boolByte(g.cpu.ime))
	core.WriteByte(g.bus.ic.readIE())
	core.WriteByte(boolByte(g.cpu.halted))

	var ioSnapshot [128]byte
	for i := range ioSnapshot {
		ioSnapshot[i] = g.bus.Read(uint16(0xFF00 + i))
	}
	core.Write(ioSnapshot[:])

	oamFlat := new(bytes.Buffer)
	binary.Write(oamFlat, binary.LittleEndian, g.bus.PPU.oam.entries)

	regions := [coreRegionCount][]byte{
		g.bus.wram[:],
		g.bus.PPU.vram[:],
		g.cart.ram,
		oamFlat.Bytes(),
		g.bus.hram[:],
	}
	offset := uint32(0)
	for _, reg := range regions {
		binary.Write(core, binary.LittleEndian, uint32(len(reg)))
		binary.Write(core, binary.LittleEndian, offset)
		offset += uint32(len(reg))
	}
	for _, reg := range regions {
		core.Write(reg)
	}

	binary.Write(core, binary.LittleEndian, int32(g.cpu.eiPending))
	core.WriteByte(boolByte(g.cpu.haltBug))

	return core.Bytes()
}

// Restore loads a snapshot written by Save. Every format-level malformed
// condition §7 names -- missing signature, a block length overrunning the
// buffer, an MBC payload not a multiple of 3 bytes, a missing required
// block -- is checked before any field of the machine is mutated, so a
// rejected restore leaves core state untouched.
func (g *GameBoy) Restore(data []byte) error {
	if len(data) < 8 || string(data[len(data)-4:]) != bessSignature {
		return errors.Wrap(ErrMalformedSaveState, "missing BESS footer signature")
	}
	endOffset := binary.LittleEndian.Uint32(data[len(data)-8 : len(data)-4])
	if int(endOffset) > len(data)-8 {
		return errors.Wrap(ErrMalformedSaveState, "END offset out of range")
	}

	cursor := 0
	blocks := map[string][]byte{}
	for cursor < int(endOffset) {
		if cursor+8 > len(data) {
			return errors.Wrap(ErrMalformedSaveState, "truncated block header")
		}
		name := string(data[cursor : cursor+4])
		length := binary.LittleEndian.Uint32(data[cursor+4 : cursor+8])
		cursor += 8
		if cursor+int(length) > len(data) {
			return errors.Wrapf(ErrMalformedSaveState, "block %q overruns buffer", name)
		}
		blocks[name] = data[cursor : cursor+int(length)]
		cursor += int(length)
		if name == "END " {
			break
		}
	}

	for _, required := range []string{"NAME", "INFO", "CORE", "MBC "} {
		if _, ok := blocks[required]; !ok {
			return errors.Wrapf(ErrMalformedSaveState, "missing required block %q", required)
		}
	}

	mbcData := blocks["MBC "]
	if len(mbcData)%3 != 0 {
		return errors.Wrapf(ErrMalformedSaveState, "MBC block payload length %d is not a multiple of 3", len(mbcData))
	}

	// readCoreBlock writes as it parses, so a CORE block that fails part
	// way rolls the CPU, bus and cartridge RAM back to their prior state.
	cpuBackup, busBackup := *g.cpu, *g.bus
	ramBackup := append([]byte(nil), g.cart.ram...)
	if err := readCoreBlock(g, blocks["CORE"]); err != nil {
		*g.cpu, *g.bus = cpuBackup, busBackup
		copy(g.cart.ram, ramBackup)
		return errors.Wrap(ErrMalformedSaveState, err.Error())
	}
	restoreMBCBlock(g.cart, mbcData)
	return nil
}

func readCoreBlock(g *GameBoy, data []byte) error {
	r := bytes.NewReader(data)
	regs := &g.cpu.Regs

	if err := binary.Read(r, binary.LittleEndian, &regs.PC); err != nil {
		return err
	}
	var f, a, c8, b8, e, d, l, h byte
	for _, p := range []*byte{&f, &a, &c8, &b8, &e, &d, &l, &h} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return err
		}
	}
	regs.SetF(f)
	regs.A, regs.C, regs.B, regs.E, regs.D, regs.L, regs.H = a, c8, b8, e, d, l, h
	if err := binary.Read(r, binary.LittleEndian, &regs.SP); err != nil {
		return err
	}

	var ime, ie, halted byte
	if err := binary.Read(r, binary.LittleEndian, &ime); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ie); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &halted); err != nil {
		return err
	}
	g.cpu.ime = ime != 0
	g.cpu.halted = halted != 0

	var ioSnapshot [128]byte
	if err := binary.Read(r, binary.LittleEndian, &ioSnapshot); err != nil {
		return err
	}

	var sizes, offsets [coreRegionCount]uint32
	total := uint32(0)
	for i := range sizes {
		if err := binary.Read(r, binary.LittleEndian, &sizes[i]); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &offsets[i]); err != nil {
			return err
		}
		total += sizes[i]
	}

	regionBytes := make([]byte, total)
	if _, err := stdio.ReadFull(r, regionBytes); err != nil {
		return err
	}
	regionAt := func(i int) ([]byte, error) {
		end := offsets[i] + sizes[i]
		if int(end) > len(regionBytes) {
			return nil, errors.New("gb: core block region overruns buffer")
		}
		return regionBytes[offsets[i]:end], nil
	}

	wramBytes, err := regionAt(0)
	if err != nil {
		return err
	}
	vramBytes, err := regionAt(1)
	if err != nil {
		return err
	}
	sramBytes, err := regionAt(2)
	if err != nil {
		return err
	}
	oamBytes, err := regionAt(3)
	if err != nil {
		return err
	}
	hramBytes, err := regionAt(4)
	if err != nil {
		return err
	}
	if len(wramBytes) != len(g.bus.wram) || len(vramBytes) != len(g.bus.PPU.vram) ||
		len(sramBytes) != len(g.cart.ram) || len(hramBytes) != len(g.bus.hram) {
		return errors.New("gb: core block region size mismatch")
	}
	copy(g.bus.wram[:], wramBytes)
	copy(g.bus.PPU.vram[:], vramBytes)
	copy(g.cart.ram, sramBytes)
	copy(g.bus.hram[:], hramBytes)
	if err := binary.Read(bytes.NewReader(oamBytes), binary.LittleEndian, &g.bus.PPU.oam.entries); err != nil {
		return err
	}

	// 0xFF04 (DIV), 0xFF44 (LY) and 0xFF46 (OAM DMA trigger) are
	// special-cased per §6: DIV and OAM-DMA-trigger writes are ordinary
	// hardware actions (reset the divider, kick off a transfer) rather
	// than "set this register to X", and LY is read-only from the bus
	// entirely, so none of the three is replayed as a bus.Write: DIV and
	// LY have their backing field set directly, and the DMA trigger is
	// skipped.
	g.bus.timer.restoreDIV(ioSnapshot[0x04])
	g.bus.PPU.ly = ioSnapshot[0x44]
	for i, v := range ioSnapshot {
		addr := uint16(0xFF00 + i)
		if addr == 0xFF04 || addr == 0xFF44 || addr == 0xFF46 {
			continue
		}
		g.bus.Write(addr, v)
	}
	g.bus.ic.writeIE(ie)

	var eiPending int32
	if err := binary.Read(r, binary.LittleEndian, &eiPending); err != nil {
		return err
	}
	g.cpu.eiPending = int(eiPending)
	var haltBug byte
	if err := binary.Read(r, binary.LittleEndian, &haltBug); err != nil {
		return err
	}
	g.cpu.haltBug = haltBug != 0
	return nil
}

// restoreMBCBlock re-runs the recorded bank-control writes against a
// freshly constructed MBC of the cartridge's type -- restoring its bank
// registers without needing to know its concrete struct layout. The
// block is validated (non-multiple-of-3 length) by the caller before any
// state is touched.
func restoreMBCBlock(c *Cartridge, data []byte) {
	c.mbc = newMBC(c.mbcType, len(c.rom), len(c.ram))
	for i := 0; i+3 <= len(data); i += 3 {
		addr := binary.LittleEndian.Uint16(data[i : i+2])
		c.mbc.writeControl(addr, data[i+2])
	}
}
