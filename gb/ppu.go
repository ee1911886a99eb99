package gb

// LCDC flag bits, named the way the teacher names its PpuRegFlag consts
// (ppuRegisters.go) -- a bitmask type plus set/clear/isFlagSet helpers.
type lcdcFlag byte

const (
	lcdcBGEnable lcdcFlag = 1 << iota
	lcdcOBJEnable
	lcdcOBJSize
	lcdcBGTileMap
	lcdcBGWinTileData
	lcdcWindowEnable
	lcdcWindowTileMap
	lcdcEnable
)

// STAT interrupt-source bits.
type statFlag byte

const (
	statHBlankInt statFlag = 1 << (iota + 3)
	statVBlankInt
	statOAMInt
	statLYCInt
)

const (
	dotsOAMScan  = 80
	dotsPerLine  = 456
	linesPerFrame = 154
	vblankStart  = 144

	screenW = 160
	screenH = 144
)

type ppuMode byte

const (
	modeHBlank ppuMode = iota
	modeVBlank
	modeOAMScan
	modeDraw
)

// PPU implements the pixel pipeline described in §4.6: a mode state
// machine (OAM scan / draw / H-blank / V-blank) driving a background
// fetcher and sprite fetcher into two small pixel FIFOs, mixed and
// palette-mapped one dot at a time into a 160x144 framebuffer of
// 2-bit shade indices.
type PPU struct {
	vram [0x2000]byte
	oam  oam

	lcdc, stat       byte
	scy, scx         byte
	ly, lyc          byte
	wx, wy           byte
	bgp, obp0, obp1  byte

	mode    ppuMode
	dot     int
	lycLine bool // previous LY==LYC, for STAT rising-edge detection

	bgFIFO, spriteFIFO pixelFIFO
	bg                 bgFetcher
	sprite             spriteFetcher

	lineSprites []selectedSprite
	spriteCursor int
	screenX      int
	discard      int // SCX%8 leading pixels to drop at line start

	windowTriggeredThisLine bool

	Framebuffer [screenH][screenW]byte

	requestVBlank, requestSTAT bool
	frameComplete              bool
}

func (p *PPU) reset() {
	vram := p.vram
	fb := p.Framebuffer
	*p = PPU{vram: vram, Framebuffer: fb}
	p.lcdc = 0x91
	p.bgp = 0xFC
}

func (p *PPU) lcdcFlagSet(f lcdcFlag) bool { return p.lcdc&byte(f) != 0 }
func (p *PPU) tallSprites() bool           { return p.lcdcFlagSet(lcdcOBJSize) }

func (p *PPU) readVRAM(addr uint16) byte {
	if p.mode == modeDraw && p.lcdcFlagSet(lcdcEnable) {
		return 0xFF
	}
	return p.vram[addr-0x8000]
}

func (p *PPU) writeVRAM(addr uint16, v byte) {
	if p.mode == modeDraw && p.lcdcFlagSet(lcdcEnable) {
		return
	}
	p.vram[addr-0x8000] = v
}

func (p *PPU) readOAM(addr uint16) byte {
	if (p.mode == modeOAMScan || p.mode == modeDraw) && p.lcdcFlagSet(lcdcEnable) {
		return 0xFF
	}
	return p.oam.readByte(addr - 0xFE00)
}

func (p *PPU) writeOAM(addr uint16, v byte) {
	if (p.mode == modeOAMScan || p.mode == modeDraw) && p.lcdcFlagSet(lcdcEnable) {
		return
	}
	p.oam.writeByte(addr-0xFE00, v)
}

// writeOAMRaw bypasses the mode-based access block, used by OAM DMA per
// §4.5's supplemented feature #4 (DMA writes land regardless of mode).
func (p *PPU) writeOAMRaw(offset uint16, v byte) {
	p.oam.writeByte(offset, v)
}

func (p *PPU) readReg(addr uint16) byte {
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		return p.stat | 0x80
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

func (p *PPU) writeReg(addr uint16, v byte) {
	switch addr {
	case 0xFF40:
		wasOn := p.lcdcFlagSet(lcdcEnable)
		p.lcdc = v
		if wasOn && !p.lcdcFlagSet(lcdcEnable) {
			p.disableLCD()
		}
	case 0xFF41:
		p.stat = (p.stat & 0x07) | (v &^ 0x07)
	case 0xFF42:
		p.scy = v
	case 0xFF43:
		p.scx = v
	case 0xFF45:
		p.lyc = v
		p.checkLYC()
	case 0xFF47:
		p.bgp = v
	case 0xFF48:
		p.obp0 = v
	case 0xFF49:
		p.obp1 = v
	case 0xFF4A:
		p.wy = v
	case 0xFF4B:
		p.wx = v
	// 0xFF44 (LY) is read-only.
	}
}

func (p *PPU) disableLCD() {
	p.ly = 0
	p.dot = 0
	p.mode = modeHBlank
	p.setMode(modeHBlank)
}

func (p *PPU) setMode(m ppuMode) {
	p.mode = m
	p.stat = (p.stat &^ 0x03) | byte(m)

	fire := false
	switch m {
	case modeHBlank:
		fire = p.stat&byte(statHBlankInt) != 0
	case modeVBlank:
		fire = p.stat&byte(statVBlankInt) != 0
	case modeOAMScan:
		fire = p.stat&byte(statOAMInt) != 0
	}
	if fire {
		p.requestSTAT = true
	}
}

func (p *PPU) checkLYC() {
	match := p.ly == p.lyc
	if match {
		p.stat |= 0x04
	} else {
		p.stat &^= 0x04
	}
	if match && !p.lycLine && p.stat&byte(statLYCInt) != 0 {
		p.requestSTAT = true
	}
	p.lycLine = match
}

// tick advances the PPU by one machine cycle (4 dots), the way timer.tick
// advances the sysclock by 4 -- both are driven once per CPU machine
// cycle from the same bus.step.
func (p *PPU) tick() {
	if !p.lcdcFlagSet(lcdcEnable) {
		return
	}
	for i := 0; i < 4; i++ {
		p.tickDot()
	}
}

func (p *PPU) tickDot() {
	switch p.mode {
	case modeOAMScan:
		if p.dot == 0 {
			p.lineSprites = p.oam.scanLine(p.ly, p.tallSprites())
			p.spriteCursor = 0
		}
		p.dot++
		if p.dot == dotsOAMScan {
			p.startDraw()
		}
	case modeDraw:
		p.tickDraw()
		p.dot++
	case modeHBlank:
		p.dot++
		if p.dot == dotsPerLine {
			p.endLine()
		}
	case modeVBlank:
		p.dot++
		if p.dot == dotsPerLine {
			p.endLine()
		}
	}
}

func (p *PPU) startDraw() {
	p.mode = modeDraw
	p.setMode(modeDraw)
	p.bg.reset()
	p.bgFIFO.clear()
	p.spriteFIFO.clear()
	p.screenX = 0
	p.discard = int(p.scx) % 8
	p.windowTriggeredThisLine = false
	p.bg.windowActive = false
}

func (p *PPU) tickDraw() {
	if sp, ok := p.nextSpriteAt(p.screenX); ok {
		p.sprite.start(sp)
	}
	if pixels, done := p.sprite.step(p, p.ly); done {
		mixSprite(&p.spriteFIFO, pixels)
	}
	if p.sprite.active {
		return // sprite fetch stalls the background fetcher/FIFO pop
	}

	if p.lcdcFlagSet(lcdcWindowEnable) && !p.bg.windowActive &&
		p.ly >= p.wy && p.screenX+7 >= int(p.wx) && p.wx <= 166 {
		p.bg.windowActive = true
		p.bg.tileX = 0
		p.bg.stage, p.bg.dotInStep = fetchTile, 0
		p.bgFIFO.clear()
		if !p.windowTriggeredThisLine {
			p.bg.windowLine++
			p.windowTriggeredThisLine = true
		}
	}

	if pixels, pushed := p.bg.step(p); pushed {
		p.bgFIFO.push8(pixels)
	}

	if p.bgFIFO.len() == 0 {
		return
	}

	bgPix := p.bgFIFO.pop()
	if p.discard > 0 {
		p.discard--
		if p.spriteFIFO.len() > 0 {
			p.spriteFIFO.pop()
		}
		return
	}

	var sprPix pixel
	hasSpr := p.spriteFIFO.len() > 0
	if hasSpr {
		sprPix = p.spriteFIFO.pop()
	}

	if !p.lcdcFlagSet(lcdcBGEnable) {
		bgPix.color = 0
	}

	color, useOBP1, isSprite := composite(bgPix, sprPix, hasSpr && p.lcdcFlagSet(lcdcOBJEnable))
	if p.screenX < screenW {
		p.Framebuffer[p.ly][p.screenX] = paletteShade(color, p.paletteFor(useOBP1, isSprite))
	}
	p.screenX++

	if p.screenX == screenW {
		p.setMode(modeHBlank)
	}
}

func (p *PPU) paletteFor(useOBP1, isSprite bool) byte {
	if !isSprite {
		return p.bgp
	}
	if useOBP1 {
		return p.obp1
	}
	return p.obp0
}

func paletteShade(color byte, palette byte) byte {
	return (palette >> (color * 2)) & 0x03
}

func (p *PPU) nextSpriteAt(x int) (selectedSprite, bool) {
	for p.spriteCursor < len(p.lineSprites) {
		s := p.lineSprites[p.spriteCursor]
		if int(s.X)-8 > x {
			return selectedSprite{}, false
		}
		p.spriteCursor++
		if int(s.X)-8 < x-7 {
			continue // sprite fully scrolled off already
		}
		return s, true
	}
	return selectedSprite{}, false
}

func (p *PPU) endLine() {
	p.dot = 0
	p.ly++
	if p.ly == vblankStart {
		p.setMode(modeVBlank)
		p.requestVBlank = true
	} else if p.ly > linesPerFrame-1 {
		p.ly = 0
		p.bg.windowLine = 0
		p.setMode(modeOAMScan)
		p.frameComplete = true
	} else if p.mode == modeVBlank {
		// stay in V-blank, just counting lines
	} else {
		p.setMode(modeOAMScan)
	}
	p.checkLYC()
}

// bgTileIndex resolves the tile-map entry for fetcher column tileX,
// choosing between the background and window tile maps/scroll origins
// per LCDC bits 3 and 6.
func (p *PPU) bgTileIndex(tileX int, window bool, windowLine int) byte {
	var mapBase uint16
	var row, col int
	if window {
		if p.lcdcFlagSet(lcdcWindowTileMap) {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		row = (windowLine - 1) / 8
		col = tileX
	} else {
		if p.lcdcFlagSet(lcdcBGTileMap) {
			mapBase = 0x9C00
		} else {
			mapBase = 0x9800
		}
		row = (int(p.ly)+int(p.scy))/8 % 32
		col = (tileX + int(p.scx)/8) % 32
	}
	addr := mapBase + uint16(row)*32 + uint16(col) - 0x8000
	return p.vram[addr]
}

// bgTileRowByte fetches one bitplane byte of the tile row a background
// or window pixel belongs to, honoring LCDC bit 4's signed/unsigned
// tile-data addressing mode.
func (p *PPU) bgTileRowByte(tileIndex byte, window bool, windowLine int, hiPlane bool) byte {
	row := (int(p.ly) + int(p.scy)) % 8
	if window {
		row = (windowLine - 1) % 8
	}
	base := p.tileDataAddr(tileIndex)
	off := base + uint16(row)*2
	if hiPlane {
		off++
	}
	return p.vram[off-0x8000]
}

func (p *PPU) tileDataAddr(tileIndex byte) uint16 {
	if p.lcdcFlagSet(lcdcBGWinTileData) {
		return 0x8000 + uint16(tileIndex)*16
	}
	return uint16(0x9000 + int(int8(tileIndex))*16)
}

// spriteTileRowBytes fetches both bitplane bytes for a sprite's tile
// row. Sprites always use the 0x8000-based unsigned addressing mode.
func (p *PPU) spriteTileRowBytes(tile byte, row int) (lo, hi byte) {
	base := 0x8000 + uint16(tile)*16 + uint16(row)*2
	return p.vram[base-0x8000], p.vram[base+1-0x8000]
}
