package gb

// spriteAttr is one 4-byte OAM entry as laid out in memory: Y, X, tile
// index, and an attribute byte (priority/flip/palette).
type spriteAttr struct {
	Y, X, Tile, Attr byte
}

func (s spriteAttr) priorityBehindBG() bool { return s.Attr&0x80 != 0 }
func (s spriteAttr) flipY() bool            { return s.Attr&0x40 != 0 }
func (s spriteAttr) flipX() bool            { return s.Attr&0x20 != 0 }
func (s spriteAttr) useOBP1() bool          { return s.Attr&0x10 != 0 }

const maxSpritesPerLine = 10

// oam is the 40-entry sprite attribute table plus the per-scanline
// selection scan described in §4.6: up to ten sprites whose Y-range
// covers the current scanline, in OAM order (lower index wins ties at
// the same X, matching the teacher's left-to-right scan-then-cap
// pattern in ppu.go's background evaluation).
type oam struct {
	entries [40]spriteAttr
}

func (o *oam) readByte(addr uint16) byte {
	idx := addr / 4
	switch addr % 4 {
	case 0:
		return o.entries[idx].Y
	case 1:
		return o.entries[idx].X
	case 2:
		return o.entries[idx].Tile
	default:
		return o.entries[idx].Attr
	}
}

func (o *oam) writeByte(addr uint16, v byte) {
	idx := addr / 4
	switch addr % 4 {
	case 0:
		o.entries[idx].Y = v
	case 1:
		o.entries[idx].X = v
	case 2:
		o.entries[idx].Tile = v
	default:
		o.entries[idx].Attr = v
	}
}

// selectedSprite pairs an OAM entry with its original table index, since
// the scan order (OAM index, not X) decides rendering priority ties.
type selectedSprite struct {
	spriteAttr
	index int
}

// scanLine returns up to ten sprites with X>0 whose 8-pixel (or 16-pixel,
// when LCDC bit 2 selects tall sprites) Y-range covers scanline `ly`, in
// OAM order. X==0 sprites are fully off-screen (their 8-pixel window sits
// entirely left of the panel once the X-16 offset is applied) and must
// not consume one of the ten selection slots, per §4.6. The real PPU
// performs this scan over the 80 dots of mode 2; this emulator does it as
// a single pass at mode-2 entry since only the result, not its timing, is
// externally observable per §4.6's Non-goals.
func (o *oam) scanLine(ly byte, tallSprites bool) []selectedSprite {
	height := byte(8)
	if tallSprites {
		height = 16
	}

	var selected []selectedSprite
	for i, e := range o.entries {
		if e.X == 0 {
			continue
		}
		top := int(e.Y) - 16
		if int(ly) < top || int(ly) >= top+int(height) {
			continue
		}
		selected = append(selected, selectedSprite{spriteAttr: e, index: i})
		if len(selected) == maxSpritesPerLine {
			break
		}
	}
	return selected
}

// tileRowForSprite resolves which tile index and row-within-tile a
// selected sprite contributes to scanline `ly`, accounting for 8x16
// mode's stacked-tile addressing (bit 0 of the tile index is ignored
// and the top/bottom tile is chosen by which half of the 16-pixel
// sprite `ly` falls in) and vertical flip.
func tileRowForSprite(s selectedSprite, ly byte, tallSprites bool) (tile byte, row int) {
	top := int(s.Y) - 16
	line := int(ly) - top
	height := 8
	if tallSprites {
		height = 16
	}
	if s.flipY() {
		line = height - 1 - line
	}

	tile = s.Tile
	if tallSprites {
		tile &^= 0x01
		if line >= 8 {
			tile |= 0x01
			line -= 8
		}
	}
	return tile, line
}
