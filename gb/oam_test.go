package gb

import "testing"

func TestOAMScanLinePicksUpToTen(t *testing.T) {
	var o oam
	for i := 0; i < 40; i++ {
		o.entries[i] = spriteAttr{Y: 16, X: byte(8 + i), Tile: byte(i)} // every sprite covers scanline 0
	}
	selected := o.scanLine(0, false)
	if len(selected) != maxSpritesPerLine {
		t.Errorf("len(selected) = %d, want %d", len(selected), maxSpritesPerLine)
	}
	for i, s := range selected {
		if s.index != i {
			t.Errorf("selected[%d].index = %d, want %d (OAM order preserved)", i, s.index, i)
		}
	}
}

func TestOAMScanLineRespectsTallSprites(t *testing.T) {
	var o oam
	o.entries[0] = spriteAttr{Y: 16, X: 8, Tile: 0} // occupies screen rows 0-7 (short) or 0-15 (tall)

	if got := o.scanLine(10, false); len(got) != 0 {
		t.Errorf("short sprite should not cover row 10, got %d selected", len(got))
	}
	if got := o.scanLine(10, true); len(got) != 1 {
		t.Errorf("tall sprite should cover row 10, got %d selected", len(got))
	}
}

func TestOAMScanLineExcludesXZeroSprites(t *testing.T) {
	var o oam
	o.entries[0] = spriteAttr{Y: 16, X: 0, Tile: 0} // X=0 is fully off-screen, must not take a slot
	for i := 1; i < 10; i++ {
		o.entries[i] = spriteAttr{Y: 16, X: byte(8 + i), Tile: byte(i)}
	}

	selected := o.scanLine(0, false)
	if len(selected) != 9 {
		t.Fatalf("len(selected) = %d, want 9 (X=0 sprite excluded)", len(selected))
	}
	for _, s := range selected {
		if s.X == 0 {
			t.Errorf("selected sprite with X=0 at index %d, want it excluded from selection", s.index)
		}
	}
}

func TestTileRowForSpriteVerticalFlip(t *testing.T) {
	s := selectedSprite{spriteAttr: spriteAttr{Y: 16, X: 8, Tile: 4, Attr: 0x40}} // flipY
	_, row := tileRowForSprite(s, 0, false)
	if row != 7 {
		t.Errorf("flipped row = %d, want 7 (bottom row of an 8px sprite at scanline 0)", row)
	}
}
