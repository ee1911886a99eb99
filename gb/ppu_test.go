package gb

import "testing"

func TestPPUModeProgressesOAMThenDraw(t *testing.T) {
	var p PPU
	p.reset()
	p.lcdc |= byte(lcdcEnable)
	p.mode = modeOAMScan

	for i := 0; i < dotsOAMScan; i++ {
		p.tickDot()
	}
	if p.mode != modeDraw {
		t.Fatalf("mode = %v after %d dots, want modeDraw", p.mode, dotsOAMScan)
	}
}

func TestPPUCompletesLineAfter456Dots(t *testing.T) {
	var p PPU
	p.reset()
	p.lcdc |= byte(lcdcEnable)
	p.mode = modeOAMScan

	startLY := p.ly
	for i := 0; i < dotsPerLine; i++ {
		p.tickDot()
	}
	if p.ly != startLY+1 {
		t.Errorf("ly = %d, want %d after one full line", p.ly, startLY+1)
	}
}

func TestPPUEntersVBlankAtLine144(t *testing.T) {
	var p PPU
	p.reset()
	p.lcdc |= byte(lcdcEnable)
	p.mode = modeOAMScan

	for line := 0; line < vblankStart; line++ {
		for i := 0; i < dotsPerLine; i++ {
			p.tickDot()
		}
	}
	if p.mode != modeVBlank {
		t.Fatalf("mode = %v at line %d, want modeVBlank", p.mode, p.ly)
	}
	if !p.requestVBlank {
		t.Error("expected a VBlank interrupt request on entry to line 144")
	}
}

func TestLYCCoincidenceSetsSTATBit(t *testing.T) {
	var p PPU
	p.reset()
	p.lyc = 5
	p.ly = 5
	p.checkLYC()
	if p.stat&0x04 == 0 {
		t.Error("expected STAT bit 2 set when LY == LYC")
	}
}
