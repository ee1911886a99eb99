package gb

// pixel is one FIFO entry: a 2-bit colour index plus enough sprite
// metadata to resolve BG/sprite mixing priority when it is popped.
type pixel struct {
	color   byte // 0-3, pre-palette
	obp1    bool // sprite pixel uses OBP1 instead of OBP0
	bgPrio  bool // sprite's OAM priority bit: render behind non-zero BG
	sprite  bool // false = background/window pixel
}

// pixelFIFO is a small ring buffer, never holding more than 16 entries
// (background fetcher pushes 8 at a time; sprite fetcher mixes in up to
// 8 more at the fetch cursor).
type pixelFIFO struct {
	buf []pixel
}

func (f *pixelFIFO) clear() { f.buf = f.buf[:0] }
func (f *pixelFIFO) len() int { return len(f.buf) }

func (f *pixelFIFO) push8(pixels [8]pixel) {
	f.buf = append(f.buf, pixels[:]...)
}

func (f *pixelFIFO) pop() pixel {
	p := f.buf[0]
	f.buf = f.buf[1:]
	return p
}

// fetcherStage enumerates the five steps of the background/window
// fetcher described in §4.6: two dots each to read the tile index and
// the two bitplane bytes, one dot idle, then push (which only succeeds,
// and advances the stage, once the FIFO has drained to 8 entries or fewer).
type fetcherStage byte

const (
	fetchTile fetcherStage = iota
	fetchLo
	fetchHi
	fetchIdle
	fetchPush
)

// bgFetcher drives the background/window pixel FIFO. It tracks its own
// tile-map cursor independent of SCX/WX so that window activation can
// reset it mid-scanline per §4.6.
type bgFetcher struct {
	stage    fetcherStage
	dotInStep int

	tileX int // tile column within the current 32-tile row
	tileIndex byte
	loByte, hiByte byte

	windowActive bool
	windowLine   int // internal window-line counter, increments only on rows the window was drawn
}

func (f *bgFetcher) reset() {
	*f = bgFetcher{}
}

// step advances the fetcher by one dot. When it completes a push, it
// returns the eight fetched pixels and true; otherwise false.
func (f *bgFetcher) step(p *PPU) (pixels [8]pixel, pushed bool) {
	f.dotInStep++
	switch f.stage {
	case fetchTile:
		if f.dotInStep < 2 {
			return pixels, false
		}
		f.tileIndex = p.bgTileIndex(f.tileX, f.windowActive, f.windowLine)
		f.stage, f.dotInStep = fetchLo, 0
	case fetchLo:
		if f.dotInStep < 2 {
			return pixels, false
		}
		f.loByte = p.bgTileRowByte(f.tileIndex, f.windowActive, f.windowLine, false)
		f.stage, f.dotInStep = fetchHi, 0
	case fetchHi:
		if f.dotInStep < 2 {
			return pixels, false
		}
		f.hiByte = p.bgTileRowByte(f.tileIndex, f.windowActive, f.windowLine, true)
		f.stage, f.dotInStep = fetchIdle, 0
	case fetchIdle:
		if f.dotInStep < 1 {
			return pixels, false
		}
		f.stage, f.dotInStep = fetchPush, 0
	case fetchPush:
		if p.bgFIFO.len() > 8 {
			// push stalls until the FIFO has room; stay in this stage.
			return pixels, false
		}
		for i := 0; i < 8; i++ {
			bit := 7 - i
			lo := (f.loByte >> uint(bit)) & 1
			hi := (f.hiByte >> uint(bit)) & 1
			pixels[i] = pixel{color: lo | hi<<1}
		}
		f.tileX++
		f.stage, f.dotInStep = fetchTile, 0
		return pixels, true
	}
	return pixels, false
}

// spriteFetcher is simplified relative to hardware's fully pipelined
// sprite fetch: since §4.6 only commits to externally observable pixel
// output, a selected sprite's eight pixels are fetched in a single
// six-dot burst (matching the real unit's six-dot cost) the first dot
// the main fetcher would otherwise advance past the sprite's X.
type spriteFetcher struct {
	active   bool
	dotsLeft int
	sprite   selectedSprite
}

func (sf *spriteFetcher) start(s selectedSprite) {
	sf.active = true
	sf.dotsLeft = 6
	sf.sprite = s
}

// step advances an in-flight sprite fetch; returns the eight fetched
// pixels and true once the burst completes.
func (sf *spriteFetcher) step(p *PPU, ly byte) (pixels [8]pixel, done bool) {
	if !sf.active {
		return pixels, false
	}
	sf.dotsLeft--
	if sf.dotsLeft > 0 {
		return pixels, false
	}
	sf.active = false

	tile, row := tileRowForSprite(sf.sprite, ly, p.tallSprites())
	lo, hi := p.spriteTileRowBytes(tile, row)
	for i := 0; i < 8; i++ {
		bit := 7 - i
		if sf.sprite.flipX() {
			bit = i
		}
		l := (lo >> uint(bit)) & 1
		h := (hi >> uint(bit)) & 1
		pixels[i] = pixel{
			color:  l | h<<1,
			obp1:   sf.sprite.useOBP1(),
			bgPrio: sf.sprite.priorityBehindBG(),
			sprite: true,
		}
	}
	return pixels, true
}

// mixSprite overlays a freshly fetched sprite's 8 pixels onto the
// sprite FIFO at the current column, per §4.6's OAM-order priority:
// a slot already holding an opaque (non-zero colour) sprite pixel from
// an earlier, higher-priority sprite is left untouched.
func mixSprite(fifo *pixelFIFO, fresh [8]pixel) {
	for len(fifo.buf) < 8 {
		fifo.buf = append(fifo.buf, pixel{})
	}
	for i := 0; i < 8; i++ {
		if fifo.buf[i].sprite && fifo.buf[i].color != 0 {
			continue
		}
		if fresh[i].color == 0 {
			continue
		}
		fifo.buf[i] = fresh[i]
	}
}

// composite resolves one output pixel from the popped background pixel
// and, if present, the popped sprite pixel, per §4.6's mixing rule:
// a sprite pixel with colour 0 is transparent; otherwise it wins unless
// its BG-priority bit is set and the background pixel is non-zero.
func composite(bg, spr pixel, hasSprite bool) (color byte, useOBP1 bool, isSprite bool) {
	if !hasSprite || spr.color == 0 {
		return bg.color, false, false
	}
	if spr.bgPrio && bg.color != 0 {
		return bg.color, false, false
	}
	return spr.color, spr.obp1, true
}
