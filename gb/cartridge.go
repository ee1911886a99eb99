package gb

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// MBCType identifies which bank-controller variant a cartridge's header
// selects.
type MBCType byte

const (
	MBCNone MBCType = iota
	MBC1
	MBC3
	MBC5
)

// ramSizeTable maps header byte 0x0149 to external RAM size in bytes. Code
// 1 is reserved/unused in the published table and rejected as malformed,
// per SPEC_FULL's supplemented-feature #2.
var ramSizeTable = map[byte]int{
	0x00: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

// CartridgeHeader is the decoded form of ROM bytes 0x0100-0x014F, read the
// way the teacher's cartridge.go decodes an iNES header: binary.Read
// against a fixed-layout struct from a bytes.Reader.
type CartridgeHeader struct {
	EntryPoint   [4]byte
	Logo         [48]byte
	Title        [16]byte
	NewLicensee  [2]byte
	SGBFlag      byte
	CartType     byte
	ROMSizeCode  byte
	RAMSizeCode  byte
	DestCode     byte
	OldLicensee  byte
	MaskROMVer   byte
	HeaderChksum byte
	GlobalChksum [2]byte
}

// Cartridge owns the raw ROM/RAM bytes and the MBC that banks them, the way
// the teacher's Cartridge owns prgMem/chrMem plus a Mapper.
type Cartridge struct {
	rom []byte
	ram []byte

	Title          string
	TitleRaw       [16]byte // header bytes 0x134-0x143, unterminated, for the save-state INFO block
	GlobalChecksum [2]byte  // header bytes 0x14E-0x14F
	mbcType        MBCType
	mbc            mbc
}

// ParseCartridge validates and loads a ROM image per §6/§7: power-of-two
// length >= 32 KiB, a recognized MBC type at 0x0147, a valid RAM-size code
// at 0x0149, and (supplemented feature #1) a header checksum that matches
// the published algorithm. Any failure refuses to load and returns a
// wrapped ErrMalformedCartridge rather than partially constructing state.
func ParseCartridge(rom []byte) (*Cartridge, error) {
	if len(rom) < 32*1024 || len(rom)&(len(rom)-1) != 0 {
		return nil, errors.Wrapf(ErrMalformedCartridge, "ROM length %d is not a power of two >= 32KiB", len(rom))
	}

	var header CartridgeHeader
	buf := bytes.NewReader(rom[0x0100:0x0150])
	if err := binary.Read(buf, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(ErrMalformedCartridge, "truncated header")
	}

	if sum := headerChecksum(rom); sum != header.HeaderChksum {
		return nil, errors.Wrapf(ErrMalformedCartridge, "header checksum mismatch: got %#02x want %#02x", sum, header.HeaderChksum)
	}

	mbcType, err := mbcTypeFromCartType(header.CartType)
	if err != nil {
		return nil, err
	}

	ramSize, ok := ramSizeTable[header.RAMSizeCode]
	if !ok {
		return nil, errors.Wrapf(ErrMalformedCartridge, "invalid RAM-size code %#02x", header.RAMSizeCode)
	}

	c := &Cartridge{
		rom:            rom,
		ram:            make([]byte, ramSize),
		Title:          cString(header.Title[:]),
		TitleRaw:       header.Title,
		GlobalChecksum: header.GlobalChksum,
		mbcType:        mbcType,
	}
	c.mbc = newMBC(mbcType, len(rom), ramSize)
	return c, nil
}

// headerChecksum implements the published algorithm: sum(~byte) for bytes
// 0x0134..0x014C inclusive, modulo 256.
func headerChecksum(rom []byte) byte {
	var sum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		sum = sum - rom[addr] - 1
	}
	return sum
}

func cString(b []byte) string {
	n := bytes.IndexByte(b, 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}

func mbcTypeFromCartType(ct byte) (MBCType, error) {
	switch ct {
	case 0x00:
		return MBCNone, nil
	case 0x01, 0x02, 0x03:
		return MBC1, nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return MBC3, nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return MBC5, nil
	default:
		return 0, errors.Wrapf(ErrMalformedCartridge, "unsupported cartridge type %#02x", ct)
	}
}

func (c *Cartridge) ReadROM(addr uint16) byte {
	off := c.mbc.romOffset(addr)
	if off >= len(c.rom) {
		return 0xFF
	}
	return c.rom[off]
}

func (c *Cartridge) WriteROM(addr uint16, v byte) {
	c.mbc.writeControl(addr, v)
}

func (c *Cartridge) ReadRAM(addr uint16) byte {
	if !c.mbc.ramEnabled() {
		return 0xFF
	}
	off := c.mbc.ramOffset(addr)
	if off < 0 {
		// ramOffset returns -1 when MBC3's secondary register currently
		// selects an RTC shadow register instead of a RAM bank (§4.5/§9).
		if m3, ok := c.mbc.(*mbc3); ok {
			return m3.readRTC()
		}
		return 0xFF
	}
	if off >= len(c.ram) {
		return 0xFF
	}
	return c.ram[off]
}

func (c *Cartridge) WriteRAM(addr uint16, v byte) {
	if !c.mbc.ramEnabled() {
		return
	}
	off := c.mbc.ramOffset(addr)
	if off < 0 {
		if m3, ok := c.mbc.(*mbc3); ok {
			m3.writeRTC(v)
		}
		return
	}
	if off >= len(c.ram) {
		return
	}
	c.ram[off] = v
}
