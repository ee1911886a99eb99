package gb

// The decoder maps every opcode byte -- all 256 unprefixed values and all
// 256 CB-prefixed values -- to an instruction: a Primary step that folds
// into the fetch cycle at no extra cost, plus a Queue of steps that run
// one per machine cycle afterward. Most of the table is built mechanically
// from the SM83's regular row/column structure (the same structure the
// teacher's InstLookup array hand-enumerates for the 6502); the irregular
// entries -- jumps, calls, stack ops, 16-bit loads, the accumulator-only
// forms -- are listed explicitly below.
//
// reserved lists the eleven opcodes with no defined behavior; Decode
// never builds a queue for them; the executor checks isReserved first and
// raises ErrReservedOpcode instead.

var r8ByIndex = [8]regID{regB, regC, regD, regE, regH, regL, regHLInd, regA}
var rpByIndex = [4]pairID{pairBC, pairDE, pairHL, pairSP}
var rp2ByIndex = [4]pairID{pairBC, pairDE, pairHL, pairAF}

type condSpec struct {
	Flag   Flag
	Expect bool
}

var condByIndex = [4]condSpec{
	{FlagZ, false}, // NZ
	{FlagZ, true},  // Z
	{FlagC, false}, // NC
	{FlagC, true},  // C
}

var reserved = map[byte]bool{
	0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true,
	0xEB: true, 0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true,
}

func isReserved(opcode byte) bool { return reserved[opcode] }

var unprefixedTable [256]instruction
var cbTable [256]instruction

func init() {
	buildRegularUnprefixed()
	buildIrregularUnprefixed()
	buildCBTable()
}

// buildRegularUnprefixed fills in the four structurally regular blocks:
// LD r,r' (0x40-0x7F, less 0x76), ALU A,r (0x80-0xBF), and the
// per-register INC/DEC/LD-immediate columns that recur every 8 opcodes.
func buildRegularUnprefixed() {
	for op := 0x40; op <= 0x7F; op++ {
		if op == 0x76 {
			continue // HALT, set explicitly below
		}
		dst := r8ByIndex[(op>>3)&7]
		src := r8ByIndex[op&7]
		switch {
		case dst == regHLInd:
			unprefixedTable[op] = instruction{Name: "LD (HL),r", Queue: queue{{Kind: kLoadHLR, Reg2: src}}}
		case src == regHLInd:
			unprefixedTable[op] = instruction{Name: "LD r,(HL)", Queue: queue{{Kind: kLoadRHL, Reg: dst}}}
		default:
			unprefixedTable[op] = instruction{Name: "LD r,r'", Primary: Step{Kind: kLoadRR, Reg: dst, Reg2: src}}
		}
	}

	for op := 0x80; op <= 0xBF; op++ {
		alu := aluOp((op >> 3) & 7)
		reg := r8ByIndex[op&7]
		if reg == regHLInd {
			unprefixedTable[op] = instruction{Name: "ALU A,(HL)", Queue: queue{{Kind: kAluHL, Alu: alu}}}
		} else {
			unprefixedTable[op] = instruction{Name: "ALU A,r", Primary: Step{Kind: kAlu, Alu: alu, Reg: reg}}
		}
	}

	for i := 0; i < 8; i++ {
		reg := r8ByIndex[i]

		ldOp := 0x06 + 8*i
		if reg == regHLInd {
			unprefixedTable[ldOp] = instruction{Name: "LD (HL),d8", Queue: queue{{Kind: kReadImmLSB}, {Kind: kLoadHLImm}}}
		} else {
			unprefixedTable[ldOp] = instruction{Name: "LD r,d8", Queue: queue{{Kind: kLoadRImm, Reg: reg}}}
		}

		incOp := 0x04 + 8*i
		if reg == regHLInd {
			unprefixedTable[incOp] = instruction{Name: "INC (HL)", Queue: queue{{Kind: kReadHLToScratch}, {Kind: kWriteScratchIncHL}}}
		} else {
			unprefixedTable[incOp] = instruction{Name: "INC r", Primary: Step{Kind: kIncR, Reg: reg}}
		}

		decOp := 0x05 + 8*i
		if reg == regHLInd {
			unprefixedTable[decOp] = instruction{Name: "DEC (HL)", Queue: queue{{Kind: kReadHLToScratch}, {Kind: kWriteScratchDecHL}}}
		} else {
			unprefixedTable[decOp] = instruction{Name: "DEC r", Primary: Step{Kind: kDecR, Reg: reg}}
		}

		aluImmOp := 0xC6 + 8*i
		unprefixedTable[aluImmOp] = instruction{Name: "ALU A,d8", Queue: queue{{Kind: kAluImm, Alu: aluOp(i)}}}

		// RST's push literal is PC-dependent (the return address), so the
		// table only reserves the opcode name; Decode fills in the queue.
		rstOp := byte(0xC7 + 8*i)
		unprefixedTable[rstOp] = instruction{Name: "RST"}
	}

	for i := 0; i < 4; i++ {
		pair := rpByIndex[i]

		ldImmOp := 0x01 + 0x10*i
		unprefixedTable[ldImmOp] = instruction{Name: "LD rr,d16", Queue: queue{{Kind: kReadImmLSB}, {Kind: kLoadPairImm, Pair: pair}}}

		incOp := 0x03 + 0x10*i
		unprefixedTable[incOp] = instruction{Name: "INC rr", Queue: queue{{Kind: kIncPair, Pair: pair}}}

		decOp := 0x0B + 0x10*i
		unprefixedTable[decOp] = instruction{Name: "DEC rr", Queue: queue{{Kind: kDecPair, Pair: pair}}}

		addOp := 0x09 + 0x10*i
		unprefixedTable[addOp] = instruction{Name: "ADD HL,rr", Queue: queue{{Kind: kAddHLPair, Pair: pair}}}
	}
}

// buildIrregularUnprefixed sets every opcode that doesn't fit the regular
// row/column shape: loads through BC/DE/HL+-, jumps, calls, returns,
// stack ops, the accumulator-only rotates, and the single-byte flag/mode
// instructions.
func buildIrregularUnprefixed() {
	t := &unprefixedTable

	t[0x00] = instruction{Name: "NOP"}
	t[0x10] = instruction{Name: "STOP", Queue: queue{{Kind: kStopConsume}}}
	t[0x76] = instruction{Name: "HALT", Primary: Step{Kind: kHALT}}
	t[0xF3] = instruction{Name: "DI", Primary: Step{Kind: kDI}}
	t[0xFB] = instruction{Name: "EI", Primary: Step{Kind: kEI}}
	t[0x27] = instruction{Name: "DAA", Primary: Step{Kind: kDAA}}
	t[0x2F] = instruction{Name: "CPL", Primary: Step{Kind: kCPL}}
	t[0x37] = instruction{Name: "SCF", Primary: Step{Kind: kSCF}}
	t[0x3F] = instruction{Name: "CCF", Primary: Step{Kind: kCCF}}

	t[0x07] = instruction{Name: "RLCA", Primary: Step{Kind: kRotateR, Shift: shRLC, Reg: regA, ZeroZ: true}}
	t[0x0F] = instruction{Name: "RRCA", Primary: Step{Kind: kRotateR, Shift: shRRC, Reg: regA, ZeroZ: true}}
	t[0x17] = instruction{Name: "RLA", Primary: Step{Kind: kRotateR, Shift: shRL, Reg: regA, ZeroZ: true}}
	t[0x1F] = instruction{Name: "RRA", Primary: Step{Kind: kRotateR, Shift: shRR, Reg: regA, ZeroZ: true}}

	t[0x02] = instruction{Name: "LD (BC),A", Queue: queue{{Kind: kStoreAPair, Pair: pairBC}}}
	t[0x12] = instruction{Name: "LD (DE),A", Queue: queue{{Kind: kStoreAPair, Pair: pairDE}}}
	t[0x0A] = instruction{Name: "LD A,(BC)", Queue: queue{{Kind: kLoadAPair, Pair: pairBC}}}
	t[0x1A] = instruction{Name: "LD A,(DE)", Queue: queue{{Kind: kLoadAPair, Pair: pairDE}}}
	t[0x22] = instruction{Name: "LD (HL+),A", Queue: queue{{Kind: kStoreAHLInc}}}
	t[0x32] = instruction{Name: "LD (HL-),A", Queue: queue{{Kind: kStoreAHLDec}}}
	t[0x2A] = instruction{Name: "LD A,(HL+)", Queue: queue{{Kind: kLoadAHLInc}}}
	t[0x3A] = instruction{Name: "LD A,(HL-)", Queue: queue{{Kind: kLoadAHLDec}}}

	t[0x08] = instruction{Name: "LD (a16),SP", Queue: queue{{Kind: kReadImmLSB}, {Kind: kReadImmMSB}, {Kind: kWriteA16SPLo}, {Kind: kWriteA16SPHi}}}
	t[0xEA] = instruction{Name: "LD (a16),A", Queue: queue{{Kind: kReadImmLSB}, {Kind: kReadImmMSB}, {Kind: kWriteA16A}}}
	t[0xFA] = instruction{Name: "LD A,(a16)", Queue: queue{{Kind: kReadImmLSB}, {Kind: kReadImmMSB}, {Kind: kReadA16A}}}
	t[0xE0] = instruction{Name: "LDH (a8),A", Queue: queue{{Kind: kReadImmLSB}, {Kind: kLDHWriteA}}}
	t[0xF0] = instruction{Name: "LDH A,(a8)", Queue: queue{{Kind: kReadImmLSB}, {Kind: kLDHReadA}}}
	t[0xE2] = instruction{Name: "LD (C),A", Queue: queue{{Kind: kLDCWriteA}}}
	t[0xF2] = instruction{Name: "LD A,(C)", Queue: queue{{Kind: kLDCReadA}}}

	t[0xE8] = instruction{Name: "ADD SP,r8", Queue: queue{{Kind: kReadImmLSB}, {Kind: kIdle}, {Kind: kAddSPImm}}}
	t[0xF8] = instruction{Name: "LD HL,SP+r8", Queue: queue{{Kind: kReadImmLSB}, {Kind: kLoadHLSPImm}}}
	t[0xF9] = instruction{Name: "LD SP,HL", Queue: queue{{Kind: kLoadSPHL}}}

	t[0xC3] = instruction{Name: "JP a16", Queue: queue{{Kind: kReadImmLSB}, {Kind: kReadImmMSB}, {Kind: kJPScratch}}}
	t[0xE9] = instruction{Name: "JP HL", Primary: Step{Kind: kJPHL}}
	t[0x18] = instruction{Name: "JR r8", Queue: queue{{Kind: kReadImmLSB}, {Kind: kJRScratch}}}
	t[0xC9] = instruction{Name: "RET", Queue: queue{{Kind: kPopLo}, {Kind: kPopHiScratch}, {Kind: kRetJump}}}
	t[0xD9] = instruction{Name: "RETI", Queue: queue{{Kind: kPopLo}, {Kind: kPopHiScratch}, {Kind: kRetiJump}}}

	for i := 0; i < 4; i++ {
		c := condByIndex[i]

		jpOp := 0xC2 + 8*i
		t[jpOp] = instruction{Name: "JP cc,a16", Queue: queue{
			{Kind: kReadImmLSB},
			{Kind: kReadImmMSB, Guard: true, Flag: c.Flag, Expect: c.Expect},
			{Kind: kJPScratch},
		}}

		jrOp := 0x20 + 8*i
		t[jrOp] = instruction{Name: "JR cc,r8", Queue: queue{
			{Kind: kReadImmLSB, Guard: true, Flag: c.Flag, Expect: c.Expect},
			{Kind: kJRScratch},
		}}

		retOp := 0xC0 + 8*i
		t[retOp] = instruction{Name: "RET cc", Queue: queue{
			{Kind: kCond, Guard: true, Flag: c.Flag, Expect: c.Expect},
			{Kind: kPopLo},
			{Kind: kPopHiScratch},
			{Kind: kRetJump},
		}}

		// CALL cc,a16 and CALL a16 are finished in Decode, which bakes in
		// the post-fetch return address as a literal; the table only
		// reserves the opcode so isReserved/coverage checks see it.
		callOp := byte(0xC4 + 8*i)
		t[callOp] = instruction{Name: "CALL cc,a16"}
	}
	t[0xCD] = instruction{Name: "CALL a16"}

	for i := 0; i < 4; i++ {
		pair := rp2ByIndex[i]
		t[0xC1+0x10*i] = instruction{Name: "POP rr", Queue: queue{{Kind: kPopLo}, {Kind: kPopHiPair, Pair: pair}}}
		t[0xC5+0x10*i] = instruction{Name: "PUSH rr", Queue: queue{{Kind: kIdle}, {Kind: kPushHi, Pair: pair}, {Kind: kPushLo, Pair: pair}}}
	}
}

// buildCBTable fills the fully-regular CB-prefixed opcode space: eight
// rotate/shift ops, then BIT/RES/SET across all eight bit indices, each
// applied to all eight r8 operands.
func buildCBTable() {
	for op := 0; op <= 0xFF; op++ {
		group := op >> 3
		reg := r8ByIndex[op&7]

		switch {
		case group < 8:
			sh := shiftOp(group)
			if reg == regHLInd {
				cbTable[op] = instruction{Name: "rot (HL)", Queue: queue{{Kind: kReadHLToScratch}, {Kind: kRotateHL, Shift: sh}}}
			} else {
				cbTable[op] = instruction{Name: "rot r", Primary: Step{Kind: kRotateR, Shift: sh, Reg: reg}}
			}
		case group < 16:
			bit := byte(group - 8)
			if reg == regHLInd {
				cbTable[op] = instruction{Name: "BIT b,(HL)", Queue: queue{{Kind: kBitHL, Bit: bit}}}
			} else {
				cbTable[op] = instruction{Name: "BIT b,r", Primary: Step{Kind: kBitR, Bit: bit, Reg: reg}}
			}
		case group < 24:
			bit := byte(group - 16)
			if reg == regHLInd {
				cbTable[op] = instruction{Name: "RES b,(HL)", Queue: queue{{Kind: kReadHLToScratch}, {Kind: kResHL, Bit: bit}}}
			} else {
				cbTable[op] = instruction{Name: "RES b,r", Primary: Step{Kind: kResR, Bit: bit, Reg: reg}}
			}
		default:
			bit := byte(group - 24)
			if reg == regHLInd {
				cbTable[op] = instruction{Name: "SET b,(HL)", Queue: queue{{Kind: kReadHLToScratch}, {Kind: kSetHL, Bit: bit}}}
			} else {
				cbTable[op] = instruction{Name: "SET b,r", Primary: Step{Kind: kSetR, Bit: bit, Reg: reg}}
			}
		}
	}
}

// Decode returns the instruction for an unprefixed opcode byte. postFetchPC
// is PC immediately after the opcode byte was consumed -- the value CALL
// and RST need to bake the return address in as a Literal at decode time,
// per the no-closures-over-CPU-state rule: the return address is data
// computed once, not a reference back to the executor.
func Decode(opcode byte, postFetchPC uint16) instruction {
	switch {
	case opcode == 0xCD:
		return callInstruction(postFetchPC+2, condSpec{}, false)
	case opcode >= 0xC4 && opcode <= 0xDC && opcode&0x07 == 4:
		i := int(opcode-0xC4) / 8
		return callInstruction(postFetchPC+2, condByIndex[i], true)
	case opcode >= 0xC7 && opcode&0x07 == 7:
		return rstInstruction(postFetchPC, byte(opcode-0xC7)/8)
	default:
		return unprefixedTable[opcode]
	}
}

func rstInstruction(retAddr uint16, vector byte) instruction {
	hi := byte(retAddr >> 8)
	lo := byte(retAddr)
	return instruction{Name: "RST", Queue: queue{
		{Kind: kPushLit, Literal: hi},
		{Kind: kPushLit, Literal: lo},
		{Kind: kRST, Literal: vector},
	}}
}

// DecodeCB returns the instruction for a CB-prefixed opcode byte.
func DecodeCB(opcode byte) instruction {
	return cbTable[opcode]
}

func callInstruction(retAddr uint16, c condSpec, conditional bool) instruction {
	hi := byte(retAddr >> 8)
	lo := byte(retAddr)
	name := "CALL a16"
	if conditional {
		name = "CALL cc,a16"
		return instruction{Name: name, Queue: queue{
			{Kind: kReadImmLSB},
			{Kind: kReadImmMSB, Guard: true, Flag: c.Flag, Expect: c.Expect},
			{Kind: kPushLit, Literal: hi},
			{Kind: kPushLit, Literal: lo},
			{Kind: kCallJump},
		}}
	}
	return instruction{Name: name, Queue: queue{
		{Kind: kReadImmLSB},
		{Kind: kReadImmMSB},
		{Kind: kPushLit, Literal: hi},
		{Kind: kPushLit, Literal: lo},
		{Kind: kCallJump},
	}}
}
