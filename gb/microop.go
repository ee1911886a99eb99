package gb

// aluOp enumerates the eight accumulator operations shared by the register,
// immediate and (HL) forms of ADD/ADC/SUB/SBC/AND/OR/XOR/CP.
type aluOp byte

const (
	aluAdd aluOp = iota
	aluAdc
	aluSub
	aluSbc
	aluAnd
	aluXor
	aluOr
	aluCp
)

// shiftOp enumerates the eight CB-prefixed rotate/shift operations.
type shiftOp byte

const (
	shRLC shiftOp = iota
	shRRC
	shRL
	shRR
	shSLA
	shSRA
	shSWAP
	shSRL
)

// kind tags the action a Step performs. The decoder never captures CPU
// state in a closure (§9): every Step is a plain value, and the executor's
// switch over kind is the only place behavior lives.
type kind byte

const (
	kNop kind = iota
	kReadImmLSB
	kReadImmMSB
	kCond // truncate the remaining queue if the condition fails

	kLoadRR   // Dst = Get8(Src) -- register-to-register, folds into the fetch cycle
	kLoadRHL  // Dst = bus.Read(HL)
	kLoadHLR  // bus.Write(HL, Get8(Src))
	kLoadRImm // Dst = bus.Read(PC); PC++ -- fused read-and-store, one cycle
	kLoadHLImm // bus.Write(HL, scratchLo) -- scratchLo was set by a preceding kReadImmLSB

	kStoreAPair // bus.Write(GetPair(Pair), A) -- LD (BC),A / LD (DE),A
	kLoadAPair  // A = bus.Read(GetPair(Pair)) -- LD A,(BC) / LD A,(DE)
	kStoreAHLInc // bus.Write(HL, A); HL++
	kStoreAHLDec // bus.Write(HL, A); HL--
	kLoadAHLInc  // A = bus.Read(HL); HL++
	kLoadAHLDec  // A = bus.Read(HL); HL--

	kIncR // register form, folds into the fetch cycle
	kDecR
	kReadHLToScratch   // scratchLo = bus.Read(HL); first half of the (HL) read-modify-write forms
	kWriteScratchIncHL // bus.Write(HL, scratchLo+1), sets flags as 8-bit INC does
	kWriteScratchDecHL

	kAlu    // A op= Get8(Src) -- register form, folds into the fetch cycle
	kAluImm // A op= bus.Read(PC); PC++ -- fused read-and-apply, one cycle
	kAluHL  // A op= bus.Read(HL) -- fused read-and-apply, one cycle

	kIncPair
	kDecPair
	kIdle // burns a machine cycle with no bus side effect (internal cycle)
	kAddHLPair
	kLoadPairImm // Pair = bus.Read(PC):scratchLo; PC++ -- fused MSB read-and-store, one cycle
	kLoadSPHL
	kAddSPImm     // SP += sign-extend(scratchLo); flags per ADD SP rule
	kLoadHLSPImm  // HL = SP + sign-extend(scratchLo)

	kLDHWriteA // bus.Write(0xFF00+scratchLo, A)
	kLDHReadA  // A = bus.Read(0xFF00+scratchLo)
	kLDCWriteA // bus.Write(0xFF00+C, A)
	kLDCReadA  // A = bus.Read(0xFF00+C)

	kWriteA16SPLo // bus.Write(addr, low(SP))
	kWriteA16SPHi // bus.Write(addr+1, high(SP))
	kWriteA16A    // bus.Write(addr, A)
	kReadA16A     // A = bus.Read(addr)

	kPushHi     // SP--, bus.Write(SP, high(Pair))
	kPushLo     // SP--, bus.Write(SP, low(Pair))
	kPushLit    // SP--, bus.Write(SP, Literal) -- CALL's baked-in return address bytes
	kPopLo      // scratchLo = bus.Read(SP), SP++
	kPopHiPair  // Pair = bus.Read(SP):scratchLo, SP++ (POP rr, fused; scratchHi is left as is)
	kPopHiScratch // scratchHi = bus.Read(SP), SP++ (RET/CALL-adjacent forms, pair set later)

	kJPScratch // PC = scratchHi:scratchLo
	kJPHL      // PC = HL (folds into fetch, no extra cycle)
	kJRScratch // PC += sign-extend(scratchLo)
	kCallJump  // PC = scratchHi:scratchLo
	kRetJump   // PC = scratchHi:scratchLo (popped)
	kRetiJump  // PC = scratchHi:scratchLo (popped); arms the same two-step IME latch as EI
	kRST       // PC = Literal*8 (Literal is the RST index 0-7, e.g. RST 28h -> Literal=5)

	kRotateR  // shift/rotate op on register; CB register forms fold into the second fetch cycle
	kRotateHL // scratchLo was read by a preceding kReadHLToScratch; applies op, writes back to HL
	kBitR     // test bit on register; folds into the second fetch cycle
	kBitHL    // bus.Read(HL), test bit -- fused read-and-test, one cycle, no write
	kResR     // folds into the second fetch cycle
	kSetR     // folds into the second fetch cycle
	kResHL    // scratchLo was read by a preceding kReadHLToScratch; clears bit, writes back to HL
	kSetHL    // scratchLo was read by a preceding kReadHLToScratch; sets bit, writes back to HL

	kDAA
	kCPL
	kSCF
	kCCF
	kDI
	kEI
	kHALT
	kStopConsume // discards the mandatory second STOP byte
)

// Step is one tagged micro-op: the unit the decoder emits and the executor
// consumes one-per-machine-cycle. It carries only plain data -- register
// ids, a flag/expected pair, an ALU/shift/bit selector, and the scratch
// bytes decode-time literals need -- never a function value.
type Step struct {
	Kind kind

	Reg  regID
	Reg2 regID
	Pair pairID

	Flag   Flag
	Expect bool

	Alu   aluOp
	Shift shiftOp
	Bit   byte

	Literal byte // baked-in literal (CALL/RST return-address bytes, RST index 0-7)

	// Guard, when true, is checked after the step's action runs: if
	// Flag's state doesn't match Expect, the remaining queue is dropped
	// and the instruction retires this cycle. This is how JP/JR/CALL/RET
	// conditional forms get their correct not-taken cycle counts without
	// a separately-costed check (the guard rides on the cycle the step
	// already spends reading or popping a byte).
	Guard  bool

	// ZeroZ forces Z to false regardless of the result, used by the
	// accumulator rotate forms RLCA/RRCA/RLA/RRA which -- unlike their
	// CB-prefixed register counterparts -- never set Z.
	ZeroZ bool
}

// queue is the ordered sequence of Steps executed one per machine cycle
// after the fetch cycle. An unprefixed opcode's published machine-cycle
// count is always 1 (the fetch) + len(queue), and a CB-prefixed opcode's is
// 2 (both fetches) + len(queue); a Primary step with no memory access
// (register moves, flag ops, 8-bit INC/DEC, accumulator rotates, DI/EI/
// HALT/CPL/SCF/CCF/DAA, JP HL) runs during the fetch cycle itself at no
// extra cost, since the fetch cycle's own bus access was the opcode read
// and a combinational register effect doesn't need a second one.
type queue []Step

// instruction is one decode-table entry: the step folded into the fetch
// cycle (or kNop if the opcode is 1 machine cycle and does nothing, or has
// no combinational effect to fold) plus the steps that follow it.
type instruction struct {
	Name    string
	Primary Step
	Queue   queue
}

func (ins *instruction) cycles() int { return 1 + len(ins.Queue) }
