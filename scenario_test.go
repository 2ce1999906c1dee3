// scenario_test.go - the end-to-end scenarios and cross-cutting
// invariants this core's instruction set must satisfy, each instruction
// hand-assembled from the RISC-V bit layouts decode32.go/decode16.go
// implement.
//
// Grounded on the teacher's memory_bus_test.go style: small, direct
// assertions against freshly constructed core objects, no test harness
// abstraction layer.

package emu64

import "testing"

func newTestCPU(t *testing.T, size uint64) *CPU {
	t.Helper()
	mem, err := NewMemoryBuilder().
		WithPhysicalSize(size).
		WithMapping(0, 0, size).
		Build()
	if err != nil {
		t.Fatalf("building test memory: %v", err)
	}
	return NewCPU(mem, Base())
}

func encodeR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	hi := (u >> 5) & 0x7F
	lo := u & 0x1F
	return hi<<25 | rs2<<20 | rs1<<15 | funct3<<12 | lo<<7 | opcode
}

func encodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 1
	bit11 := (u >> 11) & 1
	bits10_5 := (u >> 5) & 0x3F
	bits4_1 := (u >> 1) & 0xF
	return bit12<<31 | bits10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | bits4_1<<8 | bit11<<7 | opcode
}

// encodeU takes imm as the raw 20-bit upper-immediate field value (what
// decodeImmU's instr&0xFFFFF000 will reproduce when shifted left 12);
// the final register value after execution is imm<<12.
func encodeU(opcode, rd, imm uint32) uint32 {
	return (imm&0xFFFFF)<<12 | rd<<7 | opcode
}

func encodeJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 1
	bits10_1 := (u >> 1) & 0x3FF
	bit11 := (u >> 11) & 1
	bits19_12 := (u >> 12) & 0xFF
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | rd<<7 | opcode
}

// Full 7-bit RISC-V major opcodes (bits[1:0] always 0b11 for these
// 32-bit forms), used only to hand-assemble test instruction words.
// Named distinctly from decode32.go's own opXxx constants, which store
// the narrower 5-bit opcodeOf() field instead.
const (
	testOpLoad   = 0x03
	testOpStore  = 0x23
	testOpOpImm  = 0x13
	testOpLui    = 0x37
	testOpBranch = 0x63
	testOpJal    = 0x6F
	testOpJalr   = 0x67
	testOpAmo    = 0x2F
)

func putWord(t *testing.T, c *CPU, addr uint64, w uint32) {
	t.Helper()
	if err := c.mem.WriteU32(addr, w); err != nil {
		t.Fatalf("writing instruction word at %#x: %v", addr, err)
	}
}

func putHalf(t *testing.T, c *CPU, addr uint64, h uint16) {
	t.Helper()
	if err := c.mem.WriteU16(addr, h); err != nil {
		t.Fatalf("writing instruction half at %#x: %v", addr, err)
	}
}

// Scenario 1: LUI + ADDI + store byte to a UART-like MMIO callback.
func TestScenarioUARTByteStore(t *testing.T) {
	var captured byte
	mem, err := NewMemoryBuilder().
		WithPhysicalSize(0x1000).
		WithMapping(0x2000, 0, 0x1000).
		WithMMIO(0x10000000, func(uint64) uint8 { return 0 }, func(addr uint64, v uint8) { captured = v }).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	c := NewCPU(mem, Base())
	c.PC = 0x2000

	putWord(t, c, 0x2000, encodeU(testOpLui, 10, 0x10000))       // lui x10, 0x10000
	putWord(t, c, 0x2004, encodeI(testOpOpImm, 0, 11, 0, 0x41))  // addi x11,x0,0x41
	putWord(t, c, 0x2008, encodeS(testOpStore, 0, 10, 11, 0))    // sb x11,0(x10)

	for i := 0; i < 3; i++ {
		c.Step()
	}

	if captured != 0x41 {
		t.Fatalf("UART captured %#x, want 0x41", captured)
	}
	if got := c.GPR.Get(GP(10)); got != 0x10000000 {
		t.Fatalf("x10 = %#x, want 0x10000000", got)
	}
	if got := c.GPR.Get(GP(11)); got != 0x41 {
		t.Fatalf("x11 = %#x, want 0x41", got)
	}
}

// Scenario 2: a taken branch skips the instruction immediately after it.
func TestScenarioBranchTaken(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	putWord(t, c, 0, encodeI(testOpOpImm, 0, 1, 0, 5))           // addi x1,x0,5
	putWord(t, c, 4, encodeI(testOpOpImm, 0, 2, 0, 5))           // addi x2,x0,5
	putWord(t, c, 8, encodeB(testOpBranch, 0, 1, 2, 8))          // beq x1,x2,+8
	putWord(t, c, 12, encodeI(testOpOpImm, 0, 3, 0, 99))         // addi x3,x0,99 (skipped)
	putWord(t, c, 16, encodeI(testOpOpImm, 0, 4, 0, 7))          // addi x4,x0,7

	for i := 0; i < 4; i++ {
		c.Step()
	}

	if got := c.GPR.Get(GP(3)); got != 0 {
		t.Fatalf("x3 = %d, want 0 (branch should have skipped its write)", got)
	}
	if got := c.GPR.Get(GP(4)); got != 7 {
		t.Fatalf("x4 = %d, want 7", got)
	}
}

// Scenario 3: JAL records the return address and jumps.
func TestScenarioJALReturnAddress(t *testing.T) {
	c := newTestCPU(t, 0x2000)
	c.PC = 0x1000
	putWord(t, c, 0x1000, encodeJ(testOpJal, 1, 0x20)) // jal x1, +0x20

	c.Step()

	if c.PC != 0x1020 {
		t.Fatalf("PC = %#x, want 0x1020", c.PC)
	}
	if got := c.GPR.Get(GP(1)); got != 0x1004 {
		t.Fatalf("x1 = %#x, want 0x1004", got)
	}
}

// Scenario 4: the compressed c.addi16sp form adjusts the stack pointer by
// a signed, non-byte-granular immediate (here -16) and advances PC by 2.
func TestScenarioCompressedAddi16sp(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	c.GPR.Set(GP(RegSP), 0x8001_0000)
	// c.addi16sp x2, -16: funct3=011, rd=x2, nzimm[9]=1 in bit 12 and
	// nzimm[4|6|8:7|5]=11111 in bits 6:2, i.e. 0x3F0 = -16 as 10 bits.
	putHalf(t, c, 0, 0x717D)

	c.Step()

	if got := c.GPR.Get(GP(RegSP)); got != 0x8000_FFF0 {
		t.Fatalf("sp = %#x, want 0x8000fff0", got)
	}
	if c.PC != 2 {
		t.Fatalf("PC = %#x, want 2", c.PC)
	}
}

// Scenario 5: load-reserved followed by a same-hart store-conditional with
// no intervening store succeeds and zeroes the destination register.
func TestScenarioLRSCSuccess(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	const addr = 0x100
	if err := c.mem.WriteU32(addr, 0xDEADBEEF); err != nil {
		t.Fatalf("seed: %v", err)
	}
	c.GPR.Set(GP(1), addr)
	c.GPR.Set(GP(6), 0xCAFEBABE)

	putWord(t, c, 0, encodeR(testOpAmo, 0b010, (0b00010<<2), 5, 1, 0)) // lr.w x5,(x1)
	putWord(t, c, 4, encodeR(testOpAmo, 0b010, (0b00011<<2), 7, 1, 6)) // sc.w x7,x6,(x1)

	c.Step()
	if got := c.GPR.Get(GP(5)); got != 0xDEADBEEF {
		t.Fatalf("x5 = %#x, want 0xDEADBEEF", got)
	}
	c.Step()
	if got := c.GPR.Get(GP(7)); got != 0 {
		t.Fatalf("x7 = %d, want 0 (SC should have succeeded)", got)
	}
	v, err := c.mem.ReadU32(addr)
	if err != nil || v != 0xCAFEBABE {
		t.Fatalf("mem[addr] = %#x, err=%v; want 0xCAFEBABE", v, err)
	}
}

// Scenario 6: any intervening store to the reserved line evicts the
// reservation, so the following store-conditional fails without writing.
func TestScenarioLRSCFailureAfterEviction(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	const addr = 0x100
	if err := c.mem.WriteU32(addr, 0xDEADBEEF); err != nil {
		t.Fatalf("seed: %v", err)
	}
	c.GPR.Set(GP(1), addr)
	c.GPR.Set(GP(6), 0xCAFEBABE)
	c.GPR.Set(GP(8), addr+8)
	c.GPR.Set(GP(9), 0x12345678)

	putWord(t, c, 0, encodeR(testOpAmo, 0b010, (0b00010<<2), 5, 1, 0)) // lr.w x5,(x1)
	putWord(t, c, 4, encodeS(testOpStore, 0b010, 8, 9, 0))             // sw x9,0(x8) same 64B line
	putWord(t, c, 8, encodeR(testOpAmo, 0b010, (0b00011<<2), 7, 1, 6)) // sc.w x7,x6,(x1)

	c.Step() // lr.w
	c.Step() // sw (evicts)
	c.Step() // sc.w

	if got := c.GPR.Get(GP(7)); got == 0 {
		t.Fatalf("x7 = 0, want nonzero (SC should have failed)")
	}
	v, err := c.mem.ReadU32(addr)
	if err != nil || v != 0xDEADBEEF {
		t.Fatalf("mem[addr] = %#x, err=%v; want unchanged 0xDEADBEEF", v, err)
	}
}

func TestInvariantR0AlwaysZero(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	putWord(t, c, 0, encodeI(testOpOpImm, 0, 0, 0, 123)) // addi x0,x0,123
	c.Step()
	if got := c.GPR.Get(GP(RegZero)); got != 0 {
		t.Fatalf("x0 = %d, want 0", got)
	}
}

func TestInvariantNaNBoxing(t *testing.T) {
	var f FPRFile
	f.SetSingle(FP(1), 0x3F800000) // 1.0f
	raw := f.GetRaw(FP(1))
	want := uint64(0xFFFFFFFF00000000) | uint64(0x3F800000)
	if raw != want {
		t.Fatalf("raw = %#x, want %#x", raw, want)
	}
}

func TestInvariantMemoryRoundTrip(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	if err := c.mem.WriteU64(0x40, 0x0102030405060708); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, err := c.mem.ReadU64(0x40)
	if err != nil || v != 0x0102030405060708 {
		t.Fatalf("readback = %#x, err=%v", v, err)
	}
}

func TestInvariantStepIncrementsCycleByOne(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	putWord(t, c, 0, encodeI(testOpOpImm, 0, 1, 0, 1))
	before := c.Cycles
	c.Step()
	if c.Cycles != before+1 {
		t.Fatalf("cycles = %d, want %d", c.Cycles, before+1)
	}
}

func TestInvariantTrapEntryNextStep(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	putWord(t, c, 0, 0xFFFFFFFF) // not a legal instruction: illegal-instruction trap

	c.Step() // decode fails, trap requested but not yet entered
	if c.PC != 0 {
		t.Fatalf("PC = %#x after the faulting decode, want unchanged 0 (trap entry is deferred)", c.PC)
	}

	c.Step() // trap entry happens here
	if c.PC != 0x40000000 {
		t.Fatalf("PC after trap entry = %#x, want mtvec default 0x40000000", c.PC)
	}
	cause, _ := c.CSR.Read(CSRMCause)
	if TrapCause(cause) != CauseIllegalInstruction {
		t.Fatalf("mcause = %d, want %d", cause, CauseIllegalInstruction)
	}
}

// fmv.x.w and fclass.s share funct7 = 0b1110000 and must be distinguished
// by funct3; fclass.s must classify rather than reinterpret bits.
func TestDecodeFclassDistinctFromFmvXW(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	c.FPR.SetSingle(FP(1), 0x3F800000) // 1.0f, a positive normal number

	fmvWord := encodeR(0x53, 0b000, 0b1110000<<0, 10, 1, 0)
	fclassWord := encodeR(0x53, 0b001, 0b1110000<<0, 11, 1, 0)
	putWord(t, c, 0, fmvWord)
	putWord(t, c, 4, fclassWord)

	c.Step()
	if got := c.GPR.Get(GP(10)); got != 0x3F800000 {
		t.Fatalf("fmv.x.w x10 = %#x, want 0x3f800000", got)
	}
	c.Step()
	if got := c.GPR.Get(GP(11)); got != uint64(1)<<uint(ClassPosNormal) {
		t.Fatalf("fclass.s x11 = %#x, want class bit for PosNormal", got)
	}
}

// A reserved rounding-mode encoding (funct3 5 or 6) on an RM-bearing F-op
// must trap as illegal-instruction rather than execute.
func TestDecodeReservedRoundingModeTraps(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	putWord(t, c, 0, encodeR(0x53, 0b101, 0, 10, 1, 2)) // fadd.s with rm=101 (reserved)

	c.Step() // decode fails, trap requested
	c.Step() // trap entry
	if c.PC != 0x40000000 {
		t.Fatalf("PC after trap entry = %#x, want mtvec default 0x40000000", c.PC)
	}
	cause, _ := c.CSR.Read(CSRMCause)
	if TrapCause(cause) != CauseIllegalInstruction {
		t.Fatalf("mcause = %d, want illegal-instruction", cause)
	}
}

// The all-zero c.nop encoding must decode to its own no-op record, not an
// ADDI, even though both have an identical effect on register state.
func TestCompressedNopIsDistinctOp(t *testing.T) {
	c := newTestCPU(t, 0x1000)
	putHalf(t, c, 0, 0x0001) // c.nop
	in, size, ok := c.decode(0)
	if !ok || size != 2 {
		t.Fatalf("decode(c.nop) ok=%v size=%d, want ok=true size=2", ok, size)
	}
	if in.Op != OpNop {
		t.Fatalf("c.nop decoded to Op %v, want OpNop", in.Op)
	}
}

func TestRegisterBulkSetGetRoundTrip(t *testing.T) {
	var g GPRFile
	values := make([]uint64, 31)
	for i := range values {
		values[i] = uint64(i + 1)
	}
	g.BulkSet(values)
	got := g.BulkGet()
	for i, v := range got {
		if v != values[i] {
			t.Fatalf("register %d = %d, want %d", i+1, v, values[i])
		}
	}
	if g.Get(GP(RegZero)) != 0 {
		t.Fatalf("x0 must read 0")
	}
}
