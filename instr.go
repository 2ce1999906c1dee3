// instr.go - decoded instruction record

package emu64

// InstrFamily tags which of the five instruction families a decoded
// Instr belongs to, and therefore which executor (exec_*.go) dispatches
// it.
type InstrFamily uint8

const (
	FamInteger InstrFamily = iota
	FamFloat
	FamCSR
	FamAtomic
	FamSystem // ecall/ebreak (including c.ebreak), routed alongside CSR ops
)

// Op names every concrete operation this core implements, across all
// families. Using one flat enum (rather than a per-family nested type)
// keeps the executor switches in exec_*.go a single flat match, matching
// the teacher's one-giant-switch dispatch idiom in cpu_ie64.go.
type Op uint16

const (
	OpInvalid Op = iota

	// Integer register-register.
	OpAdd
	OpSub
	OpSll
	OpSlt
	OpSltu
	OpXor
	OpSrl
	OpSra
	OpOr
	OpAnd
	OpAddw
	OpSubw
	OpSllw
	OpSrlw
	OpSraw

	// Integer register-immediate (OP-IMM / OP-IMM-32 / their compressed
	// expansions). Kept distinct from the register-register ops above so
	// the executor never has to guess which form produced a given Instr.
	OpAddI
	OpSltI
	OpSltuI
	OpXorI
	OpOrI
	OpAndI
	OpSllI
	OpSrlI
	OpSraI
	OpAddIW
	OpSllIW
	OpSrlIW
	OpSraIW

	// Multiply/divide (M extension).
	OpMul
	OpMulh
	OpMulhsu
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu
	OpMulw
	OpDivw
	OpDivuw
	OpRemw
	OpRemuw

	// Upper-immediate / PC-relative.
	OpLui
	OpAuipc

	// Control transfer.
	OpJal
	OpJalr
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu

	// Loads/stores.
	OpLb
	OpLh
	OpLw
	OpLd
	OpLbu
	OpLhu
	OpLwu
	OpSb
	OpSh
	OpSw
	OpSd

	OpFence
	OpNop // the distinguished c.nop expansion; never folded into OpAddI

	// System.
	OpECall
	OpEBreak

	// CSR.
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI

	// Atomic (A extension).
	OpLRW
	OpSCW
	OpAmoswapW
	OpAmoaddW
	OpAmoxorW
	OpAmoandW
	OpAmoorW
	OpAmominW
	OpAmomaxW
	OpAmominuW
	OpAmomaxuW
	OpLRD
	OpSCD
	OpAmoswapD
	OpAmoaddD
	OpAmoxorD
	OpAmoandD
	OpAmoorD
	OpAmominD
	OpAmomaxD
	OpAmominuD
	OpAmomaxuD

	// Float (F extension, single precision).
	OpFlw
	OpFsw
	OpFaddS
	OpFsubS
	OpFmulS
	OpFdivS
	OpFsqrtS
	OpFsgnjS
	OpFsgnjnS
	OpFsgnjxS
	OpFminS
	OpFmaxS
	OpFcvtWS
	OpFcvtWuS
	OpFmvXW
	OpFeqS
	OpFltS
	OpFleS
	OpFclassS
	OpFcvtSW
	OpFcvtSWu
	OpFmvWX
	OpFmaddS
	OpFmsubS
	OpFnmsubS
	OpFnmaddS
)

// Instr is the tagged instruction record the decoder produces: a family,
// an operation, and whichever operand fields that operation uses.
// Unused fields are simply left zero; keeping one flat struct (rather than
// a union-per-family) is the idiomatic Go rendering of the "discriminated
// union with typed operand fields" the spec calls for, since Go has no
// tagged-union language feature.
type Instr struct {
	Family InstrFamily
	Op     Op

	Rd  RegIndex
	Rs1 RegIndex
	Rs2 RegIndex
	Rs3 RegIndex // fused multiply-add

	Imm   int64  // sign-extended immediate / branch-or-jump offset
	Shamt uint8  // zero-extended shift amount
	CSR   uint16 // 12-bit CSR address
	UImm  uint8  // 5-bit immediate for *I CSR forms

	RM RoundingMode // float rounding mode field (may be RoundDynamic)

	Aq, Rl bool // atomic acquire/release bits; decoded, not enforced
}
