// exec_float.go - single-precision float execution, the F extension

package emu64

import "math"

// execFloat dispatches a FamFloat instruction onto the SoftFloat unit and
// the typed FPR/GPR files. Rd/Rs1/Rs2/Rs3 carry either an FP or GP index
// depending on the operation (a load/store address base, fcvt/fmv GPR
// sides, and compare/classify destinations are all GP; everything else is
// FP), matching what decode32.go already resolved.
//
// Grounded on the teacher's fpu_ie64.go register-file shape, generalized
// from its host-FPU arithmetic to calls into softfloat.go; the quiet-vs-
// signaling NaN comparison rule is applied here: feq raises Invalid only
// for a signaling NaN operand, flt/fle raise it for any NaN operand.
func (c *CPU) execFloat(in Instr, startPC uint64) {
	switch in.Op {
	case OpFlw:
		addr := c.GPR.Get(in.Rs1) + uint64(in.Imm)
		v, err := c.mem.ReadU32(addr)
		if err != nil {
			c.RequestTrap(CauseLoadPageFault, addr)
			return
		}
		c.FPR.SetSingle(in.Rd, v)
		return
	case OpFsw:
		addr := c.GPR.Get(in.Rs1) + uint64(in.Imm)
		if err := c.mem.WriteU32(addr, c.FPR.GetSingle(in.Rs2)); err != nil {
			c.RequestTrap(CauseStorePageFault, addr)
		}
		return
	}

	rm := in.RM
	if rm == RoundDynamic {
		rm = c.CSR.RoundingMode()
		if reservedRM(rm) {
			c.RequestTrap(CauseIllegalInstruction, startPC)
			return
		}
	}
	switch in.Op {
	case OpFaddS:
		c.FPR.SetSingle(in.Rd, c.FP.Add(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), rm))
	case OpFsubS:
		c.FPR.SetSingle(in.Rd, c.FP.Sub(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), rm))
	case OpFmulS:
		c.FPR.SetSingle(in.Rd, c.FP.Mul(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), rm))
	case OpFdivS:
		c.FPR.SetSingle(in.Rd, c.FP.Div(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), rm))
	case OpFsqrtS:
		c.FPR.SetSingle(in.Rd, c.FP.Sqrt(c.FPR.GetSingle(in.Rs1), rm))

	case OpFmaddS:
		c.FPR.SetSingle(in.Rd, c.FP.MulAdd(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), c.FPR.GetSingle(in.Rs3), rm))
	case OpFmsubS:
		c.FPR.SetSingle(in.Rd, c.FP.MulAdd(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), negateF32(c.FPR.GetSingle(in.Rs3)), rm))
	case OpFnmsubS:
		c.FPR.SetSingle(in.Rd, negateF32(c.FP.MulAdd(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), negateF32(c.FPR.GetSingle(in.Rs3)), rm)))
	case OpFnmaddS:
		c.FPR.SetSingle(in.Rd, negateF32(c.FP.MulAdd(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), c.FPR.GetSingle(in.Rs3), rm)))

	case OpFsgnjS:
		c.FPR.SetSingle(in.Rd, sgnj(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), false, false))
	case OpFsgnjnS:
		c.FPR.SetSingle(in.Rd, sgnj(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), true, false))
	case OpFsgnjxS:
		c.FPR.SetSingle(in.Rd, sgnj(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2), false, true))

	case OpFminS:
		c.FPR.SetSingle(in.Rd, c.FP.Min(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2)))
	case OpFmaxS:
		c.FPR.SetSingle(in.Rd, c.FP.Max(c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2)))

	case OpFeqS:
		a, b := c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2)
		if IsSignalingNaN(a) || IsSignalingNaN(b) {
			c.CSR.RaiseFlags(FlagInvalid)
		}
		c.GPR.Set(in.Rd, boolU64(c.FP.Eq(a, b)))
	case OpFltS:
		a, b := c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2)
		if IsNaN(a) || IsNaN(b) {
			c.CSR.RaiseFlags(FlagInvalid)
		}
		c.GPR.Set(in.Rd, boolU64(c.FP.Lt(a, b)))
	case OpFleS:
		a, b := c.FPR.GetSingle(in.Rs1), c.FPR.GetSingle(in.Rs2)
		if IsNaN(a) || IsNaN(b) {
			c.CSR.RaiseFlags(FlagInvalid)
		}
		c.GPR.Set(in.Rd, boolU64(c.FP.Le(a, b)))

	case OpFclassS:
		c.GPR.Set(in.Rd, uint64(1)<<uint(FClassify(c.FPR.GetSingle(in.Rs1))))

	case OpFcvtWS:
		c.GPR.Set(in.Rd, uint64(int64(f32ToInt32(c.FPR.GetSingle(in.Rs1), c))))
	case OpFcvtWuS:
		c.GPR.Set(in.Rd, uint64(int64(int32(f32ToUint32(c.FPR.GetSingle(in.Rs1), c)))))
	case OpFcvtSW:
		c.FPR.SetSingle(in.Rd, bits32(float32(int32(c.GPR.Get(in.Rs1)))))
	case OpFcvtSWu:
		c.FPR.SetSingle(in.Rd, bits32(float32(uint32(c.GPR.Get(in.Rs1)))))

	case OpFmvXW:
		c.GPR.Set(in.Rd, uint64(int64(int32(c.FPR.GetSingle(in.Rs1)))))
	case OpFmvWX:
		c.FPR.SetSingle(in.Rd, uint32(c.GPR.Get(in.Rs1)))
	}
}

func negateF32(bits uint32) uint32 { return bits ^ f32SignMask }

// sgnj implements fsgnj/fsgnjn/fsgnjx: the magnitude of a with a sign bit
// derived from b (optionally inverted, or XORed for fsgnjx).
func sgnj(a, b uint32, invert, xor bool) uint32 {
	mag := a &^ f32SignMask
	sign := b & f32SignMask
	switch {
	case xor:
		sign = (a & f32SignMask) ^ sign
		return mag | sign
	case invert:
		sign ^= f32SignMask
	}
	return mag | sign
}

// f32ToInt32/f32ToUint32 implement fcvt.w.s/fcvt.wu.s: out-of-range and NaN
// inputs saturate to the representable extreme per the RISC-V ISA manual's
// invalid-conversion rule, raising the Invalid flag.
func f32ToInt32(bits uint32, c *CPU) int32 {
	v := f32(bits)
	switch {
	case IsNaN(bits):
		c.CSR.RaiseFlags(FlagInvalid)
		return math.MaxInt32
	case v >= float32(math.MaxInt32):
		c.CSR.RaiseFlags(FlagInvalid)
		return math.MaxInt32
	case v < float32(math.MinInt32):
		c.CSR.RaiseFlags(FlagInvalid)
		return math.MinInt32
	}
	return int32(v)
}

func f32ToUint32(bits uint32, c *CPU) uint32 {
	v := f32(bits)
	switch {
	case IsNaN(bits):
		c.CSR.RaiseFlags(FlagInvalid)
		return math.MaxUint32
	case v >= float32(math.MaxUint32):
		c.CSR.RaiseFlags(FlagInvalid)
		return math.MaxUint32
	case v < 0:
		c.CSR.RaiseFlags(FlagInvalid)
		return 0
	}
	return uint32(v)
}
