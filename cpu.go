// cpu.go - the fetch/decode/execute core and its control loop

package emu64

import (
	"sync"
	"sync/atomic"
)

// pollInterval is how many steps run_with_poll executes between checks of
// the external debug adapter's poll callback.
const pollInterval = 1024

// HartID is the single hart this core models.
const HartID = 0

// CPU owns the architectural state of one hart: registers, memory, CSRs,
// the program counter, the cycle counter, run-state, the breakpoint set,
// and the pending-trap flag. It drives the fetch/decode/execute loop and
// is the object a DebugAdapter wraps.
//
// Grounded on the teacher's cpu_ie64.go CPU64 struct and Execute() loop,
// generalized from a continuously-spinning `for running` loop (with an
// atomic.Bool suspend flag) into a single-step step() plus a
// run_with_poll driver, and from IE64's custom opcode space to decode.go's
// RV64GC opcode space.
type CPU struct {
	GPR GPRFile
	FPR FPRFile
	CSR *CSRBank
	FP  *SoftFloat

	mem *Memory
	ext Extensions

	PC     uint64
	Cycles uint64

	state   RunState
	running atomic.Bool

	trap pendingTrap

	bpMu        sync.RWMutex
	breakpoints map[uint64]bool
}

// NewCPU constructs a CPU over mem with the given supported extensions.
// Registers and PC are zero; run-state begins Paused, matching the
// lifecycle the spec describes. Callers normally set PC to the memory's
// bootrom base before the first step.
func NewCPU(mem *Memory, ext Extensions) *CPU {
	c := &CPU{
		CSR:         NewCSRBank(ext),
		mem:         mem,
		ext:         ext,
		state:       StatePaused,
		breakpoints: make(map[uint64]bool),
	}
	c.FP = NewSoftFloat(c.CSR)
	return c
}

// Memory exposes the CPU's backing Memory, e.g. for a debug adapter's
// byte-range read/write.
func (c *CPU) Memory() *Memory { return c.mem }

// Extensions reports the supported-extension set this CPU was built with.
func (c *CPU) Extensions() Extensions { return c.ext }

// State reports the current run-state.
func (c *CPU) State() RunState { return c.state }

// SetState sets the run-state; used by a debug adapter to move the CPU to
// Running or Paused.
func (c *CPU) SetState(s RunState) {
	c.state = s
	c.running.Store(s == StateRunning)
}

// IsRunning reports the lock-free running flag, safe to poll from a
// debug-adapter goroutine without touching c.state directly.
func (c *CPU) IsRunning() bool { return c.running.Load() }

// AddBreakpoint/RemoveBreakpoint/HasBreakpoint/Breakpoints manage the
// breakpoint set, checked against PC before each fetch.
func (c *CPU) AddBreakpoint(addr uint64) {
	c.bpMu.Lock()
	c.breakpoints[addr] = true
	c.bpMu.Unlock()
}

func (c *CPU) RemoveBreakpoint(addr uint64) bool {
	c.bpMu.Lock()
	defer c.bpMu.Unlock()
	if _, ok := c.breakpoints[addr]; ok {
		delete(c.breakpoints, addr)
		return true
	}
	return false
}

func (c *CPU) HasBreakpoint(addr uint64) bool {
	c.bpMu.RLock()
	defer c.bpMu.RUnlock()
	return c.breakpoints[addr]
}

func (c *CPU) Breakpoints() []uint64 {
	c.bpMu.RLock()
	defer c.bpMu.RUnlock()
	out := make([]uint64, 0, len(c.breakpoints))
	for a := range c.breakpoints {
		out = append(out, a)
	}
	return out
}

// RequestTrap records a pending trap: mcause := cause, mtval := mtval, and
// marks entry pending for the start of the next step(). It does not
// itself alter PC or any register.
func (c *CPU) RequestTrap(cause TrapCause, mtval uint64) {
	c.trap = pendingTrap{active: true, cause: cause, mtval: mtval}
}

// enterTrap performs trap entry: write mcause/mtval, jump PC to mtvec.
// Per spec.md §9 (an intentionally preserved Open Question decision, see
// DESIGN.md), this does not touch mepc or mstatus.
func (c *CPU) enterTrap() {
	cause := c.trap.cause
	c.CSR.Write(CSRMCause, uint64(cause))
	c.CSR.Write(CSRMTVal, c.trap.mtval)
	mtvec, _ := c.CSR.Read(CSRMTVec)
	c.PC = mtvec
	c.trap = pendingTrap{}
}

// Step executes exactly one instruction (or one trap entry, or a
// breakpoint stop) per the algorithm in spec.md §4.1:
//  1. increment cycles
//  2. if a trap is pending, enter it and return Stepped
//  3. if PC is a breakpoint, return HitBreakpoint without executing
//  4. fetch+decode at PC; on decode failure the decoder already
//     requested a trap, so this step still reports Stepped
//  5. advance PC past the decoded instruction
//  6. dispatch to the family executor
func (c *CPU) Step() StepResult {
	c.Cycles++

	if c.trap.active {
		c.enterTrap()
		return Stepped
	}

	if c.HasBreakpoint(c.PC) {
		return HitBreakpoint
	}

	startPC := c.PC
	instr, size, ok := c.decode(startPC)
	if !ok {
		return Stepped
	}
	c.PC = startPC + uint64(size)
	c.dispatch(instr, startPC)
	return Stepped
}

// dispatch routes a decoded instruction to its family's executor.
func (c *CPU) dispatch(in Instr, startPC uint64) {
	switch in.Family {
	case FamInteger:
		c.execInteger(in, startPC)
	case FamFloat:
		c.execFloat(in, startPC)
	case FamCSR, FamSystem:
		c.execSystem(in, startPC)
	case FamAtomic:
		c.execAtomic(in, startPC)
	}
}

// RunWithPoll drives Step repeatedly while run-state is Running. Every
// pollInterval steps it invokes poll(); if poll returns true, RunWithPoll
// returns (false, StopBreakpoint) immediately to signal "external data
// pending" to the caller without a meaningful stop reason. Returns
// (true, reason) if stopped by a breakpoint or by the state having been
// set to Paused.
func (c *CPU) RunWithPoll(poll func() bool) (stopped bool, reason StopReason) {
	steps := 0
	for c.state == StateRunning {
		res := c.Step()
		steps++
		if res == HitBreakpoint {
			return true, StopBreakpoint
		}
		if c.state == StatePaused {
			return true, StopPaused
		}
		if steps%pollInterval == 0 {
			if poll() {
				return false, 0
			}
		}
	}
	return true, StopPaused
}

// Reset restores the CPU to its post-construction lifecycle state:
// registers and PC zero, CSRs reinitialized, run-state Paused, pending
// trap cleared. The breakpoint set and backing Memory are untouched.
//
// Adapted from the teacher's component_reset.go Resetable contract.
func (c *CPU) Reset() {
	c.GPR.Reset()
	c.FPR.Reset()
	c.CSR.Reset(c.ext)
	c.PC = 0
	c.Cycles = 0
	c.state = StatePaused
	c.running.Store(false)
	c.trap = pendingTrap{}
}
