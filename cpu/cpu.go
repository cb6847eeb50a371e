// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements an interpreter for the Gekko PowerPC instruction
// set. Instructions are decoded by a compiled dispatch forest and executed
// in timing blocks whose length is governed by an external clock.
package cpu

import (
	"github.com/beevik/gekko/dispatch"
	"github.com/beevik/gekko/internal/log"
)

// InstWidth is the size of an instruction word in bytes.
const InstWidth = 4

// DefaultSlice is the cycle budget per timing slice used when no clock is
// attached.
const DefaultSlice = 20000

// TimeBaseDivisor is the number of CPU cycles per time base and
// decrementer tick.
const TimeBaseDivisor = 12

const decrementerEvent = "Decrementer"

// A Clock supplies the cycle budget of each timing slice. Advance is called
// at the start of every slice with the downcount remaining from the previous
// one (zero or negative once the budget is spent) and returns the budget of
// the new slice.
type Clock interface {
	Advance(downcount int) int
}

// An EventScheduler is a Clock that can also deliver timed callbacks. The
// CPU uses it to raise decrementer interrupts.
type EventScheduler interface {
	ScheduleEvent(cycles int64, name string, fn func(late int64))
	RemoveEvent(name string)
}

// A SliceLimiter is a Clock whose current slice can be cut short. Single
// stepping uses it so that the clock is credited only with the cycles that
// were executed.
type SliceLimiter interface {
	LimitSlice(cycles int)
}

type fixedClock int

func (f fixedClock) Advance(int) int { return int(f) }

// Breakpoints are consulted before each step while debugging.
type Breakpoints interface {
	IsBreakpoint(addr uint32) bool
	RemoveIfTemporary(addr uint32)
}

// A Cursor tracks the execution position of the CPU.
type Cursor struct {
	PC        uint32 // address of the current instruction
	NPC       uint32 // address of the next instruction
	LastPC    uint32 // address of the previously executed instruction
	PrevInst  Inst   // most recently fetched instruction word
	EndBlock  bool   // the current timing block has ended
	Downcount int    // cycles remaining in the current slice
}

// CPU represents a single Gekko CPU.
type CPU struct {
	Reg     Registers       // CPU registers
	Mem     Memory          // assigned memory
	Cursor  Cursor          // execution position
	Cycles  uint64          // total executed CPU cycles
	InstSet *InstructionSet // instruction set used by the CPU
	Control *Control        // run state

	clock         Clock
	hooks         HookRegistry
	breakpoints   Breakpoints
	debugger      *Debugger
	reporter      Reporter
	pending       Exception
	programReason uint32
	dataHit       bool
	reserved      bool
	reserveAddr   uint32
	tbStamp       uint64
	decStamp      uint64
}

// NewCPU creates an emulated Gekko CPU bound to the specified memory.
func NewCPU(m Memory) *CPU {
	c := &CPU{
		Mem:      m,
		InstSet:  GetInstructionSet(),
		Control:  &Control{},
		clock:    fixedClock(DefaultSlice),
		reporter: LogInvalidInstruction,
	}
	c.Reg.Init()
	return c
}

// SetPC moves execution to 'addr'.
func (c *CPU) SetPC(addr uint32) {
	c.Cursor.PC = addr
	c.Cursor.NPC = addr
}

// AttachClock attaches the clock that supplies timing slices.
func (c *CPU) AttachClock(clock Clock) {
	c.clock = clock
}

// AttachHooks attaches a registry of function hooks.
func (c *CPU) AttachHooks(hooks HookRegistry) {
	c.hooks = hooks
}

// AttachBreakpoints enables debug mode, in which 'b' is consulted before
// every step.
func (c *CPU) AttachBreakpoints(b Breakpoints) {
	c.breakpoints = b
}

// AttachDebugger attaches a debugger to the CPU and enables debug mode. The
// debugger receives notifications whenever the CPU reaches a breakpoint or
// stores to a watched address.
func (c *CPU) AttachDebugger(d *Debugger) {
	c.debugger = d
	c.breakpoints = d
}

// DetachDebugger detaches the debugger from the CPU and leaves debug mode.
func (c *CPU) DetachDebugger() {
	c.debugger = nil
	c.breakpoints = nil
}

// SetReporter replaces the function that reports invalid instructions.
func (c *CPU) SetReporter(r Reporter) {
	c.reporter = r
}

// Step fetches, decodes and executes one instruction and returns its cycle
// cost. The only error returned is *InvalidInstructionError, after which the
// CPU is stopped with the cursor left on the offending instruction.
func (c *CPU) Step() (int, error) {
	cur := &c.Cursor

	word, ok := c.Mem.ReadInstruction(cur.PC)
	if !ok {
		cur.NPC = cur.PC + InstWidth
		c.Raise(ExceptionISI)
		c.CheckExceptions()
		cur.EndBlock = true
		cur.LastPC = cur.PC
		cur.PC = cur.NPC
		return 0, nil
	}
	inst := Inst(word)
	cur.PrevInst = inst

	id := c.InstSet.Decode(word)
	if id == dispatch.Invalid {
		err := &InvalidInstructionError{Addr: cur.PC, LastPC: cur.LastPC, Word: word, LR: c.Reg.LR}
		c.Control.Break()
		cur.EndBlock = true
		if c.reporter != nil {
			c.reporter(cur, &c.Reg, err)
		}
		return 0, err
	}

	info := &c.InstSet.info[id]
	cycles := int(info.Cycles)

	// A replaced instruction costs its normal cycles and ends the block.
	cur.NPC = cur.PC + InstWidth
	if c.hooks != nil {
		switch c.hooks.Intercept(c, cur.PC) {
		case HookReplace:
			cur.EndBlock = true
			cur.LastPC = cur.PC
			cur.PC = cur.NPC
			c.Cycles += uint64(cycles)
			return cycles, nil
		case HookStart:
			cur.NPC = cur.PC + InstWidth
		}
	}

	switch {
	case info.Flags&FlagUseFPU != 0 && c.Reg.MSR&MSRFP == 0:
		c.Raise(ExceptionFPUUnavailable)
	case info.Flags&FlagPrivileged != 0 && c.Reg.MSR&MSRPR != 0:
		c.raiseProgram(ProgramPrivileged)
	default:
		c.InstSet.fn[id](c, inst)
		if info.Flags&FlagEndBlock != 0 {
			cur.EndBlock = true
		}
	}

	if c.pending&synchronous != 0 {
		c.CheckExceptions()
		cur.EndBlock = true
	}
	if c.dataHit {
		c.dataHit = false
		c.Control.Break()
		cur.EndBlock = true
	}

	cur.LastPC = cur.PC
	cur.PC = cur.NPC

	c.Cycles += uint64(cycles)
	return cycles, nil
}

// beginSlice ends the previous timing slice and starts the next one.
func (c *CPU) beginSlice() {
	c.Cursor.Downcount = c.clock.Advance(c.Cursor.Downcount)
	c.CheckExternalExceptions()
}

// Run executes instructions while the CPU's state is Running. In debug mode
// the breakpoints and the run state are checked before every step, and Run
// returns without executing an instruction that has a breakpoint.
func (c *CPU) Run() error {
	for c.Control.State() == Running {
		c.beginSlice()

		for c.Cursor.Downcount > 0 {
			c.Cursor.EndBlock = false
			cycles := 0
			for !c.Cursor.EndBlock {
				if c.breakpoints != nil && c.checkBreak() {
					c.Cursor.Downcount -= cycles
					return nil
				}
				n, err := c.Step()
				cycles += n
				if err != nil {
					c.Cursor.Downcount -= cycles
					return err
				}
			}
			c.Cursor.Downcount -= cycles
		}
	}
	return nil
}

// checkBreak returns true if execution must stop before the current
// instruction.
func (c *CPU) checkBreak() bool {
	if c.Control.State() != Running {
		return true
	}

	pc := c.Cursor.PC
	if !c.breakpoints.IsBreakpoint(pc) {
		return false
	}

	log.Info(log.PowerPC, "Hit Breakpoint - %08X", pc)
	c.Control.Break()

	var b *Breakpoint
	if c.debugger != nil {
		b = c.debugger.GetBreakpoint(pc)
	}
	c.breakpoints.RemoveIfTemporary(pc)
	if b != nil {
		c.debugger.onBreakpoint(c, b)
	}
	return true
}

// SingleStep starts a new timing slice, executes exactly one instruction
// and resolves any exception it left pending.
func (c *CPU) SingleStep() error {
	c.Control.SetState(Stepping)
	defer c.Control.SetState(Stopped)

	c.beginSlice()
	n, err := c.Step()
	if l, ok := c.clock.(SliceLimiter); ok {
		l.LimitSlice(n)
	}
	c.Cursor.Downcount = 0

	if err == nil && c.pending != 0 && c.CheckExceptions() {
		c.Cursor.PC = c.Cursor.NPC
	}
	return err
}

// TimeBase returns the current value of the time base.
func (c *CPU) TimeBase() uint64 {
	return c.Reg.TB + (c.Cycles-c.tbStamp)/TimeBaseDivisor
}

// SetTimeBase sets the time base.
func (c *CPU) SetTimeBase(v uint64) {
	c.Reg.TB = v
	c.tbStamp = c.Cycles
}

// Decrementer returns the current value of the decrementer.
func (c *CPU) Decrementer() uint32 {
	return c.Reg.DEC - uint32((c.Cycles-c.decStamp)/TimeBaseDivisor)
}

// SetDecrementer loads the decrementer. If the attached clock schedules
// events, a decrementer interrupt is raised when the count passes zero.
func (c *CPU) SetDecrementer(v uint32) {
	c.Reg.DEC = v
	c.decStamp = c.Cycles

	s, ok := c.clock.(EventScheduler)
	if !ok {
		return
	}
	s.RemoveEvent(decrementerEvent)
	if int32(v) >= 0 {
		s.ScheduleEvent((int64(v)+1)*TimeBaseDivisor, decrementerEvent, func(int64) {
			c.Raise(ExceptionDecrementer)
		})
	}
}
