// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "github.com/beevik/gekko/internal/log"

// Exception is a bit mask of pending processor exceptions.
type Exception uint32

const (
	ExceptionISI Exception = 1 << iota
	ExceptionDSI
	ExceptionAlignment
	ExceptionProgram
	ExceptionFPUUnavailable
	ExceptionSyscall
	ExceptionDecrementer
	ExceptionExternal
)

// Exception vectors, relative to the exception prefix.
const (
	VectorDSI            = 0x300
	VectorISI            = 0x400
	VectorExternal       = 0x500
	VectorAlignment      = 0x600
	VectorProgram        = 0x700
	VectorFPUUnavailable = 0x800
	VectorDecrementer    = 0x900
	VectorSyscall        = 0xc00
)

// Program exception reasons, reported in SRR1.
const (
	ProgramIllegal    = 1 << 19
	ProgramPrivileged = 1 << 18
	ProgramTrap       = 1 << 17
)

// DSISR bits
const (
	DSISRPage  = 1 << 30 // no translation for the address
	DSISRStore = 1 << 25 // the access was a store
)

const (
	// exceptionPrefix is OR'd into vectors when MSR[IP] is set.
	exceptionPrefix = 0xfff00000

	// srr1Mask selects the MSR bits saved to SRR1.
	srr1Mask = 0x87c0ffff

	// msrClear holds the MSR bits cleared on entry to a handler.
	msrClear = MSRPOW | MSREE | MSRPR | MSRFP | MSRFE0 | MSRSE | MSRBE |
		MSRFE1 | MSRIR | MSRDR | MSRRI

	// synchronous exceptions are caused by the instruction being executed
	// and are resolved before the step completes.
	synchronous = ExceptionISI | ExceptionDSI | ExceptionAlignment |
		ExceptionProgram | ExceptionFPUUnavailable | ExceptionSyscall
)

// Raise marks an exception as pending.
func (c *CPU) Raise(e Exception) {
	c.pending |= e
}

// Pending returns the mask of pending exceptions.
func (c *CPU) Pending() Exception {
	return c.pending
}

// raiseDSI records a data storage fault at 'ea'.
func (c *CPU) raiseDSI(ea uint32, store bool) {
	c.Reg.DAR = ea
	c.Reg.DSISR = DSISRPage
	if store {
		c.Reg.DSISR |= DSISRStore
	}
	c.Raise(ExceptionDSI)
}

// raiseAlignment records a misaligned access at 'ea'.
func (c *CPU) raiseAlignment(ea uint32, inst Inst) {
	c.Reg.DAR = ea
	c.Reg.DSISR = (uint32(inst) >> 16) & 0x3ff
	c.Raise(ExceptionAlignment)
}

func (c *CPU) raiseProgram(reason uint32) {
	c.programReason = reason
	c.Raise(ExceptionProgram)
}

// enter transfers control to the handler at 'vector'. 'srr0' is the address
// the handler returns to and 'extra' holds additional SRR1 bits.
func (c *CPU) enter(e Exception, vector, srr0, extra uint32) {
	c.Reg.SRR0 = srr0
	c.Reg.SRR1 = c.Reg.MSR&srr1Mask | extra
	if c.Reg.MSR&MSRILE != 0 {
		c.Reg.MSR |= MSRLE
	} else {
		c.Reg.MSR &^= MSRLE
	}
	c.Reg.MSR &^= msrClear
	if c.Reg.MSR&MSRIP != 0 {
		vector |= exceptionPrefix
	}
	c.Cursor.NPC = vector
	c.pending &^= e
	log.Debug(log.PowerPC, "exception %s at %08X, handler %08X", e, srr0, vector)
}

// CheckExceptions resolves the highest priority pending synchronous
// exception by redirecting Cursor.NPC to its handler. It returns true if an
// exception was taken.
func (c *CPU) CheckExceptions() bool {
	pc := c.Cursor.PC
	switch e := c.pending; {
	case e&ExceptionISI != 0:
		c.enter(ExceptionISI, VectorISI, pc, 1<<30)
	case e&ExceptionDSI != 0:
		c.enter(ExceptionDSI, VectorDSI, pc, 0)
	case e&ExceptionAlignment != 0:
		c.enter(ExceptionAlignment, VectorAlignment, pc, 0)
	case e&ExceptionProgram != 0:
		c.enter(ExceptionProgram, VectorProgram, pc, c.programReason)
		c.programReason = 0
	case e&ExceptionFPUUnavailable != 0:
		c.enter(ExceptionFPUUnavailable, VectorFPUUnavailable, pc, 0)
	case e&ExceptionSyscall != 0:
		c.enter(ExceptionSyscall, VectorSyscall, c.Cursor.NPC, 0)
	default:
		return c.checkExternal()
	}
	return true
}

// checkExternal takes a pending external or decrementer interrupt if
// MSR[EE] allows it. The handler returns to Cursor.NPC.
func (c *CPU) checkExternal() bool {
	if c.Reg.MSR&MSREE == 0 {
		return false
	}
	switch e := c.pending; {
	case e&ExceptionExternal != 0:
		c.enter(ExceptionExternal, VectorExternal, c.Cursor.NPC, 0)
	case e&ExceptionDecrementer != 0:
		c.enter(ExceptionDecrementer, VectorDecrementer, c.Cursor.NPC, 0)
	default:
		return false
	}
	return true
}

// CheckExternalExceptions takes a pending external or decrementer interrupt
// between steps. It returns true if an interrupt was taken.
func (c *CPU) CheckExternalExceptions() bool {
	if !c.checkExternal() {
		return false
	}
	c.Cursor.PC = c.Cursor.NPC
	return true
}

func (e Exception) String() string {
	names := []string{"ISI", "DSI", "alignment", "program", "FPU unavailable",
		"system call", "decrementer", "external"}
	s := ""
	for i, n := range names {
		if e&(1<<i) != 0 {
			if s != "" {
				s += "|"
			}
			s += n
		}
	}
	if s == "" {
		return "none"
	}
	return s
}
