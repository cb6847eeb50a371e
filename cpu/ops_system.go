// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

func init() {
	register(map[string]instfunc{
		"sc":     (*CPU).sc,
		"rfi":    (*CPU).rfi,
		"mtmsr":  (*CPU).mtmsr,
		"mfmsr":  (*CPU).mfmsr,
		"mfspr":  (*CPU).mfspr,
		"mtspr":  (*CPU).mtspr,
		"mftb":   (*CPU).mftb,
		"isync":  (*CPU).nop,
		"sync":   (*CPU).nop,
		"eieio":  (*CPU).nop,
		"dcbst":  (*CPU).nop,
		"dcbf":   (*CPU).nop,
		"dcbt":   (*CPU).nop,
		"dcbtst": (*CPU).nop,
		"dcbi":   (*CPU).nop,
		"icbi":   (*CPU).nop,
		"dcbz":   (*CPU).dcbz,
	})
}

// rfiMask selects the MSR bits restored from SRR1.
const rfiMask = 0x87c0ff73

func (c *CPU) nop(inst Inst) {}

func (c *CPU) sc(inst Inst) {
	c.Raise(ExceptionSyscall)
}

func (c *CPU) rfi(inst Inst) {
	c.Reg.MSR = c.Reg.MSR&^rfiMask | c.Reg.SRR1&rfiMask
	c.Reg.MSR &^= MSRPOW
	c.Cursor.NPC = c.Reg.SRR0 &^ 3
	c.checkExternal()
}

func (c *CPU) mtmsr(inst Inst) {
	c.Reg.MSR = c.Reg.GPR[inst.RS()]
	c.checkExternal()
}

func (c *CPU) mfmsr(inst Inst) {
	c.Reg.GPR[inst.RD()] = c.Reg.MSR
}

// privilegedSPR returns true if user mode access to 'spr' traps.
func privilegedSPR(spr uint16) bool {
	return spr&0x10 != 0
}

func (c *CPU) mfspr(inst Inst) {
	spr := inst.SPR()
	if privilegedSPR(spr) && c.Reg.MSR&MSRPR != 0 {
		c.raiseProgram(ProgramPrivileged)
		return
	}
	var v uint32
	switch spr {
	case SPRDEC:
		v = c.Decrementer()
	case SPRTBL:
		v = uint32(c.TimeBase())
	case SPRTBU:
		v = uint32(c.TimeBase() >> 32)
	default:
		v = c.Reg.SPR(spr)
	}
	c.Reg.GPR[inst.RD()] = v
}

func (c *CPU) mtspr(inst Inst) {
	spr := inst.SPR()
	if privilegedSPR(spr) && c.Reg.MSR&MSRPR != 0 {
		c.raiseProgram(ProgramPrivileged)
		return
	}
	v := c.Reg.GPR[inst.RS()]
	switch spr {
	case SPRDEC:
		c.SetDecrementer(v)
	case SPRTBLW:
		c.SetTimeBase(c.TimeBase()&^0xffffffff | uint64(v))
	case SPRTBUW:
		c.SetTimeBase(c.TimeBase()&0xffffffff | uint64(v)<<32)
	default:
		c.Reg.SetSPR(spr, v)
	}
}

func (c *CPU) mftb(inst Inst) {
	switch inst.SPR() {
	case SPRTBL:
		c.Reg.GPR[inst.RD()] = uint32(c.TimeBase())
	case SPRTBU:
		c.Reg.GPR[inst.RD()] = uint32(c.TimeBase() >> 32)
	default:
		c.raiseProgram(ProgramIllegal)
	}
}

// dcbz zeroes the 32-byte cache block containing the effective address.
func (c *CPU) dcbz(inst Inst) {
	ea := c.eaX(inst) &^ 31
	for i := uint32(0); i < 32; i += 8 {
		if !c.write64(ea+i, 0) {
			return
		}
	}
}
