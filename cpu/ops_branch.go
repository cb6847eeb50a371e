// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

func init() {
	register(map[string]instfunc{
		"b":      (*CPU).b,
		"bc":     (*CPU).bc,
		"bclr":   (*CPU).bclr,
		"bcctr":  (*CPU).bcctr,
		"mcrf":   (*CPU).mcrf,
		"mcrxr":  (*CPU).mcrxr,
		"mtcrf":  (*CPU).mtcrf,
		"mfcr":   (*CPU).mfcr,
		"crand":  (*CPU).crand,
		"crandc": (*CPU).crandc,
		"creqv":  (*CPU).creqv,
		"crnand": (*CPU).crnand,
		"crnor":  (*CPU).crnor,
		"cror":   (*CPU).cror,
		"crorc":  (*CPU).crorc,
		"crxor":  (*CPU).crxor,
	})
}

// BO field bits
const (
	boIgnoreCond = 0x10 // branch regardless of the CR bit
	boCondTrue   = 0x08 // branch if the CR bit is set
	boIgnoreCTR  = 0x04 // do not decrement or test CTR
	boCTRZero    = 0x02 // branch if the decremented CTR is zero
)

// ctrOK decrements CTR if the BO field asks for it and reports whether the
// CTR condition holds.
func (c *CPU) ctrOK(bo uint32) bool {
	if bo&boIgnoreCTR != 0 {
		return true
	}
	c.Reg.CTR--
	return (c.Reg.CTR != 0) != (bo&boCTRZero != 0)
}

func (c *CPU) condOK(bo, bi uint32) bool {
	return bo&boIgnoreCond != 0 || c.Reg.CRBit(bi) == (bo&boCondTrue != 0)
}

func (c *CPU) link(inst Inst) {
	if inst.LK() {
		c.Reg.LR = c.Cursor.PC + InstWidth
	}
}

func (c *CPU) b(inst Inst) {
	target := uint32(inst.LI())
	if !inst.AA() {
		target += c.Cursor.PC
	}
	c.link(inst)
	c.Cursor.NPC = target
}

func (c *CPU) bc(inst Inst) {
	bo := inst.BO()
	ctr := c.ctrOK(bo)
	if ctr && c.condOK(bo, inst.BI()) {
		target := uint32(inst.BD())
		if !inst.AA() {
			target += c.Cursor.PC
		}
		c.Cursor.NPC = target
	}
	c.link(inst)
}

func (c *CPU) bclr(inst Inst) {
	bo := inst.BO()
	ctr := c.ctrOK(bo)
	if ctr && c.condOK(bo, inst.BI()) {
		c.Cursor.NPC = c.Reg.LR &^ 3
	}
	c.link(inst)
}

func (c *CPU) bcctr(inst Inst) {
	if c.condOK(inst.BO(), inst.BI()) {
		c.Cursor.NPC = c.Reg.CTR &^ 3
	}
	c.link(inst)
}

func (c *CPU) mcrf(inst Inst) {
	c.Reg.SetCRField(inst.CRFD(), c.Reg.CRField(inst.CRFS()))
}

func (c *CPU) mcrxr(inst Inst) {
	c.Reg.SetCRField(inst.CRFD(), c.Reg.XER>>28)
	c.Reg.XER &^= 0xf0000000
}

func (c *CPU) mtcrf(inst Inst) {
	crm := inst.CRM()
	var mask uint32
	for i := uint32(0); i < 8; i++ {
		if crm&(0x80>>i) != 0 {
			mask |= 0xf0000000 >> (4 * i)
		}
	}
	c.Reg.CR = c.Reg.CR&^mask | c.Reg.GPR[inst.RS()]&mask
}

func (c *CPU) mfcr(inst Inst) {
	c.Reg.GPR[inst.RD()] = c.Reg.CR
}

// crLogic applies 'op' to CR bits crbA and crbB and stores the result in
// crbD.
func (c *CPU) crLogic(inst Inst, op func(a, b bool) bool) {
	a, b := c.Reg.CRBit(inst.CRBA()), c.Reg.CRBit(inst.CRBB())
	c.Reg.SetCRBit(inst.CRBD(), op(a, b))
}

func (c *CPU) crand(inst Inst)  { c.crLogic(inst, func(a, b bool) bool { return a && b }) }
func (c *CPU) crandc(inst Inst) { c.crLogic(inst, func(a, b bool) bool { return a && !b }) }
func (c *CPU) creqv(inst Inst)  { c.crLogic(inst, func(a, b bool) bool { return a == b }) }
func (c *CPU) crnand(inst Inst) { c.crLogic(inst, func(a, b bool) bool { return !(a && b) }) }
func (c *CPU) crnor(inst Inst)  { c.crLogic(inst, func(a, b bool) bool { return !(a || b) }) }
func (c *CPU) cror(inst Inst)   { c.crLogic(inst, func(a, b bool) bool { return a || b }) }
func (c *CPU) crorc(inst Inst)  { c.crLogic(inst, func(a, b bool) bool { return a || !b }) }
func (c *CPU) crxor(inst Inst)  { c.crLogic(inst, func(a, b bool) bool { return a != b }) }
