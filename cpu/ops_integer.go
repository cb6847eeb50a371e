// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "math/bits"

func init() {
	register(map[string]instfunc{
		"twi":     (*CPU).twi,
		"tw":      (*CPU).tw,
		"mulli":   (*CPU).mulli,
		"subfic":  (*CPU).subfic,
		"cmpli":   (*CPU).cmpli,
		"cmpi":    (*CPU).cmpi,
		"cmp":     (*CPU).cmp,
		"cmpl":    (*CPU).cmpl,
		"addic":   (*CPU).addic,
		"addicRc": (*CPU).addicRc,
		"addi":    (*CPU).addi,
		"addis":   (*CPU).addis,
		"rlwimi":  (*CPU).rlwimi,
		"rlwinm":  (*CPU).rlwinm,
		"rlwnm":   (*CPU).rlwnm,
		"ori":     (*CPU).ori,
		"oris":    (*CPU).oris,
		"xori":    (*CPU).xori,
		"xoris":   (*CPU).xoris,
		"andiRc":  (*CPU).andiRc,
		"andisRc": (*CPU).andisRc,
		"add":     (*CPU).add,
		"addc":    (*CPU).addc,
		"adde":    (*CPU).adde,
		"addze":   (*CPU).addze,
		"addme":   (*CPU).addme,
		"subf":    (*CPU).subf,
		"subfc":   (*CPU).subfc,
		"subfe":   (*CPU).subfe,
		"subfze":  (*CPU).subfze,
		"subfme":  (*CPU).subfme,
		"neg":     (*CPU).neg,
		"mulhw":   (*CPU).mulhw,
		"mulhwu":  (*CPU).mulhwu,
		"mullw":   (*CPU).mullw,
		"divw":    (*CPU).divw,
		"divwu":   (*CPU).divwu,
		"and":     (*CPU).and,
		"andc":    (*CPU).andc,
		"or":      (*CPU).or,
		"orc":     (*CPU).orc,
		"xor":     (*CPU).xor,
		"nor":     (*CPU).nor,
		"nand":    (*CPU).nand,
		"eqv":     (*CPU).eqv,
		"slw":     (*CPU).slw,
		"srw":     (*CPU).srw,
		"sraw":    (*CPU).sraw,
		"srawi":   (*CPU).srawi,
		"cntlzw":  (*CPU).cntlzw,
		"extsb":   (*CPU).extsb,
		"extsh":   (*CPU).extsh,
	})
}

// updateCR0 sets CR0 from the signed comparison of 'v' against zero.
func (c *CPU) updateCR0(v uint32) {
	var f uint32
	switch {
	case int32(v) < 0:
		f = CRLT
	case v > 0:
		f = CRGT
	default:
		f = CREQ
	}
	if c.Reg.XER&XERSO != 0 {
		f |= CRSO
	}
	c.Reg.SetCRField(0, f)
}

// compare returns a condition register field for a comparison result.
func (c *CPU) compare(lt, gt bool) uint32 {
	var f uint32
	switch {
	case lt:
		f = CRLT
	case gt:
		f = CRGT
	default:
		f = CREQ
	}
	if c.Reg.XER&XERSO != 0 {
		f |= CRSO
	}
	return f
}

// gprOrZero returns rA, or zero when the field names r0.
func (c *CPU) gprOrZero(ra uint32) uint32 {
	if ra == 0 {
		return 0
	}
	return c.Reg.GPR[ra]
}

// addCarry returns a+b+carry along with the carry out and the signed
// overflow of the addition.
func addCarry(a, b, carry uint32) (r uint32, ca, ov bool) {
	r, co := bits.Add32(a, b, carry)
	ov = (a^r)&(b^r)&0x80000000 != 0
	return r, co != 0, ov
}

// setRA stores a logical result in rA, updating CR0 when Rc is set.
func (c *CPU) setRA(inst Inst, v uint32) {
	c.Reg.GPR[inst.RA()] = v
	if inst.Rc() {
		c.updateCR0(v)
	}
}

// setXO stores an XO-form arithmetic result in rD, updating XER[OV] when OE
// is set and CR0 when Rc is set.
func (c *CPU) setXO(inst Inst, v uint32, ov bool) {
	c.Reg.GPR[inst.RD()] = v
	if inst.OE() {
		c.Reg.SetOverflow(ov)
	}
	if inst.Rc() {
		c.updateCR0(v)
	}
}

// Trap conditions of the TO field
const (
	trapLT  = 0x10
	trapGT  = 0x08
	trapEQ  = 0x04
	trapLTU = 0x02
	trapGTU = 0x01
)

func (c *CPU) trap(to, a, b uint32) {
	sa, sb := int32(a), int32(b)
	if (sa < sb && to&trapLT != 0) ||
		(sa > sb && to&trapGT != 0) ||
		(a == b && to&trapEQ != 0) ||
		(a < b && to&trapLTU != 0) ||
		(a > b && to&trapGTU != 0) {
		c.raiseProgram(ProgramTrap)
	}
}

func (c *CPU) twi(inst Inst) {
	c.trap(inst.TO(), c.Reg.GPR[inst.RA()], uint32(inst.SIMM()))
}

func (c *CPU) tw(inst Inst) {
	c.trap(inst.TO(), c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()])
}

func (c *CPU) mulli(inst Inst) {
	c.Reg.GPR[inst.RD()] = uint32(int32(c.Reg.GPR[inst.RA()]) * inst.SIMM())
}

func (c *CPU) subfic(inst Inst) {
	r, ca, _ := addCarry(^c.Reg.GPR[inst.RA()], uint32(inst.SIMM()), 1)
	c.Reg.GPR[inst.RD()] = r
	c.Reg.SetCarry(ca)
}

func (c *CPU) cmpi(inst Inst) {
	a, b := int32(c.Reg.GPR[inst.RA()]), inst.SIMM()
	c.Reg.SetCRField(inst.CRFD(), c.compare(a < b, a > b))
}

func (c *CPU) cmpli(inst Inst) {
	a, b := c.Reg.GPR[inst.RA()], inst.UIMM()
	c.Reg.SetCRField(inst.CRFD(), c.compare(a < b, a > b))
}

func (c *CPU) cmp(inst Inst) {
	a, b := int32(c.Reg.GPR[inst.RA()]), int32(c.Reg.GPR[inst.RB()])
	c.Reg.SetCRField(inst.CRFD(), c.compare(a < b, a > b))
}

func (c *CPU) cmpl(inst Inst) {
	a, b := c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()]
	c.Reg.SetCRField(inst.CRFD(), c.compare(a < b, a > b))
}

func (c *CPU) addic(inst Inst) {
	r, ca, _ := addCarry(c.Reg.GPR[inst.RA()], uint32(inst.SIMM()), 0)
	c.Reg.GPR[inst.RD()] = r
	c.Reg.SetCarry(ca)
}

func (c *CPU) addicRc(inst Inst) {
	c.addic(inst)
	c.updateCR0(c.Reg.GPR[inst.RD()])
}

func (c *CPU) addi(inst Inst) {
	c.Reg.GPR[inst.RD()] = c.gprOrZero(inst.RA()) + uint32(inst.SIMM())
}

func (c *CPU) addis(inst Inst) {
	c.Reg.GPR[inst.RD()] = c.gprOrZero(inst.RA()) + uint32(inst.SIMM())<<16
}

// rotMask returns the mask of ones from bit 'mb' through bit 'me',
// numbered from the most significant bit and wrapping around.
func rotMask(mb, me uint32) uint32 {
	begin := uint32(0xffffffff) >> mb
	end := uint32(0x7fffffff) >> me
	mask := begin ^ end
	if me < mb {
		return ^mask
	}
	return mask
}

func (c *CPU) rlwimi(inst Inst) {
	m := rotMask(inst.MB(), inst.ME())
	r := bits.RotateLeft32(c.Reg.GPR[inst.RS()], int(inst.SH()))
	c.setRA(inst, c.Reg.GPR[inst.RA()]&^m|r&m)
}

func (c *CPU) rlwinm(inst Inst) {
	m := rotMask(inst.MB(), inst.ME())
	c.setRA(inst, bits.RotateLeft32(c.Reg.GPR[inst.RS()], int(inst.SH()))&m)
}

func (c *CPU) rlwnm(inst Inst) {
	m := rotMask(inst.MB(), inst.ME())
	n := int(c.Reg.GPR[inst.RB()] & 0x1f)
	c.setRA(inst, bits.RotateLeft32(c.Reg.GPR[inst.RS()], n)&m)
}

func (c *CPU) ori(inst Inst) {
	c.Reg.GPR[inst.RA()] = c.Reg.GPR[inst.RS()] | inst.UIMM()
}

func (c *CPU) oris(inst Inst) {
	c.Reg.GPR[inst.RA()] = c.Reg.GPR[inst.RS()] | inst.UIMM()<<16
}

func (c *CPU) xori(inst Inst) {
	c.Reg.GPR[inst.RA()] = c.Reg.GPR[inst.RS()] ^ inst.UIMM()
}

func (c *CPU) xoris(inst Inst) {
	c.Reg.GPR[inst.RA()] = c.Reg.GPR[inst.RS()] ^ inst.UIMM()<<16
}

func (c *CPU) andiRc(inst Inst) {
	v := c.Reg.GPR[inst.RS()] & inst.UIMM()
	c.Reg.GPR[inst.RA()] = v
	c.updateCR0(v)
}

func (c *CPU) andisRc(inst Inst) {
	v := c.Reg.GPR[inst.RS()] & (inst.UIMM() << 16)
	c.Reg.GPR[inst.RA()] = v
	c.updateCR0(v)
}

func (c *CPU) add(inst Inst) {
	r, _, ov := addCarry(c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()], 0)
	c.setXO(inst, r, ov)
}

func (c *CPU) addc(inst Inst) {
	r, ca, ov := addCarry(c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()], 0)
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) adde(inst Inst) {
	r, ca, ov := addCarry(c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()], boolToUint32(c.Reg.Carry()))
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) addze(inst Inst) {
	r, ca, ov := addCarry(c.Reg.GPR[inst.RA()], 0, boolToUint32(c.Reg.Carry()))
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) addme(inst Inst) {
	r, ca, ov := addCarry(c.Reg.GPR[inst.RA()], 0xffffffff, boolToUint32(c.Reg.Carry()))
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) subf(inst Inst) {
	r, _, ov := addCarry(^c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()], 1)
	c.setXO(inst, r, ov)
}

func (c *CPU) subfc(inst Inst) {
	r, ca, ov := addCarry(^c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()], 1)
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) subfe(inst Inst) {
	r, ca, ov := addCarry(^c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()], boolToUint32(c.Reg.Carry()))
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) subfze(inst Inst) {
	r, ca, ov := addCarry(^c.Reg.GPR[inst.RA()], 0, boolToUint32(c.Reg.Carry()))
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) subfme(inst Inst) {
	r, ca, ov := addCarry(^c.Reg.GPR[inst.RA()], 0xffffffff, boolToUint32(c.Reg.Carry()))
	c.Reg.SetCarry(ca)
	c.setXO(inst, r, ov)
}

func (c *CPU) neg(inst Inst) {
	a := c.Reg.GPR[inst.RA()]
	c.setXO(inst, -a, a == 0x80000000)
}

func (c *CPU) mulhw(inst Inst) {
	p := int64(int32(c.Reg.GPR[inst.RA()])) * int64(int32(c.Reg.GPR[inst.RB()]))
	c.setXO(inst&^(1<<10), uint32(uint64(p)>>32), false)
}

func (c *CPU) mulhwu(inst Inst) {
	hi, _ := bits.Mul32(c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()])
	c.setXO(inst&^(1<<10), hi, false)
}

func (c *CPU) mullw(inst Inst) {
	p := int64(int32(c.Reg.GPR[inst.RA()])) * int64(int32(c.Reg.GPR[inst.RB()]))
	c.setXO(inst, uint32(p), p != int64(int32(p)))
}

func (c *CPU) divw(inst Inst) {
	a, b := int32(c.Reg.GPR[inst.RA()]), int32(c.Reg.GPR[inst.RB()])
	if b == 0 || (a == -0x80000000 && b == -1) {
		// The result is undefined; the hardware leaves the sign fill.
		var r uint32
		if a < 0 {
			r = 0xffffffff
		}
		c.setXO(inst, r, true)
		return
	}
	c.setXO(inst, uint32(a/b), false)
}

func (c *CPU) divwu(inst Inst) {
	a, b := c.Reg.GPR[inst.RA()], c.Reg.GPR[inst.RB()]
	if b == 0 {
		c.setXO(inst, 0, true)
		return
	}
	c.setXO(inst, a/b, false)
}

func (c *CPU) and(inst Inst) {
	c.setRA(inst, c.Reg.GPR[inst.RS()]&c.Reg.GPR[inst.RB()])
}

func (c *CPU) andc(inst Inst) {
	c.setRA(inst, c.Reg.GPR[inst.RS()]&^c.Reg.GPR[inst.RB()])
}

func (c *CPU) or(inst Inst) {
	c.setRA(inst, c.Reg.GPR[inst.RS()]|c.Reg.GPR[inst.RB()])
}

func (c *CPU) orc(inst Inst) {
	c.setRA(inst, c.Reg.GPR[inst.RS()]|^c.Reg.GPR[inst.RB()])
}

func (c *CPU) xor(inst Inst) {
	c.setRA(inst, c.Reg.GPR[inst.RS()]^c.Reg.GPR[inst.RB()])
}

func (c *CPU) nor(inst Inst) {
	c.setRA(inst, ^(c.Reg.GPR[inst.RS()] | c.Reg.GPR[inst.RB()]))
}

func (c *CPU) nand(inst Inst) {
	c.setRA(inst, ^(c.Reg.GPR[inst.RS()] & c.Reg.GPR[inst.RB()]))
}

func (c *CPU) eqv(inst Inst) {
	c.setRA(inst, ^(c.Reg.GPR[inst.RS()] ^ c.Reg.GPR[inst.RB()]))
}

func (c *CPU) slw(inst Inst) {
	n := c.Reg.GPR[inst.RB()] & 0x3f
	var r uint32
	if n < 32 {
		r = c.Reg.GPR[inst.RS()] << n
	}
	c.setRA(inst, r)
}

func (c *CPU) srw(inst Inst) {
	n := c.Reg.GPR[inst.RB()] & 0x3f
	var r uint32
	if n < 32 {
		r = c.Reg.GPR[inst.RS()] >> n
	}
	c.setRA(inst, r)
}

// shiftRightAlgebraic shifts 's' right by 'n' (0-63) bits, returning the
// result and the carry: set when 's' is negative and ones were shifted out.
func shiftRightAlgebraic(s, n uint32) (uint32, bool) {
	if n > 31 {
		if int32(s) < 0 {
			return 0xffffffff, true
		}
		return 0, false
	}
	r := uint32(int32(s) >> n)
	lost := s & (1<<n - 1)
	return r, int32(s) < 0 && lost != 0
}

func (c *CPU) sraw(inst Inst) {
	r, ca := shiftRightAlgebraic(c.Reg.GPR[inst.RS()], c.Reg.GPR[inst.RB()]&0x3f)
	c.Reg.SetCarry(ca)
	c.setRA(inst, r)
}

func (c *CPU) srawi(inst Inst) {
	r, ca := shiftRightAlgebraic(c.Reg.GPR[inst.RS()], inst.SH())
	c.Reg.SetCarry(ca)
	c.setRA(inst, r)
}

func (c *CPU) cntlzw(inst Inst) {
	c.setRA(inst, uint32(bits.LeadingZeros32(c.Reg.GPR[inst.RS()])))
}

func (c *CPU) extsb(inst Inst) {
	c.setRA(inst, uint32(int32(int8(c.Reg.GPR[inst.RS()]))))
}

func (c *CPU) extsh(inst Inst) {
	c.setRA(inst, uint32(int32(int16(c.Reg.GPR[inst.RS()]))))
}
