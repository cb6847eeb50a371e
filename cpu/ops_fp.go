// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "math"

func init() {
	register(map[string]instfunc{
		"fadd":    (*CPU).fadd,
		"fadds":   (*CPU).fadds,
		"fsub":    (*CPU).fsub,
		"fsubs":   (*CPU).fsubs,
		"fmul":    (*CPU).fmul,
		"fmuls":   (*CPU).fmuls,
		"fdiv":    (*CPU).fdiv,
		"fdivs":   (*CPU).fdivs,
		"fmadd":   (*CPU).fmadd,
		"fmadds":  (*CPU).fmadds,
		"fmsub":   (*CPU).fmsub,
		"fmsubs":  (*CPU).fmsubs,
		"fnmadd":  (*CPU).fnmadd,
		"fnmadds": (*CPU).fnmadds,
		"fnmsub":  (*CPU).fnmsub,
		"fnmsubs": (*CPU).fnmsubs,
		"fsel":    (*CPU).fsel,
		"fmr":     (*CPU).fmr,
		"fneg":    (*CPU).fneg,
		"fabs":    (*CPU).fabs,
		"fnabs":   (*CPU).fnabs,
		"frsp":    (*CPU).frsp,
		"fctiw":   (*CPU).fctiw,
		"fctiwz":  (*CPU).fctiwz,
		"fcmpu":   (*CPU).fcmpu,
		"fcmpo":   (*CPU).fcmpo,
		"mffs":    (*CPU).mffs,
		"mtfsf":   (*CPU).mtfsf,
	})
}

// FPSCR fields
const (
	fpscrFPCCShift = 12
	fpscrRN        = 0x3
)

// setFPR stores a floating point result in frD, copying the FPSCR exception
// summary into CR1 when Rc is set.
func (c *CPU) setFPR(inst Inst, v float64) {
	c.Reg.FPR[inst.RD()] = v
	if inst.Rc() {
		c.Reg.SetCRField(1, c.Reg.FPSCR>>28)
	}
}

func single(v float64) float64 {
	return float64(float32(v))
}

func (c *CPU) fa(inst Inst) float64 { return c.Reg.FPR[inst.RA()] }
func (c *CPU) fb(inst Inst) float64 { return c.Reg.FPR[inst.RB()] }
func (c *CPU) fc(inst Inst) float64 { return c.Reg.FPR[inst.RC()] }

func (c *CPU) fadd(inst Inst)  { c.setFPR(inst, c.fa(inst)+c.fb(inst)) }
func (c *CPU) fadds(inst Inst) { c.setFPR(inst, single(c.fa(inst)+c.fb(inst))) }
func (c *CPU) fsub(inst Inst)  { c.setFPR(inst, c.fa(inst)-c.fb(inst)) }
func (c *CPU) fsubs(inst Inst) { c.setFPR(inst, single(c.fa(inst)-c.fb(inst))) }
func (c *CPU) fmul(inst Inst)  { c.setFPR(inst, c.fa(inst)*c.fc(inst)) }
func (c *CPU) fmuls(inst Inst) { c.setFPR(inst, single(c.fa(inst)*c.fc(inst))) }
func (c *CPU) fdiv(inst Inst)  { c.setFPR(inst, c.fa(inst)/c.fb(inst)) }
func (c *CPU) fdivs(inst Inst) { c.setFPR(inst, single(c.fa(inst)/c.fb(inst))) }

func (c *CPU) fmadd(inst Inst) {
	c.setFPR(inst, math.FMA(c.fa(inst), c.fc(inst), c.fb(inst)))
}

func (c *CPU) fmadds(inst Inst) {
	c.setFPR(inst, single(math.FMA(c.fa(inst), c.fc(inst), c.fb(inst))))
}

func (c *CPU) fmsub(inst Inst) {
	c.setFPR(inst, math.FMA(c.fa(inst), c.fc(inst), -c.fb(inst)))
}

func (c *CPU) fmsubs(inst Inst) {
	c.setFPR(inst, single(math.FMA(c.fa(inst), c.fc(inst), -c.fb(inst))))
}

func (c *CPU) fnmadd(inst Inst) {
	c.setFPR(inst, -math.FMA(c.fa(inst), c.fc(inst), c.fb(inst)))
}

func (c *CPU) fnmadds(inst Inst) {
	c.setFPR(inst, -single(math.FMA(c.fa(inst), c.fc(inst), c.fb(inst))))
}

func (c *CPU) fnmsub(inst Inst) {
	c.setFPR(inst, -math.FMA(c.fa(inst), c.fc(inst), -c.fb(inst)))
}

func (c *CPU) fnmsubs(inst Inst) {
	c.setFPR(inst, -single(math.FMA(c.fa(inst), c.fc(inst), -c.fb(inst))))
}

func (c *CPU) fsel(inst Inst) {
	if a := c.fa(inst); a >= 0 {
		c.setFPR(inst, c.fc(inst))
	} else {
		c.setFPR(inst, c.fb(inst))
	}
}

func (c *CPU) fmr(inst Inst)   { c.setFPR(inst, c.fb(inst)) }
func (c *CPU) fneg(inst Inst)  { c.setFPR(inst, -c.fb(inst)) }
func (c *CPU) fabs(inst Inst)  { c.setFPR(inst, math.Abs(c.fb(inst))) }
func (c *CPU) fnabs(inst Inst) { c.setFPR(inst, -math.Abs(c.fb(inst))) }
func (c *CPU) frsp(inst Inst)  { c.setFPR(inst, single(c.fb(inst))) }

// toInt32 converts 'v' to a saturated 32-bit integer after rounding it with
// 'round'. The result is returned in the low word of a double, as fctiw
// leaves it.
func toInt32(v float64, round func(float64) float64) float64 {
	var i int32
	switch r := round(v); {
	case math.IsNaN(v) || r < math.MinInt32:
		i = math.MinInt32
	case r > math.MaxInt32:
		i = math.MaxInt32
	default:
		i = int32(r)
	}
	return math.Float64frombits(0xfff8000000000000 | uint64(uint32(i)))
}

func (c *CPU) fctiw(inst Inst) {
	var round func(float64) float64
	switch c.Reg.FPSCR & fpscrRN {
	case 0:
		round = math.RoundToEven
	case 1:
		round = math.Trunc
	case 2:
		round = math.Ceil
	default:
		round = math.Floor
	}
	c.setFPR(inst, toInt32(c.fb(inst), round))
}

func (c *CPU) fctiwz(inst Inst) {
	c.setFPR(inst, toInt32(c.fb(inst), math.Trunc))
}

func (c *CPU) fcompare(inst Inst) {
	a, b := c.fa(inst), c.fb(inst)
	var f uint32
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		f = CRSO
	case a < b:
		f = CRLT
	case a > b:
		f = CRGT
	default:
		f = CREQ
	}
	c.Reg.FPSCR = c.Reg.FPSCR&^(0xf<<fpscrFPCCShift) | f<<fpscrFPCCShift
	c.Reg.SetCRField(inst.CRFD(), f)
}

func (c *CPU) fcmpu(inst Inst) { c.fcompare(inst) }
func (c *CPU) fcmpo(inst Inst) { c.fcompare(inst) }

func (c *CPU) mffs(inst Inst) {
	c.setFPR(inst, math.Float64frombits(0xfff8000000000000|uint64(c.Reg.FPSCR)))
}

func (c *CPU) mtfsf(inst Inst) {
	fm := inst.FM()
	var mask uint32
	for i := uint32(0); i < 8; i++ {
		if fm&(0x80>>i) != 0 {
			mask |= 0xf0000000 >> (4 * i)
		}
	}
	v := uint32(math.Float64bits(c.fb(inst)))
	c.Reg.FPSCR = c.Reg.FPSCR&^mask | v&mask
	if inst.Rc() {
		c.Reg.SetCRField(1, c.Reg.FPSCR>>28)
	}
}
