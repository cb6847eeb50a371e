// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"math"
	"math/bits"
)

func init() {
	register(map[string]instfunc{
		"lwz":     (*CPU).lwz,
		"lwzu":    (*CPU).lwzu,
		"lwzx":    (*CPU).lwzx,
		"lwzux":   (*CPU).lwzux,
		"lbz":     (*CPU).lbz,
		"lbzu":    (*CPU).lbzu,
		"lbzx":    (*CPU).lbzx,
		"lbzux":   (*CPU).lbzux,
		"lhz":     (*CPU).lhz,
		"lhzu":    (*CPU).lhzu,
		"lhzx":    (*CPU).lhzx,
		"lhzux":   (*CPU).lhzux,
		"lha":     (*CPU).lha,
		"lhau":    (*CPU).lhau,
		"lhax":    (*CPU).lhax,
		"lhaux":   (*CPU).lhaux,
		"stw":     (*CPU).stw,
		"stwu":    (*CPU).stwu,
		"stwx":    (*CPU).stwx,
		"stwux":   (*CPU).stwux,
		"stb":     (*CPU).stb,
		"stbu":    (*CPU).stbu,
		"stbx":    (*CPU).stbx,
		"stbux":   (*CPU).stbux,
		"sth":     (*CPU).sth,
		"sthu":    (*CPU).sthu,
		"sthx":    (*CPU).sthx,
		"sthux":   (*CPU).sthux,
		"lmw":     (*CPU).lmw,
		"stmw":    (*CPU).stmw,
		"lwbrx":   (*CPU).lwbrx,
		"lhbrx":   (*CPU).lhbrx,
		"stwbrx":  (*CPU).stwbrx,
		"sthbrx":  (*CPU).sthbrx,
		"lwarx":   (*CPU).lwarx,
		"stwcxRc": (*CPU).stwcxRc,
		"lfs":     (*CPU).lfs,
		"lfsu":    (*CPU).lfsu,
		"lfsx":    (*CPU).lfsx,
		"lfsux":   (*CPU).lfsux,
		"lfd":     (*CPU).lfd,
		"lfdu":    (*CPU).lfdu,
		"lfdx":    (*CPU).lfdx,
		"lfdux":   (*CPU).lfdux,
		"stfs":    (*CPU).stfs,
		"stfsu":   (*CPU).stfsu,
		"stfsx":   (*CPU).stfsx,
		"stfsux":  (*CPU).stfsux,
		"stfd":    (*CPU).stfd,
		"stfdu":   (*CPU).stfdu,
		"stfdx":   (*CPU).stfdx,
		"stfdux":  (*CPU).stfdux,
	})
}

// Data accesses. A failed access raises a DSI and reports false; the
// instruction must then leave its destination registers untouched.

func (c *CPU) read8(ea uint32) (uint8, bool) {
	v, ok := c.Mem.Read8(ea)
	if !ok {
		c.raiseDSI(ea, false)
	}
	return v, ok
}

func (c *CPU) read16(ea uint32) (uint16, bool) {
	v, ok := c.Mem.Read16(ea)
	if !ok {
		c.raiseDSI(ea, false)
	}
	return v, ok
}

func (c *CPU) read32(ea uint32) (uint32, bool) {
	v, ok := c.Mem.Read32(ea)
	if !ok {
		c.raiseDSI(ea, false)
	}
	return v, ok
}

func (c *CPU) read64(ea uint32) (uint64, bool) {
	v, ok := c.Mem.Read64(ea)
	if !ok {
		c.raiseDSI(ea, false)
	}
	return v, ok
}

func (c *CPU) stored(ea uint32, size int, v uint64, ok bool) bool {
	if !ok {
		c.raiseDSI(ea, true)
		return false
	}
	if c.debugger != nil && c.debugger.onDataStore(c, ea, size, v) {
		c.dataHit = true
	}
	return true
}

func (c *CPU) write8(ea uint32, v uint8) bool {
	return c.stored(ea, 1, uint64(v), c.Mem.Write8(ea, v))
}

func (c *CPU) write16(ea uint32, v uint16) bool {
	return c.stored(ea, 2, uint64(v), c.Mem.Write16(ea, v))
}

func (c *CPU) write32(ea uint32, v uint32) bool {
	return c.stored(ea, 4, uint64(v), c.Mem.Write32(ea, v))
}

func (c *CPU) write64(ea uint32, v uint64) bool {
	return c.stored(ea, 8, v, c.Mem.Write64(ea, v))
}

// Effective address forms

func (c *CPU) eaD(inst Inst) uint32 {
	return c.gprOrZero(inst.RA()) + uint32(inst.SIMM())
}

func (c *CPU) eaDU(inst Inst) uint32 {
	return c.Reg.GPR[inst.RA()] + uint32(inst.SIMM())
}

func (c *CPU) eaX(inst Inst) uint32 {
	return c.gprOrZero(inst.RA()) + c.Reg.GPR[inst.RB()]
}

func (c *CPU) eaXU(inst Inst) uint32 {
	return c.Reg.GPR[inst.RA()] + c.Reg.GPR[inst.RB()]
}

// Load and store bodies shared by the addressing forms. Update forms write
// the effective address back to rA only when the access succeeds.

func (c *CPU) loadWord(inst Inst, ea uint32, update bool) {
	if v, ok := c.read32(ea); ok {
		c.Reg.GPR[inst.RD()] = v
		if update {
			c.Reg.GPR[inst.RA()] = ea
		}
	}
}

func (c *CPU) loadByte(inst Inst, ea uint32, update bool) {
	if v, ok := c.read8(ea); ok {
		c.Reg.GPR[inst.RD()] = uint32(v)
		if update {
			c.Reg.GPR[inst.RA()] = ea
		}
	}
}

func (c *CPU) loadHalf(inst Inst, ea uint32, update, signed bool) {
	if v, ok := c.read16(ea); ok {
		if signed {
			c.Reg.GPR[inst.RD()] = uint32(int32(int16(v)))
		} else {
			c.Reg.GPR[inst.RD()] = uint32(v)
		}
		if update {
			c.Reg.GPR[inst.RA()] = ea
		}
	}
}

func (c *CPU) storeWord(inst Inst, ea uint32, update bool) {
	if c.write32(ea, c.Reg.GPR[inst.RS()]) && update {
		c.Reg.GPR[inst.RA()] = ea
	}
}

func (c *CPU) storeByte(inst Inst, ea uint32, update bool) {
	if c.write8(ea, uint8(c.Reg.GPR[inst.RS()])) && update {
		c.Reg.GPR[inst.RA()] = ea
	}
}

func (c *CPU) storeHalf(inst Inst, ea uint32, update bool) {
	if c.write16(ea, uint16(c.Reg.GPR[inst.RS()])) && update {
		c.Reg.GPR[inst.RA()] = ea
	}
}

func (c *CPU) lwz(inst Inst)   { c.loadWord(inst, c.eaD(inst), false) }
func (c *CPU) lwzu(inst Inst)  { c.loadWord(inst, c.eaDU(inst), true) }
func (c *CPU) lwzx(inst Inst)  { c.loadWord(inst, c.eaX(inst), false) }
func (c *CPU) lwzux(inst Inst) { c.loadWord(inst, c.eaXU(inst), true) }
func (c *CPU) lbz(inst Inst)   { c.loadByte(inst, c.eaD(inst), false) }
func (c *CPU) lbzu(inst Inst)  { c.loadByte(inst, c.eaDU(inst), true) }
func (c *CPU) lbzx(inst Inst)  { c.loadByte(inst, c.eaX(inst), false) }
func (c *CPU) lbzux(inst Inst) { c.loadByte(inst, c.eaXU(inst), true) }
func (c *CPU) lhz(inst Inst)   { c.loadHalf(inst, c.eaD(inst), false, false) }
func (c *CPU) lhzu(inst Inst)  { c.loadHalf(inst, c.eaDU(inst), true, false) }
func (c *CPU) lhzx(inst Inst)  { c.loadHalf(inst, c.eaX(inst), false, false) }
func (c *CPU) lhzux(inst Inst) { c.loadHalf(inst, c.eaXU(inst), true, false) }
func (c *CPU) lha(inst Inst)   { c.loadHalf(inst, c.eaD(inst), false, true) }
func (c *CPU) lhau(inst Inst)  { c.loadHalf(inst, c.eaDU(inst), true, true) }
func (c *CPU) lhax(inst Inst)  { c.loadHalf(inst, c.eaX(inst), false, true) }
func (c *CPU) lhaux(inst Inst) { c.loadHalf(inst, c.eaXU(inst), true, true) }
func (c *CPU) stw(inst Inst)   { c.storeWord(inst, c.eaD(inst), false) }
func (c *CPU) stwu(inst Inst)  { c.storeWord(inst, c.eaDU(inst), true) }
func (c *CPU) stwx(inst Inst)  { c.storeWord(inst, c.eaX(inst), false) }
func (c *CPU) stwux(inst Inst) { c.storeWord(inst, c.eaXU(inst), true) }
func (c *CPU) stb(inst Inst)   { c.storeByte(inst, c.eaD(inst), false) }
func (c *CPU) stbu(inst Inst)  { c.storeByte(inst, c.eaDU(inst), true) }
func (c *CPU) stbx(inst Inst)  { c.storeByte(inst, c.eaX(inst), false) }
func (c *CPU) stbux(inst Inst) { c.storeByte(inst, c.eaXU(inst), true) }
func (c *CPU) sth(inst Inst)   { c.storeHalf(inst, c.eaD(inst), false) }
func (c *CPU) sthu(inst Inst)  { c.storeHalf(inst, c.eaDU(inst), true) }
func (c *CPU) sthx(inst Inst)  { c.storeHalf(inst, c.eaX(inst), false) }
func (c *CPU) sthux(inst Inst) { c.storeHalf(inst, c.eaXU(inst), true) }

func (c *CPU) lmw(inst Inst) {
	ea := c.eaD(inst)
	if ea&3 != 0 {
		c.raiseAlignment(ea, inst)
		return
	}
	for r := inst.RD(); r < 32; r++ {
		v, ok := c.read32(ea)
		if !ok {
			return
		}
		c.Reg.GPR[r] = v
		ea += 4
	}
}

func (c *CPU) stmw(inst Inst) {
	ea := c.eaD(inst)
	if ea&3 != 0 {
		c.raiseAlignment(ea, inst)
		return
	}
	for r := inst.RS(); r < 32; r++ {
		if !c.write32(ea, c.Reg.GPR[r]) {
			return
		}
		ea += 4
	}
}

func (c *CPU) lwbrx(inst Inst) {
	if v, ok := c.read32(c.eaX(inst)); ok {
		c.Reg.GPR[inst.RD()] = bits.ReverseBytes32(v)
	}
}

func (c *CPU) lhbrx(inst Inst) {
	if v, ok := c.read16(c.eaX(inst)); ok {
		c.Reg.GPR[inst.RD()] = uint32(bits.ReverseBytes16(v))
	}
}

func (c *CPU) stwbrx(inst Inst) {
	c.write32(c.eaX(inst), bits.ReverseBytes32(c.Reg.GPR[inst.RS()]))
}

func (c *CPU) sthbrx(inst Inst) {
	c.write16(c.eaX(inst), bits.ReverseBytes16(uint16(c.Reg.GPR[inst.RS()])))
}

func (c *CPU) lwarx(inst Inst) {
	ea := c.eaX(inst)
	if v, ok := c.read32(ea); ok {
		c.Reg.GPR[inst.RD()] = v
		c.reserved = true
		c.reserveAddr = ea
	}
}

func (c *CPU) stwcxRc(inst Inst) {
	ea := c.eaX(inst)
	var f uint32
	if c.reserved && c.reserveAddr == ea {
		if !c.write32(ea, c.Reg.GPR[inst.RS()]) {
			return
		}
		f = CREQ
	}
	c.reserved = false
	if c.Reg.XER&XERSO != 0 {
		f |= CRSO
	}
	c.Reg.SetCRField(0, f)
}

// Floating point loads and stores

func (c *CPU) loadSingle(inst Inst, ea uint32, update bool) {
	if v, ok := c.read32(ea); ok {
		c.Reg.FPR[inst.RD()] = float64(math.Float32frombits(v))
		if update {
			c.Reg.GPR[inst.RA()] = ea
		}
	}
}

func (c *CPU) loadDouble(inst Inst, ea uint32, update bool) {
	if v, ok := c.read64(ea); ok {
		c.Reg.FPR[inst.RD()] = math.Float64frombits(v)
		if update {
			c.Reg.GPR[inst.RA()] = ea
		}
	}
}

func (c *CPU) storeSingle(inst Inst, ea uint32, update bool) {
	v := math.Float32bits(float32(c.Reg.FPR[inst.RS()]))
	if c.write32(ea, v) && update {
		c.Reg.GPR[inst.RA()] = ea
	}
}

func (c *CPU) storeDouble(inst Inst, ea uint32, update bool) {
	v := math.Float64bits(c.Reg.FPR[inst.RS()])
	if c.write64(ea, v) && update {
		c.Reg.GPR[inst.RA()] = ea
	}
}

func (c *CPU) lfs(inst Inst)    { c.loadSingle(inst, c.eaD(inst), false) }
func (c *CPU) lfsu(inst Inst)   { c.loadSingle(inst, c.eaDU(inst), true) }
func (c *CPU) lfsx(inst Inst)   { c.loadSingle(inst, c.eaX(inst), false) }
func (c *CPU) lfsux(inst Inst)  { c.loadSingle(inst, c.eaXU(inst), true) }
func (c *CPU) lfd(inst Inst)    { c.loadDouble(inst, c.eaD(inst), false) }
func (c *CPU) lfdu(inst Inst)   { c.loadDouble(inst, c.eaDU(inst), true) }
func (c *CPU) lfdx(inst Inst)   { c.loadDouble(inst, c.eaX(inst), false) }
func (c *CPU) lfdux(inst Inst)  { c.loadDouble(inst, c.eaXU(inst), true) }
func (c *CPU) stfs(inst Inst)   { c.storeSingle(inst, c.eaD(inst), false) }
func (c *CPU) stfsu(inst Inst)  { c.storeSingle(inst, c.eaDU(inst), true) }
func (c *CPU) stfsx(inst Inst)  { c.storeSingle(inst, c.eaX(inst), false) }
func (c *CPU) stfsux(inst Inst) { c.storeSingle(inst, c.eaXU(inst), true) }
func (c *CPU) stfd(inst Inst)   { c.storeDouble(inst, c.eaD(inst), false) }
func (c *CPU) stfdu(inst Inst)  { c.storeDouble(inst, c.eaDU(inst), true) }
func (c *CPU) stfdx(inst Inst)  { c.storeDouble(inst, c.eaX(inst), false) }
func (c *CPU) stfdux(inst Inst) { c.storeDouble(inst, c.eaXU(inst), true) }
