// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "github.com/beevik/gekko/dispatch"

// An Inst is a raw 32-bit instruction word. Its methods extract the operand
// fields used by the PowerPC instruction forms.
type Inst uint32

func (i Inst) field(shift, width uint) uint32 {
	return dispatch.Field(uint32(i), shift, width)
}

func (i Inst) OPCD() uint32 { return i.field(26, 6) }
func (i Inst) RD() uint32   { return i.field(21, 5) }
func (i Inst) RS() uint32   { return i.field(21, 5) }
func (i Inst) TO() uint32   { return i.field(21, 5) }
func (i Inst) BO() uint32   { return i.field(21, 5) }
func (i Inst) CRBD() uint32 { return i.field(21, 5) }
func (i Inst) RA() uint32   { return i.field(16, 5) }
func (i Inst) BI() uint32   { return i.field(16, 5) }
func (i Inst) CRBA() uint32 { return i.field(16, 5) }
func (i Inst) RB() uint32   { return i.field(11, 5) }
func (i Inst) SH() uint32   { return i.field(11, 5) }
func (i Inst) CRBB() uint32 { return i.field(11, 5) }
func (i Inst) RC() uint32   { return i.field(6, 5) }
func (i Inst) MB() uint32   { return i.field(6, 5) }
func (i Inst) ME() uint32   { return i.field(1, 5) }
func (i Inst) CRFD() uint32 { return i.field(23, 3) }
func (i Inst) CRFS() uint32 { return i.field(18, 3) }
func (i Inst) CRM() uint32  { return i.field(12, 8) }
func (i Inst) FM() uint32   { return i.field(17, 8) }
func (i Inst) UIMM() uint32 { return i.field(0, 16) }

// XO returns the 10-bit extended opcode of X-form instructions.
func (i Inst) XO() uint32 { return i.field(1, 10) }

// SIMM returns the sign-extended 16-bit immediate.
func (i Inst) SIMM() int32 { return int32(int16(i.field(0, 16))) }

// LI returns the sign-extended byte displacement of an I-form branch.
func (i Inst) LI() int32 { return int32(uint32(i)<<6) >> 6 &^ 3 }

// BD returns the sign-extended byte displacement of a B-form branch.
func (i Inst) BD() int32 { return int32(int16(i.field(0, 16))) &^ 3 }

// SPR returns the special purpose register number, whose two 5-bit halves
// are encoded swapped.
func (i Inst) SPR() uint16 {
	return uint16(i.field(16, 5) | i.field(11, 5)<<5)
}

func (i Inst) Rc() bool { return i&1 != 0 }
func (i Inst) LK() bool { return i&1 != 0 }
func (i Inst) AA() bool { return i&2 != 0 }
func (i Inst) OE() bool { return i&(1<<10) != 0 }
