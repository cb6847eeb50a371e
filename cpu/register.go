// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Registers contains the architected state of a Gekko CPU.
type Registers struct {
	GPR   [32]uint32  // general purpose registers
	FPR   [32]float64 // floating point registers (ps0 only)
	CR    uint32      // condition register
	XER   uint32      // fixed point exception register
	LR    uint32      // link register
	CTR   uint32      // count register
	MSR   uint32      // machine state register
	FPSCR uint32      // floating point status and control
	SRR0  uint32      // save/restore register 0
	SRR1  uint32      // save/restore register 1
	DAR   uint32      // data address register
	DSISR uint32      // DSI status register
	DEC   uint32      // decrementer, as of the last write
	TB    uint64      // time base, as of the last write
	SPRG  [4]uint32   // operating system scratch registers
	PVR   uint32      // processor version
	HID   [3]uint32   // hardware implementation registers 0-2
	misc  map[uint16]uint32
}

// MSR bits
const (
	MSRPOW = 1 << 18 // power management
	MSRILE = 1 << 16 // exception little-endian mode
	MSREE  = 1 << 15 // external interrupt enable
	MSRPR  = 1 << 14 // problem (user) state
	MSRFP  = 1 << 13 // floating point available
	MSRME  = 1 << 12 // machine check enable
	MSRFE0 = 1 << 11 // floating point exception mode 0
	MSRSE  = 1 << 10 // single-step trace
	MSRBE  = 1 << 9  // branch trace
	MSRFE1 = 1 << 8  // floating point exception mode 1
	MSRIP  = 1 << 6  // exception prefix
	MSRIR  = 1 << 5  // instruction address translation
	MSRDR  = 1 << 4  // data address translation
	MSRRI  = 1 << 1  // recoverable exception
	MSRLE  = 1 << 0  // little-endian mode
)

// XER bits
const (
	XERSO = 1 << 31 // summary overflow
	XEROV = 1 << 30 // overflow
	XERCA = 1 << 29 // carry
)

// Condition register field bits
const (
	CRLT = 8
	CRGT = 4
	CREQ = 2
	CRSO = 1
)

// Special purpose register numbers
const (
	SPRXER   = 1
	SPRLR    = 8
	SPRCTR   = 9
	SPRDSISR = 18
	SPRDAR   = 19
	SPRDEC   = 22
	SPRSRR0  = 26
	SPRSRR1  = 27
	SPRTBL   = 268 // read only
	SPRTBU   = 269 // read only
	SPRSPRG0 = 272
	SPRTBLW  = 284 // write only
	SPRTBUW  = 285 // write only
	SPRPVR   = 287
	SPRHID0  = 1008
	SPRHID1  = 1009
	SPRHID2  = 920
)

// GekkoPVR is the processor version reported by mfspr PVR.
const GekkoPVR = 0x00083214

// Init initializes all registers to their reset state.
func (r *Registers) Init() {
	*r = Registers{}
	r.PVR = GekkoPVR
}

// CRField returns condition register field 'n' (0-7).
func (r *Registers) CRField(n uint32) uint32 {
	return (r.CR >> (28 - 4*n)) & 0xf
}

// SetCRField replaces condition register field 'n' (0-7) with 'v'.
func (r *Registers) SetCRField(n, v uint32) {
	shift := 28 - 4*n
	r.CR = r.CR&^(0xf<<shift) | (v&0xf)<<shift
}

// CRBit returns condition register bit 'b', numbered from the most
// significant bit.
func (r *Registers) CRBit(b uint32) bool {
	return r.CR&(0x80000000>>b) != 0
}

// SetCRBit sets or clears condition register bit 'b'.
func (r *Registers) SetCRBit(b uint32, v bool) {
	if v {
		r.CR |= 0x80000000 >> b
	} else {
		r.CR &^= 0x80000000 >> b
	}
}

// Carry returns the XER carry bit.
func (r *Registers) Carry() bool {
	return r.XER&XERCA != 0
}

// SetCarry sets or clears the XER carry bit.
func (r *Registers) SetCarry(v bool) {
	if v {
		r.XER |= XERCA
	} else {
		r.XER &^= XERCA
	}
}

// SetOverflow sets or clears XER[OV]. A set overflow also sets XER[SO].
func (r *Registers) SetOverflow(v bool) {
	if v {
		r.XER |= XEROV | XERSO
	} else {
		r.XER &^= XEROV
	}
}

// SPR returns the special purpose register 'n'. The decrementer and time
// base are owned by the CPU and are not read here.
func (r *Registers) SPR(n uint16) uint32 {
	switch {
	case n == SPRXER:
		return r.XER
	case n == SPRLR:
		return r.LR
	case n == SPRCTR:
		return r.CTR
	case n == SPRDSISR:
		return r.DSISR
	case n == SPRDAR:
		return r.DAR
	case n == SPRSRR0:
		return r.SRR0
	case n == SPRSRR1:
		return r.SRR1
	case n >= SPRSPRG0 && n < SPRSPRG0+4:
		return r.SPRG[n-SPRSPRG0]
	case n == SPRPVR:
		return r.PVR
	case n == SPRHID0:
		return r.HID[0]
	case n == SPRHID1:
		return r.HID[1]
	case n == SPRHID2:
		return r.HID[2]
	}
	return r.misc[n]
}

// SetSPR writes the special purpose register 'n'.
func (r *Registers) SetSPR(n uint16, v uint32) {
	switch {
	case n == SPRXER:
		r.XER = v
	case n == SPRLR:
		r.LR = v
	case n == SPRCTR:
		r.CTR = v
	case n == SPRDSISR:
		r.DSISR = v
	case n == SPRDAR:
		r.DAR = v
	case n == SPRSRR0:
		r.SRR0 = v
	case n == SPRSRR1:
		r.SRR1 = v
	case n >= SPRSPRG0 && n < SPRSPRG0+4:
		r.SPRG[n-SPRSPRG0] = v
	case n == SPRPVR:
		// read only
	case n == SPRHID0:
		r.HID[0] = v
	case n == SPRHID1:
		r.HID[1] = v
	case n == SPRHID2:
		r.HID[2] = v
	default:
		if r.misc == nil {
			r.misc = make(map[uint16]uint32)
		}
		r.misc[n] = v
	}
}

func boolToUint32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
