// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu_test

import (
	"math"
	"testing"

	"github.com/beevik/gekko/cpu"
)

type opTest struct {
	name  string
	word  uint32
	setup func(c *cpu.CPU)
	check func(t *testing.T, c *cpu.CPU)
}

func runOpTests(t *testing.T, tests []opTest) {
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, _ := loadCPU(t, test.word)
			c.Reg.MSR = cpu.MSRFP
			if test.setup != nil {
				test.setup(c)
			}
			stepCPU(t, c, 1)
			test.check(t, c)
		})
	}
}

func expectCR(t *testing.T, c *cpu.CPU, cr uint32) {
	t.Helper()
	if c.Reg.CR != cr {
		t.Errorf("CR incorrect. exp: %08X, got: %08X", cr, c.Reg.CR)
	}
}

func expectFPR(t *testing.T, c *cpu.CPU, r int, v float64) {
	t.Helper()
	if c.Reg.FPR[r] != v {
		t.Errorf("f%d incorrect. exp: %v, got: %v", r, v, c.Reg.FPR[r])
	}
}

func expectMem32(t *testing.T, c *cpu.CPU, addr, v uint32) {
	t.Helper()
	got, ok := c.Mem.Read32(addr)
	if !ok || got != v {
		t.Errorf("memory at %08X incorrect. exp: %08X, got: %08X", addr, v, got)
	}
}

func TestIntegerOps(t *testing.T) {
	runOpTests(t, []opTest{
		{"addic carry", 0x30640001,
			func(c *cpu.CPU) { c.Reg.GPR[4] = 0xffffffff },
			func(t *testing.T, c *cpu.CPU) {
				expectGPR(t, c, 3, 0)
				if !c.Reg.Carry() {
					t.Error("carry not set")
				}
			}},
		{"addic. cr0", 0x34640001,
			func(c *cpu.CPU) { c.Reg.GPR[4] = 0xffffffff },
			func(t *testing.T, c *cpu.CPU) { expectCR(t, c, cpu.CREQ<<28) }},
		{"rlwinm", 0x5483463E,
			func(c *cpu.CPU) { c.Reg.GPR[4] = 0x12345678 },
			func(t *testing.T, c *cpu.CPU) { expectGPR(t, c, 3, 0x12) }},
		{"srawi", 0x7C832670,
			func(c *cpu.CPU) { c.Reg.GPR[4] = 0xfffffff1 },
			func(t *testing.T, c *cpu.CPU) {
				expectGPR(t, c, 3, 0xffffffff)
				if !c.Reg.Carry() {
					t.Error("carry not set")
				}
			}},
		{"cntlzw", 0x7C830034,
			func(c *cpu.CPU) { c.Reg.GPR[4] = 0x00010000 },
			func(t *testing.T, c *cpu.CPU) { expectGPR(t, c, 3, 15) }},
		{"divw", 0x7C642BD6,
			func(c *cpu.CPU) { c.Reg.GPR[4], c.Reg.GPR[5] = 0xfffffff9, 2 },
			func(t *testing.T, c *cpu.CPU) { expectGPR(t, c, 3, 0xfffffffd) }},
		{"divwo by zero", 0x7C642FD6,
			func(c *cpu.CPU) { c.Reg.GPR[4], c.Reg.GPR[5] = 1, 0 },
			func(t *testing.T, c *cpu.CPU) {
				if c.Reg.XER&(cpu.XEROV|cpu.XERSO) != cpu.XEROV|cpu.XERSO {
					t.Errorf("XER incorrect: %08X", c.Reg.XER)
				}
			}},
		{"subf", 0x7C642850,
			func(c *cpu.CPU) { c.Reg.GPR[4], c.Reg.GPR[5] = 3, 10 },
			func(t *testing.T, c *cpu.CPU) { expectGPR(t, c, 3, 7) }},
		{"mulhwu", 0x7C642816,
			func(c *cpu.CPU) { c.Reg.GPR[4], c.Reg.GPR[5] = 0x80000000, 0x80000000 },
			func(t *testing.T, c *cpu.CPU) { expectGPR(t, c, 3, 0x40000000) }},
		{"cmplw", 0x7C842840,
			func(c *cpu.CPU) { c.Reg.GPR[4], c.Reg.GPR[5] = 1, 0xffffffff },
			func(t *testing.T, c *cpu.CPU) { expectCR(t, c, cpu.CRLT<<24) }},
		{"extsb", 0x7C830774,
			func(c *cpu.CPU) { c.Reg.GPR[4] = 0x80 },
			func(t *testing.T, c *cpu.CPU) { expectGPR(t, c, 3, 0xffffff80) }},
		{"or.", 0x7C832B79,
			func(c *cpu.CPU) { c.Reg.GPR[3] = 9 },
			func(t *testing.T, c *cpu.CPU) {
				expectGPR(t, c, 3, 0)
				expectCR(t, c, cpu.CREQ<<28)
			}},
		{"crxor", 0x4CC63182,
			func(c *cpu.CPU) { c.Reg.CR = 0x02000000 },
			func(t *testing.T, c *cpu.CPU) { expectCR(t, c, 0) }},
	})
}

func TestLoadStoreOps(t *testing.T) {
	runOpTests(t, []opTest{
		{"lwbrx", 0x7C60242C,
			func(c *cpu.CPU) {
				c.Reg.GPR[4] = 0x2000
				c.Mem.Write32(0x2000, 0x11223344)
			},
			func(t *testing.T, c *cpu.CPU) { expectGPR(t, c, 3, 0x44332211) }},
		{"lwzu", 0x84640004,
			func(c *cpu.CPU) {
				c.Reg.GPR[4] = 0x2000
				c.Mem.Write32(0x2004, 0xaabbccdd)
			},
			func(t *testing.T, c *cpu.CPU) {
				expectGPR(t, c, 3, 0xaabbccdd)
				expectGPR(t, c, 4, 0x2004)
			}},
		{"stmw", 0xBFC40000,
			func(c *cpu.CPU) {
				c.Reg.GPR[4] = 0x2000
				c.Reg.GPR[30], c.Reg.GPR[31] = 1, 2
			},
			func(t *testing.T, c *cpu.CPU) {
				expectMem32(t, c, 0x2000, 1)
				expectMem32(t, c, 0x2004, 2)
			}},
		{"lmw misaligned", 0xBBC40002,
			func(c *cpu.CPU) { c.Reg.GPR[4] = 0x2000 },
			func(t *testing.T, c *cpu.CPU) {
				expectPC(t, c, cpu.VectorAlignment)
				if c.Reg.DAR != 0x2002 {
					t.Errorf("DAR incorrect: %08X", c.Reg.DAR)
				}
			}},
		{"lfs", 0xC0240000,
			func(c *cpu.CPU) {
				c.Reg.GPR[4] = 0x2000
				c.Mem.Write32(0x2000, math.Float32bits(1.5))
			},
			func(t *testing.T, c *cpu.CPU) { expectFPR(t, c, 1, 1.5) }},
		{"stfd", 0xD8240000,
			func(c *cpu.CPU) {
				c.Reg.GPR[4] = 0x2000
				c.Reg.FPR[1] = 2.5
			},
			func(t *testing.T, c *cpu.CPU) {
				v, _ := c.Mem.Read64(0x2000)
				if math.Float64frombits(v) != 2.5 {
					t.Errorf("stored double incorrect: %016X", v)
				}
			}},
		{"dcbz", 0x7C0027EC,
			func(c *cpu.CPU) {
				c.Reg.GPR[4] = 0x2010
				c.Mem.Write32(0x2000, 0xffffffff)
				c.Mem.Write32(0x201c, 0xffffffff)
				c.Mem.Write32(0x2020, 0xffffffff)
			},
			func(t *testing.T, c *cpu.CPU) {
				expectMem32(t, c, 0x2000, 0)
				expectMem32(t, c, 0x201c, 0)
				expectMem32(t, c, 0x2020, 0xffffffff)
			}},
	})
}

func TestReservation(t *testing.T) {
	const (
		lwarx  = 0x7C602028 // lwarx r3,0,r4
		stwcx  = 0x7CA0212D // stwcx. r5,0,r4
		memory = 0x2000
	)

	c, _ := loadCPU(t, lwarx, stwcx, stwcx)
	c.Reg.GPR[4] = memory
	c.Reg.GPR[5] = 0x77
	stepCPU(t, c, 2)
	expectMem32(t, c, memory, 0x77)
	expectCR(t, c, cpu.CREQ<<28)

	// The reservation is consumed by the first conditional store.
	c.Reg.GPR[5] = 0x88
	stepCPU(t, c, 1)
	expectMem32(t, c, memory, 0x77)
	expectCR(t, c, 0)
}

func TestFloatingPointOps(t *testing.T) {
	runOpTests(t, []opTest{
		{"fctiwz", 0xFC20101E,
			func(c *cpu.CPU) { c.Reg.FPR[2] = -3.7 },
			func(t *testing.T, c *cpu.CPU) {
				if v := math.Float64bits(c.Reg.FPR[1]); uint32(v) != 0xfffffffd {
					t.Errorf("fctiwz result incorrect: %016X", v)
				}
			}},
		{"fctiwz saturates", 0xFC20101E,
			func(c *cpu.CPU) { c.Reg.FPR[2] = 1e12 },
			func(t *testing.T, c *cpu.CPU) {
				if v := math.Float64bits(c.Reg.FPR[1]); uint32(v) != 0x7fffffff {
					t.Errorf("fctiwz result incorrect: %016X", v)
				}
			}},
		{"fcmpu", 0xFC811000,
			func(c *cpu.CPU) { c.Reg.FPR[1], c.Reg.FPR[2] = 1, 2 },
			func(t *testing.T, c *cpu.CPU) {
				expectCR(t, c, cpu.CRLT<<24)
				if c.Reg.FPSCR != cpu.CRLT<<12 {
					t.Errorf("FPSCR incorrect: %08X", c.Reg.FPSCR)
				}
			}},
		{"fcmpu unordered", 0xFC811000,
			func(c *cpu.CPU) { c.Reg.FPR[1], c.Reg.FPR[2] = math.NaN(), 2 },
			func(t *testing.T, c *cpu.CPU) { expectCR(t, c, cpu.CRSO<<24) }},
		{"fmadds", 0xEC2220FA,
			func(c *cpu.CPU) { c.Reg.FPR[2], c.Reg.FPR[3], c.Reg.FPR[4] = 2, 3, 0.5 },
			func(t *testing.T, c *cpu.CPU) { expectFPR(t, c, 1, 6.5) }},
		{"fadds rounds", 0xEC22182A,
			func(c *cpu.CPU) { c.Reg.FPR[2], c.Reg.FPR[3] = 0.1, 0.2 },
			func(t *testing.T, c *cpu.CPU) {
				exp := float64(float32(c.Reg.FPR[2] + c.Reg.FPR[3]))
				expectFPR(t, c, 1, exp)
				if exp == c.Reg.FPR[2]+c.Reg.FPR[3] {
					t.Error("sum not rounded to single precision")
				}
			}},
		{"fneg.", 0xFC201051,
			func(c *cpu.CPU) {
				c.Reg.FPR[2] = 4
				c.Reg.FPSCR = 0x20000000
			},
			func(t *testing.T, c *cpu.CPU) {
				expectFPR(t, c, 1, -4)
				expectCR(t, c, 0x02000000)
			}},
		{"mtfsf", 0xFDFE158E,
			func(c *cpu.CPU) { c.Reg.FPR[2] = math.Float64frombits(0x12345678) },
			func(t *testing.T, c *cpu.CPU) {
				if c.Reg.FPSCR != 0x12345678 {
					t.Errorf("FPSCR incorrect: %08X", c.Reg.FPSCR)
				}
			}},
	})
}

func TestCountLoop(t *testing.T) {
	c, _ := loadCPU(t, addiR3R3_1, 0x4200FFFC, invalid) // bdnz -4
	c.Reg.CTR = 3

	expectInvalid(t, runCPU(c), codeAddr+8)
	expectGPR(t, c, 3, 3)
	expectCycles(t, c, 6)
	if c.Reg.CTR != 0 {
		t.Errorf("CTR incorrect. exp: 0, got: %d", c.Reg.CTR)
	}
}

func TestBranchToCTR(t *testing.T) {
	c, _ := loadCPU(t, 0x4E800420, invalid, addiR3_5, invalid) // bctr
	c.Reg.CTR = codeAddr + 8

	expectInvalid(t, runCPU(c), codeAddr+12)
	expectGPR(t, c, 3, 5)
}

func TestRFI(t *testing.T) {
	c, _ := loadCPU(t, 0x4C000064)
	c.Reg.SRR0 = codeAddr + 0x101
	c.Reg.SRR1 = cpu.MSRFP | cpu.MSRPR

	stepCPU(t, c, 1)
	expectPC(t, c, codeAddr+0x100)
	if c.Reg.MSR != cpu.MSRFP|cpu.MSRPR {
		t.Errorf("MSR incorrect. got: %08X", c.Reg.MSR)
	}
}

func TestMtmsrTakesInterrupt(t *testing.T) {
	c, _ := loadCPU(t, 0x7C600124) // mtmsr r3
	c.Reg.GPR[3] = cpu.MSREE
	c.Raise(cpu.ExceptionExternal)

	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorExternal)
	expectSRR0(t, c, codeAddr+4)
	if c.Reg.SRR1 != cpu.MSREE {
		t.Errorf("SRR1 incorrect. got: %08X", c.Reg.SRR1)
	}
}
