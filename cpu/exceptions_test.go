// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu_test

import (
	"testing"

	"github.com/beevik/gekko/cpu"
)

func expectSRR0(t *testing.T, c *cpu.CPU, v uint32) {
	t.Helper()
	if c.Reg.SRR0 != v {
		t.Errorf("SRR0 incorrect. exp: %08X, got: %08X", v, c.Reg.SRR0)
	}
}

func expectNoPending(t *testing.T, c *cpu.CPU) {
	t.Helper()
	if p := c.Pending(); p != 0 {
		t.Errorf("exceptions left pending: %v", p)
	}
}

func TestFPUUnavailable(t *testing.T) {
	c, _ := loadCPU(t, faddF1)
	c.Reg.FPR[1] = 7
	c.Reg.FPR[2] = 1.5
	c.Reg.FPR[3] = 2.25

	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorFPUUnavailable)
	expectSRR0(t, c, codeAddr)
	expectNoPending(t, c)
	if c.Reg.FPR[1] != 7 {
		t.Errorf("f1 modified by gated instruction: %v", c.Reg.FPR[1])
	}
	if !c.Cursor.EndBlock {
		t.Error("exception did not end the block")
	}
}

func TestFPUEnabled(t *testing.T) {
	c, _ := loadCPU(t, faddF1)
	c.Reg.MSR = cpu.MSRFP
	c.Reg.FPR[2] = 1.5
	c.Reg.FPR[3] = 2.25

	stepCPU(t, c, 1)
	expectPC(t, c, codeAddr+4)
	if c.Reg.FPR[1] != 3.75 {
		t.Errorf("f1 incorrect. exp: 3.75, got: %v", c.Reg.FPR[1])
	}
}

func TestFetchFault(t *testing.T) {
	c, _ := loadCPU(t)
	c.SetPC(memSize + 0x100)

	n, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("fetch fault charged %d cycles", n)
	}
	expectPC(t, c, cpu.VectorISI)
	expectSRR0(t, c, memSize+0x100)
	if c.Reg.SRR1&(1<<30) == 0 {
		t.Errorf("SRR1 missing ISI reason: %08X", c.Reg.SRR1)
	}
	if c.Cursor.LastPC != memSize+0x100 {
		t.Errorf("LastPC incorrect. got: %08X", c.Cursor.LastPC)
	}
	expectNoPending(t, c)
}

func TestDSI(t *testing.T) {
	c, _ := loadCPU(t, lwzR4R3)
	c.Reg.GPR[3] = memSize
	c.Reg.GPR[4] = 0x1234

	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorDSI)
	expectSRR0(t, c, codeAddr)
	expectGPR(t, c, 4, 0x1234)
	if c.Reg.DAR != memSize {
		t.Errorf("DAR incorrect. exp: %08X, got: %08X", memSize, c.Reg.DAR)
	}
	if c.Reg.DSISR != cpu.DSISRPage {
		t.Errorf("DSISR incorrect. got: %08X", c.Reg.DSISR)
	}

	c, _ = loadCPU(t, stwR4R3)
	c.Reg.GPR[3] = memSize
	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorDSI)
	if c.Reg.DSISR != cpu.DSISRPage|cpu.DSISRStore {
		t.Errorf("store DSISR incorrect. got: %08X", c.Reg.DSISR)
	}
}

func TestSyscall(t *testing.T) {
	c, _ := loadCPU(t, sc)
	c.Reg.MSR = cpu.MSREE | cpu.MSRPR | cpu.MSRIR | cpu.MSRME

	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorSyscall)
	expectSRR0(t, c, codeAddr+4)
	if c.Reg.SRR1 != cpu.MSREE|cpu.MSRPR|cpu.MSRIR|cpu.MSRME {
		t.Errorf("SRR1 incorrect. got: %08X", c.Reg.SRR1)
	}
	if c.Reg.MSR != cpu.MSRME {
		t.Errorf("MSR incorrect. exp: %08X, got: %08X", cpu.MSRME, c.Reg.MSR)
	}
}

func TestExceptionPrefix(t *testing.T) {
	c, _ := loadCPU(t, sc)
	c.Reg.MSR = cpu.MSRIP | cpu.MSRILE

	stepCPU(t, c, 1)
	expectPC(t, c, 0xfff00000|cpu.VectorSyscall)
	if c.Reg.MSR&cpu.MSRLE == 0 {
		t.Error("MSR[LE] not copied from MSR[ILE]")
	}
}

func TestPrivileged(t *testing.T) {
	c, _ := loadCPU(t, mfmsrR3)
	c.Reg.MSR = cpu.MSRPR
	c.Reg.GPR[3] = 0xdead

	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorProgram)
	expectGPR(t, c, 3, 0xdead)
	if c.Reg.SRR1&cpu.ProgramPrivileged == 0 {
		t.Errorf("SRR1 missing privileged reason: %08X", c.Reg.SRR1)
	}

	// Supervisor SPRs trap in user mode, user SPRs do not.
	c, _ = loadCPU(t, mtsrr0R3)
	c.Reg.MSR = cpu.MSRPR
	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorProgram)

	c, _ = loadCPU(t, mflrR3)
	c.Reg.MSR = cpu.MSRPR
	c.Reg.LR = 0x8000
	stepCPU(t, c, 1)
	expectPC(t, c, codeAddr+4)
	expectGPR(t, c, 3, 0x8000)
}

func TestTrap(t *testing.T) {
	c, _ := loadCPU(t, twTrap)

	stepCPU(t, c, 1)
	expectPC(t, c, cpu.VectorProgram)
	expectSRR0(t, c, codeAddr)
	if c.Reg.SRR1&cpu.ProgramTrap == 0 {
		t.Errorf("SRR1 missing trap reason: %08X", c.Reg.SRR1)
	}
}

func TestExceptionPriority(t *testing.T) {
	c, _ := loadCPU(t)
	c.Raise(cpu.ExceptionSyscall | cpu.ExceptionDSI | cpu.ExceptionFPUUnavailable)

	var order []uint32
	for c.CheckExceptions() {
		order = append(order, c.Cursor.NPC)
	}
	exp := []uint32{cpu.VectorDSI, cpu.VectorFPUUnavailable, cpu.VectorSyscall}
	if len(order) != len(exp) {
		t.Fatalf("exceptions taken incorrect. exp: %x, got: %x", exp, order)
	}
	for i := range exp {
		if order[i] != exp[i] {
			t.Errorf("exception %d incorrect. exp: %x, got: %x", i, exp[i], order[i])
		}
	}
}

func TestExternalMasked(t *testing.T) {
	c, _ := loadCPU(t)
	c.Raise(cpu.ExceptionExternal)

	if c.CheckExternalExceptions() {
		t.Error("external interrupt taken with MSR[EE] clear")
	}
	c.Reg.MSR = cpu.MSREE
	if !c.CheckExternalExceptions() {
		t.Fatal("external interrupt not taken")
	}
	expectPC(t, c, cpu.VectorExternal)
	expectSRR0(t, c, codeAddr)
	expectNoPending(t, c)
}

func TestSingleStepTakesInterrupt(t *testing.T) {
	c, _ := loadCPU(t)
	c.Mem.Write32(cpu.VectorDecrementer, addiR3_5)
	c.Reg.MSR = cpu.MSREE
	c.Raise(cpu.ExceptionDecrementer)

	if err := c.SingleStep(); err != nil {
		t.Fatal(err)
	}
	expectSRR0(t, c, codeAddr)
	expectGPR(t, c, 3, 5)
	expectPC(t, c, cpu.VectorDecrementer+4)
	expectState(t, c, cpu.Stopped)
	if c.Cursor.Downcount != 0 {
		t.Errorf("Downcount incorrect. exp: 0, got: %d", c.Cursor.Downcount)
	}
}

func TestExceptionString(t *testing.T) {
	tests := []struct {
		e   cpu.Exception
		exp string
	}{
		{0, "none"},
		{cpu.ExceptionISI, "ISI"},
		{cpu.ExceptionDSI | cpu.ExceptionSyscall, "DSI|system call"},
	}
	for _, test := range tests {
		if got := test.e.String(); got != test.exp {
			t.Errorf("Exception(%d).String() incorrect. exp: %q, got: %q", uint32(test.e), test.exp, got)
		}
	}
}
