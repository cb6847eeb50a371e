// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hle_test

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/beevik/gekko/cpu"
	"github.com/beevik/gekko/hle"
	"github.com/beevik/gekko/internal/log"
)

const (
	codeAddr = 0x1000

	blPlus8  = 0x48000009 // bl +8
	addiR3_5 = 0x38600005 // addi r3,r0,5
	addiR4_2 = 0x38800002 // addi r4,r0,2
	addiR3_9 = 0x38600009 // addi r3,r0,9
)

func newCPU(t *testing.T, words ...uint32) (*cpu.CPU, *cpu.FlatMemory) {
	t.Helper()
	mem := cpu.NewFlatMemory(0, 0x10000)
	if err := mem.StoreWords(codeAddr, words...); err != nil {
		t.Fatal(err)
	}
	c := cpu.NewCPU(mem)
	c.SetReporter(nil)
	c.SetPC(codeAddr)
	return c, mem
}

func step(t *testing.T, c *cpu.CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatal(err)
		}
	}
}

func expectPC(t *testing.T, c *cpu.CPU, pc uint32) {
	t.Helper()
	if c.Cursor.PC != pc {
		t.Errorf("PC incorrect. exp: %08X, got: %08X", pc, c.Cursor.PC)
	}
}

func expectGPR(t *testing.T, c *cpu.CPU, r int, v uint32) {
	t.Helper()
	if c.Reg.GPR[r] != v {
		t.Errorf("r%d incorrect. exp: %08X, got: %08X", r, v, c.Reg.GPR[r])
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestReplaceHook(t *testing.T) {
	c, _ := newCPU(t, blPlus8, addiR4_2, addiR3_9)
	r := hle.NewRegistry()
	err := r.Register(codeAddr+8, cpu.HookReplace, "seven", func(c *cpu.CPU) {
		c.Reg.GPR[3] = 7
	})
	if err != nil {
		t.Fatal(err)
	}
	c.AttachHooks(r)

	step(t, c, 2)
	expectGPR(t, c, 3, 7)
	expectPC(t, c, codeAddr+4)

	step(t, c, 1)
	expectGPR(t, c, 4, 2)
}

func TestStartHook(t *testing.T) {
	c, _ := newCPU(t, addiR3_5)
	r := hle.NewRegistry()
	var seen uint32 = 0xffffffff
	r.Register(codeAddr, cpu.HookStart, "peek", func(c *cpu.CPU) {
		seen = c.Reg.GPR[3]
	})
	c.AttachHooks(r)

	step(t, c, 1)
	if seen != 0 {
		t.Errorf("hook saw r3 = %d", seen)
	}
	expectGPR(t, c, 3, 5)
	expectPC(t, c, codeAddr+4)
}

func TestRegisterErrors(t *testing.T) {
	r := hle.NewRegistry()
	nop := func(*cpu.CPU) {}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unaligned", r.Register(0x1002, cpu.HookReplace, "f", nop), hle.ErrUnalignedHook},
		{"bad type", r.Register(0x1000, cpu.HookNone, "f", nop), hle.ErrInvalidHookType},
		{"unknown builtin", r.Patch(0x1000, "printf"), hle.ErrUnknownFunction},
		{"remove missing", r.Remove(0x1000), hle.ErrNoHook},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, tt.err, tt.want)
		}
	}
	if len(r.Hooks()) != 0 {
		t.Errorf("failed registrations left %d hooks", len(r.Hooks()))
	}
}

func TestHooksAndRemove(t *testing.T) {
	r := hle.NewRegistry()
	for _, addr := range []uint32{0x3000, 0x1000, 0x2000} {
		if err := r.Patch(addr, "nop"); err != nil {
			t.Fatal(err)
		}
	}

	hooks := r.Hooks()
	if len(hooks) != 3 || hooks[0].Addr != 0x1000 || hooks[2].Addr != 0x3000 {
		t.Fatalf("hooks out of order: %v", hooks)
	}

	if err := r.Remove(0x2000); err != nil {
		t.Fatal(err)
	}
	if r.Get(0x2000) != nil {
		t.Error("hook still installed after remove")
	}
	if h := r.Get(0x1000); h == nil || h.Name != "nop" || h.Type != cpu.HookReplace {
		t.Errorf("unexpected hook %+v", h)
	}
}

func TestLookup(t *testing.T) {
	r := hle.NewRegistry()
	r.Patch(0x2000, "OSReport")
	r.Patch(0x3000, "memcpy")
	r.Patch(0x4000, "memset")
	r.Patch(0x1800, "memset")

	h, err := r.Lookup("OS")
	if err != nil || h.Addr != 0x2000 {
		t.Errorf("Lookup(OS) = %v, %v", h, err)
	}
	h, err = r.Lookup("memc")
	if err != nil || h.Addr != 0x3000 {
		t.Errorf("Lookup(memc) = %v, %v", h, err)
	}
	h, err = r.Lookup("memset")
	if err != nil || h.Addr != 0x1800 {
		t.Errorf("Lookup(memset) = %v, %v", h, err)
	}
	if _, err := r.Lookup("mem"); err == nil {
		t.Error("ambiguous prefix accepted")
	}
	if _, err := r.Lookup("strlen"); err == nil {
		t.Error("missing symbol found")
	}

	r.Remove(0x2000)
	if _, err := r.Lookup("OS"); err == nil {
		t.Error("removed symbol found")
	}
}

func TestBuiltinNames(t *testing.T) {
	got := strings.Join(hle.Builtins(), ",")
	if got != "OSReport,memcpy,memset,nop,strlen" {
		t.Errorf("builtins: %s", got)
	}
}

func patched(t *testing.T, name string) (*cpu.CPU, *cpu.FlatMemory) {
	t.Helper()
	c, mem := newCPU(t, addiR3_9)
	r := hle.NewRegistry()
	if err := r.Patch(codeAddr, name); err != nil {
		t.Fatal(err)
	}
	c.AttachHooks(r)
	c.Reg.LR = 0x1100
	return c, mem
}

func TestMemcpy(t *testing.T) {
	c, mem := patched(t, "memcpy")
	mem.StoreBytes(0x2000, []byte("hello"))
	c.Reg.GPR[3], c.Reg.GPR[4], c.Reg.GPR[5] = 0x3000, 0x2000, 5

	step(t, c, 1)
	b := make([]byte, 6)
	mem.LoadBytes(0x3000, b)
	if string(b) != "hello\x00" {
		t.Errorf("memcpy result %q", b)
	}
	expectGPR(t, c, 3, 0x3000)
	expectPC(t, c, 0x1100)
}

func TestMemset(t *testing.T) {
	c, mem := patched(t, "memset")
	c.Reg.GPR[3], c.Reg.GPR[4], c.Reg.GPR[5] = 0x3000, 0x1ab, 3

	step(t, c, 1)
	b := make([]byte, 4)
	mem.LoadBytes(0x3000, b)
	if !bytes.Equal(b, []byte{0xab, 0xab, 0xab, 0}) {
		t.Errorf("memset result % x", b)
	}
}

func TestStrlen(t *testing.T) {
	c, mem := patched(t, "strlen")
	mem.StoreBytes(0x2000, []byte("gekko\x00"))
	c.Reg.GPR[3] = 0x2000

	step(t, c, 1)
	expectGPR(t, c, 3, 5)
}

func TestOSReport(t *testing.T) {
	buf := captureLog(t)
	c, mem := patched(t, "OSReport")
	mem.StoreBytes(0x2000, []byte("value %d hex %08lx str %s float %.2f%% %q\n\x00"))
	mem.StoreBytes(0x2100, []byte("abc\x00"))
	c.Reg.GPR[3] = 0x2000
	c.Reg.GPR[4] = 0xfffffffb
	c.Reg.GPR[5] = 0xbeef
	c.Reg.GPR[6] = 0x2100
	c.Reg.FPR[1] = 1.5

	step(t, c, 1)
	want := "[NOTICE] HLE: value -5 hex 0000beef str abc float 1.50% %q\n"
	if buf.String() != want {
		t.Errorf("OSReport output:\n got: %q\nwant: %q", buf.String(), want)
	}
	expectPC(t, c, 0x1100)
}
