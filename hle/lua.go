// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hle

import (
	"fmt"
	"math"

	"github.com/beevik/gekko/cpu"
	"github.com/beevik/gekko/internal/log"
	lua "github.com/yuin/gopher-lua"
)

// ParseHookType converts "replace" or "start" into a hook type.
func ParseHookType(s string) (cpu.HookType, error) {
	switch s {
	case "replace":
		return cpu.HookReplace, nil
	case "start":
		return cpu.HookStart, nil
	}
	return cpu.HookNone, fmt.Errorf("%w '%s'", ErrInvalidHookType, s)
}

// A script is one Lua interpreter and the CPU its hooks are running
// against.
type script struct {
	reg *Registry
	L   *lua.LState
	cpu *cpu.CPU
}

// LoadScript runs a Lua script file. The script installs hooks by calling
// hook(addr, type, name, fn) or patch(addr, builtin).
func (r *Registry) LoadScript(path string) error {
	s := r.newScript()
	if err := s.L.DoFile(path); err != nil {
		return fmt.Errorf("hook script %s: %w", path, err)
	}
	return nil
}

// LoadString runs a Lua script held in memory.
func (r *Registry) LoadString(src string) error {
	s := r.newScript()
	if err := s.L.DoString(src); err != nil {
		return fmt.Errorf("hook script: %w", err)
	}
	return nil
}

func (r *Registry) newScript() *script {
	s := &script{reg: r, L: lua.NewState()}
	r.states = append(r.states, s.L)

	funcs := map[string]lua.LGFunction{
		"hook":    s.hook,
		"patch":   s.patch,
		"gpr":     s.gpr,
		"setgpr":  s.setgpr,
		"fpr":     s.fpr,
		"setfpr":  s.setfpr,
		"read8":   s.read8,
		"read16":  s.read16,
		"read32":  s.read32,
		"write8":  s.write8,
		"write16": s.write16,
		"write32": s.write32,
		"lr":      s.lr,
		"pc":      s.pc,
		"setnpc":  s.setnpc,
		"log":     s.log,
	}
	for name, fn := range funcs {
		s.L.SetGlobal(name, s.L.NewFunction(fn))
	}
	return s
}

// call runs a Lua hook function against 'c'. Script errors are logged;
// they never stop the CPU.
func (s *script) call(name string, fn *lua.LFunction, c *cpu.CPU) {
	s.cpu = c
	defer func() { s.cpu = nil }()

	err := s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(c.Cursor.PC))
	if err != nil {
		log.Error(log.HLE, "%s: %v", name, err)
	}
}

func (s *script) current(L *lua.LState) *cpu.CPU {
	if s.cpu == nil {
		L.RaiseError("CPU state is only available inside a hook")
	}
	return s.cpu
}

func checkAddr(L *lua.LState, n int) uint32 {
	return uint32(L.CheckInt64(n))
}

func checkReg(L *lua.LState, n int) int {
	r := L.CheckInt(n)
	if r < 0 || r > 31 {
		L.ArgError(n, "register number out of range")
	}
	return r
}

func (s *script) hook(L *lua.LState) int {
	addr := checkAddr(L, 1)
	typ, err := ParseHookType(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	name := L.CheckString(3)
	fn := L.CheckFunction(4)

	err = s.reg.Register(addr, typ, name, func(c *cpu.CPU) {
		s.call(name, fn, c)
	})
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (s *script) patch(L *lua.LState) int {
	if err := s.reg.Patch(checkAddr(L, 1), L.CheckString(2)); err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (s *script) gpr(L *lua.LState) int {
	r := checkReg(L, 1)
	L.Push(lua.LNumber(s.current(L).Reg.GPR[r]))
	return 1
}

func (s *script) setgpr(L *lua.LState) int {
	r := checkReg(L, 1)
	s.current(L).Reg.GPR[r] = uint32(L.CheckInt64(2))
	return 0
}

func (s *script) fpr(L *lua.LState) int {
	r := checkReg(L, 1)
	L.Push(lua.LNumber(s.current(L).Reg.FPR[r]))
	return 1
}

func (s *script) setfpr(L *lua.LState) int {
	r := checkReg(L, 1)
	s.current(L).Reg.FPR[r] = float64(L.CheckNumber(2))
	return 0
}

func (s *script) read8(L *lua.LState) int {
	v, ok := s.current(L).Mem.Read8(checkAddr(L, 1))
	return pushRead(L, uint64(v), ok)
}

func (s *script) read16(L *lua.LState) int {
	v, ok := s.current(L).Mem.Read16(checkAddr(L, 1))
	return pushRead(L, uint64(v), ok)
}

func (s *script) read32(L *lua.LState) int {
	v, ok := s.current(L).Mem.Read32(checkAddr(L, 1))
	return pushRead(L, uint64(v), ok)
}

// pushRead returns the value read, or nil when the access faulted.
func pushRead(L *lua.LState, v uint64, ok bool) int {
	if !ok {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LNumber(v))
	}
	return 1
}

func (s *script) write8(L *lua.LState) int {
	ok := s.current(L).Mem.Write8(checkAddr(L, 1), uint8(L.CheckInt64(2)))
	L.Push(lua.LBool(ok))
	return 1
}

func (s *script) write16(L *lua.LState) int {
	ok := s.current(L).Mem.Write16(checkAddr(L, 1), uint16(L.CheckInt64(2)))
	L.Push(lua.LBool(ok))
	return 1
}

func (s *script) write32(L *lua.LState) int {
	ok := s.current(L).Mem.Write32(checkAddr(L, 1), uint32(L.CheckInt64(2)))
	L.Push(lua.LBool(ok))
	return 1
}

func (s *script) lr(L *lua.LState) int {
	L.Push(lua.LNumber(s.current(L).Reg.LR))
	return 1
}

func (s *script) pc(L *lua.LState) int {
	L.Push(lua.LNumber(s.current(L).Cursor.PC))
	return 1
}

func (s *script) setnpc(L *lua.LState) int {
	addr := checkAddr(L, 1)
	if addr&3 != 0 || float64(L.CheckNumber(1)) > math.MaxUint32 {
		L.ArgError(1, "invalid code address")
	}
	s.current(L).Cursor.NPC = addr
	return 0
}

func (s *script) log(L *lua.LState) int {
	log.Notice(log.HLE, "%s", L.CheckString(1))
	return 0
}
