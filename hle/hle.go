// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hle implements high-level emulation of guest functions. A
// Registry maps code addresses to native Go or Lua functions that run in
// place of, or ahead of, the guest instructions at those addresses.
package hle

import (
	"errors"
	"fmt"
	"sort"

	"github.com/beevik/gekko/cpu"
	"github.com/beevik/gekko/internal/log"
	"github.com/beevik/prefixtree/v2"
	lua "github.com/yuin/gopher-lua"
)

// Errors
var (
	ErrUnknownFunction = errors.New("unknown HLE function")
	ErrUnalignedHook   = errors.New("hook address is not word aligned")
	ErrInvalidHookType = errors.New("invalid hook type")
	ErrNoHook          = errors.New("no hook at address")
)

// A Func is a native implementation of a guest function.
type Func func(c *cpu.CPU)

// A Hook binds a function to a code address.
type Hook struct {
	Name string
	Addr uint32
	Type cpu.HookType
	Fn   Func
}

// A Registry holds the hooks installed into a CPU. It implements
// cpu.HookRegistry.
type Registry struct {
	hooks   map[uint32]*Hook
	symbols *prefixtree.Tree[uint32]
	dirty   bool
	states  []*lua.LState
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks:   make(map[uint32]*Hook),
		symbols: prefixtree.New[uint32](),
	}
}

// Register installs 'fn' at 'addr', replacing any hook already there.
func (r *Registry) Register(addr uint32, typ cpu.HookType, name string, fn Func) error {
	if addr&3 != 0 {
		return fmt.Errorf("%s at %08X: %w", name, addr, ErrUnalignedHook)
	}
	if typ != cpu.HookReplace && typ != cpu.HookStart {
		return fmt.Errorf("%s at %08X: %w", name, addr, ErrInvalidHookType)
	}
	r.hooks[addr] = &Hook{Name: name, Addr: addr, Type: typ, Fn: fn}
	r.dirty = true
	log.Debug(log.HLE, "Hooked %s at %08X (%v)", name, addr, typ)
	return nil
}

// Patch replaces the guest function at 'addr' with the named built-in.
func (r *Registry) Patch(addr uint32, name string) error {
	fn, ok := builtins[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return r.Register(addr, cpu.HookReplace, name, fn)
}

// Remove uninstalls the hook at 'addr'.
func (r *Registry) Remove(addr uint32) error {
	if _, ok := r.hooks[addr]; !ok {
		return fmt.Errorf("%w %08X", ErrNoHook, addr)
	}
	delete(r.hooks, addr)
	r.dirty = true
	return nil
}

// Get returns the hook installed at 'addr', or nil.
func (r *Registry) Get(addr uint32) *Hook {
	return r.hooks[addr]
}

// Hooks returns all installed hooks ordered by address.
func (r *Registry) Hooks() []*Hook {
	hooks := make([]*Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Addr < hooks[j].Addr
	})
	return hooks
}

// Lookup finds the hook whose name starts with 'prefix'. The prefix must
// identify a single name. When a name is installed at several addresses,
// the lowest address is returned.
func (r *Registry) Lookup(prefix string) (*Hook, error) {
	if r.dirty {
		r.symbols = prefixtree.New[uint32]()
		seen := make(map[string]bool)
		for _, h := range r.Hooks() {
			if !seen[h.Name] {
				seen[h.Name] = true
				r.symbols.Add(h.Name, h.Addr)
			}
		}
		r.dirty = false
	}

	addr, err := r.symbols.FindValue(prefix)
	if err != nil {
		return nil, fmt.Errorf("symbol '%s': %w", prefix, err)
	}
	return r.hooks[addr], nil
}

// Intercept runs the hook installed at 'addr', if any. A replacement hook
// returns to the caller's LR unless the function moves NPC itself.
func (r *Registry) Intercept(c *cpu.CPU, addr uint32) cpu.HookType {
	h, ok := r.hooks[addr]
	if !ok {
		return cpu.HookNone
	}

	log.Debug(log.HLE, "%s (%v) at %08X, LR = %08X", h.Name, h.Type, addr, c.Reg.LR)
	if h.Type == cpu.HookReplace {
		c.Cursor.NPC = c.Reg.LR
	}
	h.Fn(c)
	return h.Type
}

// Close releases the script interpreters owned by the registry. Hooks
// registered by scripts must not run after Close.
func (r *Registry) Close() {
	for _, L := range r.states {
		L.Close()
	}
	r.states = nil
}

// Builtins returns the names of the built-in functions accepted by Patch.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
