// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"sort"
	"sync"
)

// The Debugger holds the execution and data breakpoints of a CPU. Its
// methods may be called from any goroutine; the CPU consults it only between
// instructions.
type Debugger struct {
	breakpointHandler BreakpointHandler
	mu                sync.RWMutex
	breakpoints       map[uint32]*Breakpoint
	dataBreakpoints   map[uint32]*DataBreakpoint
}

// The BreakpointHandler interface should be implemented by any object that
// wishes to receive debugger breakpoint notifications. Handlers are called
// on the goroutine running the CPU.
type BreakpointHandler interface {
	OnBreakpoint(cpu *CPU, b *Breakpoint)
	OnDataBreakpoint(cpu *CPU, b *DataBreakpoint)
}

// A Breakpoint represents an address that will cause the debugger to stop
// code execution when the program counter reaches it.
type Breakpoint struct {
	Address   uint32 // address of execution breakpoint
	Disabled  bool   // this breakpoint is currently disabled
	Temporary bool   // removed the first time it is hit
}

// A DataBreakpoint represents an address that will cause the debugger to
// stop executing code when a value is stored to it.
type DataBreakpoint struct {
	Address     uint32 // breakpoint triggered by stores to this address
	Disabled    bool   // this breakpoint is currently disabled
	Conditional bool   // this breakpoint is conditional on a certain Value being stored
	Value       uint32 // the value that must be stored if the breakpoint is conditional
}

// NewDebugger creates a new CPU debugger.
func NewDebugger(breakpointHandler BreakpointHandler) *Debugger {
	return &Debugger{
		breakpointHandler: breakpointHandler,
		breakpoints:       make(map[uint32]*Breakpoint),
		dataBreakpoints:   make(map[uint32]*DataBreakpoint),
	}
}

// GetBreakpoint looks up a breakpoint by address and returns a copy of it if
// found. Otherwise it returns nil.
func (d *Debugger) GetBreakpoint(addr uint32) *Breakpoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if b, ok := d.breakpoints[addr]; ok {
		bb := *b
		return &bb
	}
	return nil
}

// GetBreakpoints returns copies of all breakpoints currently set in the
// debugger, ordered by address.
func (d *Debugger) GetBreakpoints() []*Breakpoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var breakpoints []*Breakpoint
	for _, b := range d.breakpoints {
		bb := *b
		breakpoints = append(breakpoints, &bb)
	}
	sort.Slice(breakpoints, func(i, j int) bool {
		return breakpoints[i].Address < breakpoints[j].Address
	})
	return breakpoints
}

// AddBreakpoint adds a new breakpoint address to the debugger. An existing
// breakpoint at the address is replaced.
func (d *Debugger) AddBreakpoint(addr uint32) {
	d.mu.Lock()
	d.breakpoints[addr] = &Breakpoint{Address: addr}
	d.mu.Unlock()
}

// AddTemporaryBreakpoint adds a breakpoint that is removed the first time
// it is hit. It does not replace a permanent breakpoint at the same address.
func (d *Debugger) AddTemporaryBreakpoint(addr uint32) {
	d.mu.Lock()
	if _, ok := d.breakpoints[addr]; !ok {
		d.breakpoints[addr] = &Breakpoint{Address: addr, Temporary: true}
	}
	d.mu.Unlock()
}

// EnableBreakpoint enables or disables the breakpoint at 'addr'. It returns
// false if there is no such breakpoint.
func (d *Debugger) EnableBreakpoint(addr uint32, enable bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.breakpoints[addr]
	if ok {
		b.Disabled = !enable
	}
	return ok
}

// RemoveBreakpoint removes a breakpoint from the debugger.
func (d *Debugger) RemoveBreakpoint(addr uint32) {
	d.mu.Lock()
	delete(d.breakpoints, addr)
	d.mu.Unlock()
}

// IsBreakpoint returns true if an enabled breakpoint is set at 'addr'.
func (d *Debugger) IsBreakpoint(addr uint32) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.breakpoints[addr]
	return ok && !b.Disabled
}

// RemoveIfTemporary removes the breakpoint at 'addr' if it is temporary.
func (d *Debugger) RemoveIfTemporary(addr uint32) {
	d.mu.Lock()
	if b, ok := d.breakpoints[addr]; ok && b.Temporary {
		delete(d.breakpoints, addr)
	}
	d.mu.Unlock()
}

// GetDataBreakpoint looks up a data breakpoint on the provided address
// and returns a copy of it if found. Otherwise it returns nil.
func (d *Debugger) GetDataBreakpoint(addr uint32) *DataBreakpoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if b, ok := d.dataBreakpoints[addr]; ok {
		bb := *b
		return &bb
	}
	return nil
}

// GetDataBreakpoints returns copies of all data breakpoints currently set in
// the debugger, ordered by address.
func (d *Debugger) GetDataBreakpoints() []*DataBreakpoint {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var breakpoints []*DataBreakpoint
	for _, b := range d.dataBreakpoints {
		bb := *b
		breakpoints = append(breakpoints, &bb)
	}
	sort.Slice(breakpoints, func(i, j int) bool {
		return breakpoints[i].Address < breakpoints[j].Address
	})
	return breakpoints
}

// AddDataBreakpoint adds an unconditional data breakpoint on the requested
// address.
func (d *Debugger) AddDataBreakpoint(addr uint32) {
	d.mu.Lock()
	d.dataBreakpoints[addr] = &DataBreakpoint{Address: addr}
	d.mu.Unlock()
}

// AddConditionalDataBreakpoint adds a conditional data breakpoint on the
// requested address.
func (d *Debugger) AddConditionalDataBreakpoint(addr uint32, value uint32) {
	d.mu.Lock()
	d.dataBreakpoints[addr] = &DataBreakpoint{
		Address:     addr,
		Conditional: true,
		Value:       value,
	}
	d.mu.Unlock()
}

// EnableDataBreakpoint enables or disables the data breakpoint at 'addr'.
// It returns false if there is no such breakpoint.
func (d *Debugger) EnableDataBreakpoint(addr uint32, enable bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.dataBreakpoints[addr]
	if ok {
		b.Disabled = !enable
	}
	return ok
}

// RemoveDataBreakpoint removes a (conditional or unconditional) data
// breakpoint at the requested address.
func (d *Debugger) RemoveDataBreakpoint(addr uint32) {
	d.mu.Lock()
	delete(d.dataBreakpoints, addr)
	d.mu.Unlock()
}

func (d *Debugger) onBreakpoint(cpu *CPU, b *Breakpoint) {
	if d.breakpointHandler != nil {
		d.breakpointHandler.OnBreakpoint(cpu, b)
	}
}

// onDataStore checks a store of 'size' bytes of 'v' at 'addr' against the
// data breakpoints. A breakpoint triggers on any store overlapping its
// address. It returns true if a breakpoint was hit.
func (d *Debugger) onDataStore(cpu *CPU, addr uint32, size int, v uint64) bool {
	d.mu.RLock()
	var hit *DataBreakpoint
	for i := 0; i < size && hit == nil; i++ {
		if b, ok := d.dataBreakpoints[addr+uint32(i)]; ok && !b.Disabled {
			if !b.Conditional || uint64(b.Value) == v {
				bb := *b
				hit = &bb
			}
		}
	}
	d.mu.RUnlock()

	if hit == nil {
		return false
	}
	if d.breakpointHandler != nil {
		d.breakpointHandler.OnDataBreakpoint(cpu, hit)
	}
	return true
}
