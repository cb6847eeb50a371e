// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"encoding/binary"
	"errors"
)

// Errors
var (
	ErrMemoryOutOfBounds = errors.New("memory access out of bounds")
)

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur. Multi-byte values are big-endian. An access that
// cannot be satisfied returns false, which the CPU turns into an instruction
// or data storage exception.
type Memory interface {
	// ReadInstruction fetches the instruction word at 'addr'.
	ReadInstruction(addr uint32) (uint32, bool)

	Read8(addr uint32) (uint8, bool)
	Read16(addr uint32) (uint16, bool)
	Read32(addr uint32) (uint32, bool)
	Read64(addr uint32) (uint64, bool)

	Write8(addr uint32, v uint8) bool
	Write16(addr uint32, v uint16) bool
	Write32(addr uint32, v uint32) bool
	Write64(addr uint32, v uint64) bool
}

// FlatMemory maps a single contiguous buffer of RAM at a base address.
// Accesses outside the buffer fault.
type FlatMemory struct {
	Base uint32
	b    []byte
}

// NewFlatMemory creates 'size' bytes of RAM starting at address 'base'.
func NewFlatMemory(base uint32, size int) *FlatMemory {
	return &FlatMemory{Base: base, b: make([]byte, size)}
}

// Size returns the number of bytes of RAM.
func (m *FlatMemory) Size() int {
	return len(m.b)
}

func (m *FlatMemory) slice(addr uint32, n int) []byte {
	off := uint64(addr) - uint64(m.Base)
	if addr < m.Base || off+uint64(n) > uint64(len(m.b)) {
		return nil
	}
	return m.b[off : off+uint64(n)]
}

// ReadInstruction fetches a word-aligned instruction.
func (m *FlatMemory) ReadInstruction(addr uint32) (uint32, bool) {
	if addr&3 != 0 {
		return 0, false
	}
	return m.Read32(addr)
}

// Read8 loads a byte.
func (m *FlatMemory) Read8(addr uint32) (uint8, bool) {
	if s := m.slice(addr, 1); s != nil {
		return s[0], true
	}
	return 0, false
}

// Read16 loads a big-endian halfword.
func (m *FlatMemory) Read16(addr uint32) (uint16, bool) {
	if s := m.slice(addr, 2); s != nil {
		return binary.BigEndian.Uint16(s), true
	}
	return 0, false
}

// Read32 loads a big-endian word.
func (m *FlatMemory) Read32(addr uint32) (uint32, bool) {
	if s := m.slice(addr, 4); s != nil {
		return binary.BigEndian.Uint32(s), true
	}
	return 0, false
}

// Read64 loads a big-endian doubleword.
func (m *FlatMemory) Read64(addr uint32) (uint64, bool) {
	if s := m.slice(addr, 8); s != nil {
		return binary.BigEndian.Uint64(s), true
	}
	return 0, false
}

// Write8 stores a byte.
func (m *FlatMemory) Write8(addr uint32, v uint8) bool {
	if s := m.slice(addr, 1); s != nil {
		s[0] = v
		return true
	}
	return false
}

// Write16 stores a big-endian halfword.
func (m *FlatMemory) Write16(addr uint32, v uint16) bool {
	if s := m.slice(addr, 2); s != nil {
		binary.BigEndian.PutUint16(s, v)
		return true
	}
	return false
}

// Write32 stores a big-endian word.
func (m *FlatMemory) Write32(addr uint32, v uint32) bool {
	if s := m.slice(addr, 4); s != nil {
		binary.BigEndian.PutUint32(s, v)
		return true
	}
	return false
}

// Write64 stores a big-endian doubleword.
func (m *FlatMemory) Write64(addr uint32, v uint64) bool {
	if s := m.slice(addr, 8); s != nil {
		binary.BigEndian.PutUint64(s, v)
		return true
	}
	return false
}

// LoadBytes copies memory starting at 'addr' into 'b'.
func (m *FlatMemory) LoadBytes(addr uint32, b []byte) error {
	s := m.slice(addr, len(b))
	if s == nil {
		return ErrMemoryOutOfBounds
	}
	copy(b, s)
	return nil
}

// StoreBytes copies 'b' into memory starting at 'addr'.
func (m *FlatMemory) StoreBytes(addr uint32, b []byte) error {
	s := m.slice(addr, len(b))
	if s == nil {
		return ErrMemoryOutOfBounds
	}
	copy(s, b)
	return nil
}

// StoreWords stores a sequence of big-endian words starting at 'addr'.
func (m *FlatMemory) StoreWords(addr uint32, words ...uint32) error {
	for i, w := range words {
		if !m.Write32(addr+uint32(4*i), w) {
			return ErrMemoryOutOfBounds
		}
	}
	return nil
}
