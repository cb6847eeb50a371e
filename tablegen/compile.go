// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tablegen compiles a hierarchical opcode table into the dispatch
// forest and operation tables used by the runtime decoder.
//
// Table source is line oriented. A marker row opens a table whose slots are
// selected by a bit field of the instruction word; every following row up
// to the next marker occupies one slot, in field-value order:
//
//	===;Primary;26;6;Primary opcode table
//	#  slot 0 holds no instruction
//	->;Table4
//	addi;Integer;FL_OUT_D|FL_IN_A0;1
//
// Operation identifiers are assigned in the order operations are reached
// while compiling, starting at 1. Identifier 0 is reserved for words that
// match no operation.
package tablegen

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/beevik/gekko/dispatch"
)

// Compile errors
var (
	ErrTableNotFound = errors.New("subtable not found")
	ErrTableOverflow = errors.New("table has more rows than its field has values")
	ErrCyclicTable   = errors.New("table references itself")
)

// InvalidInstruction is the placeholder occupying OpID 0 of every compiled
// table.
var InvalidInstruction = &Instruction{Name: "Invalid Opcode", Type: "Invalid", Flags: "0"}

// A TableInfo names the source table a dispatch node was compiled from.
type TableInfo struct {
	Name        string
	Description string
}

// A Table is the result of compiling table source.
type Table struct {
	Ops    []*Instruction  // indexed by OpID; Ops[0] is InvalidInstruction
	Nodes  []dispatch.Node // dispatch forest; Nodes[0] is the root
	Tables []TableInfo     // parallel to Nodes
}

// Compile builds the dispatch forest rooted at the table named 'root'.
func Compile(root string, lines []Line) (*Table, error) {
	c := &compiler{
		lines: lines,
		t: &Table{
			Ops:    []*Instruction{InvalidInstruction},
			Nodes:  make([]dispatch.Node, 1),
			Tables: []TableInfo{{Name: root}},
		},
	}
	if err := c.compile(0, root); err != nil {
		return nil, err
	}
	return c.t, nil
}

// Lookup decodes 'word' using the compiled forest.
func (t *Table) Lookup(word uint32) dispatch.OpID {
	return dispatch.Lookup(t.Nodes, word)
}

// Leaves returns the number of operations defined directly by node 'i'.
func (t *Table) Leaves(i int) int {
	return bits.OnesCount64(t.Nodes[i].Leaves)
}

type compiler struct {
	lines []Line
	t     *Table
	path  []string // names of the tables currently being compiled
}

// compile fills in node 'index' from the table called 'name' and then
// compiles its children depth first. Child nodes are appended to the forest
// as a contiguous run only after this node's offsets have been fixed, so
// nothing compiled later can move them.
func (c *compiler) compile(index int, name string) error {
	for _, p := range c.path {
		if p == name {
			return fmt.Errorf("%w: %q", ErrCyclicTable, name)
		}
	}
	c.path = append(c.path, name)
	defer func() { c.path = c.path[:len(c.path)-1] }()

	start, m := c.findMarker(name)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}

	node := dispatch.Node{
		OpStart:    uint32(len(c.t.Ops)),
		ChildStart: uint32(len(c.t.Nodes)),
		Shift:      uint8(m.Shift),
		Width:      uint8(m.Width),
	}
	c.t.Tables[index].Description = m.Description

	slots := 1 << m.Width
	var children []string

	end := start
	for ; end < len(c.lines) && end-start < slots; end++ {
		if _, ok := c.lines[end].(*Marker); ok {
			break
		}
		slot := uint(end - start)
		switch l := c.lines[end].(type) {
		case *Instruction:
			c.t.Ops = append(c.t.Ops, l)
			node.Leaves |= 1 << slot
		case *SubTable:
			children = append(children, l.Name)
			node.Subtables |= 1 << slot
		}
	}

	// A full table may be followed only by blank rows before the next
	// marker.
	if end-start == slots {
	trailing:
		for _, l := range c.lines[end:] {
			switch l.(type) {
			case *Marker:
				break trailing
			case Empty:
			default:
				return fmt.Errorf("%w: %q (%d-bit field) is longer than %d",
					ErrTableOverflow, name, m.Width, slots)
			}
		}
	}

	c.t.Nodes[index] = node

	first := len(c.t.Nodes)
	for _, child := range children {
		c.t.Nodes = append(c.t.Nodes, dispatch.Node{})
		c.t.Tables = append(c.t.Tables, TableInfo{Name: child})
	}
	for i, child := range children {
		if err := c.compile(first+i, child); err != nil {
			return err
		}
	}
	return nil
}

// findMarker returns the marker opening the table called 'name' and the
// index of the row following it.
func (c *compiler) findMarker(name string) (int, *Marker) {
	for i, l := range c.lines {
		if m, ok := l.(*Marker); ok && m.Name == name {
			return i + 1, m
		}
	}
	return 0, nil
}
