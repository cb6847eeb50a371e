// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tablegen_test

import (
	"errors"
	"math/bits"
	"reflect"
	"strings"
	"testing"

	"github.com/beevik/gekko/dispatch"
	"github.com/beevik/gekko/tablegen"
)

func compile(t *testing.T, src string) *tablegen.Table {
	t.Helper()
	lines, err := tablegen.ParseLines(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	table, err := tablegen.Compile("Primary", lines)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return table
}

func compileErr(t *testing.T, src string) error {
	t.Helper()
	lines, err := tablegen.ParseLines(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = tablegen.Compile("Primary", lines)
	return err
}

func expectOp(t *testing.T, table *tablegen.Table, word uint32, name string) {
	t.Helper()
	id := table.Lookup(word)
	if name == "" {
		if id != dispatch.Invalid {
			t.Errorf("word %08X incorrect. exp: Invalid, got: %s", word, table.Ops[id].Name)
		}
		return
	}
	if id == dispatch.Invalid {
		t.Errorf("word %08X incorrect. exp: %s, got: Invalid", word, name)
		return
	}
	if got := table.Ops[id].Name; got != name {
		t.Errorf("word %08X incorrect. exp: %s, got: %s", word, name, got)
	}
}

var scenarioSrc = "===;Primary;26;6;Primary opcode table\n" +
	strings.Repeat("#\n", 0x1f) +
	"Halt;Integer;0;1\n" +
	"->;Ext\n" +
	"===;Ext;0;2;Extended table\n" +
	"\n" +
	"Add;Integer;0;2\n"

func TestScenario(t *testing.T) {
	table := compile(t, scenarioSrc)

	expectOp(t, table, 0x7c000001, "Halt")
	expectOp(t, table, 0x80000001, "Add")
	expectOp(t, table, 0x80000000, "")
	expectOp(t, table, 0x84000000, "")

	halt := table.Lookup(0x7c000001)
	add := table.Lookup(0x80000001)
	if halt != 1 || add != 2 {
		t.Errorf("OpIDs incorrect. exp: 1 2, got: %d %d", halt, add)
	}
	if c := table.Ops[halt].Column(0); c != "1" {
		t.Errorf("Halt cycles incorrect. exp: 1, got: %s", c)
	}
	if c := table.Ops[add].Column(0); c != "2" {
		t.Errorf("Add cycles incorrect. exp: 2, got: %s", c)
	}
	if len(table.Nodes) != 2 || table.Nodes[1].Shift != 0 || table.Nodes[1].Width != 2 {
		t.Errorf("unexpected forest: %+v", table.Nodes)
	}
}

func TestShortTable(t *testing.T) {
	table := compile(t, "===;Primary;0;3;short\na;Integer;0\nb;Integer;0\n")
	n := table.Nodes[0]
	if n.Leaves != 0b11 || n.Subtables != 0 {
		t.Errorf("bitmaps incorrect. got: %b %b", n.Leaves, n.Subtables)
	}
	expectOp(t, table, 0, "a")
	expectOp(t, table, 1, "b")
	for w := uint32(2); w < 8; w++ {
		expectOp(t, table, w, "")
	}
}

func TestFullTable(t *testing.T) {
	src := "===;Primary;0;1;full\na;Integer;0\nb;Integer;0\n\n#\n===;Other;0;1;x\nc;Integer;0\n"
	table := compile(t, src)
	expectOp(t, table, 0, "a")
	expectOp(t, table, 1, "b")
}

func TestTableOverflow(t *testing.T) {
	src := "===;Primary;0;1;full\na;Integer;0\nb;Integer;0\n\nc;Integer;0\n"
	err := compileErr(t, src)
	if !errors.Is(err, tablegen.ErrTableOverflow) {
		t.Errorf("expected overflow error, got %v", err)
	}

	src = "===;Primary;0;1;full\n->;Sub\n\n===;Sub;0;1;sub\na;Integer;0\nb;Integer;0\n->;Sub2\n"
	err = compileErr(t, src)
	if !errors.Is(err, tablegen.ErrTableOverflow) {
		t.Errorf("expected overflow error in subtable, got %v", err)
	}
}

func TestMissingTable(t *testing.T) {
	err := compileErr(t, "===;Primary;0;1;root\n->;Nowhere\n")
	if !errors.Is(err, tablegen.ErrTableNotFound) {
		t.Errorf("expected missing table error, got %v", err)
	}

	err = compileErr(t, "===;Other;0;1;root\n")
	if !errors.Is(err, tablegen.ErrTableNotFound) {
		t.Errorf("expected missing root error, got %v", err)
	}
}

func TestCyclicTable(t *testing.T) {
	src := "===;Primary;0;1;root\n->;A\n===;A;1;1;a\n->;Primary\n"
	err := compileErr(t, src)
	if !errors.Is(err, tablegen.ErrCyclicTable) {
		t.Errorf("expected cyclic table error, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		line int
		err  error
	}{
		{"===;T;0;7;wide\n", 1, tablegen.ErrFieldWidth},
		{"===;T;0;0;narrow\n", 1, tablegen.ErrFieldWidth},
		{"\n===;T;27;6;shifted\n", 2, tablegen.ErrFieldShift},
		{"===;T;-1;6;negative\n", 1, tablegen.ErrFieldShift},
		{"===;T;x;6;garbage\n", 1, tablegen.ErrFieldShift},
		{"===;T;1;2\n", 1, tablegen.ErrMarkerCells},
		{"#\n#\n->\n", 3, tablegen.ErrSubtableCells},
		{"add;Integer\n", 1, tablegen.ErrInstructionCells},
	}
	for _, tt := range tests {
		_, err := tablegen.ParseLines(tt.src)
		var perr *tablegen.ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%q: expected parse error, got %v", tt.src, err)
			continue
		}
		if perr.Line != tt.line || !errors.Is(err, tt.err) {
			t.Errorf("%q: incorrect error. exp: line %d %v, got: %v", tt.src, tt.line, tt.err, err)
		}
	}
}

func TestParseRows(t *testing.T) {
	lines, err := tablegen.ParseLines("===;T;26;6;desc;ignored\n->;Sub\n\n#;comment\nmr;Integer;FL_OUT_A;1;*;rA,rS\n;x\n")
	if err != nil {
		t.Fatal(err)
	}
	exp := []tablegen.Line{
		&tablegen.Marker{Name: "T", Shift: 26, Width: 6, Description: "desc"},
		&tablegen.SubTable{Name: "Sub"},
		tablegen.Empty{},
		tablegen.Empty{},
		&tablegen.Instruction{Name: "mr", Type: "Integer", Flags: "FL_OUT_A", Columns: []string{"1", "*", "rA,rS"}},
		tablegen.Empty{},
	}
	if !reflect.DeepEqual(lines, exp) {
		t.Errorf("rows incorrect.\nexp: %#v\ngot: %#v", exp, lines)
	}
}

// nestedSrc has two levels of subtables so that a child reached late in the
// root is compiled after the whole subtree of an earlier child.
const nestedSrc = `===;Primary;4;2;root
->;A
op1;Integer;0
->;B
op2;Integer;0
===;A;2;2;a
a1;Integer;0
->;AA
a2;Integer;0
===;AA;0;2;aa
aa1;Integer;0

aa2;Integer;0
===;B;0;2;b

b1;Integer;0
`

func TestCompileOrder(t *testing.T) {
	table := compile(t, nestedSrc)

	var names []string
	for _, op := range table.Ops[1:] {
		names = append(names, op.Name)
	}
	exp := []string{"op1", "op2", "a1", "a2", "aa1", "aa2", "b1"}
	if !reflect.DeepEqual(names, exp) {
		t.Errorf("OpID order incorrect. exp: %v, got: %v", exp, names)
	}

	var tables []string
	for _, info := range table.Tables {
		tables = append(tables, info.Name)
	}
	expTables := []string{"Primary", "A", "B", "AA"}
	if !reflect.DeepEqual(tables, expTables) {
		t.Errorf("node order incorrect. exp: %v, got: %v", expTables, tables)
	}

	expectOp(t, table, 0x10, "op1")
	expectOp(t, table, 0x30, "op2")
	expectOp(t, table, 0x00, "a1")
	expectOp(t, table, 0x08, "a2")
	expectOp(t, table, 0x04, "aa1")
	expectOp(t, table, 0x05, "")
	expectOp(t, table, 0x06, "aa2")
	expectOp(t, table, 0x0c, "")
	expectOp(t, table, 0x21, "b1")
	expectOp(t, table, 0x20, "")
}

func TestDeterminism(t *testing.T) {
	a := compile(t, nestedSrc)
	b := compile(t, nestedSrc)
	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Errorf("nodes differ between compilations")
	}
	if !reflect.DeepEqual(a.Ops, b.Ops) {
		t.Errorf("ops differ between compilations")
	}
}

// leafWords returns a word for every leaf reachable from node 'i', with all
// bits not examined along the path left at zero.
func leafWords(nodes []dispatch.Node, i int, word uint32, out map[uint32]dispatch.OpID) {
	n := &nodes[i]
	for slot := uint(0); slot < 1<<n.Width; slot++ {
		w := word | uint32(slot)<<n.Shift
		switch {
		case n.IsLeaf(slot):
			out[w] = n.Op(slot)
		case n.IsSubtable(slot):
			leafWords(nodes, n.Child(slot), w, out)
		}
	}
}

func checkForest(t *testing.T, table *tablegen.Table) {
	t.Helper()

	for i, n := range table.Nodes {
		if n.Leaves&n.Subtables != 0 {
			t.Errorf("node %d: slot is both leaf and subtable", i)
		}
		if n.Width < 6 {
			if (n.Leaves|n.Subtables)>>(1<<n.Width) != 0 {
				t.Errorf("node %d: bits set beyond field width", i)
			}
		}

		// Leaf ranks must be strictly increasing and cover exactly the
		// node's range of OpIDs.
		next := dispatch.OpID(n.OpStart)
		for slot := uint(0); slot < 1<<n.Width; slot++ {
			if n.IsLeaf(slot) {
				if got := n.Op(slot); got != next {
					t.Errorf("node %d slot %d: OpID incorrect. exp: %d, got: %d", i, slot, next, got)
				}
				next++
			}
		}
		if int(next-dispatch.OpID(n.OpStart)) != bits.OnesCount64(n.Leaves) {
			t.Errorf("node %d: leaf range incorrect", i)
		}
	}

	words := make(map[uint32]dispatch.OpID)
	leafWords(table.Nodes, 0, 0, words)
	if len(words) != len(table.Ops)-1 {
		t.Errorf("leaf count incorrect. exp: %d, got: %d", len(table.Ops)-1, len(words))
	}
	for w, id := range words {
		if got := table.Lookup(w); got != id {
			t.Errorf("word %08X decoded incorrectly. exp: %d, got: %d", w, id, got)
		}
	}
}

func TestForestProperties(t *testing.T) {
	checkForest(t, compile(t, scenarioSrc))
	checkForest(t, compile(t, nestedSrc))
}
