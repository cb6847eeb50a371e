// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tablegen

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// OutputFlags select the derived tables written by WriteOutput.
type OutputFlags uint8

const (
	// OutputRanges writes the first and one-past-last OpID of every table.
	OutputRanges OutputFlags = 1 << iota

	// OutputDecoding writes the dispatch forest as dispatch.Node literals.
	OutputDecoding

	// OutputOpInfo writes one {name, type, flags} literal per operation.
	OutputOpInfo
)

// A Column selects a free-form instruction cell for a custom output table.
type Column struct {
	Index   int    // cell index, 0-9
	Prefix  string // prepended to the op name when the cell is the wildcard
	Suffix  string // appended to the op name when the cell is the wildcard
	Default string // used when the op leaves the cell empty
}

// Options describe one output destination.
type Options struct {
	Flags   OutputFlags
	Columns []Column
}

// Empty returns true if the options select nothing to write.
func (o *Options) Empty() bool {
	return o.Flags == 0 && len(o.Columns) == 0
}

// WriteOutput writes the tables selected by 'opts' to 'w' as Go source
// fragments.
func (t *Table) WriteOutput(w io.Writer, opts Options) error {
	bw := bufio.NewWriter(w)

	if opts.Flags&OutputRanges != 0 {
		for i, info := range t.Tables {
			start := t.Nodes[i].OpStart
			fmt.Fprintf(bw, "%s = %d // %s\n", info.Name, start, info.Description)
			fmt.Fprintf(bw, "%s_End = %d\n", info.Name, int(start)+t.Leaves(i))
		}
		fmt.Fprintf(bw, "End = %d\n", len(t.Ops))
	}

	if opts.Flags&OutputDecoding != 0 {
		for _, n := range t.Nodes {
			fmt.Fprintf(bw, "{Leaves: 0x%016x, Subtables: 0x%016x, OpStart: %d, ChildStart: %d, Shift: %d, Width: %d},\n",
				n.Leaves, n.Subtables, n.OpStart, n.ChildStart, n.Shift, n.Width)
		}
	}

	if opts.Flags&OutputOpInfo != 0 {
		for _, inst := range t.Ops[1:] {
			fmt.Fprintf(bw, "{%q, OpType%s, %s},\n", inst.Name, inst.Type, inst.Flags)
		}
	}

	if len(opts.Columns) > 0 {
		vals := make([]string, len(opts.Columns))
		for _, inst := range t.Ops[1:] {
			for i, col := range opts.Columns {
				vals[i] = col.value(inst)
			}
			if len(vals) > 1 {
				fmt.Fprintf(bw, "{%s},\n", strings.Join(vals, ", "))
			} else {
				fmt.Fprintf(bw, "%s,\n", vals[0])
			}
		}
	}

	return bw.Flush()
}

func (col *Column) value(inst *Instruction) string {
	v := inst.Column(col.Index)
	if v == "" {
		v = col.Default
	}
	if v == Wildcard {
		return col.Prefix + inst.Name + col.Suffix
	}
	return v
}
