// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tablegen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/gekko/dispatch"
)

// Separator delimits the cells of a table source row.
const Separator = ';'

// Wildcard is the cell value that stands for the opcode's own name.
const Wildcard = "*"

const (
	markerCell   = "==="
	subtableCell = "->"
	commentCell  = "#"
)

// Parse errors
var (
	ErrSubtableCells    = errors.New("not enough cells for subtable reference")
	ErrMarkerCells      = errors.New("not enough cells for table marker")
	ErrInstructionCells = errors.New("not enough cells for instruction description")
	ErrFieldWidth       = errors.New("field width is not 1-6 bits")
	ErrFieldShift       = errors.New("field shift places the field outside a 32-bit word")
)

// A ParseError describes a malformed row of table source.
type ParseError struct {
	Line int    // 1-based line number
	Name string // table name, if the row is a marker
	Err  error
}

func (e *ParseError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("line %d: table %q: %v", e.Line, e.Name, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A Line is one row of table source. It is one of *Instruction, *SubTable,
// *Marker or Empty.
type Line interface {
	line()
}

// An Instruction row defines one operation.
type Instruction struct {
	Name    string   // operation name
	Type    string   // category tag, copied verbatim into the op info table
	Flags   string   // behavior flags, copied verbatim into the op info table
	Columns []string // free-form per-op cells
}

// A SubTable row routes its slot to the named child table.
type SubTable struct {
	Name string
}

// A Marker row opens a table whose slots are selected by a bit field of the
// instruction word.
type Marker struct {
	Name        string
	Shift       int
	Width       int
	Description string
}

// Empty is a blank or comment row. It reserves one slot.
type Empty struct{}

func (*Instruction) line() {}
func (*SubTable) line()    {}
func (*Marker) line()      {}
func (Empty) line()        {}

// Column returns the i-th free-form cell of the instruction, or the empty
// string if the row has fewer cells.
func (inst *Instruction) Column(i int) string {
	if i < len(inst.Columns) {
		return inst.Columns[i]
	}
	return ""
}

// ReadLines reads table source from 'r' and converts each row into a Line.
func ReadLines(r io.Reader) ([]Line, error) {
	var lines []Line
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		l, err := parseRow(strings.TrimRight(sc.Text(), "\r"), n)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ParseLines is a convenience wrapper around ReadLines for in-memory table
// source.
func ParseLines(src string) ([]Line, error) {
	return ReadLines(strings.NewReader(src))
}

func parseRow(row string, n int) (Line, error) {
	if row == "" {
		return Empty{}, nil
	}

	cells := strings.Split(row, string(Separator))
	head, cells := cells[0], cells[1:]

	switch head {
	case subtableCell:
		if len(cells) < 1 {
			return nil, &ParseError{Line: n, Err: ErrSubtableCells}
		}
		return &SubTable{Name: cells[0]}, nil

	case markerCell:
		if len(cells) < 4 {
			return nil, &ParseError{Line: n, Err: ErrMarkerCells}
		}
		return parseMarker(cells, n)

	case "", commentCell:
		return Empty{}, nil

	default:
		if len(cells) < 2 {
			return nil, &ParseError{Line: n, Err: ErrInstructionCells}
		}
		return &Instruction{
			Name:    head,
			Type:    cells[0],
			Flags:   cells[1],
			Columns: cells[2:],
		}, nil
	}
}

func parseMarker(cells []string, n int) (*Marker, error) {
	name := cells[0]
	shift, err := strconv.Atoi(strings.TrimSpace(cells[1]))
	if err != nil {
		return nil, &ParseError{Line: n, Name: name, Err: fmt.Errorf("%w: %v", ErrFieldShift, err)}
	}
	width, err := strconv.Atoi(strings.TrimSpace(cells[2]))
	if err != nil {
		return nil, &ParseError{Line: n, Name: name, Err: fmt.Errorf("%w: %v", ErrFieldWidth, err)}
	}

	if width < 1 || width > dispatch.MaxWidth {
		return nil, &ParseError{Line: n, Name: name, Err: ErrFieldWidth}
	}
	if shift < 0 || shift > 32-width {
		return nil, &ParseError{Line: n, Name: name, Err: ErrFieldShift}
	}

	return &Marker{Name: name, Shift: shift, Width: width, Description: cells[3]}, nil
}
