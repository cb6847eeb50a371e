// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Tablegen compiles an opcode table into Go source fragments describing the
// dispatch forest, the OpID ranges of each table and per-op columns.
//
// Options are processed in command-line order. Each -o captures the output
// options given so far and starts a new set; options following the last -o
// apply to standard output. Single-letter options may be grouped, as in
// -rDI. An option that takes a value may only end a group, and its value is
// the next argument.
//
//	tablegen -i opcodes.tbl -D -o decode.inc -rIo opinfo.inc -1p Op_ -d '*'
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/gekko/internal/log"
	"github.com/beevik/gekko/tablegen"
	"golang.org/x/term"
)

var errNoColumn = errors.New("no column defined yet; use -0..-9 first")

const (
	switchLetters = "rDIv0123456789"
	valueLetters  = "iopsd"
)

// isTerminal reports whether standard input is an interactive terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type output struct {
	path string
	opts tablegen.Options
}

type config struct {
	input   string
	root    string
	verbose bool
	outputs []output
	stdout  tablegen.Options
}

func (c *config) lastColumn() (*tablegen.Column, error) {
	if len(c.stdout.Columns) == 0 {
		return nil, errNoColumn
	}
	return &c.stdout.Columns[len(c.stdout.Columns)-1], nil
}

func newFlagSet(c *config) *flag.FlagSet {
	fs := flag.NewFlagSet("tablegen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	fs.Func("i", "read from `file`, not stdin", func(s string) error {
		c.input = s
		return nil
	})
	fs.Func("o", "write the preceding options to `file`", func(s string) error {
		c.outputs = append(c.outputs, output{path: s, opts: c.stdout})
		c.stdout = tablegen.Options{}
		return nil
	})
	fs.StringVar(&c.root, "root", "Primary", "`name` of the root table")
	fs.BoolVar(&c.verbose, "v", false, "log compilation details")
	fs.BoolFunc("r", "generate OpID range definitions", func(string) error {
		c.stdout.Flags |= tablegen.OutputRanges
		return nil
	})
	fs.BoolFunc("D", "generate the decoding table", func(string) error {
		c.stdout.Flags |= tablegen.OutputDecoding
		return nil
	})
	fs.BoolFunc("I", "generate the opinfo table", func(string) error {
		c.stdout.Flags |= tablegen.OutputOpInfo
		return nil
	})
	for d := 0; d <= 9; d++ {
		fs.BoolFunc(strconv.Itoa(d), "add column "+strconv.Itoa(d)+" to a custom table", func(string) error {
			c.stdout.Columns = append(c.stdout.Columns, tablegen.Column{Index: d})
			return nil
		})
	}
	fs.Func("p", "set the `prefix` of the previous column", func(s string) error {
		col, err := c.lastColumn()
		if err == nil {
			col.Prefix = s
		}
		return err
	})
	fs.Func("s", "set the `suffix` of the previous column", func(s string) error {
		col, err := c.lastColumn()
		if err == nil {
			col.Suffix = s
		}
		return err
	})
	fs.Func("d", "set the `default` of the previous column (* for the op name)", func(s string) error {
		col, err := c.lastColumn()
		if err == nil {
			col.Default = s
		}
		return err
	})
	return fs
}

// splitGroups expands grouped single-letter options such as -rDI into
// -r -D -I. The argument following an option that takes a value is passed
// through untouched, as is everything after "--".
func splitGroups(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	value := false
	for i, a := range args {
		switch {
		case value:
			out = append(out, a)
			value = false
			continue
		case a == "--":
			return append(out, args[i:]...), nil
		}

		letters := strings.TrimPrefix(a, "-")
		if letters == a || letters == "" || strings.Trim(letters, switchLetters+valueLetters) != "" {
			out = append(out, a)
			value = a == "-root" || a == "--root"
			continue
		}
		for j := 0; j < len(letters); j++ {
			if strings.IndexByte(valueLetters, letters[j]) >= 0 {
				if j != len(letters)-1 {
					return nil, fmt.Errorf("option -%c takes a value and must end its group", letters[j])
				}
				value = true
			}
			out = append(out, "-"+letters[j:j+1])
		}
	}
	return out, nil
}

func usage(w io.Writer) {
	var c config
	fs := newFlagSet(&c)
	fs.SetOutput(w)
	fmt.Fprintln(w, "Usage: tablegen [options]\nOptions:")
	fs.PrintDefaults()
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return 0
	}

	args, err := splitGroups(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\nInvoke without arguments for usage description\n", err)
		return 1
	}

	c := &config{}
	fs := newFlagSet(c)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\nInvoke without arguments for usage description\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unrecognized command line argument %q.\nInvoke without arguments for usage description\n", fs.Arg(0))
		return 1
	}
	if c.verbose {
		log.SetLevel(log.LevelDebug)
	}

	if err := generate(c, stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func generate(c *config, stdin io.Reader, stdout, stderr io.Writer) error {
	in := stdin
	if c.input != "" {
		f, err := os.Open(c.input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	} else if isTerminal() {
		fmt.Fprintln(stderr, "Reading table from the terminal; end input with Ctrl-D.")
	}

	lines, err := tablegen.ReadLines(in)
	if err != nil {
		return err
	}
	table, err := tablegen.Compile(c.root, lines)
	if err != nil {
		return err
	}
	log.Debug(log.TableGen, "compiled %d ops into %d nodes", len(table.Ops)-1, len(table.Nodes))

	if !c.stdout.Empty() {
		if err := table.WriteOutput(stdout, c.stdout); err != nil {
			return err
		}
	}

	for _, o := range c.outputs {
		if err := writeFile(table, o); err != nil {
			return err
		}
		log.Debug(log.TableGen, "wrote %s", o.path)
	}
	return nil
}

func writeFile(table *tablegen.Table, o output) error {
	f, err := os.Create(o.path)
	if err != nil {
		return err
	}
	if err := table.WriteOutput(f, o.opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
