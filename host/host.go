// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a system with a
// Gekko CPU, a flat block of RAM, a timing scheduler, high-level function
// hooks and a built-in debugger.
//
// Within the host it is possible to load raw program images into memory,
// debug and step through machine code, measure the number of CPU cycles
// elapsed, set address and data breakpoints, dump the contents of memory,
// disassemble the contents of memory, manipulate CPU registers and install
// native or Lua-scripted replacements for guest functions.
package host

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/gekko/cpu"
	"github.com/beevik/gekko/disasm"
	"github.com/beevik/gekko/hle"
	"github.com/beevik/gekko/internal/log"
	"github.com/beevik/gekko/timing"
)

// Default memory layout: 24MB of main RAM at physical address 0.
const (
	DefaultMemBase = 0x00000000
	DefaultMemSize = 0x01800000
)

// Config describes the emulated system.
type Config struct {
	MemBase uint32 // physical address of the first byte of RAM
	MemSize int    // bytes of RAM; DefaultMemSize if zero
	Slice   int    // cycles per timing slice; timing.DefaultSlice if zero
}

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
)

// A Host represents a fully emulated Gekko system together with a
// debugger and other useful tools.
type Host struct {
	input        *bufio.Scanner
	output       *bufio.Writer
	interactive  bool
	mem          *cpu.FlatMemory
	cpu          *cpu.CPU
	debugger     *cpu.Debugger
	clock        *timing.Clock
	hooks        *hle.Registry
	lastCmd      *cmd.Selection
	state        state
	stepOverAddr uint32
	stepping     bool
	exprParser   *exprParser
	settings     *settings
}

// New creates a new host environment.
func New(config Config) *Host {
	if config.MemSize <= 0 {
		config.MemSize = DefaultMemSize
	}

	h := &Host{
		output:     bufio.NewWriter(os.Stdout),
		state:      stateProcessingCommands,
		exprParser: newExprParser(),
		settings:   newSettings(),
	}

	// Create the emulated CPU and memory.
	h.mem = cpu.NewFlatMemory(config.MemBase, config.MemSize)
	h.cpu = cpu.NewCPU(h.mem)
	h.cpu.SetPC(config.MemBase)

	// Drive the CPU from a scheduler that knows how far into the current
	// slice it has run.
	h.clock = timing.NewClock(config.Slice)
	h.clock.SetDowncount(func() int { return h.cpu.Cursor.Downcount })
	h.cpu.AttachClock(h.clock)

	h.hooks = hle.NewRegistry()
	h.cpu.AttachHooks(h.hooks)

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger(h)
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// CPU returns the emulated CPU.
func (h *Host) CPU() *cpu.CPU {
	return h.cpu
}

// Close releases the resources held by the host's function hooks.
func (h *Host) Close() {
	h.hooks.Close()
}

// LoadImage copies a raw big-endian program image from a file into memory
// at 'addr' and moves the program counter there.
func (h *Host) LoadImage(filename string, addr uint32) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := h.mem.StoreBytes(addr, b); err != nil {
		return fmt.Errorf("loading '%s' at %08X: %w", filepath.Base(filename), addr, err)
	}
	h.cpu.SetPC(addr)
	h.settings.NextDisasmAddr = addr
	log.Info(log.Host, "Loaded '%s' to %08X..%08X", filepath.Base(filename), addr, addr+uint32(len(b))-1)
	return nil
}

// LoadHooks runs a Lua hook script.
func (h *Host) LoadHooks(filename string) error {
	return h.hooks.LoadScript(filename)
}

// SetPC moves the program counter.
func (h *Host) SetPC(addr uint32) {
	h.cpu.SetPC(addr)
	h.settings.NextDisasmAddr = addr
}

// Run executes the CPU without the debugger until it stops, either because
// Break was called or because it reached an invalid instruction.
func (h *Host) Run() error {
	h.cpu.DetachDebugger()
	defer h.cpu.AttachDebugger(h.debugger)
	return h.run()
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	h.displayPC()

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}

		hc, ok := c.Command.Data.(*command)
		if !ok {
			h.println("Command not found.")
			continue
		}
		h.lastCmd = &c
		if err := hc.handler(h, c); err != nil {
			break
		}
	}
	h.flush()
}

// Break interrupts a running CPU. It may be called from any goroutine.
func (h *Host) Break() {
	h.cpu.Control.Break()
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return strings.TrimSpace(h.input.Text()), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		h.println(h.disassemble(h.cpu.Cursor.PC, h.settings.ShowCycles))
	}
}

// disassemble renders one line of disassembly: the address, the
// instruction bytes and the instruction.
func (h *Host) disassemble(addr uint32, cycles bool) string {
	line, _ := disasm.Disassemble(h.cpu.InstSet, h.mem, addr)
	word, ok := h.mem.Read32(addr)
	code := "?? ?? ?? ??"
	if ok {
		code = wordString(word)
	}

	str := fmt.Sprintf("%08X-   %s   %-28s", addr, code, line)
	if cycles {
		str += fmt.Sprintf(" C=%d", h.cpu.Cycles)
	}
	return strings.TrimRight(str, " ")
}

// run executes the CPU until it stops.
func (h *Host) run() error {
	h.state = stateRunning
	h.cpu.Control.SetState(cpu.Running)
	err := h.cpu.Run()
	h.cpu.Control.SetState(cpu.Stopped)
	return err
}

// step executes a single instruction.
func (h *Host) step() error {
	return h.cpu.SingleStep()
}

// stepOver executes a single instruction. A branch and link is followed by
// running until the CPU returns to the following instruction.
func (h *Host) stepOver() error {
	c := h.cpu
	pc := c.Cursor.PC
	word, ok := h.mem.ReadInstruction(pc)
	info := c.InstSet.Info(c.InstSet.Decode(word))
	if !ok || info.Type != cpu.OpTypeBranch || !cpu.Inst(word).LK() {
		return h.step()
	}

	if err := h.step(); err != nil {
		return err
	}

	// Place a step-over breakpoint on the instruction following the call
	// and run until it is reached.
	next := pc + cpu.InstWidth
	if c.Cursor.PC == next {
		return nil
	}
	h.debugger.AddTemporaryBreakpoint(next)
	h.stepOverAddr, h.stepping = next, true
	err := h.run()
	h.stepping = false
	h.debugger.RemoveIfTemporary(next)
	return err
}

// OnBreakpoint is called by the debugger when the CPU reaches a
// breakpoint.
func (h *Host) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	if h.stepping && b.Temporary && b.Address == h.stepOverAddr {
		return
	}
	h.state = stateBreakpoint
	h.printf("Breakpoint hit at %08X.\n", b.Address)
	h.displayPC()
}

// OnDataBreakpoint is called by the debugger when the CPU stores to a
// watched address.
func (h *Host) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	h.state = stateBreakpoint
	h.printf("Data breakpoint hit on address %08X.\n", b.Address)
	h.displayPC()
}

func (h *Host) parseExpr(expr string) (uint32, error) {
	return h.exprParser.Parse(expr, h)
}

func (h *Host) resolveIdentifier(s string) (uint32, error) {
	reg := &h.cpu.Reg
	switch strings.ToLower(s) {
	case ".", "pc":
		return h.cpu.Cursor.PC, nil
	case "lr":
		return reg.LR, nil
	case "ctr":
		return reg.CTR, nil
	case "cr":
		return reg.CR, nil
	case "xer":
		return reg.XER, nil
	case "msr":
		return reg.MSR, nil
	case "srr0":
		return reg.SRR0, nil
	case "srr1":
		return reg.SRR1, nil
	case "dec":
		return h.cpu.Decrementer(), nil
	}
	if n, ok := gprNumber(s); ok {
		return reg.GPR[n], nil
	}

	hook, err := h.hooks.Lookup(s)
	if err != nil {
		return 0, fmt.Errorf("identifier '%s' not found", s)
	}
	return hook.Addr, nil
}

// gprNumber parses a general purpose register name such as "r12".
func gprNumber(s string) (int, bool) {
	if len(s) < 2 || len(s) > 3 || (s[0] != 'r' && s[0] != 'R') {
		return 0, false
	}
	n := 0
	for i := 1; i < len(s); i++ {
		if !decimal(s[i]) {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, n < 32
}

// dumpMemory displays 16 bytes per line, aligned to 16-byte boundaries.
// Bytes outside the mapped range display as "??".
func (h *Host) dumpMemory(addr0, bytes uint32) {
	if bytes == 0 {
		return
	}
	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffffffff
	}

	const chars = 10 + 16*3
	buf := []byte(strings.Repeat(" ", chars+16))
	buf[8] = '-'

	for row := uint64(addr0 &^ 15); row <= uint64(addr1); row += 16 {
		addrToBuf(uint32(row), buf[0:8])
		for i := 0; i < 16; i++ {
			a := uint32(row) + uint32(i)
			c1, c2 := 10+3*i, chars+i
			switch m, ok := h.mem.Read8(a); {
			case a < addr0 || a > addr1:
				buf[c1], buf[c1+1], buf[c2] = ' ', ' ', ' '
			case !ok:
				buf[c1], buf[c1+1], buf[c2] = '?', '?', '?'
			default:
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			}
		}
		h.println(strings.TrimRight(string(buf), " "))
	}
}

func (h *Host) displayUsage(c cmd.Selection) {
	if u := c.Command.Data.(*command).usage; u != "" {
		h.printf("Syntax: %s\n", u)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayHelpText(c *command) {
	if c.usage != "" {
		h.printf("Syntax: %s\n\n", c.usage)
	}
	switch {
	case c.description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, c.description))
	case c.brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, c.brief))
	}
}

func (h *Host) displayCommands(g *commandGroup) {
	h.printf("%s commands:\n", g.name)
	for _, c := range g.commands {
		if c.brief != "" {
			h.printf("    %-15s  %s\n", c.name, c.brief)
		}
	}
	for _, sub := range g.groups {
		h.printf("    %-15s  %s\n", sub.name, sub.brief)
	}
}
