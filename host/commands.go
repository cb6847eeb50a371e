// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/gekko/cpu"
	"github.com/beevik/gekko/hle"
)

var errQuit = errors.New("exiting program")

// addressArg parses the first argument of a command that requires an
// address. It displays the command's usage when the argument is missing.
func (h *Host) addressArg(c cmd.Selection) (uint32, bool) {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return 0, false
	}
	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return addr, true
}

// countArg parses an optional numeric argument.
func (h *Host) countArg(args []string, i int, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}
	n, err := h.parseExpr(args[i])
	return int(n), err
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.displayCommands(rootGroup)
		return nil
	}

	s, err := cmds.Lookup(strings.Join(c.Args, " "))
	if err == nil && s.Command != nil {
		if hc, ok := s.Command.Data.(*command); ok {
			h.displayHelpText(hc)
			return nil
		}
	}
	if len(c.Args) == 1 {
		if g, gerr := groupTree.FindValue(c.Args[0]); gerr == nil {
			h.displayCommands(g)
			return nil
		}
	}
	if err == nil {
		err = cmd.ErrNotFound
	}
	h.printf("%v\n", err)
	return nil
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	h.println("Addr     Enabled  Temporary")
	h.println("-------- -------  ---------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("%08X %-5v    %v\n", b.Address, !b.Disabled, b.Temporary)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	if addr, ok := h.addressArg(c); ok {
		h.debugger.AddBreakpoint(addr)
		h.printf("Breakpoint added at %08X.\n", addr)
	}
	return nil
}

func (h *Host) cmdBreakpointTemp(c cmd.Selection) error {
	if addr, ok := h.addressArg(c); ok {
		h.debugger.AddTemporaryBreakpoint(addr)
		h.printf("Temporary breakpoint added at %08X.\n", addr)
	}
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}
	if h.debugger.GetBreakpoint(addr) == nil {
		h.printf("No breakpoint was set on %08X.\n", addr)
		return nil
	}
	h.debugger.RemoveBreakpoint(addr)
	h.printf("Breakpoint at %08X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c cmd.Selection) error {
	return h.enableBreakpoint(c, true)
}

func (h *Host) cmdBreakpointDisable(c cmd.Selection) error {
	return h.enableBreakpoint(c, false)
}

func (h *Host) enableBreakpoint(c cmd.Selection, enable bool) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}
	if !h.debugger.EnableBreakpoint(addr, enable) {
		h.printf("No breakpoint was set on %08X.\n", addr)
		return nil
	}
	h.printf("Breakpoint at %08X %s.\n", addr, enabledString(enable))
	return nil
}

func (h *Host) cmdDataBreakpointList(c cmd.Selection) error {
	h.println("Addr     Enabled  Value")
	h.println("-------- -------  --------")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("%08X %-5v    %08X\n", b.Address, !b.Disabled, b.Value)
		} else {
			h.printf("%08X %-5v    <none>\n", b.Address, !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}

	if len(c.Args) > 1 {
		value, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, value)
		h.printf("Conditional data breakpoint added at %08X for value %08X.\n", addr, value)
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at %08X.\n", addr)
	}
	return nil
}

func (h *Host) cmdDataBreakpointRemove(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}
	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on %08X.\n", addr)
		return nil
	}
	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at %08X removed.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointEnable(c cmd.Selection) error {
	return h.enableDataBreakpoint(c, true)
}

func (h *Host) cmdDataBreakpointDisable(c cmd.Selection) error {
	return h.enableDataBreakpoint(c, false)
}

func (h *Host) enableDataBreakpoint(c cmd.Selection, enable bool) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}
	if !h.debugger.EnableDataBreakpoint(addr, enable) {
		h.printf("No data breakpoint was set on %08X.\n", addr)
		return nil
	}
	h.printf("Data breakpoint at %08X %s.\n", addr, enabledString(enable))
	return nil
}

func enabledString(enable bool) string {
	if enable {
		return "enabled"
	}
	return "disabled"
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	var addr uint32
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextDisasmAddr
	default:
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines, err := h.countArg(c.Args, 1, h.settings.DisasmLines)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	for i := 0; i < lines; i++ {
		h.println(h.disassemble(addr, false))
		addr += cpu.InstWidth
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEvaluate(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	v, err := h.parseExpr(strings.Join(c.Args, " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("%08X (%d)\n", v, int32(v))
	return nil
}

func (h *Host) cmdEvents(c cmd.Selection) error {
	h.printf("Ticks: %d\n", h.clock.Ticks())
	pending := h.clock.Pending()
	if len(pending) == 0 {
		h.println("No pending events.")
	}
	for _, name := range pending {
		h.printf("    %s\n", name)
	}
	return nil
}

func (h *Host) cmdHooksList(c cmd.Selection) error {
	hooks := h.hooks.Hooks()
	if len(hooks) == 0 {
		h.println("No function hooks installed.")
		return nil
	}
	h.println("Addr     Type     Name")
	h.println("-------- -------  ----------------")
	for _, hk := range hooks {
		h.printf("%08X %-7v  %s\n", hk.Addr, hk.Type, hk.Name)
	}
	return nil
}

func (h *Host) cmdHooksLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	n := len(h.hooks.Hooks())
	if err := h.LoadHooks(c.Args[0]); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Loaded '%s': %d hooks installed.\n", c.Args[0], len(h.hooks.Hooks())-n)
	return nil
}

func (h *Host) cmdHooksPatch(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}
	if err := h.hooks.Patch(addr, c.Args[1]); err != nil {
		h.printf("%v\n", err)
		if errors.Is(err, hle.ErrUnknownFunction) {
			h.printf("Built-in functions: %s\n", strings.Join(hle.Builtins(), ", "))
		}
		return nil
	}
	h.printf("Patched %08X with %s.\n", addr, c.Args[1])
	return nil
}

func (h *Host) cmdHooksRemove(c cmd.Selection) error {
	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}
	if err := h.hooks.Remove(addr); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Hook at %08X removed.\n", addr)
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[1])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	if err := h.LoadImage(c.Args[0], addr); err != nil {
		h.printf("Failed to load '%s': %v\n", c.Args[0], err)
		return nil
	}
	h.printf("Loaded '%s' at %08X.\n", c.Args[0], addr)
	h.displayPC()
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	var addr uint32
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextMemDumpAddr
	default:
		a, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes, err := h.countArg(c.Args, 1, h.settings.MemDumpBytes)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.dumpMemory(addr, uint32(bytes))
	h.settings.NextMemDumpAddr = addr + uint32(bytes)
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, ok := h.addressArg(c)
	if !ok {
		return nil
	}
	for i, arg := range c.Args[1:] {
		v, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if !h.mem.Write8(addr+uint32(i), byte(v)) {
			h.printf("Address %08X is not mapped.\n", addr+uint32(i))
			return nil
		}
	}
	h.printf("Memory at %08X updated.\n", addr)
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errQuit
}

func (h *Host) cmdRegister(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.displayRegisters()
	case 1:
		h.displayUsage(c)
	default:
		v, err := h.parseExpr(strings.Join(c.Args[1:], " "))
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		name := strings.ToLower(c.Args[0])
		if !h.setRegister(name, v) {
			h.printf("Register '%s' not found.\n", c.Args[0])
			return nil
		}
		h.printf("Register %s set to %08X.\n", strings.ToUpper(name), v)
	}
	return nil
}

func (h *Host) setRegister(name string, v uint32) bool {
	reg := &h.cpu.Reg
	switch name {
	case ".", "pc":
		h.SetPC(v)
	case "lr":
		reg.LR = v
	case "ctr":
		reg.CTR = v
	case "cr":
		reg.CR = v
	case "xer":
		reg.XER = v
	case "msr":
		reg.MSR = v
	case "srr0":
		reg.SRR0 = v
	case "srr1":
		reg.SRR1 = v
	case "dec":
		h.cpu.SetDecrementer(v)
	case "tb":
		h.cpu.SetTimeBase(uint64(v))
	default:
		n, ok := gprNumber(name)
		if !ok {
			return false
		}
		reg.GPR[n] = v
	}
	return true
}

func (h *Host) displayRegisters() {
	reg := &h.cpu.Reg
	h.printf("%s", cpu.FormatGPRs(reg))
	h.printf("PC : %08X  LR : %08X  CTR: %08X  CR : %08X\n", h.cpu.Cursor.PC, reg.LR, reg.CTR, reg.CR)
	h.printf("XER: %08X  MSR: %08X  SRR0:%08X  SRR1:%08X\n", reg.XER, reg.MSR, reg.SRR0, reg.SRR1)
	h.printf("DEC: %08X  TB : %016X  Cycles: %d\n", h.cpu.Decrementer(), h.cpu.TimeBase(), h.cpu.Cycles)
}

func (h *Host) cmdRun(c cmd.Selection) error {
	if len(c.Args) > 0 {
		pc, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.SetPC(pc)
	}

	h.printf("Running from %08X. Press ctrl-C to break.\n", h.cpu.Cursor.PC)

	// Leave a breakpoint on the first instruction before running.
	var err error
	if h.debugger.IsBreakpoint(h.cpu.Cursor.PC) {
		err = h.step()
	}
	if err == nil {
		err = h.run()
	}
	h.finishRun(err)
	return nil
}

// finishRun reports why the CPU stopped and returns to command
// processing.
func (h *Host) finishRun(err error) {
	if err != nil {
		h.printf("%v\n", err)
	}
	if h.state == stateRunning {
		h.displayPC()
	}
	h.state = stateProcessingCommands
	h.settings.NextDisasmAddr = h.cpu.Cursor.PC
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()
	case 1:
		h.displayUsage(c)
	default:
		key, value := c.Args[0], strings.Join(c.Args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var b bool
			if b, err = stringToBool(value); err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			var v uint32
			if v, err = h.parseExpr(value); err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
		h.exprParser.hexMode = h.settings.HexMode
	}
	return nil
}

func (h *Host) cmdStepIn(c cmd.Selection) error {
	return h.stepCount(c, h.step)
}

func (h *Host) cmdStepOver(c cmd.Selection) error {
	return h.stepCount(c, h.stepOver)
}

// stepCount steps the CPU the number of times requested by the command,
// displaying the last MaxStepLines instructions.
func (h *Host) stepCount(c cmd.Selection, step func() error) error {
	count, err := h.countArg(c.Args, 0, 1)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		if err := step(); err != nil {
			h.printf("%v\n", err)
			break
		}
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands
	h.settings.NextDisasmAddr = h.cpu.Cursor.PC
	return nil
}
