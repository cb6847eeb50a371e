// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"github.com/beevik/cmd"
	"github.com/beevik/prefixtree/v2"
)

// A command is the data stored with each entry of the command tree.
type command struct {
	name        string
	brief       string
	description string
	usage       string
	handler     func(*Host, cmd.Selection) error
}

// A commandGroup is a subtree of related commands, or the root.
type commandGroup struct {
	name     string
	brief    string
	commands []*command
	groups   []*commandGroup
}

var (
	cmds      *cmd.Tree
	rootGroup *commandGroup
	groupTree = prefixtree.New[*commandGroup]()
)

func addCommands(t *cmd.Tree, g *commandGroup, commands ...*command) {
	for _, c := range commands {
		t.AddCommand(cmd.CommandDescriptor{
			Name:        c.name,
			Brief:       c.brief,
			Description: c.description,
			Usage:       c.usage,
			Data:        c,
		})
		g.commands = append(g.commands, c)
	}
}

func addGroup(t *cmd.Tree, parent *commandGroup, name, brief string, commands ...*command) {
	g := &commandGroup{name: name, brief: brief}
	parent.groups = append(parent.groups, g)
	groupTree.Add(name, g)
	addCommands(t.AddSubtree(cmd.TreeDescriptor{Name: name, Brief: brief}), g, commands...)
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "gekko"})
	rootGroup = &commandGroup{name: "gekko"}

	addCommands(root, rootGroup,
		&command{
			name:        "help",
			description: "Display help for a command.",
			usage:       "help [<command>]",
			handler:     (*Host).cmdHelp,
		},
		&command{
			name:  "disassemble",
			brief: "Disassemble code",
			description: "Disassemble machine code starting at the requested" +
				" address. The number of instruction lines to disassemble may be" +
				" specified as an option. If no address is specified, the" +
				" disassembly continues from where the last disassembly left off.",
			usage:   "disassemble [<address>] [<lines>]",
			handler: (*Host).cmdDisassemble,
		},
		&command{
			name:        "evaluate",
			brief:       "Evaluate an expression",
			description: "Evaluate an address expression and display its value.",
			usage:       "evaluate <expression>",
			handler:     (*Host).cmdEvaluate,
		},
		&command{
			name:  "events",
			brief: "List pending timing events",
			description: "Display the timing events that are scheduled to fire," +
				" in the order they will fire, together with the current tick count.",
			usage:   "events",
			handler: (*Host).cmdEvents,
		},
		&command{
			name:  "load",
			brief: "Load a binary image",
			description: "Load the contents of a raw big-endian binary image" +
				" into memory at the specified address and move the program" +
				" counter to its first instruction.",
			usage:   "load <filename> <address>",
			handler: (*Host).cmdLoad,
		},
		&command{
			name:        "quit",
			brief:       "Quit the program",
			description: "Quit the program.",
			usage:       "quit",
			handler:     (*Host).cmdQuit,
		},
		&command{
			name:  "register",
			brief: "View or change register values",
			description: "When used without arguments, this command displays the current" +
				" contents of the CPU registers. When used with arguments, this" +
				" command changes the value of a register. Allowed register names" +
				" include r0 through r31, PC, LR, CTR, CR, XER, MSR, SRR0, SRR1," +
				" DEC and TB.",
			usage:   "register [<name> <value>]",
			handler: (*Host).cmdRegister,
		},
		&command{
			name:  "run",
			brief: "Run the CPU",
			description: "Run the CPU until a breakpoint is hit, an invalid" +
				" instruction is reached or the user types Ctrl-C. An optional" +
				" address moves the program counter before running.",
			usage:   "run [<address>]",
			handler: (*Host).cmdRun,
		},
		&command{
			name:  "set",
			brief: "Set a configuration variable",
			description: "Set the value of a configuration variable. To see the" +
				" current values of all configuration variables, type set" +
				" without any arguments.",
			usage:   "set [<var> <value>]",
			handler: (*Host).cmdSet,
		},
	)

	addGroup(root, rootGroup, "breakpoint", "Breakpoint commands",
		&command{
			name:        "list",
			brief:       "List breakpoints",
			description: "List all current breakpoints.",
			usage:       "breakpoint list",
			handler:     (*Host).cmdBreakpointList,
		},
		&command{
			name:  "add",
			brief: "Add a breakpoint",
			description: "Add a breakpoint at the specified address." +
				" The breakpoint starts enabled.",
			usage:   "breakpoint add <address>",
			handler: (*Host).cmdBreakpointAdd,
		},
		&command{
			name:  "temp",
			brief: "Add a temporary breakpoint",
			description: "Add a breakpoint at the specified address that is" +
				" removed the first time it is hit.",
			usage:   "breakpoint temp <address>",
			handler: (*Host).cmdBreakpointTemp,
		},
		&command{
			name:        "remove",
			brief:       "Remove a breakpoint",
			description: "Remove a breakpoint at the specified address.",
			usage:       "breakpoint remove <address>",
			handler:     (*Host).cmdBreakpointRemove,
		},
		&command{
			name:        "enable",
			brief:       "Enable a breakpoint",
			description: "Enable a previously added breakpoint.",
			usage:       "breakpoint enable <address>",
			handler:     (*Host).cmdBreakpointEnable,
		},
		&command{
			name:  "disable",
			brief: "Disable a breakpoint",
			description: "Disable a previously added breakpoint. This" +
				" prevents the breakpoint from being hit when running the CPU.",
			usage:   "breakpoint disable <address>",
			handler: (*Host).cmdBreakpointDisable,
		},
	)

	addGroup(root, rootGroup, "databreakpoint", "Data breakpoint commands",
		&command{
			name:        "list",
			brief:       "List data breakpoints",
			description: "List all current data breakpoints.",
			usage:       "databreakpoint list",
			handler:     (*Host).cmdDataBreakpointList,
		},
		&command{
			name:  "add",
			brief: "Add a data breakpoint",
			description: "Add a new data breakpoint at the specified" +
				" memory address. When the CPU stores data overlapping this" +
				" address, the breakpoint stops the CPU. Optionally, a value" +
				" may be specified, and the CPU will stop only when this value" +
				" is stored. The data breakpoint starts enabled.",
			usage:   "databreakpoint add <address> [<value>]",
			handler: (*Host).cmdDataBreakpointAdd,
		},
		&command{
			name:  "remove",
			brief: "Remove a data breakpoint",
			description: "Remove a previously added data breakpoint at" +
				" the specified memory address.",
			usage:   "databreakpoint remove <address>",
			handler: (*Host).cmdDataBreakpointRemove,
		},
		&command{
			name:        "enable",
			brief:       "Enable a data breakpoint",
			description: "Enable a previously added data breakpoint.",
			usage:       "databreakpoint enable <address>",
			handler:     (*Host).cmdDataBreakpointEnable,
		},
		&command{
			name:        "disable",
			brief:       "Disable a data breakpoint",
			description: "Disable a previously added data breakpoint.",
			usage:       "databreakpoint disable <address>",
			handler:     (*Host).cmdDataBreakpointDisable,
		},
	)

	addGroup(root, rootGroup, "hooks", "Function hook commands",
		&command{
			name:        "list",
			brief:       "List function hooks",
			description: "List all installed function hooks.",
			usage:       "hooks list",
			handler:     (*Host).cmdHooksList,
		},
		&command{
			name:  "load",
			brief: "Load a hook script",
			description: "Run a Lua script that installs function hooks by" +
				" calling hook(addr, type, name, fn) or patch(addr, builtin).",
			usage:   "hooks load <filename>",
			handler: (*Host).cmdHooksLoad,
		},
		&command{
			name:  "patch",
			brief: "Replace a function with a built-in",
			description: "Replace the guest function at the specified address" +
				" with one of the built-in functions: OSReport, memcpy, memset," +
				" strlen or nop.",
			usage:   "hooks patch <address> <builtin>",
			handler: (*Host).cmdHooksPatch,
		},
		&command{
			name:        "remove",
			brief:       "Remove a function hook",
			description: "Remove the function hook installed at the specified address.",
			usage:       "hooks remove <address>",
			handler:     (*Host).cmdHooksRemove,
		},
	)

	addGroup(root, rootGroup, "memory", "Memory commands",
		&command{
			name:  "dump",
			brief: "Dump memory at address",
			description: "Dump the contents of memory starting from the" +
				" specified address. The number of bytes to dump may be" +
				" specified as an option. If no address is specified, the" +
				" memory dump continues from where the last dump left off.",
			usage:   "memory dump [<address>] [<bytes>]",
			handler: (*Host).cmdMemoryDump,
		},
		&command{
			name:  "set",
			brief: "Set memory at address",
			description: "Set the contents of memory starting from the specified" +
				" address. The values to assign should be a series of" +
				" space-separated byte values.",
			usage:   "memory set <address> <byte> [<byte> ...]",
			handler: (*Host).cmdMemorySet,
		},
	)

	addGroup(root, rootGroup, "step", "Step the debugger",
		&command{
			name:  "in",
			brief: "Step into next instruction",
			description: "Step the CPU by a single instruction. If the" +
				" instruction is a subroutine call, step into the subroutine." +
				" The number of steps may be specified as an option.",
			usage:   "step in [<count>]",
			handler: (*Host).cmdStepIn,
		},
		&command{
			name:  "over",
			brief: "Step over next instruction",
			description: "Step the CPU by a single instruction. If the" +
				" instruction is a branch and link, run until the subroutine" +
				" returns to the following instruction. The number of steps may" +
				" be specified as an option.",
			usage:   "step over [<count>]",
			handler: (*Host).cmdStepOver,
		},
	)

	// Add command shortcuts.
	root.AddShortcut("b", "breakpoint")
	root.AddShortcut("bp", "breakpoint")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("bt", "breakpoint temp")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("db", "databreakpoint")
	root.AddShortcut("dbp", "databreakpoint")
	root.AddShortcut("dbl", "databreakpoint list")
	root.AddShortcut("dba", "databreakpoint add")
	root.AddShortcut("dbr", "databreakpoint remove")
	root.AddShortcut("dbe", "databreakpoint enable")
	root.AddShortcut("dbd", "databreakpoint disable")
	root.AddShortcut("e", "evaluate")
	root.AddShortcut("hl", "hooks list")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "register")
	root.AddShortcut("s", "step over")
	root.AddShortcut("si", "step in")
	root.AddShortcut("?", "help")
	root.AddShortcut(".", "register")

	cmds = root
}
