// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/gekko/dispatch"
	"github.com/beevik/gekko/internal/log"
	"github.com/beevik/gekko/tablegen"
)

//go:embed opcodes.tbl
var opcodeTable string

// OpType classifies an operation.
type OpType uint8

const (
	OpTypeInvalid OpType = iota
	OpTypeInteger
	OpTypeCR
	OpTypeSPR
	OpTypeSystem
	OpTypeSystemFP
	OpTypeLoad
	OpTypeStore
	OpTypeLoadFP
	OpTypeStoreFP
	OpTypeSingleFP
	OpTypeDoubleFP
	OpTypeBranch
	OpTypeCache
)

var opTypeNames = map[string]OpType{
	"Invalid":  OpTypeInvalid,
	"Integer":  OpTypeInteger,
	"CR":       OpTypeCR,
	"SPR":      OpTypeSPR,
	"System":   OpTypeSystem,
	"SystemFP": OpTypeSystemFP,
	"Load":     OpTypeLoad,
	"Store":    OpTypeStore,
	"LoadFP":   OpTypeLoadFP,
	"StoreFP":  OpTypeStoreFP,
	"SingleFP": OpTypeSingleFP,
	"DoubleFP": OpTypeDoubleFP,
	"Branch":   OpTypeBranch,
	"Cache":    OpTypeCache,
}

// Flags describe how the execution engine treats an operation.
type Flags uint32

const (
	FlagUseFPU     Flags = 1 << iota // requires MSR[FP]
	FlagEndBlock                     // ends the current timing block
	FlagSetCR0                       // may update CR0
	FlagSetCR1                       // may update CR1
	FlagLoadStore                    // accesses data memory
	FlagPrivileged                   // requires supervisor state
)

var flagNames = map[string]Flags{
	"FL_USE_FPU":    FlagUseFPU,
	"FL_ENDBLOCK":   FlagEndBlock,
	"FL_SET_CR0":    FlagSetCR0,
	"FL_SET_CR1":    FlagSetCR1,
	"FL_LOADSTORE":  FlagLoadStore,
	"FL_PRIVILEGED": FlagPrivileged,
}

// Operation table columns
const (
	colCycles = iota
	colRoutine
	colFormat
)

// OpInfo describes one operation of the instruction set.
type OpInfo struct {
	Name   string // mnemonic
	Type   OpType // category
	Flags  Flags  // engine behavior flags
	Cycles uint8  // cycle cost
	Format string // operand format used by the disassembler
}

type instfunc func(c *CPU, inst Inst)

// An InstructionSet holds the decoding forest, operation metadata and
// execution routines of the CPU. It is immutable once built and may be
// shared by any number of readers.
type InstructionSet struct {
	nodes  []dispatch.Node
	info   []OpInfo
	fn     []instfunc
	byName map[string]dispatch.OpID
	tables []tablegen.TableInfo
}

// routines maps routine names used by opcodes.tbl to their
// implementations. It is filled in by the files defining the routines.
var routines = make(map[string]instfunc)

func register(fns map[string]instfunc) {
	for name, fn := range fns {
		routines[name] = fn
	}
}

func parseFlags(cell string) (Flags, error) {
	var f Flags
	for _, name := range strings.Split(cell, "|") {
		name = strings.TrimSpace(name)
		if name == "" || name == "0" {
			continue
		}
		v, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		f |= v
	}
	return f, nil
}

func newOpInfo(inst *tablegen.Instruction) (OpInfo, error) {
	t, ok := opTypeNames[inst.Type]
	if !ok {
		return OpInfo{}, fmt.Errorf("%s: unknown op type %q", inst.Name, inst.Type)
	}
	flags, err := parseFlags(inst.Flags)
	if err != nil {
		return OpInfo{}, fmt.Errorf("%s: %w", inst.Name, err)
	}
	cycles := 1
	if c := inst.Column(colCycles); c != "" {
		cycles, err = strconv.Atoi(c)
		if err != nil || cycles < 0 || cycles > 255 {
			return OpInfo{}, fmt.Errorf("%s: invalid cycle count %q", inst.Name, c)
		}
	}
	return OpInfo{
		Name:   inst.Name,
		Type:   t,
		Flags:  flags,
		Cycles: uint8(cycles),
		Format: inst.Column(colFormat),
	}, nil
}

// NewInstructionSet compiles table source into an instruction set. Every
// operation must name an execution routine known to the CPU.
func NewInstructionSet(src string) (*InstructionSet, error) {
	lines, err := tablegen.ParseLines(src)
	if err != nil {
		return nil, err
	}
	table, err := tablegen.Compile("Primary", lines)
	if err != nil {
		return nil, err
	}

	set := &InstructionSet{
		nodes:  table.Nodes,
		info:   make([]OpInfo, len(table.Ops)),
		fn:     make([]instfunc, len(table.Ops)),
		byName: make(map[string]dispatch.OpID, len(table.Ops)),
		tables: table.Tables,
	}
	set.info[dispatch.Invalid] = OpInfo{Name: tablegen.InvalidInstruction.Name, Type: OpTypeInvalid}

	for id := 1; id < len(table.Ops); id++ {
		inst := table.Ops[id]
		info, err := newOpInfo(inst)
		if err != nil {
			return nil, err
		}

		name := inst.Column(colRoutine)
		if name == "" || name == tablegen.Wildcard {
			name = inst.Name
		}
		fn, ok := routines[name]
		if !ok {
			return nil, fmt.Errorf("%s: no routine named %q", inst.Name, name)
		}
		if _, dup := set.byName[inst.Name]; dup {
			return nil, fmt.Errorf("%s: defined more than once", inst.Name)
		}

		set.info[id] = info
		set.fn[id] = fn
		set.byName[inst.Name] = dispatch.OpID(id)
	}
	return set, nil
}

var (
	instructionSet     *InstructionSet
	instructionSetOnce sync.Once
)

// GetInstructionSet returns the Gekko instruction set, building it on first
// use.
func GetInstructionSet() *InstructionSet {
	instructionSetOnce.Do(func() {
		set, err := NewInstructionSet(opcodeTable)
		if err != nil {
			panic("cpu: opcode table: " + err.Error())
		}
		instructionSet = set
	})
	return instructionSet
}

// Decode returns the operation identifier of the instruction word. Words
// matching no operation decode to dispatch.Invalid.
func (s *InstructionSet) Decode(word uint32) dispatch.OpID {
	id, miss := dispatch.Resolve(s.nodes, word)
	if miss != nil && log.Enabled(log.LevelDebug) {
		log.Debug(log.PowerPC, "subtable %s (node %d), value %d not found",
			s.tables[miss.Node].Name, miss.Node, miss.Value)
	}
	return id
}

// Info returns the metadata of an operation. Unknown identifiers return the
// invalid operation's metadata.
func (s *InstructionSet) Info(id dispatch.OpID) *OpInfo {
	if int(id) >= len(s.info) {
		id = dispatch.Invalid
	}
	return &s.info[id]
}

// Cycles returns the cycle cost of an operation.
func (s *InstructionSet) Cycles(id dispatch.OpID) int {
	return int(s.Info(id).Cycles)
}

// Flags returns the engine flags of an operation.
func (s *InstructionSet) Flags(id dispatch.OpID) Flags {
	return s.Info(id).Flags
}

// Name returns the mnemonic of the operation the word decodes to.
func (s *InstructionSet) Name(word uint32) string {
	return s.Info(s.Decode(word)).Name
}

// OpID returns the identifier of the named operation, or dispatch.Invalid
// if there is none.
func (s *InstructionSet) OpID(name string) dispatch.OpID {
	return s.byName[name]
}

// Len returns the number of operation identifiers, including the invalid
// one.
func (s *InstructionSet) Len() int {
	return len(s.info)
}

// Nodes returns the decoding forest. The caller must not modify it.
func (s *InstructionSet) Nodes() []dispatch.Node {
	return s.nodes
}
