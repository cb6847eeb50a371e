// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"strings"

	"github.com/beevik/gekko/internal/log"
	"github.com/davecgh/go-spew/spew"
)

// InvalidInstructionError is returned when the CPU fetches a word that does
// not decode to any operation.
type InvalidInstructionError struct {
	Addr   uint32 // address of the word
	LastPC uint32 // address of the previously executed instruction
	Word   uint32 // the undecodable word
	LR     uint32 // link register at the time of the fetch
}

func (e *InvalidInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction %08X at PC = %08X  last_PC = %08X  LR = %08X",
		e.Word, e.Addr, e.LastPC, e.LR)
}

// A Reporter is told about invalid instructions. It receives the execution
// cursor and registers as they were when the word was fetched.
type Reporter func(cur *Cursor, reg *Registers, err *InvalidInstructionError)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// FormatGPRs renders the general purpose registers four to a line.
func FormatGPRs(reg *Registers) string {
	var b strings.Builder
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(&b, "r%-2d: %08X  r%-2d: %08X  r%-2d: %08X  r%-2d: %08X\n",
			i, reg.GPR[i], i+1, reg.GPR[i+1], i+2, reg.GPR[i+2], i+3, reg.GPR[i+3])
	}
	return b.String()
}

// DumpRegisters renders every register, including the special purpose
// ones, for diagnostics.
func DumpRegisters(reg *Registers) string {
	return dumpConfig.Sdump(reg)
}

// LogInvalidInstruction is the default Reporter. It logs the failing word
// together with the register state.
func LogInvalidInstruction(cur *Cursor, reg *Registers, err *InvalidInstructionError) {
	log.Notice(log.PowerPC, "Last PC = %08X", cur.LastPC)
	log.Notice(log.PowerPC, "IntCPU: %v", err)
	log.Notice(log.PowerPC, "\n%s", FormatGPRs(reg))
	log.Debug(log.PowerPC, "%s", DumpRegisters(reg))
}
