// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a disassembler for the Gekko instruction set.
// Operands are rendered from the format column of the opcode table.
package disasm

import (
	"fmt"
	"strings"

	"github.com/beevik/gekko/cpu"
)

// operand renders one operand token of a format column.
type operand func(inst cpu.Inst, addr uint32) string

func gpr(f func(cpu.Inst) uint32) operand {
	return func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("r%d", f(inst)) }
}

func fpr(f func(cpu.Inst) uint32) operand {
	return func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("f%d", f(inst)) }
}

func num(f func(cpu.Inst) uint32) operand {
	return func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("%d", f(inst)) }
}

func target(offset func(cpu.Inst) int32) operand {
	return func(inst cpu.Inst, addr uint32) string {
		t := uint32(offset(inst))
		if !inst.AA() {
			t += addr
		}
		return fmt.Sprintf("0x%08x", t)
	}
}

// Disassembler formatting for operand tokens
var operands = map[string]operand{
	"rD":   gpr(cpu.Inst.RD),
	"rS":   gpr(cpu.Inst.RS),
	"rA":   gpr(cpu.Inst.RA),
	"rB":   gpr(cpu.Inst.RB),
	"frD":  fpr(cpu.Inst.RD),
	"frS":  fpr(cpu.Inst.RS),
	"frA":  fpr(cpu.Inst.RA),
	"frB":  fpr(cpu.Inst.RB),
	"frC":  fpr(cpu.Inst.RC),
	"crbD": num(cpu.Inst.CRBD),
	"crbA": num(cpu.Inst.CRBA),
	"crbB": num(cpu.Inst.CRBB),
	"TO":   num(cpu.Inst.TO),
	"BO":   num(cpu.Inst.BO),
	"BI":   num(cpu.Inst.BI),
	"SH":   num(cpu.Inst.SH),
	"MB":   num(cpu.Inst.MB),
	"ME":   num(cpu.Inst.ME),
	"BD":   target(cpu.Inst.BD),
	"LI":   target(cpu.Inst.LI),
	"crfD": func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("cr%d", inst.CRFD()) },
	"crfS": func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("cr%d", inst.CRFS()) },
	"SIMM": func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("%d", inst.SIMM()) },
	"UIMM": func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("0x%x", inst.UIMM()) },
	"SPR":  func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("%d", inst.SPR()) },
	"TBR":  func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("%d", inst.SPR()) },
	"CRM":  func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("0x%02x", inst.CRM()) },
	"FM":   func(inst cpu.Inst, addr uint32) string { return fmt.Sprintf("0x%02x", inst.FM()) },
	"d(rA)": func(inst cpu.Inst, addr uint32) string {
		return fmt.Sprintf("%d(r%d)", inst.SIMM(), inst.RA())
	},
}

// mnemonic returns the name of the operation with the suffixes selected by
// the instruction's Rc, LK and AA bits.
func mnemonic(info *cpu.OpInfo, inst cpu.Inst) string {
	name := info.Name
	if info.Flags&(cpu.FlagSetCR0|cpu.FlagSetCR1) != 0 && inst.Rc() &&
		!strings.HasSuffix(name, ".") {
		name += "."
	}
	if info.Type == cpu.OpTypeBranch {
		if inst.LK() {
			name += "l"
		}
		if (name == "b" || name == "bl" || name == "bc" || name == "bcl") && inst.AA() {
			name += "a"
		}
	}
	return name
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code.
func Disassemble(set *cpu.InstructionSet, m cpu.Memory, addr uint32) (line string, next uint32) {
	next = addr + cpu.InstWidth

	word, ok := m.Read32(addr)
	if !ok {
		return ".long ????????", next
	}

	info := set.Info(set.Decode(word))
	if info.Type == cpu.OpTypeInvalid {
		return fmt.Sprintf(".long 0x%08x", word), next
	}

	inst := cpu.Inst(word)
	var b strings.Builder
	b.WriteString(mnemonic(info, inst))
	if info.Format != "" {
		for i, tok := range strings.Split(info.Format, ",") {
			if i == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte(',')
			}
			if f, ok := operands[tok]; ok {
				b.WriteString(f(inst, addr))
			} else {
				b.WriteString(tok)
			}
		}
	}
	return b.String(), next
}
