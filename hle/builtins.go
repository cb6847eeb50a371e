// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hle

import (
	"fmt"
	"strings"

	"github.com/beevik/gekko/cpu"
	"github.com/beevik/gekko/internal/log"
)

// The longest guest string read by the built-ins.
const maxCString = 4096

var builtins = map[string]Func{
	"OSReport": osReport,
	"memcpy":   memcpy,
	"memset":   memset,
	"strlen":   strlen,
	"nop":      func(*cpu.CPU) {},
}

// osReport logs the printf-style message whose format string is at r3.
func osReport(c *cpu.CPU) {
	msg := formatGuest(c, readCString(c.Mem, c.Reg.GPR[3]))
	log.Notice(log.HLE, "%s", strings.TrimRight(msg, "\n"))
}

func memcpy(c *cpu.CPU) {
	dst, src, n := c.Reg.GPR[3], c.Reg.GPR[4], c.Reg.GPR[5]
	for i := uint32(0); i < n; i++ {
		v, ok := c.Mem.Read8(src + i)
		if !ok || !c.Mem.Write8(dst+i, v) {
			log.Warn(log.HLE, "memcpy(%08X, %08X, %d) faulted at offset %d", dst, src, n, i)
			return
		}
	}
}

func memset(c *cpu.CPU) {
	dst, v, n := c.Reg.GPR[3], uint8(c.Reg.GPR[4]), c.Reg.GPR[5]
	for i := uint32(0); i < n; i++ {
		if !c.Mem.Write8(dst+i, v) {
			log.Warn(log.HLE, "memset(%08X, %d, %d) faulted at offset %d", dst, v, n, i)
			return
		}
	}
}

func strlen(c *cpu.CPU) {
	c.Reg.GPR[3] = uint32(len(readCString(c.Mem, c.Reg.GPR[3])))
}

// readCString reads a NUL-terminated string. Reading stops early at an
// unmapped address or after maxCString bytes.
func readCString(m cpu.Memory, addr uint32) string {
	var b strings.Builder
	for i := uint32(0); i < maxCString; i++ {
		v, ok := m.Read8(addr + i)
		if !ok || v == 0 {
			break
		}
		b.WriteByte(v)
	}
	return b.String()
}

// formatGuest expands a C printf format using the guest calling
// convention: integer and pointer arguments come from r4-r10 and floating
// point arguments from f1-f8.
func formatGuest(c *cpu.CPU, format string) string {
	gpr, fpr := 4, 1
	nextInt := func() uint32 {
		if gpr > 10 {
			return 0
		}
		gpr++
		return c.Reg.GPR[gpr-1]
	}
	nextFloat := func() float64 {
		if fpr > 8 {
			return 0
		}
		fpr++
		return c.Reg.FPR[fpr-1]
	}

	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			continue
		}

		j := i + 1
		for j < len(format) && strings.IndexByte("-+ #0123456789.hlz", format[j]) >= 0 {
			j++
		}
		if j == len(format) {
			b.WriteString(format[i:])
			break
		}

		directive := strings.Map(func(r rune) rune {
			if r == 'h' || r == 'l' || r == 'z' {
				return -1
			}
			return r
		}, format[i:j])

		switch verb := format[j]; verb {
		case '%':
			b.WriteByte('%')
		case 'd', 'i':
			fmt.Fprintf(&b, directive+"d", int32(nextInt()))
		case 'u':
			fmt.Fprintf(&b, directive+"d", nextInt())
		case 'x', 'X', 'o', 'c':
			fmt.Fprintf(&b, directive+string(verb), nextInt())
		case 'p':
			fmt.Fprintf(&b, "0x%08x", nextInt())
		case 's':
			fmt.Fprintf(&b, directive+"s", readCString(c.Mem, nextInt()))
		case 'f', 'F', 'e', 'E', 'g', 'G':
			fmt.Fprintf(&b, directive+string(verb), nextFloat())
		default:
			b.WriteString(format[i : j+1])
		}
		i = j
	}
	return b.String()
}
