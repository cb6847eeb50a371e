// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strings"
)

// wordString renders an instruction word as its four big-endian bytes.
func wordString(w uint32) string {
	return fmt.Sprintf("%02X %02X %02X %02X", w>>24, (w>>16)&0xff, (w>>8)&0xff, w&0xff)
}

func stringToBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

var hexString = "0123456789ABCDEF"

func addrToBuf(addr uint32, b []byte) {
	for i := 7; i >= 0; i-- {
		b[i] = hexString[addr&0xf]
		addr >>= 4
	}
}

func byteToBuf(v byte, b []byte) {
	b[0] = hexString[(v>>4)&0xf]
	b[1] = hexString[v&0xf]
}

func toPrintableChar(v byte) byte {
	if v >= 32 && v < 127 {
		return v
	}
	return '.'
}

// indentWrap word-wraps 's' to 80 columns, indenting every line.
func indentWrap(indent int, s string) string {
	const width = 80
	pad := strings.Repeat(" ", indent)

	var b strings.Builder
	col := 0
	for _, word := range strings.Fields(s) {
		switch {
		case col == 0:
			b.WriteString(pad)
			col = indent
		case col+1+len(word) > width:
			b.WriteString("\n" + pad)
			col = indent
		default:
			b.WriteByte(' ')
			col++
		}
		b.WriteString(word)
		col += len(word)
	}
	return b.String()
}
