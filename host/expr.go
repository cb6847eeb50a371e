// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"strconv"
)

var errExprParse = errors.New("expression syntax error")

type resolver interface {
	resolveIdentifier(s string) (uint32, error)
}

// An exprParser evaluates the address expressions accepted by host
// commands: a sum of terms such as "lr+8", "OSRep-0x10" or "r3 + $20".
// A term is a number, a character constant or an identifier. Arithmetic
// wraps at 32 bits.
type exprParser struct {
	hexMode bool
}

func newExprParser() *exprParser {
	return &exprParser{}
}

func (p *exprParser) Parse(expr string, r resolver) (uint32, error) {
	t := tstring(expr).consumeWhitespace()
	if len(t) == 0 {
		return 0, errExprParse
	}

	var sum uint32
	sign := byte('+')
	if t[0] == '+' || t[0] == '-' {
		sign, t = t[0], t.consume(1)
	}

	for {
		v, remain, err := p.parseTerm(t.consumeWhitespace(), r)
		if err != nil {
			return 0, err
		}
		if sign == '-' {
			sum -= v
		} else {
			sum += v
		}

		t = remain.consumeWhitespace()
		if len(t) == 0 {
			return sum, nil
		}
		if t[0] != '+' && t[0] != '-' {
			return 0, errExprParse
		}
		sign, t = t[0], t.consume(1)
	}
}

func (p *exprParser) parseTerm(t tstring, r resolver) (v uint32, remain tstring, err error) {
	if len(t) == 0 {
		return 0, t, errExprParse
	}

	switch c := t[0]; {
	case c == '$' || decimal(c):
		return p.parseNumber(t)
	case c == '\'':
		if len(t) < 3 || t[2] != '\'' {
			return 0, t, errExprParse
		}
		return uint32(t[1]), t.consume(3), nil
	case identifier(c):
		var id tstring
		id, remain = t.consumeWhile(identifier)
		if p.hexMode && id.scanWhile(hexadecimal) == len(id) {
			return p.parseNumber(t)
		}
		v, err = r.resolveIdentifier(string(id))
		return v, remain, err
	}
	return 0, t, errExprParse
}

func (p *exprParser) parseNumber(t tstring) (v uint32, remain tstring, err error) {
	base, fn, num := 10, decimal, t
	if p.hexMode {
		base, fn = 16, hexadecimal
	}

	switch {
	case num[0] == '$':
		base, fn, num = 16, hexadecimal, num.consume(1)
	case len(num) > 2 && num[0] == '0' && (num[1] == 'x' || num[1] == 'b' || num[1] == 'd'):
		switch num[1] {
		case 'x':
			base, fn = 16, hexadecimal
		case 'b':
			base, fn = 2, binary
		case 'd':
			base, fn = 10, decimal
		}
		num = num.consume(2)
	}

	num, remain = num.consumeWhile(fn)
	if num == "" || (len(remain) > 0 && identifier(remain[0])) {
		return 0, t, errExprParse
	}

	n, err := strconv.ParseUint(string(num), base, 32)
	if err != nil {
		return 0, t, errExprParse
	}
	return uint32(n), remain, nil
}

type tstring string

func (t tstring) consume(n int) tstring {
	return t[n:]
}

func (t tstring) consumeWhitespace() tstring {
	return t.consume(t.scanWhile(whitespace))
}

func (t tstring) scanWhile(fn func(c byte) bool) int {
	i := 0
	for ; i < len(t) && fn(t[i]); i++ {
	}
	return i
}

func (t tstring) consumeWhile(fn func(c byte) bool) (consumed, remain tstring) {
	i := t.scanWhile(fn)
	return t[:i], t[i:]
}

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func hexadecimal(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binary(c byte) bool {
	return c == '0' || c == '1'
}

func identifier(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || decimal(c) || c == '_' || c == '.'
}
