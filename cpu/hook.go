// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// HookType describes how an intercepted address is handled.
type HookType int

const (
	// HookNone means the address is not hooked.
	HookNone HookType = iota

	// HookReplace substitutes the hook for the instruction at the address.
	HookReplace

	// HookStart runs the hook and then executes the instruction normally.
	HookStart
)

func (t HookType) String() string {
	switch t {
	case HookReplace:
		return "replace"
	case HookStart:
		return "start"
	}
	return "none"
}

// A HookRegistry intercepts execution at hooked addresses. Intercept is
// called once per step before the instruction executes. If it returns
// HookReplace, the hook has already run: Cursor.NPC holds the address of the
// next instruction to execute, which the hook may have changed.
type HookRegistry interface {
	Intercept(c *CPU, addr uint32) HookType
}
