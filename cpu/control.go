// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "sync/atomic"

// State is the run state of the CPU.
type State uint32

const (
	Stopped State = iota
	Running
	Stepping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stepping:
		return "stepping"
	}
	return "unknown"
}

// Control holds the run state shared between the goroutine executing the
// CPU and the goroutines that start and stop it.
type Control struct {
	state atomic.Uint32
}

// State returns the current run state.
func (c *Control) State() State {
	return State(c.state.Load())
}

// SetState changes the run state.
func (c *Control) SetState(s State) {
	c.state.Store(uint32(s))
}

// Break stops a running CPU at its next suspension point.
func (c *Control) Break() {
	c.SetState(Stopped)
}
