// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timing_test

import (
	"reflect"
	"testing"

	"github.com/beevik/gekko/cpu"
	"github.com/beevik/gekko/timing"
)

var (
	_ cpu.Clock          = (*timing.Clock)(nil)
	_ cpu.EventScheduler = (*timing.Clock)(nil)
	_ cpu.SliceLimiter   = (*timing.Clock)(nil)
)

func expectBudget(t *testing.T, got, exp int) {
	t.Helper()
	if got != exp {
		t.Errorf("budget incorrect. exp: %d, got: %d", exp, got)
	}
}

func expectTicks(t *testing.T, c *timing.Clock, exp int64) {
	t.Helper()
	if got := c.Ticks(); got != exp {
		t.Errorf("ticks incorrect. exp: %d, got: %d", exp, got)
	}
}

func TestAdvance(t *testing.T) {
	c := timing.NewClock(100)

	expectBudget(t, c.Advance(0), 100)
	expectTicks(t, c, 0)

	// An overshoot of 3 cycles is credited.
	expectBudget(t, c.Advance(-3), 100)
	expectTicks(t, c, 103)

	// A slice ended early credits only what ran.
	expectBudget(t, c.Advance(40), 100)
	expectTicks(t, c, 163)
}

func TestDefaultSlice(t *testing.T) {
	c := timing.NewClock(0)
	if c.Slice() != timing.DefaultSlice {
		t.Errorf("slice incorrect. exp: %d, got: %d", timing.DefaultSlice, c.Slice())
	}
}

func TestEvents(t *testing.T) {
	c := timing.NewClock(100)
	c.Advance(0)

	var fired []string
	var late []int64
	record := func(name string) func(int64) {
		return func(l int64) {
			fired = append(fired, name)
			late = append(late, l)
		}
	}

	c.ScheduleEvent(250, "b", record("b"))
	c.ScheduleEvent(150, "a", record("a"))
	c.ScheduleEvent(250, "c", record("c"))

	if p := c.Pending(); !reflect.DeepEqual(p, []string{"a", "b", "c"}) {
		t.Errorf("pending incorrect: %v", p)
	}

	expectBudget(t, c.Advance(0), 50)
	if len(fired) != 0 {
		t.Fatalf("events fired early: %v", fired)
	}
	expectBudget(t, c.Advance(-2), 98)
	expectTicks(t, c, 152)
	if !reflect.DeepEqual(fired, []string{"a"}) || late[0] != 2 {
		t.Fatalf("fired incorrect: %v %v", fired, late)
	}

	expectBudget(t, c.Advance(0), 100)
	if !reflect.DeepEqual(fired, []string{"a", "b", "c"}) {
		t.Errorf("equal-time events out of order: %v", fired)
	}
	if len(c.Pending()) != 0 {
		t.Error("events left pending")
	}
}

func TestRemoveEvent(t *testing.T) {
	c := timing.NewClock(100)

	fired := 0
	c.ScheduleEvent(10, "x", func(int64) { fired++ })
	c.ScheduleEvent(20, "y", func(int64) { fired++ })
	c.ScheduleEvent(30, "x", func(int64) { fired++ })
	c.RemoveEvent("x")

	if p := c.Pending(); !reflect.DeepEqual(p, []string{"y"}) {
		t.Errorf("pending incorrect: %v", p)
	}
	expectBudget(t, c.Advance(0), 20)
	c.Advance(0)
	if fired != 1 {
		t.Errorf("fired %d events, exp 1", fired)
	}
}

func TestScheduleFromEvent(t *testing.T) {
	c := timing.NewClock(100)
	c.Advance(0)

	n := 0
	var tick func(int64)
	tick = func(int64) {
		n++
		if n < 3 {
			c.ScheduleEvent(0, "tick", tick)
		}
	}
	c.ScheduleEvent(0, "tick", tick)

	expectBudget(t, c.Advance(100), 100)
	if n != 3 {
		t.Errorf("chained events fired %d times, exp 3", n)
	}
}

func TestDowncountSource(t *testing.T) {
	c := timing.NewClock(100)
	downcount := 0
	c.SetDowncount(func() int { return downcount })

	downcount = c.Advance(0)
	downcount -= 30
	expectTicks(t, c, 30)

	fired := false
	c.ScheduleEvent(10, "e", func(late int64) { fired = true })
	downcount = c.Advance(downcount - 15)
	expectBudget(t, downcount, 100)
	if !fired {
		t.Error("event did not fire")
	}
	expectTicks(t, c, 45)
}

func TestLimitSlice(t *testing.T) {
	c := timing.NewClock(100)
	expectBudget(t, c.Advance(0), 100)

	c.LimitSlice(7)
	expectBudget(t, c.Advance(0), 100)
	expectTicks(t, c, 7)

	c.LimitSlice(-2)
	c.Advance(0)
	expectTicks(t, c, 7)
}

func TestSingleStepTime(t *testing.T) {
	mem := cpu.NewFlatMemory(0, 0x10000)
	mem.StoreWords(0x1000,
		0x38630001, // addi r3,r3,1
		0x38630001, // addi r3,r3,1
		0x38630001, // addi r3,r3,1
	)

	c := cpu.NewCPU(mem)
	c.SetReporter(nil)
	clock := timing.NewClock(20000)
	clock.SetDowncount(func() int { return c.Cursor.Downcount })
	c.AttachClock(clock)
	c.SetPC(0x1000)

	fired := false
	clock.ScheduleEvent(1000, "e", func(late int64) { fired = true })

	// Each step credits only the cycle it executed.
	for i := 0; i < 3; i++ {
		if err := c.SingleStep(); err != nil {
			t.Fatal(err)
		}
	}
	if c.Reg.GPR[3] != 3 {
		t.Errorf("r3 incorrect. exp: 3, got: %d", c.Reg.GPR[3])
	}
	expectTicks(t, clock, 3)
	if fired {
		t.Error("event fired after 3 cycles")
	}
	if p := clock.Pending(); !reflect.DeepEqual(p, []string{"e"}) {
		t.Errorf("pending events incorrect. got: %v", p)
	}
}

func TestDecrementerInterrupt(t *testing.T) {
	mem := cpu.NewFlatMemory(0, 0x10000)
	mem.StoreWords(0x1000,
		0x38630001, // addi r3,r3,1
		0x4BFFFFFC, // b -4
	)

	c := cpu.NewCPU(mem)
	c.SetReporter(nil)
	clock := timing.NewClock(4)
	clock.SetDowncount(func() int { return c.Cursor.Downcount })
	c.AttachClock(clock)
	c.SetPC(0x1000)
	c.Reg.MSR = cpu.MSREE

	// A decrementer of 1 underflows after two ticks, 24 cycles. Every
	// loop iteration is a two cycle block.
	c.SetDecrementer(1)
	c.Control.SetState(cpu.Running)
	err := c.Run()
	if err == nil {
		t.Fatal("expected to stop at the handler")
	}
	if c.Cursor.PC != cpu.VectorDecrementer {
		t.Errorf("PC incorrect. exp: %08X, got: %08X", cpu.VectorDecrementer, c.Cursor.PC)
	}
	if c.Reg.GPR[3] != 12 {
		t.Errorf("iterations before interrupt incorrect. exp: 12, got: %d", c.Reg.GPR[3])
	}
	if c.Reg.SRR0 != 0x1000 {
		t.Errorf("SRR0 incorrect. got: %08X", c.Reg.SRR0)
	}
}
