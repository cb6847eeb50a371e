// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package timing implements the clock that divides CPU execution into
// slices and delivers events scheduled in CPU cycles.
package timing

import (
	"container/heap"

	"github.com/beevik/gekko/internal/log"
)

// DefaultSlice is the slice length used when none is configured.
const DefaultSlice = 20000

type event struct {
	name string
	when int64
	seq  uint64
	fn   func(late int64)
}

// eventQueue is a min-heap ordered by due time. Events due at the same
// time keep the order they were scheduled in.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].when != q[j].when {
		return q[i].when < q[j].when
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// A Clock hands out slice budgets to the CPU and keeps the global tick
// count. It is not safe for concurrent use; it must only be driven from the
// goroutine running the CPU.
type Clock struct {
	slice     int
	ticks     int64 // ticks at the start of the current slice
	budget    int   // budget of the current slice
	firing    bool  // events are being delivered at a slice boundary
	seq       uint64
	queue     eventQueue
	downcount func() int
}

// NewClock creates a clock with the given slice length. A length of zero
// or less selects DefaultSlice.
func NewClock(slice int) *Clock {
	if slice <= 0 {
		slice = DefaultSlice
	}
	return &Clock{slice: slice}
}

// SetDowncount supplies the function reporting the cycles left in the
// current slice. With it the clock can tell the exact time in the middle of
// a slice; without it the time advances only at slice boundaries.
func (c *Clock) SetDowncount(f func() int) {
	c.downcount = f
}

// Slice returns the configured slice length.
func (c *Clock) Slice() int {
	return c.slice
}

// Ticks returns the number of cycles elapsed since the clock was created.
func (c *Clock) Ticks() int64 {
	if c.downcount == nil || c.firing {
		return c.ticks
	}
	return c.ticks + int64(c.budget-c.downcount())
}

// Advance ends the current slice, 'downcount' being the cycles it had left
// (zero or negative if the budget was spent). Due events fire in order and
// the budget of the next slice is returned. The budget never extends past
// the next pending event.
func (c *Clock) Advance(downcount int) int {
	c.ticks += int64(c.budget - downcount)

	c.firing = true
	for len(c.queue) > 0 && c.queue[0].when <= c.ticks {
		e := heap.Pop(&c.queue).(*event)
		late := c.ticks - e.when
		log.Debug(log.Timing, "event %s at %d (%d late)", e.name, c.ticks, late)
		e.fn(late)
	}
	c.firing = false

	budget := c.slice
	if len(c.queue) > 0 {
		if d := c.queue[0].when - c.ticks; d < int64(budget) {
			budget = int(d)
		}
	}
	c.budget = budget
	return budget
}

// LimitSlice ends the current slice after 'cycles' cycles, so that the next
// Advance credits no more than that to the clock.
func (c *Clock) LimitSlice(cycles int) {
	if cycles < 0 {
		cycles = 0
	}
	c.budget = cycles
}

// ScheduleEvent arranges for 'fn' to be called once 'cycles' cycles have
// elapsed. The callback receives the number of cycles by which it is late.
func (c *Clock) ScheduleEvent(cycles int64, name string, fn func(late int64)) {
	if cycles < 0 {
		cycles = 0
	}
	c.seq++
	heap.Push(&c.queue, &event{
		name: name,
		when: c.Ticks() + cycles,
		seq:  c.seq,
		fn:   fn,
	})
}

// RemoveEvent cancels every pending event with the given name.
func (c *Clock) RemoveEvent(name string) {
	q := c.queue[:0]
	for _, e := range c.queue {
		if e.name != name {
			q = append(q, e)
		}
	}
	for i := len(q); i < len(c.queue); i++ {
		c.queue[i] = nil
	}
	c.queue = q
	heap.Init(&c.queue)
}

// Pending returns the names of the pending events in the order they are
// due.
func (c *Clock) Pending() []string {
	q := make(eventQueue, len(c.queue))
	copy(q, c.queue)
	names := make([]string, 0, len(q))
	for q.Len() > 0 {
		names = append(names, heap.Pop(&q).(*event).name)
	}
	return names
}
