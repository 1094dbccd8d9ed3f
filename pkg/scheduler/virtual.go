package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/rivulet-go/rivulet/pkg/disposable"
)

// VirtualClock is a deterministic test scheduler. Nothing runs until the
// clock is advanced; Advance moves virtual time forward and runs every
// callback that became due, in due-time order (FIFO among callbacks due at
// the same instant). Run drains the schedule to completion regardless of
// delays.
type VirtualClock struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	items clockHeap

	// running guards against nested Advance/Run from inside a callback;
	// callbacks scheduled during a pass are picked up by the same pass
	// when due.
	running bool
}

// NewVirtualClock creates a virtual clock at time zero.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *VirtualClock) Schedule(fn func()) disposable.Disposable {
	return c.ScheduleAfter(0, fn)
}

func (c *VirtualClock) ScheduleAfter(delay time.Duration, fn func()) disposable.Disposable {
	if delay < 0 {
		delay = 0
	}

	c.mu.Lock()
	c.seq++
	item := &clockItem{due: c.now + delay, seq: c.seq, fn: fn}
	heap.Push(&c.items, item)
	c.mu.Unlock()

	return disposable.New(func() {
		c.mu.Lock()
		item.cancelled = true
		c.mu.Unlock()
	})
}

// Advance moves virtual time forward by d, running every callback that
// becomes due. Callbacks scheduled during the pass run in the same pass if
// their due time falls within the advanced window.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.advanceTo(target)
}

// Run drains the entire schedule, jumping virtual time to each pending
// callback's due time until none remain. The clock is left at the last due
// time that ran.
func (c *VirtualClock) Run() {
	c.mu.Lock()
	c.advanceTo(1<<63 - 1)
}

// advanceTo runs due callbacks up to target. Called with c.mu held;
// releases it before every callback and returns with it released.
func (c *VirtualClock) advanceTo(target time.Duration) {
	if c.running {
		// Nested advance from inside a callback is a programming error:
		// the outer pass is already draining the schedule.
		c.mu.Unlock()
		panic("scheduler: nested Advance/Run on VirtualClock")
	}
	c.running = true

	for {
		if len(c.items) == 0 || c.items[0].due > target {
			break
		}
		item := heap.Pop(&c.items).(*clockItem)
		if item.cancelled {
			continue
		}
		if item.due > c.now {
			c.now = item.due
		}
		c.mu.Unlock()
		item.fn()
		c.mu.Lock()
	}

	if target < 1<<63-1 && c.now < target {
		c.now = target
	}
	c.running = false
	c.mu.Unlock()
}

type clockItem struct {
	due       time.Duration
	seq       uint64
	fn        func()
	cancelled bool
	index     int
}

// clockHeap orders items by due time, then by scheduling sequence.
type clockHeap []*clockItem

func (h clockHeap) Len() int { return len(h) }

func (h clockHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h clockHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *clockHeap) Push(x any) {
	item := x.(*clockItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *clockHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
