// Package scheduler defines the scheduling capability the engine depends
// on, plus the stock implementations.
//
// The core never assumes a particular time source: anything that can run a
// callback now, run it after a delay, and cancel a pending callback is a
// Scheduler. A deterministic VirtualClock is substitutable anywhere a
// Scheduler is accepted, which is how time-driven behavior is tested.
package scheduler

import (
	"sync"
	"time"

	"github.com/rivulet-go/rivulet/pkg/disposable"
)

// Scheduler is the capability interface for deferred execution.
type Scheduler interface {
	// Schedule enqueues fn to run as soon as the scheduler allows.
	// The returned handle cancels the callback if it has not run yet.
	Schedule(fn func()) disposable.Disposable

	// ScheduleAfter enqueues fn to run after the given delay.
	// The returned handle cancels the callback if it has not run yet.
	ScheduleAfter(d time.Duration, fn func()) disposable.Disposable
}

// Immediate runs callbacks inline on the calling goroutine. Delays are
// ignored; ScheduleAfter runs fn immediately as well. Useful as the neutral
// scheduler in synchronous pipelines.
type Immediate struct{}

func (Immediate) Schedule(fn func()) disposable.Disposable {
	fn()
	return disposable.Disposed()
}

func (Immediate) ScheduleAfter(_ time.Duration, fn func()) disposable.Disposable {
	fn()
	return disposable.Disposed()
}

// Background runs callbacks on their own goroutines, using the wall clock
// for delays.
type Background struct{}

func (Background) Schedule(fn func()) disposable.Disposable {
	done := make(chan struct{})
	d := disposable.New(func() { close(done) })
	go func() {
		select {
		case <-done:
		default:
			fn()
		}
	}()
	return d
}

func (Background) ScheduleAfter(delay time.Duration, fn func()) disposable.Disposable {
	timer := time.AfterFunc(delay, fn)
	return disposable.New(func() { timer.Stop() })
}

// Queue is a serial trampoline: callbacks run in FIFO order, and a callback
// scheduled from inside another callback is appended to the queue instead
// of running nested. The goroutine that finds the queue idle drains it,
// which flattens reentrant scheduling into one level of iteration.
type Queue struct {
	mu       sync.Mutex
	draining bool
	items    []*queueItem
}

type queueItem struct {
	fn        func()
	cancelled bool
}

// NewQueue creates an empty serial trampoline.
func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Schedule(fn func()) disposable.Disposable {
	item := &queueItem{fn: fn}

	q.mu.Lock()
	q.items = append(q.items, item)
	if q.draining {
		q.mu.Unlock()
		return q.cancelHandle(item)
	}
	q.draining = true
	q.mu.Unlock()

	q.drain()
	return q.cancelHandle(item)
}

// ScheduleAfter delegates the delay to the wall clock, then enqueues.
func (q *Queue) ScheduleAfter(delay time.Duration, fn func()) disposable.Disposable {
	var handle disposable.Disposable
	var timer *time.Timer
	handle = disposable.New(func() { timer.Stop() })
	timer = time.AfterFunc(delay, func() {
		if handle.IsDisposed() {
			return
		}
		q.Schedule(fn)
	})
	return handle
}

func (q *Queue) cancelHandle(item *queueItem) disposable.Disposable {
	return disposable.New(func() {
		q.mu.Lock()
		item.cancelled = true
		q.mu.Unlock()
	})
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		item := q.items[0]
		q.items = q.items[1:]
		cancelled := item.cancelled
		q.mu.Unlock()

		if !cancelled {
			item.fn()
		}
	}
}
