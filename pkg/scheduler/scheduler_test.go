package scheduler

import (
	"sync"
	"testing"
	"time"
)

func TestImmediateRunsInline(t *testing.T) {
	ran := false
	h := Immediate{}.Schedule(func() { ran = true })
	if !ran {
		t.Fatal("Immediate must run the callback before returning")
	}
	if !h.IsDisposed() {
		t.Error("handle for an already-run callback should be disposed")
	}
}

func TestQueueFlattensNestedScheduling(t *testing.T) {
	q := NewQueue()
	var order []int

	q.Schedule(func() {
		order = append(order, 1)
		q.Schedule(func() {
			order = append(order, 3)
		})
		order = append(order, 2)
	})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("nested callback must run after the outer one finishes, got %v", order)
	}
}

func TestQueueCancelPending(t *testing.T) {
	q := NewQueue()
	var ran []string

	q.Schedule(func() {
		h := q.Schedule(func() { ran = append(ran, "cancelled") })
		q.Schedule(func() { ran = append(ran, "kept") })
		h.Dispose()
	})

	if len(ran) != 1 || ran[0] != "kept" {
		t.Errorf("cancelled item must not run, got %v", ran)
	}
}

func TestQueueSerializesAcrossGoroutines(t *testing.T) {
	q := NewQueue()
	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				done := make(chan struct{})
				q.Schedule(func() {
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()

					mu.Lock()
					active--
					mu.Unlock()
					close(done)
				})
				<-done
			}
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("at most one callback may run at a time, saw %d", maxActive)
	}
}

func TestBackgroundScheduleAfter(t *testing.T) {
	done := make(chan struct{})
	Background{}.ScheduleAfter(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("delayed callback did not run")
	}
}

func TestBackgroundCancelBeforeDue(t *testing.T) {
	ran := make(chan struct{}, 1)
	h := Background{}.ScheduleAfter(50*time.Millisecond, func() { ran <- struct{}{} })
	h.Dispose()

	select {
	case <-ran:
		t.Fatal("cancelled callback must not run")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestVirtualClockNothingRunsUntilAdvanced(t *testing.T) {
	c := NewVirtualClock()
	ran := false
	c.ScheduleAfter(10*time.Millisecond, func() { ran = true })

	if ran {
		t.Fatal("callback ran before the clock advanced")
	}
	c.Advance(9 * time.Millisecond)
	if ran {
		t.Fatal("callback ran before its due time")
	}
	c.Advance(1 * time.Millisecond)
	if !ran {
		t.Fatal("callback did not run at its due time")
	}
}

func TestVirtualClockOrdering(t *testing.T) {
	c := NewVirtualClock()
	var order []string

	c.ScheduleAfter(20*time.Millisecond, func() { order = append(order, "late") })
	c.ScheduleAfter(10*time.Millisecond, func() { order = append(order, "early") })
	c.ScheduleAfter(10*time.Millisecond, func() { order = append(order, "early2") })
	c.Schedule(func() { order = append(order, "now") })

	c.Advance(30 * time.Millisecond)

	want := []string{"now", "early", "early2", "late"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestVirtualClockAdvancesTimeStepwise(t *testing.T) {
	c := NewVirtualClock()
	var seen []time.Duration

	c.ScheduleAfter(5*time.Millisecond, func() { seen = append(seen, c.Now()) })
	c.ScheduleAfter(15*time.Millisecond, func() { seen = append(seen, c.Now()) })

	c.Advance(20 * time.Millisecond)

	if len(seen) != 2 || seen[0] != 5*time.Millisecond || seen[1] != 15*time.Millisecond {
		t.Errorf("callbacks must observe their own due time, got %v", seen)
	}
	if c.Now() != 20*time.Millisecond {
		t.Errorf("clock must land on the advance target, got %v", c.Now())
	}
}

func TestVirtualClockCallbackSchedulesWithinWindow(t *testing.T) {
	c := NewVirtualClock()
	var order []string

	c.ScheduleAfter(5*time.Millisecond, func() {
		order = append(order, "first")
		c.ScheduleAfter(5*time.Millisecond, func() {
			order = append(order, "second")
		})
	})

	c.Advance(10 * time.Millisecond)

	if len(order) != 2 || order[1] != "second" {
		t.Errorf("callback scheduled inside the advanced window must run in the same pass, got %v", order)
	}
}

func TestVirtualClockCancel(t *testing.T) {
	c := NewVirtualClock()
	ran := false
	h := c.ScheduleAfter(5*time.Millisecond, func() { ran = true })
	h.Dispose()

	c.Advance(10 * time.Millisecond)
	if ran {
		t.Error("cancelled callback must not run")
	}
}

func TestVirtualClockRunDrainsEverything(t *testing.T) {
	c := NewVirtualClock()
	count := 0
	c.ScheduleAfter(time.Hour, func() { count++ })
	c.ScheduleAfter(24*time.Hour, func() {
		count++
		c.Schedule(func() { count++ })
	})

	c.Run()

	if count != 3 {
		t.Errorf("Run must drain the schedule including late additions, got %d", count)
	}
	if c.Now() != 24*time.Hour {
		t.Errorf("clock should rest at the last due time, got %v", c.Now())
	}
}
