package rivulet

import (
	"errors"
	"sync"
	"testing"

	"github.com/rivulet-go/rivulet/pkg/disposable"
	"github.com/rivulet-go/rivulet/pkg/lifetime"
)

func TestProducerSetupRunsSynchronously(t *testing.T) {
	p := FromValues(1, 2)

	rec := &recorder[int]{}
	h := p.Start(rec.observer())

	events := rec.snapshot()
	if len(events) != 3 {
		t.Fatalf("expected two values and completion before Start returns, got %v", events)
	}
	if events[2].Kind() != KindCompleted {
		t.Errorf("expected completed terminal, got %v", events[2])
	}
	if h == nil {
		t.Fatal("Start must return a handle")
	}
}

func TestProducerActivationsIndependent(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	p := NewProducer(func(obs Observer[int], _ *lifetime.Lifetime) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		obs.SendValue(n)
	})

	a := &recorder[int]{}
	b := &recorder[int]{}
	ha := p.Start(a.observer())
	hb := p.Start(b.observer())

	// Interrupting one activation must not affect the other.
	ha.Dispose()

	av := a.snapshot()
	if len(av) != 2 || av[1].Kind() != KindInterrupted {
		t.Errorf("first activation should end with interrupted, got %v", av)
	}
	bv := b.snapshot()
	if len(bv) != 1 {
		t.Errorf("second activation should be untouched, got %v", bv)
	}
	hb.Dispose()
}

func TestProducerDisposeDeliversInterruptedOnce(t *testing.T) {
	p := NewProducer(func(obs Observer[int], _ *lifetime.Lifetime) {
		obs.SendValue(1)
		// Never terminates on its own.
	})

	rec := &recorder[int]{}
	h := p.Start(rec.observer())

	h.Dispose()
	h.Dispose()

	events := rec.snapshot()
	if len(events) != 2 || events[1].Kind() != KindInterrupted {
		t.Fatalf("expected exactly one interrupted, got %v", events)
	}
}

func TestProducerDisposeAfterCompletionIsNoop(t *testing.T) {
	p := FromValues(1)

	rec := &recorder[int]{}
	h := p.Start(rec.observer())
	h.Dispose()

	for _, e := range rec.snapshot() {
		if e.Kind() == KindInterrupted {
			t.Fatal("no interrupted may be delivered after natural termination")
		}
	}
}

func TestProducerLifetimeDisposedOnInterrupt(t *testing.T) {
	resource := disposable.New(nil)
	p := NewProducer(func(obs Observer[int], lt *lifetime.Lifetime) {
		lt.Add(resource)
	})

	h := p.Start(Observer[int]{})
	if resource.IsDisposed() {
		t.Fatal("resource disposed too early")
	}

	h.Dispose()
	if !resource.IsDisposed() {
		t.Error("disposing the activation must dispose lifetime-scoped resources")
	}
}

func TestProducerLifetimeDisposedOnCompletion(t *testing.T) {
	resource := disposable.New(nil)
	p := NewProducer(func(obs Observer[int], lt *lifetime.Lifetime) {
		lt.Add(resource)
		obs.SendCompleted()
	})

	p.Start(Observer[int]{})
	if !resource.IsDisposed() {
		t.Error("natural termination must dispose lifetime-scoped resources")
	}
}

func TestProducerFromError(t *testing.T) {
	boom := errors.New("boom")
	p := FromError[int](boom)

	rec := &recorder[int]{}
	p.Start(rec.observer())

	events := rec.snapshot()
	if len(events) != 1 || events[0].Kind() != KindFailed || !errors.Is(events[0].Err(), boom) {
		t.Errorf("expected single failed(boom), got %v", events)
	}
}

func TestProducerStartWithStream(t *testing.T) {
	p := FromValues("a", "b")

	rec := &recorder[string]{}
	p.StartWithStream(func(s *Stream[string], h disposable.Disposable) {
		// Attach happens before setup runs, so synchronous events are
		// not missed.
		s.Observe(rec.observer())
	})

	vals := rec.values()
	if len(vals) != 2 || vals[0] != "a" || vals[1] != "b" {
		t.Errorf("expected [a b], got %v", vals)
	}
}

func TestMapProducer(t *testing.T) {
	p := MapProducer(FromValues(1, 2, 3), func(n int) string {
		if n%2 == 0 {
			return "even"
		}
		return "odd"
	})

	rec := &recorder[string]{}
	p.Start(rec.observer())

	vals := rec.values()
	if len(vals) != 3 || vals[0] != "odd" || vals[1] != "even" || vals[2] != "odd" {
		t.Errorf("expected [odd even odd], got %v", vals)
	}
}

func TestFilterProducer(t *testing.T) {
	p := FilterProducer(FromValues(1, 2, 3, 4), func(n int) bool { return n > 2 })

	rec := &recorder[int]{}
	p.Start(rec.observer())

	vals := rec.values()
	if len(vals) != 2 || vals[0] != 3 || vals[1] != 4 {
		t.Errorf("expected [3 4], got %v", vals)
	}
}

func TestMapProducerInterruptPropagates(t *testing.T) {
	inner := NewProducer(func(obs Observer[int], _ *lifetime.Lifetime) {
		obs.SendValue(1)
	})
	p := MapProducer(inner, func(n int) int { return n })

	rec := &recorder[int]{}
	h := p.Start(rec.observer())
	h.Dispose()

	events := rec.snapshot()
	if len(events) != 2 || events[1].Kind() != KindInterrupted {
		t.Errorf("expected value then interrupted, got %v", events)
	}
}
