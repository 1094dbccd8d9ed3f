package rivulet

import (
	"errors"
	"testing"
)

func TestEventKinds(t *testing.T) {
	v := ValueEvent(42)
	if v.Kind() != KindValue || v.IsTerminal() {
		t.Errorf("value event misclassified: %v", v)
	}
	if got, ok := v.Value(); !ok || got != 42 {
		t.Errorf("expected payload 42, got %v (ok=%v)", got, ok)
	}

	err := errors.New("boom")
	f := FailedEvent[int](err)
	if f.Kind() != KindFailed || !f.IsTerminal() {
		t.Errorf("failed event misclassified: %v", f)
	}
	if !errors.Is(f.Err(), err) {
		t.Errorf("expected wrapped error, got %v", f.Err())
	}
	if _, ok := f.Value(); ok {
		t.Error("failed event should carry no value")
	}

	c := CompletedEvent[int]()
	if c.Kind() != KindCompleted || !c.IsTerminal() {
		t.Errorf("completed event misclassified: %v", c)
	}

	i := InterruptedEvent[int]()
	if i.Kind() != KindInterrupted || !i.IsTerminal() {
		t.Errorf("interrupted event misclassified: %v", i)
	}
}

func TestEventString(t *testing.T) {
	if s := ValueEvent("x").String(); s != "value(x)" {
		t.Errorf("unexpected String(): %q", s)
	}
	if s := CompletedEvent[int]().String(); s != "completed" {
		t.Errorf("unexpected String(): %q", s)
	}
}

func TestCheckedMutexFlagsReentrantAcquisition(t *testing.T) {
	var m checkedMutex

	defer func() {
		if recover() == nil {
			t.Error("expected panic on same-goroutine reentrant acquisition")
		}
	}()

	m.Lock()
	m.Lock() // would deadlock a plain mutex; must panic instead
}

func TestCheckedMutexAllowsSequentialUse(t *testing.T) {
	var m checkedMutex
	m.Lock()
	m.Unlock()
	m.Lock()
	m.Unlock()
}
