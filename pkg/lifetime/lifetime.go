// Package lifetime models the end-of-life signal of an owner.
//
// A Lifetime is a read-only view that fires exactly once, when its paired
// Token is disposed (explicitly, or by the garbage collector reclaiming the
// token). The Lifetime never owns the Token and never extends its life;
// ownership flows one way only. Work scoped to an owner registers against
// the owner's Lifetime and is torn down when the owner goes away, without
// the owner ever referencing the work.
package lifetime

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rivulet-go/rivulet/pkg/disposable"
)

// Lifetime is the non-owning, observe-only half of a Make pair.
// Its ended signal fires at most once.
type Lifetime struct {
	mu        sync.Mutex
	ended     bool
	nextID    uint64
	observers []lifetimeObserver
}

type lifetimeObserver struct {
	id uint64
	fn func()
}

// Token is the owned half of a Make pair. Disposing it is the sole trigger
// of the paired Lifetime's ended signal.
type Token struct {
	disposed atomic.Bool
	l        *Lifetime
}

// Make creates a Lifetime and the Token that controls it.
// The caller keeps the Token alive for as long as the lifetime should last.
// If the Token is garbage collected without an explicit Dispose, a finalizer
// ends the lifetime so scoped work cannot leak.
func Make() (*Lifetime, *Token) {
	l := &Lifetime{}
	t := &Token{l: l}
	runtime.SetFinalizer(t, func(t *Token) { t.Dispose() })
	return l, t
}

// Ended returns an already-ended Lifetime. Observers registered on it run
// immediately.
func Ended() *Lifetime {
	return &Lifetime{ended: true}
}

// HasEnded reports whether the ended signal has fired.
func (l *Lifetime) HasEnded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ended
}

// Observe registers fn to run when the lifetime ends.
// If the lifetime has already ended, fn runs synchronously before Observe
// returns. The returned handle unregisters fn; it does not run it.
func (l *Lifetime) Observe(fn func()) disposable.Disposable {
	if fn == nil {
		return disposable.Nop()
	}

	l.mu.Lock()
	if l.ended {
		l.mu.Unlock()
		fn()
		return disposable.Nop()
	}
	l.nextID++
	id := l.nextID
	l.observers = append(l.observers, lifetimeObserver{id: id, fn: fn})
	l.mu.Unlock()

	return disposable.New(func() { l.remove(id) })
}

// Add scopes d to the lifetime: d is disposed when the lifetime ends.
// If the lifetime has already ended, d is disposed immediately.
// The returned handle detaches d from the lifetime without disposing it.
func (l *Lifetime) Add(d disposable.Disposable) disposable.Disposable {
	if d == nil {
		return disposable.Nop()
	}
	return l.Observe(d.Dispose)
}

func (l *Lifetime) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, o := range l.observers {
		if o.id == id {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

// end fires the ended signal. Observers are snapshotted under the lock and
// invoked after it is released, in registration order.
func (l *Lifetime) end() {
	l.mu.Lock()
	if l.ended {
		l.mu.Unlock()
		return
	}
	l.ended = true
	observers := l.observers
	l.observers = nil
	l.mu.Unlock()

	for _, o := range observers {
		o.fn()
	}
}

// Dispose ends the paired Lifetime. Idempotent.
func (t *Token) Dispose() {
	if t.disposed.Swap(true) {
		return
	}
	runtime.SetFinalizer(t, nil)
	t.l.end()
}

// IsDisposed reports whether the token has been disposed.
func (t *Token) IsDisposed() bool {
	return t.disposed.Load()
}
