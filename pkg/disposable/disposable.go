// Package disposable provides idempotent cancellation handles.
//
// A Disposable represents a side effect that can be cancelled exactly once.
// Disposal is irreversible: once disposed, a handle stays disposed and
// further Dispose calls are no-ops.
//
// Composite aggregates a dynamic set of child handles and disposes all of
// them when it is disposed itself. Serial holds a single replaceable inner
// handle, disposing the previous one on each swap.
package disposable

import (
	"sync"
	"sync/atomic"
)

// Disposable is a handle for a cancellable side effect.
// Dispose is idempotent and safe for concurrent use.
type Disposable interface {
	// Dispose cancels the side effect. Calling it more than once is a no-op.
	Dispose()

	// IsDisposed reports whether Dispose has been called.
	IsDisposed() bool
}

// anonymous wraps a cleanup function as a Disposable.
type anonymous struct {
	disposed atomic.Bool

	// fn is cleared after the first Dispose so captured state can be
	// reclaimed even if the handle itself is retained.
	mu sync.Mutex
	fn func()
}

// New returns a Disposable that runs fn exactly once, on the first Dispose.
// A nil fn yields a handle that only tracks the disposed flag.
func New(fn func()) Disposable {
	return &anonymous{fn: fn}
}

// Nop returns a Disposable with no associated effect.
// It still transitions to the disposed state when disposed.
func Nop() Disposable {
	return &anonymous{}
}

// Disposed returns a handle that is already spent: no effect, and
// IsDisposed reports true from the start.
func Disposed() Disposable {
	d := &anonymous{}
	d.disposed.Store(true)
	return d
}

func (d *anonymous) Dispose() {
	if d.disposed.Swap(true) {
		return
	}

	d.mu.Lock()
	fn := d.fn
	d.fn = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (d *anonymous) IsDisposed() bool {
	return d.disposed.Load()
}

// Composite aggregates child Disposables.
// Disposing the composite disposes every child exactly once, in reverse
// insertion order. Adding a child to an already-disposed composite disposes
// that child immediately, so no handle can leak past the composite's end.
type Composite struct {
	mu       sync.Mutex
	disposed bool
	children []Disposable
}

// NewComposite creates a Composite owning the given children.
func NewComposite(children ...Disposable) *Composite {
	c := &Composite{}
	c.children = append(c.children, children...)
	return c
}

// Add registers a child with the composite.
// If the composite is already disposed, the child is disposed immediately.
func (c *Composite) Add(d Disposable) {
	if d == nil {
		return
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.children = append(c.children, d)
	c.mu.Unlock()
}

// AddFunc registers a cleanup function, wrapping it via New.
// The returned handle can be disposed early to run the cleanup before the
// composite itself is disposed.
func (c *Composite) AddFunc(fn func()) Disposable {
	d := New(fn)
	c.Add(d)
	return d
}

// Dispose disposes all children in reverse insertion order.
// Children added concurrently with Dispose are disposed either here or
// immediately inside Add; never twice, never dropped.
func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}
}

// IsDisposed reports whether the composite has been disposed.
func (c *Composite) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Serial holds a single inner Disposable that can be swapped.
// Swapping in a new handle disposes the previous one. Disposing the Serial
// disposes the current inner handle and every handle swapped in afterwards.
type Serial struct {
	mu       sync.Mutex
	disposed bool
	inner    Disposable
}

// NewSerial creates a Serial with an optional initial inner handle.
func NewSerial(inner Disposable) *Serial {
	return &Serial{inner: inner}
}

// Swap replaces the inner handle with d, disposing the previous one.
// If the Serial is already disposed, d is disposed immediately.
func (s *Serial) Swap(d Disposable) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		if d != nil {
			d.Dispose()
		}
		return
	}
	prev := s.inner
	s.inner = d
	s.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
}

// Dispose disposes the Serial and its current inner handle.
func (s *Serial) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	inner := s.inner
	s.inner = nil
	s.mu.Unlock()

	if inner != nil {
		inner.Dispose()
	}
}

// IsDisposed reports whether the Serial has been disposed.
func (s *Serial) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
