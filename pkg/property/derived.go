package property

import (
	"sync"

	"github.com/rivulet-go/rivulet/pkg/disposable"
	"github.com/rivulet-go/rivulet/pkg/rivulet"
)

// Derived is a read-only source computed from other sources. It caches its
// value and re-evaluates whenever an input notifies; notifications are
// equality-gated like Mutable, so a recomputation yielding the same value
// is silent.
type Derived[T any] struct {
	mu      sync.Mutex
	value   T
	compute func() T

	changes *rivulet.Stream[T]
	input   rivulet.Observer[T]
	subs    *disposable.Composite
}

func newDerived[T any](compute func() T) *Derived[T] {
	s, in := rivulet.Pipe[T]()
	return &Derived[T]{
		value:   compute(),
		compute: compute,
		changes: s,
		input:   in,
		subs:    disposable.NewComposite(),
	}
}

// watch subscribes d to one of its inputs.
func watch[T, U any](d *Derived[T], src Source[U]) {
	h := src.Changes().Observe(rivulet.OnValue(func(U) { d.recompute() }))
	d.subs.Add(h)
}

func (d *Derived[T]) recompute() {
	d.mu.Lock()
	next := d.compute()
	changed := !defaultEquals(d.value, next)
	if changed {
		d.value = next
	}
	d.mu.Unlock()

	if changed {
		d.input.SendValue(next)
	}
}

func (d *Derived[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

func (d *Derived[T]) Changes() *rivulet.Stream[T] {
	return d.changes
}

// Dispose detaches the derived source from its inputs. The cached value
// remains readable but no longer updates.
func (d *Derived[T]) Dispose() {
	d.subs.Dispose()
}

// Map derives a source whose value is fn applied to src's value.
func Map[T, U any](src Source[T], fn func(T) U) *Derived[U] {
	d := newDerived(func() U { return fn(src.Value()) })
	watch(d, src)
	return d
}

// And derives the logical conjunction of its inputs. With no inputs the
// result is constantly true.
func And(srcs ...BoolSource) *Derived[bool] {
	d := newDerived(func() bool {
		for _, s := range srcs {
			if !s.Value() {
				return false
			}
		}
		return true
	})
	for _, s := range srcs {
		watch(d, s)
	}
	return d
}

// Or derives the logical disjunction of its inputs. With no inputs the
// result is constantly false.
func Or(srcs ...BoolSource) *Derived[bool] {
	d := newDerived(func() bool {
		for _, s := range srcs {
			if s.Value() {
				return true
			}
		}
		return false
	})
	for _, s := range srcs {
		watch(d, s)
	}
	return d
}

// Not derives the negation of src.
func Not(src BoolSource) *Derived[bool] {
	return Map(src, func(b bool) bool { return !b })
}

// Constant returns a source that always holds v and never changes.
func Constant[T any](v T) Source[T] {
	return constant[T]{value: v, changes: newClosedStream[T]()}
}

type constant[T any] struct {
	value   T
	changes *rivulet.Stream[T]
}

func (c constant[T]) Value() T { return c.value }

func (c constant[T]) Changes() *rivulet.Stream[T] { return c.changes }

func newClosedStream[T any]() *rivulet.Stream[T] {
	s, in := rivulet.Pipe[T]()
	in.SendCompleted()
	return s
}
