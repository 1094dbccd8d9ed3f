// Package property layers an observable current value over the event
// streams in pkg/rivulet.
//
// A Source exposes a value that can be read at any time plus a stream of
// subsequent values. Mutable is the writable root; Map, And, Or and Not
// derive read-only sources that recompute whenever an input changes.
// Notification is equality-gated: setting a value equal to the current one
// is a no-op, which is what lets derived sources participate in feedback
// loops without oscillating.
package property

import (
	"reflect"
	"sync"

	"github.com/rivulet-go/rivulet/pkg/rivulet"
)

// Source is the read side of a property: the current value, plus a hot
// stream carrying every subsequent distinct value.
type Source[T any] interface {
	// Value returns the current value.
	Value() T

	// Changes returns the stream of values after the current one. The
	// same stream is returned on every call.
	Changes() *rivulet.Stream[T]
}

// BoolSource is the capability required by gates and combinators.
type BoolSource = Source[bool]

// Mutable is a writable property. Writes that do not change the value
// (per the configured equality) notify nobody.
type Mutable[T any] struct {
	mu    sync.Mutex
	value T
	equal func(T, T) bool

	changes *rivulet.Stream[T]
	input   rivulet.Observer[T]
}

// NewMutable creates a mutable property holding initial.
func NewMutable[T any](initial T) *Mutable[T] {
	s, in := rivulet.Pipe[T]()
	return &Mutable[T]{value: initial, changes: s, input: in}
}

// WithEquals configures a custom equality function. Call before the
// property is shared; it is not synchronized.
func (m *Mutable[T]) WithEquals(fn func(T, T) bool) *Mutable[T] {
	m.equal = fn
	return m
}

func (m *Mutable[T]) Value() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

func (m *Mutable[T]) Changes() *rivulet.Stream[T] {
	return m.changes
}

// Set replaces the value and notifies observers if it changed. The value
// is committed before any observer runs, so a reader reacting to the
// notification sees the new value.
func (m *Mutable[T]) Set(value T) {
	m.Update(func(T) T { return value })
}

// Update atomically replaces the value with fn(current).
func (m *Mutable[T]) Update(fn func(T) T) {
	m.mu.Lock()
	next := fn(m.value)
	changed := !m.equals(m.value, next)
	if changed {
		m.value = next
	}
	m.mu.Unlock()

	if changed {
		m.input.SendValue(next)
	}
}

func (m *Mutable[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for the common scalar types and reflect.DeepEqual
// for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case bool:
		return av == any(b).(bool)
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	}
	return reflect.DeepEqual(a, b)
}
