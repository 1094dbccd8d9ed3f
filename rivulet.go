// Package rivulet provides the public API for the rivulet reactive
// event-propagation engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/rivulet-go/rivulet"
//
// Usage:
//
//	stream, input := rivulet.Pipe[int]()
//	stream.Observe(rivulet.OnValue(func(n int) { fmt.Println(n) }))
//	input.SendValue(1)
//
//	producer := rivulet.FromValues(1, 2, 3)
//	handle := producer.Start(rivulet.OnValue(process))
//	handle.Dispose()
package rivulet

import (
	"github.com/rivulet-go/rivulet/pkg/disposable"
	"github.com/rivulet-go/rivulet/pkg/lifetime"
	"github.com/rivulet-go/rivulet/pkg/rivulet"
)

// =============================================================================
// Events
// =============================================================================

// Event is a tagged value flowing through a Stream.
type Event[T any] = rivulet.Event[T]

// EventKind discriminates the variants of an Event.
type EventKind = rivulet.EventKind

// Event kind values.
const (
	KindValue       = rivulet.KindValue
	KindFailed      = rivulet.KindFailed
	KindCompleted   = rivulet.KindCompleted
	KindInterrupted = rivulet.KindInterrupted
)

// ValueEvent wraps v as a value event.
func ValueEvent[T any](v T) Event[T] { return rivulet.ValueEvent(v) }

// FailedEvent wraps err as a terminal failure event.
func FailedEvent[T any](err error) Event[T] { return rivulet.FailedEvent[T](err) }

// CompletedEvent returns the terminal completion event.
func CompletedEvent[T any]() Event[T] { return rivulet.CompletedEvent[T]() }

// InterruptedEvent returns the terminal interruption event.
func InterruptedEvent[T any]() Event[T] { return rivulet.InterruptedEvent[T]() }

// =============================================================================
// Streams and observers
// =============================================================================

// Stream is the hot, multicast primitive.
type Stream[T any] = rivulet.Stream[T]

// Observer receives the events of one stream.
type Observer[T any] = rivulet.Observer[T]

// Pipe creates a Stream together with the Observer that feeds it.
func Pipe[T any]() (*Stream[T], Observer[T]) { return rivulet.Pipe[T]() }

// NewObserver wraps a raw event callback.
func NewObserver[T any](send func(Event[T])) Observer[T] { return rivulet.NewObserver(send) }

// OnValue builds an observer that only reacts to value events.
func OnValue[T any](fn func(T)) Observer[T] { return rivulet.OnValue(fn) }

// Callbacks builds an observer from one callback per event kind. Nil
// callbacks are skipped.
func Callbacks[T any](onValue func(T), onFailed func(error), onCompleted func(), onInterrupted func()) Observer[T] {
	return rivulet.Callbacks(onValue, onFailed, onCompleted, onInterrupted)
}

// Map derives a stream whose values are transformed by fn.
func Map[T, U any](s *Stream[T], fn func(T) U) *Stream[U] { return rivulet.Map(s, fn) }

// Filter derives a stream keeping only values for which keep is true.
func Filter[T any](s *Stream[T], keep func(T) bool) *Stream[T] { return rivulet.Filter(s, keep) }

// =============================================================================
// Producers
// =============================================================================

// Producer is the cold factory: each Start materializes a fresh stream.
type Producer[T any] = rivulet.Producer[T]

// NewProducer creates a producer from a setup function.
func NewProducer[T any](setup func(Observer[T], *Lifetime)) *Producer[T] {
	return rivulet.NewProducer(setup)
}

// FromValues returns a producer emitting the given values then completing.
func FromValues[T any](values ...T) *Producer[T] { return rivulet.FromValues(values...) }

// FromError returns a producer that immediately fails with err.
func FromError[T any](err error) *Producer[T] { return rivulet.FromError[T](err) }

// Empty returns a producer that immediately completes.
func Empty[T any]() *Producer[T] { return rivulet.Empty[T]() }

// MapProducer derives a producer whose activations transform values by fn.
func MapProducer[T, U any](p *Producer[T], fn func(T) U) *Producer[U] {
	return rivulet.MapProducer(p, fn)
}

// FilterProducer derives a producer keeping only values for which keep is
// true.
func FilterProducer[T any](p *Producer[T], keep func(T) bool) *Producer[T] {
	return rivulet.FilterProducer(p, keep)
}

// =============================================================================
// Disposal and lifetimes
// =============================================================================

// Disposable is a handle for a cancellable side effect.
type Disposable = disposable.Disposable

// Composite aggregates child disposables.
type Composite = disposable.Composite

// Serial holds one inner disposable at a time, disposing the previous on
// swap.
type Serial = disposable.Serial

// NewDisposable wraps fn as a run-once disposable.
func NewDisposable(fn func()) Disposable { return disposable.New(fn) }

// NewComposite creates a composite from the given children.
func NewComposite(children ...Disposable) *Composite { return disposable.NewComposite(children...) }

// NewSerial creates a serial disposable holding inner.
func NewSerial(inner Disposable) *Serial { return disposable.NewSerial(inner) }

// Lifetime is the read-only "ended" signal of an owner.
type Lifetime = lifetime.Lifetime

// Token drives a Lifetime; disposing it (or letting it be collected) ends
// the lifetime.
type Token = lifetime.Token

// MakeLifetime creates a lifetime together with the token that ends it.
func MakeLifetime() (*Lifetime, *Token) { return lifetime.Make() }
