package rivulet

import "fmt"

// EventKind discriminates the variants of an Event.
type EventKind uint8

const (
	// KindValue carries a payload of type T.
	KindValue EventKind = iota + 1

	// KindFailed terminates the stream with an error.
	KindFailed

	// KindCompleted terminates the stream successfully.
	KindCompleted

	// KindInterrupted terminates the stream because its activation was
	// disposed before natural termination.
	KindInterrupted
)

// String returns a human-readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFailed:
		return "failed"
	case KindCompleted:
		return "completed"
	case KindInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Event is a tagged value flowing through a Stream: a value, a failure, a
// completion, or an interruption. The latter three are mutually exclusive
// terminal markers: a stream delivers at most one terminal event, and
// nothing after it.
type Event[T any] struct {
	kind  EventKind
	value T
	err   error
}

// ValueEvent wraps v as a value event.
func ValueEvent[T any](v T) Event[T] {
	return Event[T]{kind: KindValue, value: v}
}

// FailedEvent wraps err as a terminal failure event.
func FailedEvent[T any](err error) Event[T] {
	return Event[T]{kind: KindFailed, err: err}
}

// CompletedEvent returns the terminal completion event.
func CompletedEvent[T any]() Event[T] {
	return Event[T]{kind: KindCompleted}
}

// InterruptedEvent returns the terminal interruption event.
func InterruptedEvent[T any]() Event[T] {
	return Event[T]{kind: KindInterrupted}
}

// Kind returns the event's discriminator.
func (e Event[T]) Kind() EventKind {
	return e.kind
}

// IsTerminal reports whether the event terminates its stream.
func (e Event[T]) IsTerminal() bool {
	return e.kind == KindFailed || e.kind == KindCompleted || e.kind == KindInterrupted
}

// Value returns the payload and true for value events, and the zero value
// and false otherwise.
func (e Event[T]) Value() (T, bool) {
	if e.kind == KindValue {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Err returns the error carried by a failed event, or nil.
func (e Event[T]) Err() error {
	return e.err
}

// String renders the event for debugging output.
func (e Event[T]) String() string {
	switch e.kind {
	case KindValue:
		return fmt.Sprintf("value(%v)", e.value)
	case KindFailed:
		return fmt.Sprintf("failed(%v)", e.err)
	default:
		return e.kind.String()
	}
}
