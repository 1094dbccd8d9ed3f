package rivulet

import (
	"github.com/rivulet-go/rivulet/pkg/disposable"
	"github.com/rivulet-go/rivulet/pkg/lifetime"
)

// Producer is the cold counterpart of Stream: a reusable, stateless
// description of how to build and run one. Each Start constructs a fresh
// Stream/Lifetime pair and invokes the setup closure with them; concurrent
// activations of the same Producer share no mutable state.
type Producer[T any] struct {
	setup func(Observer[T], *lifetime.Lifetime)
}

// NewProducer creates a Producer from a setup closure. The closure receives
// the activation's input observer and its Lifetime; resources registered on
// the Lifetime are disposed when the activation terminates or is cancelled.
func NewProducer[T any](setup func(Observer[T], *lifetime.Lifetime)) *Producer[T] {
	return &Producer[T]{setup: setup}
}

// FromValues returns a Producer that emits the given values and completes.
func FromValues[T any](values ...T) *Producer[T] {
	return NewProducer(func(obs Observer[T], _ *lifetime.Lifetime) {
		for _, v := range values {
			obs.SendValue(v)
		}
		obs.SendCompleted()
	})
}

// FromError returns a Producer that immediately fails with err.
func FromError[T any](err error) *Producer[T] {
	return NewProducer(func(obs Observer[T], _ *lifetime.Lifetime) {
		obs.SendFailed(err)
	})
}

// Empty returns a Producer that completes without emitting.
func Empty[T any]() *Producer[T] {
	return NewProducer(func(obs Observer[T], _ *lifetime.Lifetime) {
		obs.SendCompleted()
	})
}

// Start activates the producer with o attached and returns the activation's
// cancellation handle. Disposing the handle ends the activation's Lifetime,
// disposes everything registered on it, and delivers exactly one
// Interrupted event. If the stream already reached a terminal state,
// disposal is a safe no-op.
func (p *Producer[T]) Start(o Observer[T]) disposable.Disposable {
	var handle disposable.Disposable
	p.StartWithStream(func(s *Stream[T], h disposable.Disposable) {
		s.Observe(o)
		handle = h
	})
	return handle
}

// StartWithStream activates the producer, invoking attach with the
// activation's stream and cancellation handle before the setup closure
// runs, so callers can attach observers without missing synchronously
// emitted events.
func (p *Producer[T]) StartWithStream(attach func(*Stream[T], disposable.Disposable)) {
	stream, input := Pipe[T]()
	lt, token := lifetime.Make()

	handle := disposable.New(func() {
		// No-op if the stream already terminated naturally.
		input.SendInterrupted()
		token.Dispose()
	})

	if attach != nil {
		attach(stream, handle)
	}

	// Natural termination tears down the activation's resources too.
	// Attached after the caller's observers so they see the terminal
	// event before teardown runs.
	stream.Observe(NewObserver(func(e Event[T]) {
		if e.IsTerminal() {
			token.Dispose()
		}
	}))

	p.setup(input, lt)
}
