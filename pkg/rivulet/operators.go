package rivulet

import "github.com/rivulet-go/rivulet/pkg/lifetime"

// forward converts an Event[T] into the matching Event[U] for a derived
// stream, applying fn to values and propagating terminal events unchanged.
func forward[T, U any](e Event[T], fn func(T) U, out Observer[U]) {
	switch e.Kind() {
	case KindValue:
		v, _ := e.Value()
		out.SendValue(fn(v))
	case KindFailed:
		out.SendFailed(e.Err())
	case KindCompleted:
		out.SendCompleted()
	case KindInterrupted:
		out.SendInterrupted()
	}
}

// Map returns a stream applying fn to every value of s.
// Terminal events pass through unchanged.
func Map[T, U any](s *Stream[T], fn func(T) U) *Stream[U] {
	out, input := Pipe[U]()
	s.Observe(NewObserver(func(e Event[T]) {
		forward(e, fn, input)
	}))
	return out
}

// Filter returns a stream of the values of s for which keep returns true.
// Terminal events pass through unchanged.
func Filter[T any](s *Stream[T], keep func(T) bool) *Stream[T] {
	out, input := Pipe[T]()
	s.Observe(NewObserver(func(e Event[T]) {
		if v, ok := e.Value(); ok {
			if keep(v) {
				input.SendValue(v)
			}
			return
		}
		input.Send(e)
	}))
	return out
}

// MapProducer lifts Map over a Producer: each activation of the result
// activates p and applies fn to its values. Disposing the result's handle
// interrupts the underlying activation.
func MapProducer[T, U any](p *Producer[T], fn func(T) U) *Producer[U] {
	return NewProducer(func(obs Observer[U], lt *lifetime.Lifetime) {
		h := p.Start(NewObserver(func(e Event[T]) {
			forward(e, fn, obs)
		}))
		lt.Add(h)
	})
}

// FilterProducer lifts Filter over a Producer.
func FilterProducer[T any](p *Producer[T], keep func(T) bool) *Producer[T] {
	return NewProducer(func(obs Observer[T], lt *lifetime.Lifetime) {
		h := p.Start(NewObserver(func(e Event[T]) {
			if v, ok := e.Value(); ok {
				if keep(v) {
					obs.SendValue(v)
				}
				return
			}
			obs.Send(e)
		}))
		lt.Add(h)
	})
}
