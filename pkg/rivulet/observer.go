package rivulet

// Observer is the receiving capability of a Stream: a single Send entry
// point plus typed convenience senders. An Observer holds no ownership over
// the stream it feeds or observes.
//
// The zero Observer discards every event.
type Observer[T any] struct {
	send func(Event[T])
}

// NewObserver wraps a raw event callback as an Observer.
func NewObserver[T any](send func(Event[T])) Observer[T] {
	return Observer[T]{send: send}
}

// OnValue returns an Observer that invokes fn for value events and ignores
// everything else.
func OnValue[T any](fn func(T)) Observer[T] {
	return Observer[T]{send: func(e Event[T]) {
		if v, ok := e.Value(); ok {
			fn(v)
		}
	}}
}

// Callbacks returns an Observer dispatching each event kind to its
// callback. Any callback may be nil.
func Callbacks[T any](onValue func(T), onFailed func(error), onCompleted func(), onInterrupted func()) Observer[T] {
	return Observer[T]{send: func(e Event[T]) {
		switch e.Kind() {
		case KindValue:
			if onValue != nil {
				v, _ := e.Value()
				onValue(v)
			}
		case KindFailed:
			if onFailed != nil {
				onFailed(e.Err())
			}
		case KindCompleted:
			if onCompleted != nil {
				onCompleted()
			}
		case KindInterrupted:
			if onInterrupted != nil {
				onInterrupted()
			}
		}
	}}
}

// Send delivers an event to the observer.
func (o Observer[T]) Send(e Event[T]) {
	if o.send != nil {
		o.send(e)
	}
}

// SendValue delivers a value event.
func (o Observer[T]) SendValue(v T) {
	o.Send(ValueEvent(v))
}

// SendFailed delivers a terminal failure event.
func (o Observer[T]) SendFailed(err error) {
	o.Send(FailedEvent[T](err))
}

// SendCompleted delivers the terminal completion event.
func (o Observer[T]) SendCompleted() {
	o.Send(CompletedEvent[T]())
}

// SendInterrupted delivers the terminal interruption event.
func (o Observer[T]) SendInterrupted() {
	o.Send(InterruptedEvent[T]())
}
