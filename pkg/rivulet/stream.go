package rivulet

import (
	"sync"
	"sync/atomic"

	"github.com/rivulet-go/rivulet/pkg/disposable"
)

type streamObserver[T any] struct {
	id  uint64
	obs Observer[T]
}

// Stream is the hot, multicast primitive. It delivers every event it
// receives to all currently-attached observers, in arrival order, exactly
// once each, and transitions to a terminated state on the first terminal
// event, after which all observers are dropped and further sends are
// no-ops.
//
// Streams are fed through the Observer returned by Pipe; there is no public
// send on the Stream itself.
type Stream[T any] struct {
	id uint64

	// state protects the observer set, the termination flag, and the
	// reentrant-send queue. It is never held while observer code runs,
	// and reacquiring it on the same goroutine panics.
	state      checkedMutex
	observers  []streamObserver[T]
	terminated bool
	terminal   Event[T]
	pending    []Event[T]

	// sendMu serializes fan-out across goroutines so the delivery of one
	// send appears atomic to each observer and all observers agree on a
	// single total order. deliverOwner records the goroutine currently
	// fanning out, letting a reentrant send detect itself and queue on
	// pending instead of deadlocking on sendMu.
	sendMu       sync.Mutex
	deliverOwner atomic.Uint64
}

// Pipe creates a Stream together with the Observer that feeds it.
func Pipe[T any]() (*Stream[T], Observer[T]) {
	s := &Stream[T]{id: nextID()}
	return s, NewObserver(s.send)
}

// ID returns the unique identifier for this stream.
func (s *Stream[T]) ID() uint64 {
	return s.id
}

// HasTerminated reports whether a terminal event has been delivered.
func (s *Stream[T]) HasTerminated() bool {
	s.state.Lock()
	defer s.state.Unlock()
	return s.terminated
}

// Observe attaches an observer. The observer receives every event sent
// after attachment, in send order, ending with at most one terminal event.
//
// If the stream has already terminated, the observer synchronously receives
// the recorded terminal event and nothing else. The returned handle
// detaches the observer without affecting the stream.
func (s *Stream[T]) Observe(o Observer[T]) disposable.Disposable {
	s.state.Lock()
	if s.terminated {
		terminal := s.terminal
		s.state.Unlock()
		o.Send(terminal)
		return disposable.Disposed()
	}
	id := nextID()
	s.observers = append(s.observers, streamObserver[T]{id: id, obs: o})
	s.state.Unlock()

	return disposable.New(func() { s.detach(id) })
}

func (s *Stream[T]) detach(id uint64) {
	s.state.Lock()
	defer s.state.Unlock()

	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// send pushes an event into the stream.
//
// Sends from distinct goroutines serialize on sendMu. A send arriving on
// the goroutine that is currently fanning out (a reentrant send from inside
// an observer callback) is appended to the pending queue and drained by the
// owning goroutine after the current fan-out. It joins the same total order
// without recursive re-entry and without deadlocking on sendMu.
func (s *Stream[T]) send(e Event[T]) {
	gid := goroutineID()
	if s.deliverOwner.Load() == gid {
		s.state.Lock()
		if !s.terminated {
			s.pending = append(s.pending, e)
		}
		s.state.Unlock()
		return
	}

	s.sendMu.Lock()
	s.deliverOwner.Store(gid)

	s.deliver(e)
	for {
		s.state.Lock()
		if len(s.pending) == 0 {
			s.state.Unlock()
			break
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.state.Unlock()

		s.deliver(next)
	}

	s.deliverOwner.Store(0)
	s.sendMu.Unlock()
}

// deliver fans one event out to a snapshot of the observer set.
// A terminal event marks the stream terminated and clears the observer set
// inside the same critical section, so an Observe racing with termination
// either lands in the snapshot or sees the terminated state, never both.
// The state lock is released before any observer runs.
func (s *Stream[T]) deliver(e Event[T]) {
	s.state.Lock()
	if s.terminated {
		s.state.Unlock()
		return
	}
	observers := make([]streamObserver[T], len(s.observers))
	copy(observers, s.observers)
	if e.IsTerminal() {
		s.terminated = true
		s.terminal = e
		s.observers = nil
		s.pending = nil
	}
	s.state.Unlock()

	for _, o := range observers {
		o.obs.Send(e)
	}
}
