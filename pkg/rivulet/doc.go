// Package rivulet provides the reactive event-propagation core.
//
// The engine models asynchronously-arriving values, errors, and completion
// as composable streams of events.
//
// # Core Types
//
// Event[T] is a tagged payload: a value, a failure, completion, or an
// interruption. Failure, completion, and interruption are mutually
// exclusive terminal markers; a stream delivers at most one of them, ever.
//
// Stream[T] is the hot, multicast primitive. It delivers every event it
// receives to all currently-attached observers, in arrival order, exactly
// once each:
//
//	stream, input := rivulet.Pipe[int]()
//	stream.Observe(rivulet.OnValue(func(n int) { fmt.Println(n) }))
//	input.SendValue(1)
//	input.SendCompleted()
//
// Producer[T] is the cold counterpart: a reusable description of how to
// build and run a Stream. Every Start creates a fresh Stream/Lifetime pair;
// disposing the returned handle interrupts that one activation without
// touching concurrent activations of the same Producer:
//
//	p := rivulet.NewProducer(func(obs rivulet.Observer[int], lt *lifetime.Lifetime) {
//	    obs.SendValue(42)
//	    obs.SendCompleted()
//	})
//	handle := p.Start(rivulet.OnValue(func(n int) { fmt.Println(n) }))
//	handle.Dispose() // no-op here: the activation already completed
//
// # Concurrency
//
// Streams are safe for concurrent Send and Observe from independent
// goroutines. Concurrent sends are serialized into one total order that all
// observers agree on. A send issued from inside an observer callback
// (a reentrant send) is queued by the delivering goroutine and drained in
// order after the current fan-out; it is never processed recursively and
// never dropped. Internal locks are never held across observer callbacks
// other than the single delivery in progress, and reentrant acquisition of
// the state lock is treated as a programming error and panics.
package rivulet
