// Package action implements the gated-operation state machine: an
// executable unit that only runs while an external boolean condition
// enables it, runs at most one activation at a time, and exposes its own
// executing/enabled state as observable properties.
//
// Applying a disabled or busy action rejects without touching the wrapped
// producer. State changes are published with a compute-then-notify pass
// that coalesces synchronous write-backs, so the enabling condition may be
// bound to the action's own state without deadlock or runaway loops.
package action

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rivulet-go/rivulet/pkg/disposable"
	"github.com/rivulet-go/rivulet/pkg/lifetime"
	"github.com/rivulet-go/rivulet/pkg/property"
	"github.com/rivulet-go/rivulet/pkg/rivulet"
)

// ErrRejected is the terminal error of an activation that was refused
// because the action was disabled or already executing. The wrapped
// producer is never invoked for a rejected attempt.
var ErrRejected = errors.New("rivulet: action disabled")

// ExecError wraps an error emitted by the action's own producer,
// discriminating producer failure from rejection. Unwrap exposes the
// producer's error for errors.Is and errors.As.
type ExecError struct {
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("rivulet: action execution failed: %v", e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Action is a gated operation with input I producing values O.
//
// At most one activation executes at a time. While executing, or while
// the external condition is false, Enabled() reads false and Apply
// rejects. The Values, Errors, Rejections and Completions streams
// multicast the outcomes of every activation.
type Action[I, O any] struct {
	mu        sync.Mutex
	enabledIf property.BoolSource
	exec      func(I) *rivulet.Producer[O]
	executing bool
	disposed  bool

	// notifying and pending implement the coalesced republish pass:
	// a write-back arriving while a pass is fanning out flags pending
	// and is folded into one follow-up iteration of the same pass.
	notifying bool
	pending   bool

	isExecuting *property.Mutable[bool]
	isEnabled   *property.Mutable[bool]

	values        *rivulet.Stream[O]
	valuesIn      rivulet.Observer[O]
	errs          *rivulet.Stream[error]
	errsIn        rivulet.Observer[error]
	rejections    *rivulet.Stream[I]
	rejectionsIn  rivulet.Observer[I]
	completions   *rivulet.Stream[struct{}]
	completionsIn rivulet.Observer[struct{}]

	cleanup *disposable.Composite
}

// New creates an action gated by enabledIf whose activations run the
// producer returned by exec.
func New[I, O any](enabledIf property.BoolSource, exec func(I) *rivulet.Producer[O]) *Action[I, O] {
	a := &Action[I, O]{
		enabledIf: enabledIf,
		exec:      exec,
		cleanup:   disposable.NewComposite(),
	}
	a.isExecuting = property.NewMutable(false)
	a.isEnabled = property.NewMutable(enabledIf.Value())
	a.values, a.valuesIn = rivulet.Pipe[O]()
	a.errs, a.errsIn = rivulet.Pipe[error]()
	a.rejections, a.rejectionsIn = rivulet.Pipe[I]()
	a.completions, a.completionsIn = rivulet.Pipe[struct{}]()

	a.cleanup.Add(enabledIf.Changes().Observe(rivulet.OnValue(func(bool) {
		a.republish()
	})))
	return a
}

// NewWithState creates an action whose executions also receive a snapshot
// of state, taken at the moment the activation begins rather than at
// construction.
func NewWithState[S, I, O any](state property.Source[S], enabledIf property.BoolSource, exec func(S, I) *rivulet.Producer[O]) *Action[I, O] {
	return New(enabledIf, func(input I) *rivulet.Producer[O] {
		return exec(state.Value(), input)
	})
}

// Wrap composes an action around inner: the result is enabled only while
// extra is true and inner is enabled, and applying it applies inner.
// Starting either action updates both actions' observables.
func Wrap[I, O any](inner *Action[I, O], extra property.BoolSource) *Action[I, O] {
	cond := property.And(extra, inner.Enabled())
	outer := New(cond, inner.Apply)
	outer.cleanup.AddFunc(cond.Dispose)
	return outer
}

// Executing is an observable reading true while an activation runs.
func (a *Action[I, O]) Executing() property.Source[bool] {
	return a.isExecuting
}

// Enabled is an observable reading true while Apply would be accepted:
// the external condition holds, nothing is executing, and the action has
// not been disposed.
func (a *Action[I, O]) Enabled() property.Source[bool] {
	return a.isEnabled
}

// Values multicasts every value emitted by any activation.
func (a *Action[I, O]) Values() *rivulet.Stream[O] {
	return a.values
}

// Errors multicasts the *ExecError of every failed activation.
// Rejections do not appear here.
func (a *Action[I, O]) Errors() *rivulet.Stream[error] {
	return a.errs
}

// Rejections multicasts the input of every refused Apply attempt.
func (a *Action[I, O]) Rejections() *rivulet.Stream[I] {
	return a.rejections
}

// Completions multicasts a unit for every activation that completed
// naturally. Failed and interrupted activations do not appear here.
func (a *Action[I, O]) Completions() *rivulet.Stream[struct{}] {
	return a.completions
}

// Apply returns a producer for one execution attempt with the given
// input. Each Start of the returned producer re-checks the gate:
//
//   - If the action is disabled or executing, the attempt terminates with
//     ErrRejected, the input is published on Rejections, and exec is not
//     invoked.
//   - Otherwise the action transitions to executing, runs exec's producer,
//     and forwards its events. The terminal event resets the executing
//     state and re-evaluates the enabling condition as it stands then.
func (a *Action[I, O]) Apply(input I) *rivulet.Producer[O] {
	return rivulet.NewProducer(func(obs rivulet.Observer[O], lt *lifetime.Lifetime) {
		a.mu.Lock()
		if a.disposed || a.executing || !a.enabledIf.Value() {
			a.mu.Unlock()
			a.rejectionsIn.SendValue(input)
			obs.SendFailed(ErrRejected)
			return
		}
		a.executing = true
		a.mu.Unlock()
		a.republish()

		h := a.exec(input).Start(rivulet.Callbacks(
			func(v O) {
				a.valuesIn.SendValue(v)
				obs.SendValue(v)
			},
			func(err error) {
				a.endExecution()
				wrapped := &ExecError{Err: err}
				a.errsIn.SendValue(wrapped)
				obs.SendFailed(wrapped)
			},
			func() {
				a.endExecution()
				a.completionsIn.SendValue(struct{}{})
				obs.SendCompleted()
			},
			func() {
				a.endExecution()
				obs.SendInterrupted()
			},
		))
		lt.Add(h)
	})
}

// Dispose permanently disables the action and detaches it from its
// condition. An in-flight activation is not interrupted; it finishes on
// its own terms.
func (a *Action[I, O]) Dispose() {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	a.disposed = true
	a.mu.Unlock()

	a.cleanup.Dispose()
	a.republish()
}

func (a *Action[I, O]) endExecution() {
	a.mu.Lock()
	a.executing = false
	a.mu.Unlock()
	a.republish()
}

// republish recomputes the observable executing/enabled pair and pushes
// it out. The snapshot is computed under the lock, the lock is released,
// then the properties are set. A republish triggered from inside that
// fan-out (the condition written back synchronously by an observer) marks
// pending and returns; the owning pass loops once more with the fresh
// condition. Equality gating on the properties makes the loop reach a
// fixed point instead of cycling.
func (a *Action[I, O]) republish() {
	a.mu.Lock()
	if a.notifying {
		a.pending = true
		a.mu.Unlock()
		return
	}
	a.notifying = true

	for {
		a.pending = false
		executing := a.executing
		enabled := !a.executing && !a.disposed && a.enabledIf.Value()
		a.mu.Unlock()

		a.isExecuting.Set(executing)
		a.isEnabled.Set(enabled)

		a.mu.Lock()
		if !a.pending {
			break
		}
	}

	a.notifying = false
	a.mu.Unlock()
}
