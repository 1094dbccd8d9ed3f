package main

import (
	"fmt"
	"time"

	"github.com/rivulet-go/rivulet/pkg/action"
	"github.com/rivulet-go/rivulet/pkg/disposable"
	"github.com/rivulet-go/rivulet/pkg/property"
	"github.com/rivulet-go/rivulet/pkg/rivulet"
	"github.com/rivulet-go/rivulet/pkg/tap"
)

// startDemoFeed registers demo streams on the hub and drives them from a
// ticker until the returned handle is disposed:
//
//	ticks           the raw counter
//	parity          values from the parity action (even ticks)
//	parity.errors   failures from the parity action (odd ticks)
//	parity.rejected inputs refused while the action was busy or disabled
func startDemoFeed(hub *tap.Hub, interval time.Duration) (disposable.Disposable, error) {
	ticks, input := rivulet.Pipe[int]()
	if err := tap.Publish(hub, "ticks", ticks); err != nil {
		return nil, err
	}

	gate := property.NewMutable(true)
	parity := action.New(gate, func(n int) *rivulet.Producer[string] {
		if n%2 == 0 {
			return rivulet.FromValues(fmt.Sprintf("tick %d is even", n))
		}
		return rivulet.FromError[string](fmt.Errorf("tick %d is odd", n))
	})

	if err := tap.Publish(hub, "parity", parity.Values()); err != nil {
		return nil, err
	}
	errTexts := rivulet.Map(parity.Errors(), func(err error) string { return err.Error() })
	if err := tap.Publish(hub, "parity.errors", errTexts); err != nil {
		return nil, err
	}
	if err := tap.Publish(hub, "parity.rejected", parity.Rejections()); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		n := 0
		for {
			select {
			case <-ticker.C:
				n++
				input.SendValue(n)
				parity.Apply(n).Start(rivulet.Observer[string]{})
			case <-done:
				input.SendCompleted()
				parity.Dispose()
				return
			}
		}
	}()

	return disposable.New(func() {
		ticker.Stop()
		close(done)
	}), nil
}
