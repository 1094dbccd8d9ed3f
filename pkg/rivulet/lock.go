package rivulet

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// goroutineID returns a unique identifier for the current goroutine.
// It parses the header of the runtime stack, which starts with
// "goroutine <id> ". This is an implementation detail and must not leak
// into the public API.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// checkedMutex is a non-reentrant mutex that detects same-goroutine
// reacquisition. Acquiring it twice on one goroutine would deadlock a plain
// mutex silently; here it panics instead, because a reentrant acquisition
// means an internal lock was held across an externally-visible callback.
// That is a violated invariant, not a recoverable condition.
type checkedMutex struct {
	mu    sync.Mutex
	owner atomic.Uint64
}

func (m *checkedMutex) Lock() {
	gid := goroutineID()
	if m.owner.Load() == gid {
		panic("rivulet: reentrant lock acquisition, this would deadlock")
	}
	m.mu.Lock()
	m.owner.Store(gid)
}

func (m *checkedMutex) Unlock() {
	m.owner.Store(0)
	m.mu.Unlock()
}
