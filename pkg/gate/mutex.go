package gate

import (
	"context"

	"github.com/dbernaca/brltty2/pkg/wire"
)

// Mutex is a context-aware mutual-exclusion lock used as the
// "process-gate": the primitive serializing the client's multi-step
// request/response operations (spec.md ss5), so that at most one
// get*/enterTTYMode/leaveTTYMode call is outstanding at a time.
//
// It is a thin wrapper over a buffered channel, the common Go idiom for
// a cancelable mutex (as opposed to Blocker's scoped __enter__/__exit__,
// which this package deliberately does not reuse for mutual exclusion —
// see the package doc in gate.go).
type Mutex struct {
	ch chan struct{}
}

// NewMutex returns a ready-to-use Mutex.
func NewMutex() *Mutex {
	return &Mutex{ch: make(chan struct{}, 1)}
}

// Lock acquires the mutex, blocking until it is free or ctx is done.
func (m *Mutex) Lock(ctx context.Context) error {
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return &wire.TimeoutError{Gate: "process-gate"}
	}
}

// Unlock releases the mutex. Calling Unlock without a matching Lock
// panics, the same contract as sync.Mutex.
func (m *Mutex) Unlock() {
	select {
	case <-m.ch:
	default:
		panic("gate: Unlock of unlocked Mutex")
	}
}
