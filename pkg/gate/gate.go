// Package gate provides the one-shot synchronization primitives the
// BrlAPI client uses to reconcile its background reader with the
// caller's synchronous request/response calls.
//
// The original implementation (original_source/pybrlapi/blocker.py) used
// a single Blocker class for both roles: a one-shot completion future
// AND a mutex (via its __enter__/__exit__ context-manager form). Per
// SPEC_FULL.md ss9's design note, this package splits that into two
// distinct, independently-lifecycled types: Gate (this file) and Mutex
// (mutex.go).
package gate

import (
	"context"
	"sync"

	"github.com/dbernaca/brltty2/pkg/wire"
)

// Gate is a single-slot rendezvous with three outcomes: completed,
// error-injected, or timed-out. It corresponds to one outstanding
// request: arm it before sending, wait on it for the reply.
type Gate struct {
	name string

	mu      sync.Mutex
	armed   bool
	done    chan struct{}
	err     error
}

// New creates a Gate identified by name, used only to annotate timeout
// errors for diagnostics (mirrors Blocker's `source` argument).
func New(name string) *Gate {
	return &Gate{name: name}
}

// Arm marks the gate as pending. It is a no-op if the gate is already
// armed, matching Blocker.__enter__'s idempotent acquire-or-wait
// behavior being simplified here to "armed means a fresh done channel is
// in flight".
func (g *Gate) Arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.armed {
		return
	}
	g.armed = true
	g.done = make(chan struct{})
	g.err = nil
}

// Wait blocks until Complete or Fail is called on the gate, or until ctx
// is done. It returns the injected error (if any), or a
// *wire.TimeoutError naming the gate if the context (by deadline or
// cancellation) is the one that ended the wait.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	if !g.armed {
		g.mu.Unlock()
		return nil
	}
	done := g.done
	g.mu.Unlock()

	select {
	case <-done:
		g.mu.Lock()
		err := g.err
		g.armed = false
		g.err = nil
		g.mu.Unlock()
		return err
	case <-ctx.Done():
		return &wire.TimeoutError{Gate: g.name}
	}
}

// Complete releases a single waiter without an error. It is idempotent:
// calling it on a gate that is not armed, or twice in a row, has no
// effect beyond the first call.
func (g *Gate) Complete() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completeLocked(nil)
}

// Fail releases a single waiter carrying error err. If the gate already
// has a pending error (the waiter has not yet drained it), the errors
// accumulate into a wire.MultipleErrors, mirroring Blocker.throw.
func (g *Gate) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.armed && g.err != nil {
		g.err = wire.AppendError(g.err, err)
		return
	}
	g.completeLocked(err)
}

func (g *Gate) completeLocked(err error) {
	if !g.armed {
		return
	}
	select {
	case <-g.done:
		// Already released; nothing to do.
		return
	default:
	}
	g.err = err
	close(g.done)
}
