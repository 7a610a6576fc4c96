// package group runs a set of goroutines over independent pieces of work and
// collects the first error.
package group

import (
	"context"
	"sync"
)

// A G manages a set of goroutines spawned from a common context. Unlike
// errgroup, a member returning does not cancel its siblings; each piece of
// work is independent and must run to completion.
type G struct {
	ctx  context.Context
	done sync.WaitGroup

	errOnce sync.Once
	err     error
}

// New returns a new group using the given context.
func New(ctx context.Context) *G {
	return &G{
		ctx: ctx,
	}
}

// Add adds a new goroutine to the group.
func (g *G) Add(fn func(context.Context) error) {
	g.done.Add(1)
	go func() {
		defer g.done.Done()
		if err := fn(g.ctx); err != nil {
			g.errOnce.Do(func() { g.err = err })
		}
	}()
}

// Wait waits for all goroutines in the group to exit.
// If any of the goroutines fail with an error, Wait will return the first error.
func (g *G) Wait() error {
	g.done.Wait()
	g.errOnce.Do(func() {
		// noop, required to synchronise on the errOnce mutex.
	})
	return g.err
}
