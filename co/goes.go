// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co contains go routine helpers.
package co

import (
	"context"
	"sync"
)

// Goes runs go routines and tracks their life-cycle.
type Goes struct {
	wg sync.WaitGroup
}

// Go runs f in a go routine.
func (g *Goes) Go(f func()) {
	g.wg.Go(f)
}

// GoN runs n go routines, each calling f with its index.
func (g *Goes) GoN(n int, f func(i int)) {
	for i := range n {
		g.wg.Go(func() { f(i) })
	}
}

// Wait waits until every go routine started by Go or GoN returned.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// WaitContext is Wait bounded by ctx. It returns ctx.Err() if ctx ends first.
func (g *Goes) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
