// Package view scopes data loading to the lifetime of a screen. Closing a
// Scope cancels its in-flight requests, and loaders drop any result that
// arrives afterwards.
package view

import (
	"context"
	"sync"
)

// Scope is the lifetime of one view
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewScope starts a scope under parent
func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the scope closes
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Closed reports whether Close was called
func (s *Scope) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close cancels every in-flight load. It does not wait for them.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// Go runs fn in a goroutine tracked by Wait
func (s *Scope) Go(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Wait blocks until every goroutine started with Go has returned
func (s *Scope) Wait() {
	s.wg.Wait()
}
