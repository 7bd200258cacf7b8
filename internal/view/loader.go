package view

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Load when the scope closed before the result arrived
var ErrClosed = errors.New("view closed")

// State is a snapshot of a loader
type State[T any] struct {
	Loading bool
	Loaded  bool
	Data    T
	Err     error
}

// Loader holds the loading/data/error state of one fetch. Only the most
// recent Load may write its result, and nothing is written after the scope
// closes.
type Loader[T any] struct {
	scope *Scope

	mu       sync.Mutex
	state    State[T]
	gen      uint64
	onChange []func(State[T])
}

// NewLoader creates a loader bound to scope
func NewLoader[T any](scope *Scope) *Loader[T] {
	return &Loader[T]{scope: scope}
}

// OnChange registers fn to receive every state change
func (l *Loader[T]) OnChange(fn func(State[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// State returns the current snapshot
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Load runs fetch under the scope context and stores its outcome. It returns
// the fetch error, or ErrClosed when the result was discarded.
func (l *Loader[T]) Load(fetch func(ctx context.Context) (T, error)) error {
	if l.scope.Closed() {
		return ErrClosed
	}

	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.state.Loading = true
	l.state.Err = nil
	snapshot, subs := l.state, l.subscribers()
	l.mu.Unlock()
	notify(subs, snapshot)

	data, err := fetch(l.scope.Context())

	l.mu.Lock()
	if l.scope.Closed() || gen != l.gen {
		l.mu.Unlock()
		return ErrClosed
	}
	l.state.Loading = false
	if err != nil {
		l.state.Err = err
	} else {
		l.state.Data = data
		l.state.Loaded = true
	}
	snapshot, subs = l.state, l.subscribers()
	l.mu.Unlock()
	notify(subs, snapshot)

	return err
}

// LoadAsync runs Load in a scope goroutine. The channel closes when it is done.
func (l *Loader[T]) LoadAsync(fetch func(ctx context.Context) (T, error)) <-chan struct{} {
	done := make(chan struct{})
	l.scope.Go(func(context.Context) {
		defer close(done)
		_ = l.Load(fetch)
	})
	return done
}

func (l *Loader[T]) subscribers() []func(State[T]) {
	return append([]func(State[T]){}, l.onChange...)
}

func notify[T any](subs []func(State[T]), s State[T]) {
	for _, fn := range subs {
		fn(s)
	}
}
