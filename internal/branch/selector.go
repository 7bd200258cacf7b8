// Package branch holds the selected branch filter that list screens apply
// to their requests.
package branch

import (
	"context"
	"errors"
	"sync"

	"github.com/TheDarkness2001/SMS-sub002/internal/api"
	"github.com/TheDarkness2001/SMS-sub002/internal/storage"
)

// Storage key and query parameter for the selection
const (
	KeySelected = "selectedBranch"
	ParamName   = "branch_id"
)

// Selector is the branch filter context. It is safe for concurrent use.
type Selector struct {
	store storage.Store

	mu       sync.RWMutex
	selected string
}

// NewSelector restores the persisted selection from store
func NewSelector(ctx context.Context, store storage.Store) (*Selector, error) {
	s := &Selector{store: store}
	id, err := store.Get(ctx, KeySelected)
	switch {
	case err == nil:
		s.selected = id
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return s, nil
}

// Selected returns the selected branch id, or "" for all branches
func (s *Selector) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Select sets and persists the branch filter
func (s *Selector) Select(ctx context.Context, id string) error {
	if id == "" {
		return s.Clear(ctx)
	}
	if err := s.store.Set(ctx, KeySelected, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	return nil
}

// Clear removes the filter so every branch is shown
func (s *Selector) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeySelected); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
	return nil
}

// Apply returns params with branch_id added when a branch is selected
func (s *Selector) Apply(params api.Params) api.Params {
	id := s.Selected()
	if id == "" {
		if params == nil {
			return api.Params{}
		}
		return params
	}
	return params.With(ParamName, id)
}
