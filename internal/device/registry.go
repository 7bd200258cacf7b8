// Package device keeps the durable per-device state: a random device id and
// which students' parents were already asked about notifications.
package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/TheDarkness2001/SMS-sub002/internal/storage"
)

// Durable storage keys
const (
	KeyDeviceID    = "deviceId"
	askedKeyPrefix = "notificationAsked:"
	askedValue     = "1"
)

// Registry reads and writes the device keys in durable storage
type Registry struct {
	store storage.Store
	newID func() string

	mu sync.Mutex
	id string
}

// NewRegistry creates a registry over store
func NewRegistry(store storage.Store) *Registry {
	return &Registry{store: store, newID: func() string { return uuid.NewString() }}
}

// ID returns the device id, generating and persisting it on first use
func (r *Registry) ID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.id != "" {
		return r.id, nil
	}
	id, err := r.store.Get(ctx, KeyDeviceID)
	if err == nil && id != "" {
		r.id = id
		return id, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("reading device id: %w", err)
	}

	id = r.newID()
	if err := r.store.Set(ctx, KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("saving device id: %w", err)
	}
	r.id = id
	return id, nil
}

// ShouldAsk reports whether the notification prompt should be shown for studentID
func (r *Registry) ShouldAsk(ctx context.Context, studentID string) (bool, error) {
	_, err := r.store.Get(ctx, askedKeyPrefix+studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// MarkAsked records that the prompt was shown for studentID
func (r *Registry) MarkAsked(ctx context.Context, studentID string) error {
	return r.store.Set(ctx, askedKeyPrefix+studentID, askedValue)
}

// Reset forgets the prompt answer for studentID
func (r *Registry) Reset(ctx context.Context, studentID string) error {
	return r.store.Delete(ctx, askedKeyPrefix+studentID)
}
