package api

import (
	"context"
	"net/http"

	"github.com/TheDarkness2001/SMS-sub002/internal/apiclient"
)

// Resource is the CRUD wrapper shared by the plain backend collections
type Resource[T any] struct {
	gw   Gateway
	path string
}

// NewResource binds a collection at path, e.g. "/students"
func NewResource[T any](gw Gateway, path string) *Resource[T] {
	return &Resource[T]{gw: gw, path: path}
}

// Path returns the collection path
func (r *Resource[T]) Path() string {
	return r.path
}

// List returns the collection; params carry filters such as branch_id
func (r *Resource[T]) List(ctx context.Context, params Params) (apiclient.Result[[]T], error) {
	return callResult[[]T](ctx, r.gw, get(r.path, params))
}

// Get returns one item
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return call[T](ctx, r.gw, get(r.path+join(id), nil))
}

// Create adds an item
func (r *Resource[T]) Create(ctx context.Context, body interface{}) (T, error) {
	return call[T](ctx, r.gw, post(r.path, body))
}

// Update replaces an item
func (r *Resource[T]) Update(ctx context.Context, id string, body interface{}) (T, error) {
	return call[T](ctx, r.gw, apiclient.Request{Method: http.MethodPut, Path: r.path + join(id), Body: body})
}

// Delete removes an item
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	_, err := r.gw.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: r.path + join(id)})
	return err
}
