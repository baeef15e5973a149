// Package repo defines the generic Repository interface and list options.
package repo

import (
	"context"
	"errors"
)

// ErrNotFound reports that no node matched the requested ID. Get and
// Update wrap it so callers can test with errors.Is.
var ErrNotFound = errors.New("not found")

// Repository is a generic CRUD interface.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id ID) error
}

// ListOpts controls pagination and filtering for List operations.
// Filter entries become exact-match conditions on node properties.
// OrderBy names a property, optionally suffixed with DESC.
type ListOpts struct {
	Offset  int
	Limit   int
	Filter  map[string]any
	OrderBy string
}
