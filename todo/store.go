package todo

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned by [Store.UpdateItem] when no item with the
// given id exists.
var ErrItemNotFound = errors.New("item not found")

// Store is the key-value collaborator holding items, addressed by id.
//
// Every method is atomic for a single item only. There is no consistency
// guarantee across calls.
type Store interface {
	// Probe issues a cheap, count-style read limited to a single item. It is
	// used by the health route.
	Probe(ctx context.Context) error

	// ScanItems returns every item in the store, in no particular order.
	ScanItems(ctx context.Context) ([]Item, error)

	// PutItem writes the item, overwriting any existing item with the same id.
	PutItem(ctx context.Context, item Item) error

	// UpdateItem sets exactly the given fields on the item with the given id.
	// It returns [ErrItemNotFound] if the item does not exist.
	UpdateItem(ctx context.Context, id string, fields []Field) error

	// GetItem returns the item with the given id, or (nil, nil) if it does
	// not exist.
	GetItem(ctx context.Context, id string) (*Item, error)

	// DeleteItem removes the item with the given id. Deleting a missing item
	// is not an error.
	DeleteItem(ctx context.Context, id string) error
}
