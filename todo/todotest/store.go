// Package todotest provides an in-memory [todo.Store] and a conformance suite
// that every store implementation is expected to pass.
package todotest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/slackmgr/todo/todo"
)

// Store is an in-memory [todo.Store]. The zero value is not usable; create
// one with [NewStore].
//
// The *Err fields, when set, are returned by the corresponding method
// instead of performing the operation.
type Store struct {
	ProbeErr  error
	ScanErr   error
	PutErr    error
	UpdateErr error
	GetErr    error
	DeleteErr error

	mu    sync.Mutex
	items map[string]todo.Item
	calls []string
}

var _ todo.Store = (*Store)(nil)

// NewStore returns a Store holding the given items.
func NewStore(items ...todo.Item) *Store {
	s := &Store{items: make(map[string]todo.Item, len(items))}

	for _, item := range items {
		s.items[item.ID] = item
	}

	return s
}

func (s *Store) Probe(_ context.Context) error {
	s.record("Probe")
	return s.ProbeErr
}

func (s *Store) ScanItems(_ context.Context) ([]todo.Item, error) {
	s.record("ScanItems")

	if s.ScanErr != nil {
		return nil, s.ScanErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Collect(maps.Values(s.items)), nil
}

func (s *Store) PutItem(_ context.Context, item todo.Item) error {
	s.record("PutItem")

	if s.PutErr != nil {
		return s.PutErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item

	return nil
}

func (s *Store) UpdateItem(_ context.Context, id string, fields []todo.Field) error {
	s.record("UpdateItem")

	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return todo.ErrItemNotFound
	}

	for _, f := range fields {
		switch f.Name {
		case todo.FieldTitle:
			v, ok := f.Value.(string)
			if !ok {
				return fmt.Errorf("field %s has type %T, expected string", f.Name, f.Value)
			}
			item.Title = v
		case todo.FieldDone:
			v, ok := f.Value.(bool)
			if !ok {
				return fmt.Errorf("field %s has type %T, expected bool", f.Name, f.Value)
			}
			item.Done = v
		default:
			return fmt.Errorf("field %s cannot be updated", f.Name)
		}
	}

	s.items[id] = item

	return nil
}

func (s *Store) GetItem(_ context.Context, id string) (*todo.Item, error) {
	s.record("GetItem")

	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil //nolint:nilnil
	}

	return &item, nil
}

func (s *Store) DeleteItem(_ context.Context, id string) error {
	s.record("DeleteItem")

	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)

	return nil
}

// Len returns the number of stored items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

// Item returns the stored item with the given id.
func (s *Store) Item(id string) (todo.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]

	return item, ok
}

// Calls returns the names of the methods called so far, in call order.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.calls)
}

func (s *Store) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call)
}
