package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/flexprice/flexgym/internal/errors"
	"github.com/flexprice/flexgym/internal/types"
)

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(ctx context.Context, item T) bool

// CopyFunc returns a detached copy of an item so callers never share
// memory with the store
type CopyFunc[T any] func(T) T

// InMemoryStore implements a generic in-memory store
type InMemoryStore[T any] struct {
	mu     sync.RWMutex
	items  map[string]T
	seq    map[string]uint64
	next   uint64
	copyFn CopyFunc[T]
	entity string
}

// NewInMemoryStore creates a new InMemoryStore
func NewInMemoryStore[T any](entity string, copyFn CopyFunc[T]) *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items:  make(map[string]T),
		seq:    make(map[string]uint64),
		copyFn: copyFn,
		entity: entity,
	}
}

func (s *InMemoryStore[T]) detach(item T) T {
	if s.copyFn == nil {
		return item
	}
	return s.copyFn(item)
}

// Create adds a new item to the store
func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(id, item)
}

func (s *InMemoryStore[T]) createLocked(id string, item T) error {
	if _, exists := s.items[id]; exists {
		return ierr.NewErrorf("%s %s already exists", s.entity, id).
			WithHintf("A %s with this id already exists", s.entity).
			Mark(ierr.ErrAlreadyExists)
	}
	s.items[id] = s.detach(item)
	s.next++
	s.seq[id] = s.next
	return nil
}

// Get retrieves an item by ID
func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, err := s.getLocked(id)
	if err != nil {
		return item, err
	}
	return s.detach(item), nil
}

// getLocked returns the stored item itself, callers must hold the lock
func (s *InMemoryStore[T]) getLocked(id string) (T, error) {
	if item, exists := s.items[id]; exists {
		return item, nil
	}
	var zero T
	return zero, s.notFound(id)
}

func (s *InMemoryStore[T]) notFound(id string) error {
	return ierr.NewErrorf("%s %s not found", s.entity, id).
		WithHintf("%s %s not found", s.entity, id).
		WithReportableDetails(map[string]any{
			"entity": s.entity,
			"id":     id,
		}).
		Mark(ierr.ErrNotFound)
}

// List retrieves items matching filterFn in insertion order, newest first
// unless order is asc
func (s *InMemoryStore[T]) List(ctx context.Context, filterFn FilterFunc[T], order string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(ctx, filterFn, order)
}

func (s *InMemoryStore[T]) listLocked(ctx context.Context, filterFn FilterFunc[T], order string) []T {
	ids := make([]string, 0, len(s.items))
	for id, item := range s.items {
		if filterFn == nil || filterFn(ctx, item) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if order == types.OrderAsc {
			return s.seq[ids[i]] < s.seq[ids[j]]
		}
		return s.seq[ids[i]] > s.seq[ids[j]]
	})
	result := make([]T, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.detach(s.items[id]))
	}
	return result
}

// Update replaces an existing item
func (s *InMemoryStore[T]) Update(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return s.notFound(id)
	}
	s.items[id] = s.detach(item)
	return nil
}

// Mutate applies fn to a copy of the stored item under the write lock and
// stores the result when fn succeeds. The stored item is unchanged on error.
func (s *InMemoryStore[T]) Mutate(ctx context.Context, id string, fn func(item T) error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getLocked(id)
	if err != nil {
		return current, err
	}
	next := s.detach(current)
	if err := fn(next); err != nil {
		var zero T
		return zero, err
	}
	s.items[id] = next
	return s.detach(next), nil
}

// Len returns the number of stored items
func (s *InMemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes all items from the store
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.seq = make(map[string]uint64)
	s.next = 0
}

// CheckTenantFilter reports whether an item belongs to the tenant in ctx. An
// empty tenant on either side matches.
func CheckTenantFilter(ctx context.Context, itemTenantID string) bool {
	tenantID := types.GetTenantID(ctx)
	return tenantID == "" || itemTenantID == "" || itemTenantID == tenantID
}
