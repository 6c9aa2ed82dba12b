package entity

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// UniqueKeyFunc derives the uniqueness key for an entity. Returning an
// empty string exempts the entity from the constraint.
type UniqueKeyFunc[T any] func(e T) string

// MemStore is an in-memory Store implementation guarded by a single
// mutex, which makes insert uniqueness and version compare-and-swap
// trivially atomic. It backs the test suites and small deployments that
// do not need Postgres.
type MemStore[T Entity[T]] struct {
	mu     sync.RWMutex
	rows   map[int64]T
	nextID int64
	unique UniqueKeyFunc[T]
}

// NewMemStore builds an empty store. unique may be nil when the entity
// type carries no uniqueness constraint.
func NewMemStore[T Entity[T]](unique UniqueKeyFunc[T]) *MemStore[T] {
	return &MemStore[T]{
		rows:   make(map[int64]T),
		unique: unique,
	}
}

// Insert stores a copy of e with a fresh id and version 1.
func (s *MemStore[T]) Insert(ctx context.Context, e T) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(e, 0); err != nil {
		return zero, err
	}
	s.nextID++
	stored := e.Clone()
	stored.SetID(s.nextID)
	stored.SetEntityVersion(1)
	s.rows[s.nextID] = stored
	return stored.Clone(), nil
}

// UpdateByID swaps the stored row when the version stamp matches.
func (s *MemStore[T]) UpdateByID(ctx context.Context, id int64, e T, expectedVersion int64) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rows[id]
	if !ok {
		return zero, ErrNotFound
	}
	if current.GetEntityVersion() != expectedVersion {
		return zero, fmt.Errorf("%w: have %d, submitted %d", ErrStaleVersion, current.GetEntityVersion(), expectedVersion)
	}
	if err := s.checkUnique(e, id); err != nil {
		return zero, err
	}
	stored := e.Clone()
	stored.SetID(id)
	stored.SetEntityVersion(expectedVersion + 1)
	s.rows[id] = stored
	return stored.Clone(), nil
}

// DeleteByID removes the row.
func (s *MemStore[T]) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// FindByID returns a copy of the row.
func (s *MemStore[T]) FindByID(ctx context.Context, id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return row.Clone(), nil
}

// FindOne returns the single row matching the filter.
func (s *MemStore[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	matches := s.collect(filter)
	switch len(matches) {
	case 0:
		return zero, ErrNoResult
	case 1:
		return matches[0], nil
	default:
		return zero, ErrNonUniqueResult
	}
}

// FindAll returns one page of matching rows.
func (s *MemStore[T]) FindAll(ctx context.Context, filter Filter, pageSize, pageNumber int, order []Order) (Page[T], error) {
	matches := s.collect(filter)
	sortRows(matches, order)
	start, end := PageBounds(pageSize, pageNumber, len(matches))
	return NewPage(matches[start:end], pageSize, pageNumber, int64(len(matches))), nil
}

// CountAll counts matching rows.
func (s *MemStore[T]) CountAll(ctx context.Context, filter Filter) (int64, error) {
	return int64(len(s.collect(filter))), nil
}

func (s *MemStore[T]) collect(filter Filter) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]T, 0, len(s.rows))
	for _, row := range s.rows {
		if filter.Matches(row.Field) {
			matches = append(matches, row.Clone())
		}
	}
	return matches
}

// checkUnique must run under the write lock.
func (s *MemStore[T]) checkUnique(e T, excludeID int64) error {
	if s.unique == nil {
		return nil
	}
	key := s.unique(e)
	if key == "" {
		return nil
	}
	for id, row := range s.rows {
		if id == excludeID {
			continue
		}
		if s.unique(row) == key {
			return fmt.Errorf("%w: %s", ErrDuplicate, key)
		}
	}
	return nil
}

func sortRows[T Entity[T]](rows []T, order []Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range order {
			a, aok := rows[i].Field(o.Field)
			b, bok := rows[j].Field(o.Field)
			if !aok || !bok {
				continue
			}
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		// Stable fallback keeps listings deterministic.
		return rows[i].GetID() < rows[j].GetID()
	})
}
