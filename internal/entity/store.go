package entity

import "context"

// Store is the abstract persistence capability the service orchestrates.
// Implementations must enforce uniqueness atomically on Insert and
// compare-and-swap on (id, entityVersion) in UpdateByID; the service
// never compensates for a racy store.
type Store[T Entity[T]] interface {
	// Insert persists a new entity, assigning its id and setting the
	// entity version to 1. Returns ErrDuplicate when a type-specific
	// uniqueness constraint is violated.
	Insert(ctx context.Context, e T) (T, error)

	// UpdateByID replaces the stored entity if and only if its current
	// version equals expectedVersion, bumping the version by one.
	// Returns ErrNotFound for a missing id and ErrStaleVersion on a
	// version mismatch.
	UpdateByID(ctx context.Context, id int64, e T, expectedVersion int64) (T, error)

	// DeleteByID removes the entity or returns ErrNotFound.
	DeleteByID(ctx context.Context, id int64) error

	// FindByID returns the entity or ErrNotFound.
	FindByID(ctx context.Context, id int64) (T, error)

	// FindOne returns the single entity matching the filter. Returns
	// ErrNoResult for zero matches and ErrNonUniqueResult for more
	// than one.
	FindOne(ctx context.Context, filter Filter) (T, error)

	// FindAll returns one page of entities matching the filter in the
	// requested order. See Page for the unpaginated convention.
	FindAll(ctx context.Context, filter Filter, pageSize, pageNumber int, order []Order) (Page[T], error)

	// CountAll counts entities matching the filter.
	CountAll(ctx context.Context, filter Filter) (int64, error)
}
