// Package entity implements a generic versioned, access-controlled
// entity service. Any type embedding Metadata and stored through a
// Store inherits optimistic-concurrency versioning, role-based and
// ownership-based authorization, validation and pagination.
package entity

import (
	"context"
	"fmt"

	"github.com/meridian-registry/meridian/internal/shared"
)

// Service orchestrates persistence of one entity type, consulting the
// permission engine and validation engine around every store call. It
// holds no state of its own between calls; all durable state lives in
// the store.
type Service[T Entity[T]] struct {
	resource string
	store    Store[T]
	authz    Authorizer
	validate Validator
}

// NewService wires the service for one resource type. The resource name
// scopes role lookups in the permission engine.
func NewService[T Entity[T]](resource string, store Store[T], authz Authorizer, validate Validator) *Service[T] {
	return &Service[T]{
		resource: resource,
		store:    store,
		authz:    authz,
		validate: validate,
	}
}

// Resource returns the resource name the service authorizes against.
func (s *Service[T]) Resource() string { return s.resource }

// System returns the underlying store, bypassing permission and
// validation checks. In-process integrations that act on behalf of the
// platform itself use this path; request handlers never should.
func (s *Service[T]) System() Store[T] { return s.store }

// Save persists a new entity owned by the caller. The returned entity
// carries its assigned id and entity version 1.
func (s *Service[T]) Save(ctx context.Context, e T) (T, error) {
	var zero T
	actor, err := s.actor(ctx)
	if err != nil {
		return zero, err
	}
	if err := s.authz.Authorize(ctx, actor.UserID, ActionSave, s.resource); err != nil {
		return zero, err
	}
	if err := s.validate.Validate(e); err != nil {
		return zero, err
	}
	e.SetOwnerID(actor.UserID)
	return s.store.Insert(ctx, e)
}

// Update replaces an existing entity. The submitted entity version must
// equal the stored one; a mismatch surfaces as ErrStaleVersion and the
// caller must re-read and retry. The returned entity carries the bumped
// version. Ownership survives the update regardless of what the caller
// submitted.
func (s *Service[T]) Update(ctx context.Context, e T) (T, error) {
	var zero T
	actor, err := s.actor(ctx)
	if err != nil {
		return zero, err
	}
	if err := s.authz.Authorize(ctx, actor.UserID, ActionUpdate, s.resource); err != nil {
		return zero, err
	}
	if e.GetID() == 0 {
		return zero, fmt.Errorf("%w: update without id", ErrNotFound)
	}
	current, err := s.visibleByID(ctx, actor.UserID, e.GetID())
	if err != nil {
		return zero, err
	}
	if err := s.validate.Validate(e); err != nil {
		return zero, err
	}
	e.SetOwnerID(current.GetOwnerID())
	return s.store.UpdateByID(ctx, e.GetID(), e, e.GetEntityVersion())
}

// Find returns the entity with the given id. Entities outside the
// caller's ownership scope come back as ErrNotFound, indistinguishable
// from absence.
func (s *Service[T]) Find(ctx context.Context, id int64) (T, error) {
	var zero T
	actor, err := s.actor(ctx)
	if err != nil {
		return zero, err
	}
	if err := s.authz.Authorize(ctx, actor.UserID, ActionFind, s.resource); err != nil {
		return zero, err
	}
	return s.visibleByID(ctx, actor.UserID, id)
}

// FindOne returns the single entity matching the filter within the
// caller's ownership scope. Zero matches yield ErrNoResult, multiple
// matches ErrNonUniqueResult.
func (s *Service[T]) FindOne(ctx context.Context, filter Filter) (T, error) {
	var zero T
	actor, err := s.actor(ctx)
	if err != nil {
		return zero, err
	}
	if err := s.authz.Authorize(ctx, actor.UserID, ActionFind, s.resource); err != nil {
		return zero, err
	}
	scoped, err := s.scopedFilter(ctx, actor.UserID, filter)
	if err != nil {
		return zero, err
	}
	return s.store.FindOne(ctx, scoped)
}

// FindAll returns one page of entities matching the filter. Callers
// without unrestricted visibility only ever see entities they own; the
// restriction is folded into the filter before it reaches the store.
func (s *Service[T]) FindAll(ctx context.Context, filter Filter, pageSize, pageNumber int, order []Order) (Page[T], error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return Page[T]{}, err
	}
	if err := s.authz.Authorize(ctx, actor.UserID, ActionFindAll, s.resource); err != nil {
		return Page[T]{}, err
	}
	scoped, err := s.scopedFilter(ctx, actor.UserID, filter)
	if err != nil {
		return Page[T]{}, err
	}
	return s.store.FindAll(ctx, scoped, pageSize, pageNumber, order)
}

// Remove deletes the entity with the given id.
func (s *Service[T]) Remove(ctx context.Context, id int64) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor.UserID, ActionRemove, s.resource); err != nil {
		return err
	}
	if _, err := s.visibleByID(ctx, actor.UserID, id); err != nil {
		return err
	}
	return s.store.DeleteByID(ctx, id)
}

// CountAll counts entities matching the filter, subject to the same
// ownership scoping as FindAll.
func (s *Service[T]) CountAll(ctx context.Context, filter Filter) (int64, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.authz.Authorize(ctx, actor.UserID, ActionFindAll, s.resource); err != nil {
		return 0, err
	}
	scoped, err := s.scopedFilter(ctx, actor.UserID, filter)
	if err != nil {
		return 0, err
	}
	return s.store.CountAll(ctx, scoped)
}

// actor resolves the caller from the context. Operations without a
// caller identity are unauthorized outright.
func (s *Service[T]) actor(ctx context.Context) (shared.Actor, error) {
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return shared.Actor{}, fmt.Errorf("%w: no caller identity", ErrUnauthorized)
	}
	return actor, nil
}

// visibleByID reads an entity applying the caller's ownership scope.
// A scope violation is reported as ErrNotFound so callers cannot tell
// foreign entities from absent ones.
func (s *Service[T]) visibleByID(ctx context.Context, userID, id int64) (T, error) {
	var zero T
	visibility, err := s.authz.Scope(ctx, userID, s.resource)
	if err != nil {
		return zero, err
	}
	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	switch visibility {
	case VisibilityAll:
		return e, nil
	case VisibilityOwned:
		if e.GetOwnerID() == userID {
			return e, nil
		}
	}
	return zero, ErrNotFound
}

// scopedFilter intersects the caller-supplied filter with the ownership
// restriction when visibility is limited.
func (s *Service[T]) scopedFilter(ctx context.Context, userID int64, filter Filter) (Filter, error) {
	visibility, err := s.authz.Scope(ctx, userID, s.resource)
	if err != nil {
		return nil, err
	}
	switch visibility {
	case VisibilityAll:
		return filter, nil
	case VisibilityOwned:
		return filter.And(Eq("owner_id", userID)), nil
	default:
		// Authorize already passed, so a closed scope should not occur;
		// fail closed if it does.
		return filter.And(Eq("owner_id", int64(-1))), nil
	}
}
