// Package rbac evaluates whether a caller may perform an action on an
// entity type. Decisions come from a static table over entity-scoped
// role kinds; there is no dynamic policy dispatch.
package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-registry/meridian/internal/entity"
	"github.com/meridian-registry/meridian/internal/identity"
)

// RoleKind ranks the entity-scoped capability bundles. Order matters:
// higher kinds strictly extend lower ones.
type RoleKind int

const (
	KindNone RoleKind = iota
	KindViewer
	KindEditor
	KindManager
	KindAdmin
)

// Role name suffixes per entity type, e.g. "company.manager".
const (
	SuffixManager = "manager"
	SuffixEditor  = "editor"
	SuffixViewer  = "viewer"
)

// RoleName builds the canonical entity-scoped role name.
func RoleName(resource, suffix string) string {
	return resource + "." + suffix
}

// actionTable is the full decision table. Admin is resolved before the
// table is consulted and bypasses it.
var actionTable = map[RoleKind]map[entity.Action]bool{
	KindManager: {
		entity.ActionSave:    true,
		entity.ActionUpdate:  true,
		entity.ActionFind:    true,
		entity.ActionFindAll: true,
		entity.ActionRemove:  true,
	},
	KindEditor: {
		entity.ActionSave:    true,
		entity.ActionUpdate:  true,
		entity.ActionFind:    true,
		entity.ActionFindAll: true,
	},
	KindViewer: {
		entity.ActionFind:    true,
		entity.ActionFindAll: true,
	},
}

// RoleSource resolves the role names bound to a user.
type RoleSource interface {
	RolesOf(ctx context.Context, userID int64) ([]string, error)
}

// Engine is the permission engine. It implements entity.Authorizer.
type Engine struct {
	roles RoleSource
}

// NewEngine constructs an Engine over a role source, typically the
// identity directory.
func NewEngine(roles RoleSource) *Engine {
	return &Engine{roles: roles}
}

// Authorize allows or denies an action on a resource type for a user.
// Denials wrap entity.ErrUnauthorized.
func (e *Engine) Authorize(ctx context.Context, userID int64, action entity.Action, resource string) error {
	kind, err := e.strongest(ctx, userID, resource)
	if err != nil {
		return err
	}
	if kind == KindAdmin {
		return nil
	}
	if kind == KindNone {
		return fmt.Errorf("%w: no %s role bound", entity.ErrUnauthorized, resource)
	}
	if !actionTable[kind][action] {
		return fmt.Errorf("%w: %s denied for %s", entity.ErrUnauthorized, action, roleKindName(kind))
	}
	return nil
}

// Scope reports read visibility: admins and managers see every
// instance, editors and viewers only their own.
func (e *Engine) Scope(ctx context.Context, userID int64, resource string) (entity.Visibility, error) {
	kind, err := e.strongest(ctx, userID, resource)
	if err != nil {
		return entity.VisibilityNone, err
	}
	switch kind {
	case KindAdmin, KindManager:
		return entity.VisibilityAll, nil
	case KindEditor, KindViewer:
		return entity.VisibilityOwned, nil
	default:
		return entity.VisibilityNone, nil
	}
}

// strongest resolves the highest-ranking role the user holds for the
// resource type.
func (e *Engine) strongest(ctx context.Context, userID int64, resource string) (RoleKind, error) {
	names, err := e.roles.RolesOf(ctx, userID)
	if err != nil {
		return KindNone, fmt.Errorf("rbac: resolve roles: %w", err)
	}
	best := KindNone
	for _, name := range names {
		kind := kindOf(name, resource)
		if kind > best {
			best = kind
		}
	}
	return best, nil
}

func kindOf(roleName, resource string) RoleKind {
	if roleName == identity.AdminRole {
		return KindAdmin
	}
	prefix := resource + "."
	if !strings.HasPrefix(roleName, prefix) {
		return KindNone
	}
	switch strings.TrimPrefix(roleName, prefix) {
	case SuffixManager:
		return KindManager
	case SuffixEditor:
		return KindEditor
	case SuffixViewer:
		return KindViewer
	default:
		return KindNone
	}
}

func roleKindName(kind RoleKind) string {
	switch kind {
	case KindAdmin:
		return "admin"
	case KindManager:
		return "manager"
	case KindEditor:
		return "editor"
	case KindViewer:
		return "viewer"
	default:
		return "none"
	}
}
