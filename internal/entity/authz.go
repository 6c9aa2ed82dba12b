package entity

import "context"

// Action names an operation of the service for authorization purposes.
type Action string

const (
	ActionSave    Action = "save"
	ActionUpdate  Action = "update"
	ActionFind    Action = "find"
	ActionFindAll Action = "findAll"
	ActionRemove  Action = "remove"
)

// Visibility scopes which instances of a resource a caller may see.
type Visibility int

const (
	// VisibilityNone hides every instance.
	VisibilityNone Visibility = iota
	// VisibilityOwned restricts reads to entities the caller owns.
	VisibilityOwned
	// VisibilityAll grants unrestricted reads.
	VisibilityAll
)

// Authorizer is the permission engine consulted before every operation.
type Authorizer interface {
	// Authorize returns nil when the user may perform the action on the
	// resource type, or an error wrapping ErrUnauthorized.
	Authorize(ctx context.Context, userID int64, action Action, resource string) error

	// Scope reports how reads of the resource must be restricted for
	// the user.
	Scope(ctx context.Context, userID int64, resource string) (Visibility, error)
}

// Validator checks an entity before persistence.
type Validator interface {
	// Validate returns nil or a *ValidationError carrying field detail.
	Validate(e any) error
}
