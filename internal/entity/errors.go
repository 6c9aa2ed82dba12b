package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized indicates the caller's roles forbid the action.
	ErrUnauthorized = errors.New("entity: unauthorized")
	// ErrNotFound indicates the target does not exist or is not visible
	// to the caller. Ownership denials surface as ErrNotFound on purpose
	// so callers cannot probe for the existence of foreign entities.
	ErrNotFound = errors.New("entity: not found")
	// ErrDuplicate indicates a type-specific uniqueness constraint was
	// violated on insert.
	ErrDuplicate = errors.New("entity: duplicate entity")
	// ErrStaleVersion indicates the submitted entity version no longer
	// matches the stored one. Callers must re-read and retry.
	ErrStaleVersion = errors.New("entity: stale version")
	// ErrNoResult indicates a single-result query matched nothing.
	ErrNoResult = errors.New("entity: no result")
	// ErrNonUniqueResult indicates a single-result query matched more
	// than one row; the filter is not selective enough.
	ErrNonUniqueResult = errors.New("entity: non-unique result")
)

// FieldError describes a single field-level validation failure.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError aggregates field-level failures for one entity.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "entity: validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return "entity: validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries field-level validation detail.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
