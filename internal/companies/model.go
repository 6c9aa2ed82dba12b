package companies

import (
	"github.com/meridian-registry/meridian/internal/entity"
	"github.com/meridian-registry/meridian/internal/rbac"
)

// Resource is the entity type name the permission engine scopes
// company roles by.
const Resource = "company"

// Entity-scoped role names for companies.
var (
	DefaultManagerRole = rbac.RoleName(Resource, rbac.SuffixManager)
	DefaultEditorRole  = rbac.RoleName(Resource, rbac.SuffixEditor)
	DefaultViewerRole  = rbac.RoleName(Resource, rbac.SuffixViewer)
)

// DefaultRoles lists the entity-scoped roles every deployment seeds.
func DefaultRoles() []string {
	return []string{DefaultManagerRole, DefaultEditorRole, DefaultViewerRole}
}

// Company is the registry entry for one company. BusinessName is
// unique across the store; the remaining business fields are opaque to
// the generic service and only checked by validation.
type Company struct {
	entity.Metadata
	BusinessName   string `json:"business_name" validate:"required,max=255,nomarkup"`
	InvoiceAddress string `json:"invoice_address" validate:"required,max=255,nomarkup"`
	City           string `json:"city" validate:"required,max=128,nomarkup"`
	PostalCode     string `json:"postal_code" validate:"required,max=16,nomarkup"`
	Nation         string `json:"nation" validate:"required,max=64,nomarkup"`
	VATNumber      string `json:"vat_number" validate:"required,max=32,nomarkup"`
}

// Clone returns an independent copy.
func (c *Company) Clone() *Company {
	clone := *c
	return &clone
}

// Field resolves values by wire name for structured filters.
func (c *Company) Field(name string) (any, bool) {
	switch name {
	case "business_name":
		return c.BusinessName, true
	case "invoice_address":
		return c.InvoiceAddress, true
	case "city":
		return c.City, true
	case "postal_code":
		return c.PostalCode, true
	case "nation":
		return c.Nation, true
	case "vat_number":
		return c.VATNumber, true
	default:
		return c.Metadata.Field(name)
	}
}

// UniqueKey is the insert uniqueness constraint for memory stores.
func UniqueKey(c *Company) string {
	return c.BusinessName
}
