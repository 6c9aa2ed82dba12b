package companies

import (
	"github.com/meridian-registry/meridian/internal/entity"
)

// Service is the access-controlled company service. It is the generic
// versioned entity service instantiated for Company.
type Service struct {
	*entity.Service[*Company]
}

// NewService wires the company service with its collaborators.
func NewService(store entity.Store[*Company], authz entity.Authorizer, validate entity.Validator) *Service {
	return &Service{entity.NewService(Resource, store, authz, validate)}
}

// NewMemoryStore builds an in-memory company store enforcing business
// name uniqueness.
func NewMemoryStore() *entity.MemStore[*Company] {
	return entity.NewMemStore(UniqueKey)
}
