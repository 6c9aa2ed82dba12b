package entity

import "time"

// Versioned is the metadata contract every managed entity carries:
// a store-assigned identifier, an optimistic-concurrency version and
// the identifier of the owning user.
type Versioned interface {
	GetID() int64
	SetID(id int64)
	GetEntityVersion() int64
	SetEntityVersion(version int64)
	GetOwnerID() int64
	SetOwnerID(ownerID int64)
}

// Entity is the full capability the generic service and stores require
// from a managed type. Clone must return a deep copy so stores never
// hand out aliased rows; Field exposes values by their wire name so
// structured filters can be evaluated without reflection.
type Entity[T any] interface {
	Versioned
	Clone() T
	Field(name string) (any, bool)
}

// Metadata satisfies Versioned when embedded in a concrete entity.
type Metadata struct {
	ID            int64     `json:"id"`
	EntityVersion int64     `json:"entity_version"`
	OwnerID       int64     `json:"owner_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetID returns the store-assigned identifier, zero before first save.
func (m *Metadata) GetID() int64 { return m.ID }

// SetID assigns the identifier. Stores call this once on insert.
func (m *Metadata) SetID(id int64) { m.ID = id }

// GetEntityVersion returns the optimistic-concurrency version.
func (m *Metadata) GetEntityVersion() int64 { return m.EntityVersion }

// SetEntityVersion assigns the version stamp.
func (m *Metadata) SetEntityVersion(version int64) { m.EntityVersion = version }

// GetOwnerID returns the identifier of the creating user.
func (m *Metadata) GetOwnerID() int64 { return m.OwnerID }

// SetOwnerID assigns the owner. Set once at creation, immutable afterward.
func (m *Metadata) SetOwnerID(ownerID int64) { m.OwnerID = ownerID }

// Field resolves metadata values by wire name.
func (m *Metadata) Field(name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "entity_version":
		return m.EntityVersion, true
	case "owner_id":
		return m.OwnerID, true
	default:
		return nil, false
	}
}
