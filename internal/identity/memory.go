package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory RepositoryPort used by tests and
// single-process deployments without Postgres.
type MemoryRepository struct {
	mu         sync.RWMutex
	users      map[int64]User
	roles      map[int64]Role
	bindings   map[int64][]int64
	nextUserID int64
	nextRoleID int64
}

// NewMemoryRepository builds an empty directory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[int64]User),
		roles:    make(map[int64]Role),
		bindings: make(map[int64][]int64),
	}
}

func (r *MemoryRepository) InsertUser(ctx context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return User{}, ErrDuplicate
		}
	}
	r.nextUserID++
	user.ID = r.nextUserID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryRepository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepository) InsertRole(ctx context.Context, role Role) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return Role{}, ErrDuplicate
		}
	}
	r.nextRoleID++
	role.ID = r.nextRoleID
	r.roles[role.ID] = role
	return role, nil
}

func (r *MemoryRepository) FindRoleByName(ctx context.Context, name string) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, ErrNotFound
}

func (r *MemoryRepository) BindRole(ctx context.Context, userID, roleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bound := range r.bindings[userID] {
		if bound == roleID {
			return nil
		}
	}
	r.bindings[userID] = append(r.bindings[userID], roleID)
	return nil
}

func (r *MemoryRepository) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bound := r.bindings[userID]
	roles := make([]Role, 0, len(bound))
	for _, roleID := range bound {
		if role, ok := r.roles[roleID]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}
