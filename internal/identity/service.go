// Package identity is the user and role directory: it registers users,
// verifies their credentials and resolves the roles bound to them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotFound indicates the user or role does not exist.
	ErrNotFound = errors.New("identity: not found")
	// ErrDuplicate indicates a username or role name is already taken.
	ErrDuplicate = errors.New("identity: duplicate")
	// ErrInvalidCredentials indicates authentication failure.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
)

// AdminRole bypasses every permission check when bound to a user.
const AdminRole = "admin"

// RepositoryPort defines data access methods for the directory.
type RepositoryPort interface {
	InsertUser(ctx context.Context, user User) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
	InsertRole(ctx context.Context, role Role) (Role, error)
	FindRoleByName(ctx context.Context, name string) (Role, error)
	BindRole(ctx context.Context, userID, roleID int64) error
	UserRoles(ctx context.Context, userID int64) ([]Role, error)
}

// Service handles directory business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// FindUser looks a user up by username.
func (s *Service) FindUser(ctx context.Context, username string) (User, error) {
	return s.repo.FindUserByUsername(ctx, strings.TrimSpace(username))
}

// AddUser registers a user, hashing the password. When params.Admin is
// set the admin role is bound as well.
func (s *Service) AddUser(ctx context.Context, params NewUserParams) (User, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return User{}, errors.New("identity: username required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("identity: hash password: %w", err)
	}
	user, err := s.repo.InsertUser(ctx, User{
		Username:     username,
		Name:         strings.TrimSpace(params.Name),
		LastName:     strings.TrimSpace(params.LastName),
		Email:        strings.TrimSpace(params.Email),
		PasswordHash: string(hash),
		Active:       true,
	})
	if err != nil {
		return User{}, err
	}
	if params.Admin {
		role, err := s.EnsureRole(ctx, AdminRole, "unrestricted access")
		if err != nil {
			return User{}, err
		}
		if err := s.repo.BindRole(ctx, user.ID, role.ID); err != nil {
			return User{}, err
		}
	}
	return user, nil
}

// Authenticate verifies a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !user.Active {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetRole looks a role up by name.
func (s *Service) GetRole(ctx context.Context, name string) (Role, error) {
	return s.repo.FindRoleByName(ctx, strings.TrimSpace(name))
}

// EnsureRole returns the named role, creating it when missing.
func (s *Service) EnsureRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("identity: role name required")
	}
	role, err := s.repo.FindRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Role{}, err
	}
	role, err = s.repo.InsertRole(ctx, Role{Name: name, Description: description})
	if errors.Is(err, ErrDuplicate) {
		// Lost a race with a concurrent EnsureRole.
		return s.repo.FindRoleByName(ctx, name)
	}
	return role, err
}

// AddRole binds a role to a user.
func (s *Service) AddRole(ctx context.Context, userID int64, role Role) error {
	return s.repo.BindRole(ctx, userID, role.ID)
}

// RolesOf returns the names of every role bound to the user. It is the
// role source the permission engine evaluates.
func (s *Service) RolesOf(ctx context.Context, userID int64) ([]string, error) {
	roles, err := s.repo.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = role.Name
	}
	return names, nil
}
