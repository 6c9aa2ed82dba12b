package identity

import "time"

// User is an account known to the directory. Credentials are stored as
// a bcrypt hash and never leave the package.
type User struct {
	ID           int64
	Username     string
	Name         string
	LastName     string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role is a named capability bundle users can be bound to.
type Role struct {
	ID          int64
	Name        string
	Description string
}

// NewUserParams carries the fields needed to register a user.
type NewUserParams struct {
	Username string
	Name     string
	LastName string
	Email    string
	Password string
	Admin    bool
}
