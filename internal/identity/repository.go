package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

func (r *Repository) InsertUser(ctx context.Context, user User) (User, error) {
	const query = `
		INSERT INTO users (username, name, last_name, email, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		user.Username, user.Name, user.LastName, user.Email, user.PasswordHash, user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrDuplicate
		}
		return User{}, err
	}
	return user, nil
}

func (r *Repository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	const query = `
		SELECT id, username, name, last_name, email, password_hash, is_active, created_at, updated_at
		FROM users WHERE username = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Name, &user.LastName, &user.Email,
		&user.PasswordHash, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *Repository) InsertRole(ctx context.Context, role Role) (Role, error) {
	const query = `
		INSERT INTO roles (name, description) VALUES ($1, $2)
		RETURNING id`
	if err := r.pool.QueryRow(ctx, query, role.Name, role.Description).Scan(&role.ID); err != nil {
		if isUniqueViolation(err) {
			return Role{}, ErrDuplicate
		}
		return Role{}, err
	}
	return role, nil
}

func (r *Repository) FindRoleByName(ctx context.Context, name string) (Role, error) {
	const query = `SELECT id, name, description FROM roles WHERE name = $1`
	var role Role
	if err := r.pool.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name, &role.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

func (r *Repository) BindRole(ctx context.Context, userID, roleID int64) error {
	const query = `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, roleID)
	return err
}

func (r *Repository) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	const query = `
		SELECT r.id, r.name, r.description
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
