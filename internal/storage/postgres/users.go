package postgres

import (
	"context"
	"fmt"

	"github.com/hongminglow/storefront-api/internal/models"
	"github.com/hongminglow/storefront-api/internal/storage"
)

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const q = `
		INSERT INTO users (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, first_name, last_name, email, password_hash, role, created_at`
	row := s.db.QueryRowContext(ctx, q, user.FirstName, user.LastName, user.Email, user.PasswordHash, string(user.Role))
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, translate(err)
	}
	return created, nil
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const q = `SELECT id, first_name, last_name, email, password_hash, role, created_at FROM users WHERE email = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, q, email))
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	const q = `SELECT id, first_name, last_name, email, password_hash, role, created_at FROM users WHERE id = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return models.User{}, translate(err)
	}
	return u, nil
}

// ListUsers returns a page of users.
func (s *Store) ListUsers(ctx context.Context, params storage.ListParams) ([]models.User, error) {
	return list(ctx, s.db, usersTable, params, scanUser)
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user models.User
		role string
	)
	if err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		return models.User{}, err
	}
	parsed, ok := models.ParseRole(role)
	if !ok {
		return models.User{}, fmt.Errorf("user %d has unknown role %q", user.ID, role)
	}
	user.Role = parsed
	return user, nil
}
