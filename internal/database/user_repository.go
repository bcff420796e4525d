package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/pkg/patch"
)

const userColumns = `id, name, email, phone, password_hash, role, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create inserts a user and fills its id
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		u.Name, u.Email, u.Phone.NullString, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns a user or nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return getOne[models.User](ctx, r.db, "user", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns the user with email or nil when absent
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return getOne[models.User](ctx, r.db, "user by email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// List returns all users, newest first
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Exists reports whether a user exists
func (r *UserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return existsByID(ctx, r.db, "users", id)
}

// Update applies a patch set
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, set *patch.Set) (int64, error) {
	return updateByID(ctx, r.db, "users", id, set)
}

// Delete removes a user. Refresh sessions cascade.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return deleteByID(ctx, r.db, "users", id)
}
