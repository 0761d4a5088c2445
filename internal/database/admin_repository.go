package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/lagiexpress/booking-backend/internal/models"
)

// AdminRepository handles database operations for admin users
type AdminRepository struct {
	db DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByUsername fetches an admin user by username
func (r *AdminRepository) GetByUsername(username string) (*models.AdminUser, error) {
	query := `
		SELECT id, username, password_hash, created_at, updated_at
		FROM admin_users
		WHERE username = $1
	`

	var admin models.AdminUser
	err := r.db.Get(&admin, query, username)
	if err == sql.ErrNoRows {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	return &admin, nil
}

// Ensure seeds the admin user on startup if it does not exist yet.
// An existing user's password is left untouched.
func (r *AdminRepository) Ensure(username, passwordHash string) error {
	query := `
		INSERT INTO admin_users (id, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (username) DO NOTHING
	`

	_, err := r.db.Exec(query, uuid.New(), username, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to ensure admin user: %w", err)
	}
	return nil
}
