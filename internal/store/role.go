package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/staffdesk/apiserver/types"
)

// RoleRepository handles persistence for the fixed role registry.
type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Exists reports whether the named role is present in the registry.
func (r *RoleRepository) Exists(ctx context.Context, role types.Role) (bool, error) {
	const query = `SELECT COUNT(1) FROM roles WHERE name = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, role.String()).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create adds the named role to the registry.
func (r *RoleRepository) Create(ctx context.Context, role types.Role) error {
	const query = `INSERT INTO roles (name, created_at) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, role.String(), time.Now())
	return err
}
