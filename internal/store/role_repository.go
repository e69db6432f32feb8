package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRoleRepository is the PostgreSQL implementation of the RoleRepository.
type PostgresRoleRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRoleRepository creates a new instance of PostgresRoleRepository.
func NewPostgresRoleRepository(db *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db}
}

// HasRole reports whether a role assignment row exists for (userID, role).
func (r *PostgresRoleRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, role).Scan(&exists); err != nil {
		log.Printf("Error checking role %q for user %s: %v", role, userID, err)
		return false, err
	}
	return exists, nil
}
