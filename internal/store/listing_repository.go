package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cabinly/payments-service/internal/domain"
)

// PostgresListingRepository is the PostgreSQL implementation of the ListingRepository.
type PostgresListingRepository struct {
	db *pgxpool.Pool
}

// NewPostgresListingRepository creates a new instance of PostgresListingRepository.
func NewPostgresListingRepository(db *pgxpool.Pool) *PostgresListingRepository {
	return &PostgresListingRepository{db: db}
}

// ListActive returns the active cabin listings enumerated by the sitemap,
// newest first.
func (r *PostgresListingRepository) ListActive(ctx context.Context) ([]domain.Listing, error) {
	query := `
        SELECT id, title, updated_at
        FROM cabins
        WHERE status = 'active'
        ORDER BY updated_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		log.Printf("Error listing active cabins: %v", err)
		return nil, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.UpdatedAt); err != nil {
			log.Printf("Error scanning cabin row: %v", err)
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
