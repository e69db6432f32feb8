/**
 * @description
 * Data access for the single booking-request transition owned by the payments
 * slice: marking a booking request approved after its payment is confirmed.
 */
package store

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBookingRepository is the PostgreSQL implementation of the BookingRepository.
type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new instance of PostgresBookingRepository.
func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

// ApproveBookingRequest sets the booking request status to approved with a
// fresh timestamp. Re-approving an already-approved booking is a redundant
// write and succeeds.
func (r *PostgresBookingRepository) ApproveBookingRequest(ctx context.Context, bookingRequestID string) error {
	query := `
        UPDATE booking_requests
        SET status = 'approved', updated_at = now()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, bookingRequestID)
	if err != nil {
		log.Printf("Error approving booking request %s: %v", bookingRequestID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Printf("No booking request found with id %s", bookingRequestID)
	}
	return nil
}
