/**
 * @description
 * This file defines the repository interfaces that specify the contract for
 * all data access operations required by the payments-service. Defining
 * interfaces decouples the application logic from the PostgreSQL
 * implementation and keeps it testable with in-memory fakes.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: For the service's domain models.
 */
package store

import (
	"context"

	"github.com/cabinly/payments-service/internal/domain"
)

// PayoutAccountRepository is the data access contract for host payout accounts.
type PayoutAccountRepository interface {
	// FindByUserID returns the payout account for a host, or (nil, nil) when
	// no row exists.
	FindByUserID(ctx context.Context, userID string) (*domain.HostPayoutAccount, error)
	// Upsert inserts or updates the payout account keyed on user_id and
	// returns the stored row.
	Upsert(ctx context.Context, account *domain.HostPayoutAccount) (*domain.HostPayoutAccount, error)
	// UpdateProviderStatus writes the provider's capability flags back to the
	// host's row.
	UpdateProviderStatus(ctx context.Context, userID string, status domain.ProviderAccountStatus) error
	// ListIncomplete returns accounts that have a provider account id but are
	// not yet fully enabled, for the periodic status sweep.
	ListIncomplete(ctx context.Context, limit int) ([]domain.HostPayoutAccount, error)
}

// BookingRepository covers the single booking transition owned by this service.
type BookingRepository interface {
	// ApproveBookingRequest sets the booking request's status to approved
	// with a fresh timestamp. Approving an already-approved booking is a
	// redundant write, not an error.
	ApproveBookingRequest(ctx context.Context, bookingRequestID string) error
}

// ListingRepository provides the active listings enumerated by the sitemap.
type ListingRepository interface {
	ListActive(ctx context.Context) ([]domain.Listing, error)
}

// RoleRepository answers role-assignment lookups for admin-gated operations.
type RoleRepository interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}
