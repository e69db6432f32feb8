/**
 * @description
 * Minimal view of a booking request as seen by the payment slice. The booking
 * subsystem owns the full record; this service only performs the
 * pending -> approved transition after a confirmed payment.
 */
package domain

import "time"

// Booking request statuses. The full set is owned by the booking subsystem;
// only "approved" is written here.
const (
	BookingStatusPending  = "pending"
	BookingStatusApproved = "approved"
)

// BookingRequest is a guest's reservation request awaiting payment approval.
type BookingRequest struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckoutSessionResult is the provider's view of a checkout session, reduced
// to the fields the verifier reads back. Metadata values are passed through
// verbatim as strings, exactly as they were set at session-creation time.
type CheckoutSessionResult struct {
	ID            string
	PaymentStatus string
	Metadata      map[string]string
}
