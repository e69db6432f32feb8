/**
 * @description
 * This file defines the domain models for events published by the
 * payments-service to the message broker (RabbitMQ). Publishing is
 * best-effort: a failed publish is logged and never fails the request
 * that produced it.
 */
package domain

import "time"

// Event routing keys on the payments topic exchange.
const (
	PaymentsExchange             = "payments_events"
	EventBookingPaymentConfirmed = "booking.payment_confirmed"
	EventPayoutAccountVerified   = "payout_account.verified"
)

// BookingPaymentConfirmedEvent is published after a checkout session is
// verified as paid and the booking request has been approved.
type BookingPaymentConfirmedEvent struct {
	EventID          string    `json:"event_id"`
	BookingRequestID string    `json:"booking_request_id"`
	SessionID        string    `json:"session_id"`
	TotalAmount      string    `json:"total_amount,omitempty"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
}

// PayoutAccountVerifiedEvent is published when a status refresh observes a
// payout account transition to fully onboarded.
type PayoutAccountVerifiedEvent struct {
	EventID           string    `json:"event_id"`
	UserID            string    `json:"user_id"`
	ProviderAccountID string    `json:"provider_account_id"`
	VerifiedAt        time.Time `json:"verified_at"`
}
