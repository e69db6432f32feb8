/**
 * @description
 * Payment-session verification: given a checkout session id, ask the payment
 * provider whether the session is paid and, if so, approve the associated
 * booking request. The payment confirmation signal is availability-first: a
 * failed booking write degrades to a warning, never to a failed verification.
 */
package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cabinly/payments-service/internal/domain"
	"github.com/cabinly/payments-service/internal/store"
	"github.com/cabinly/payments-service/pkg/rabbitmq"
)

// Session metadata keys set at session-creation time and read back verbatim.
const (
	metadataBookingRequestID = "booking_request_id"
	metadataPlatformFee      = "platform_fee"
	metadataHostAmount       = "host_amount"
	metadataTotalAmount      = "total_amount"
)

// PaymentService verifies checkout sessions and approves paid bookings.
type PaymentService struct {
	bookingRepo store.BookingRepository
	provider    PaymentProvider
	publisher   rabbitmq.Publisher
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(bookingRepo store.BookingRepository, provider PaymentProvider, publisher rabbitmq.Publisher) *PaymentService {
	return &PaymentService{
		bookingRepo: bookingRepo,
		provider:    provider,
		publisher:   publisher,
	}
}

// VerifyInput defines the input for payment verification.
type VerifyInput struct {
	SessionID string
	// BookingRequestID is the caller-supplied fallback; session metadata
	// takes precedence when both are present.
	BookingRequestID string
}

// VerifyResult is the wire result of a payment verification.
type VerifyResult struct {
	Success     bool     `json:"success"`
	Paid        bool     `json:"paid"`
	Status      string   `json:"status,omitempty"`
	BookingID   string   `json:"bookingId,omitempty"`
	PlatformFee string   `json:"platformFee,omitempty"`
	HostAmount  string   `json:"hostAmount,omitempty"`
	TotalAmount string   `json:"totalAmount,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Verify retrieves the checkout session and branches on its payment status.
// An unpaid session is a successful call with success=false, so the caller
// can distinguish "not yet paid" from a hard failure.
func (s *PaymentService) Verify(ctx context.Context, input VerifyInput) (*VerifyResult, error) {
	if input.SessionID == "" {
		return nil, domain.E(domain.ErrInvalidArgument, "validate-input", "sessionId is required")
	}

	session, err := s.provider.GetCheckoutSession(ctx, input.SessionID)
	if err != nil {
		return nil, domain.WrapE(domain.ErrUpstream, "retrieve-session",
			"could not retrieve checkout session", err)
	}

	if session.PaymentStatus != "paid" {
		return &VerifyResult{
			Success: false,
			Paid:    false,
			Status:  session.PaymentStatus,
		}, nil
	}

	result := &VerifyResult{
		Success:     true,
		Paid:        true,
		PlatformFee: session.Metadata[metadataPlatformFee],
		HostAmount:  session.Metadata[metadataHostAmount],
		TotalAmount: session.Metadata[metadataTotalAmount],
	}

	// Session metadata takes precedence over the caller-supplied fallback.
	bookingID := session.Metadata[metadataBookingRequestID]
	if bookingID == "" {
		bookingID = input.BookingRequestID
	}
	if bookingID == "" {
		// Explicit no-op: nothing to update, the payment result still stands.
		log.Printf("verify-payment: session %s is paid but carries no booking request id", input.SessionID)
		result.Warnings = append(result.Warnings, "no booking request id resolved; booking update skipped")
		return result, nil
	}
	result.BookingID = bookingID

	if err := s.bookingRepo.ApproveBookingRequest(ctx, bookingID); err != nil {
		log.Printf("verify-payment: failed to approve booking request %s: %v", bookingID, err)
		result.Warnings = append(result.Warnings, "payment confirmed but booking status update failed")
		return result, nil
	}

	s.publishPaymentConfirmed(ctx, bookingID, session)
	return result, nil
}

func (s *PaymentService) publishPaymentConfirmed(ctx context.Context, bookingID string, session *domain.CheckoutSessionResult) {
	if s.publisher == nil {
		return
	}
	event := domain.BookingPaymentConfirmedEvent{
		EventID:          uuid.NewString(),
		BookingRequestID: bookingID,
		SessionID:        session.ID,
		TotalAmount:      session.Metadata[metadataTotalAmount],
		ConfirmedAt:      time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, domain.PaymentsExchange, domain.EventBookingPaymentConfirmed, event); err != nil {
		log.Printf("Failed to publish %s event for booking %s: %v", domain.EventBookingPaymentConfirmed, bookingID, err)
	}
}
