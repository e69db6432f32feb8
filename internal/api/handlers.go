/**
 * @description
 * This file defines the HTTP handlers for the payments-service's API
 * endpoints. Handlers are responsible for parsing requests, calling the
 * appropriate service method, and writing the response. Error classification
 * to HTTP status codes happens here, in one place.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - The service's internal packages for app logic and middleware.
 */
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cabinly/payments-service/internal/app"
	"github.com/cabinly/payments-service/internal/domain"
	"github.com/cabinly/payments-service/pkg/middleware"
)

const (
	onboardingRateLimit       = 10
	onboardingRateLimitWindow = time.Minute
)

// PayoutHandler holds the dependencies for payout-account handlers.
type PayoutHandler struct {
	service *app.PayoutService
	limiter *app.RedisOnboardingRateLimiter
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(service *app.PayoutService, limiter *app.RedisOnboardingRateLimiter) *PayoutHandler {
	return &PayoutHandler{service: service, limiter: limiter}
}

// OnboardingRequest defines the expected JSON body for onboarding.
type OnboardingRequest struct {
	AccountType  string  `json:"accountType"`
	BusinessName *string `json:"businessName,omitempty"`
}

// CreateOnboarding handles POST /payout-accounts/onboarding.
func (h *PayoutHandler) CreateOnboarding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "payout-onboarding", domain.E(domain.ErrUnauthenticated, "authenticate", "Unauthenticated"))
		return
	}

	count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), "payout_onboarding", userID, onboardingRateLimit, onboardingRateLimitWindow)
	if err != nil {
		// Limiter trouble never blocks onboarding.
		log.Printf("payout-onboarding: rate limiter unavailable: %v", err)
	} else if count > onboardingRateLimit {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many onboarding attempts, try again shortly"})
		return
	}

	var req OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "payout-onboarding", domain.E(domain.ErrInvalidArgument, "decode-body", "Invalid request body"))
		return
	}

	result, err := h.service.CreateOrResumeOnboarding(r.Context(), app.OnboardingInput{
		UserID:       userID,
		AccountType:  req.AccountType,
		BusinessName: req.BusinessName,
		Origin:       r.Header.Get("Origin"),
	})
	if err != nil {
		writeError(w, "payout-onboarding", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetStatus handles GET /payout-accounts/status.
func (h *PayoutHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "payout-status", domain.E(domain.ErrUnauthenticated, "authenticate", "Unauthenticated"))
		return
	}

	view, err := h.service.RefreshStatus(r.Context(), userID)
	if err != nil {
		writeError(w, "payout-status", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// PaymentHandler holds the dependencies for payment-verification handlers.
type PaymentHandler struct {
	service *app.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *app.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// VerifyRequest defines the expected JSON body for payment verification.
type VerifyRequest struct {
	SessionID        string `json:"sessionId"`
	BookingRequestID string `json:"bookingRequestId,omitempty"`
}

// VerifyPayment handles POST /payments/verify.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "verify-payment", domain.E(domain.ErrUnauthenticated, "authenticate", "Unauthenticated"))
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "verify-payment", domain.E(domain.ErrInvalidArgument, "decode-body", "Invalid request body"))
		return
	}

	result, err := h.service.Verify(r.Context(), app.VerifyInput{
		SessionID:        req.SessionID,
		BookingRequestID: req.BookingRequestID,
	})
	if err != nil {
		writeError(w, "verify-payment", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// NotificationHandler holds the dependencies for notification handlers.
type NotificationHandler struct {
	service *app.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(service *app.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// NotificationRequest defines the expected JSON body for sending a notification.
type NotificationRequest struct {
	Kind      string `json:"kind"`
	CabinName string `json:"cabinName,omitempty"`
	HostName  string `json:"hostName,omitempty"`
	HostEmail string `json:"hostEmail,omitempty"`
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// SendNotification handles POST /notifications/send.
func (h *NotificationHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, "send-notification", domain.E(domain.ErrUnauthenticated, "authenticate", "Unauthenticated"))
		return
	}

	var req NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "send-notification", domain.E(domain.ErrInvalidArgument, "decode-body", "Invalid request body"))
		return
	}

	err := h.service.Send(r.Context(), userID, app.NotificationInput{
		Kind:      req.Kind,
		CabinName: req.CabinName,
		HostName:  req.HostName,
		HostEmail: req.HostEmail,
		UserName:  req.UserName,
		UserEmail: req.UserEmail,
	})
	if err != nil {
		writeError(w, "send-notification", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError logs the failed step and maps the error kind to an HTTP status.
func writeError(w http.ResponseWriter, operation string, err error) {
	log.Printf("%s failed at step %s: %v", operation, domain.StepOf(err), err)

	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.ErrInvalidArgument:
		status = http.StatusBadRequest
	case domain.ErrUnauthenticated, domain.ErrUnauthorized:
		status = http.StatusUnauthorized
	}

	message := err.Error()
	var derr *domain.Error
	if errors.As(err, &derr) {
		message = derr.Message
	}
	writeJSON(w, status, map[string]string{"error": message})
}
