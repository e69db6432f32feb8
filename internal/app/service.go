/**
 * @description
 * This file contains the core business logic for the host payout-account
 * lifecycle: creating or resuming provider onboarding, and refreshing a
 * connected account's capability flags from the payment provider.
 *
 * @notes
 * - This service layer keeps the API handlers (controllers) thin and focused
 *   on HTTP concerns, while the business logic remains independent.
 * - Each operation is a single request-scoped unit of work: at most one
 *   provider call and one storage read-modify-write, no internal parallelism.
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

// PaymentProvider is the slice of the payment provider's API used by this
// service. pkg/stripeclient implements it; tests use fakes.
type PaymentProvider interface {
	CreateConnectedAccount(ctx context.Context, accountType domain.PayoutAccountType, businessName *string) (string, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetAccountStatus(ctx context.Context, accountID string) (domain.ProviderAccountStatus, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionResult, error)
}

// PayoutService provides methods for managing host payout accounts.
type PayoutService struct {
	payoutRepo    store.PayoutAccountRepository
	provider      PaymentProvider
	publisher     rabbitmq.Publisher
	publicBaseURL string
}

// NewPayoutService creates a new instance of PayoutService.
func NewPayoutService(payoutRepo store.PayoutAccountRepository, provider PaymentProvider, publisher rabbitmq.Publisher, publicBaseURL string) *PayoutService {
	return &PayoutService{
		payoutRepo:    payoutRepo,
		provider:      provider,
		publisher:     publisher,
		publicBaseURL: publicBaseURL,
	}
}

// OnboardingInput defines the required input for creating or resuming
// payout-account onboarding.
type OnboardingInput struct {
	UserID       string
	AccountType  string
	BusinessName *string
	// Origin is the requesting site's origin, used to build the onboarding
	// link's refresh/return URLs. Empty falls back to the public base URL.
	Origin string
}

// OnboardingResult is the wire result of createOrResumeOnboarding.
type OnboardingResult struct {
	OnboardingURL     string `json:"onboardingUrl"`
	ProviderAccountID string `json:"providerAccountId"`
}

// CreateOrResumeOnboarding looks up the host's payout account, creates a
// provider-connected account on first call, and always concludes by issuing a
// fresh single-use onboarding link. A host's provider account id, once set, is
// reused on every subsequent call.
func (s *PayoutService) CreateOrResumeOnboarding(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	accountType := domain.PayoutAccountType(input.AccountType)
	if !accountType.Valid() {
		return nil, domain.E(domain.ErrInvalidArgument, "validate-input",
			"accountType must be one of: individual, company")
	}

	existing, err := s.payoutRepo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, domain.WrapE(domain.ErrPersistence, "load-account",
			"could not load payout account", err)
	}

	var providerAccountID string
	if existing != nil && existing.ProviderAccountID != nil && *existing.ProviderAccountID != "" {
		// Resume: never create a second provider account for the same host.
		providerAccountID = *existing.ProviderAccountID
	} else {
		providerAccountID, err = s.provider.CreateConnectedAccount(ctx, accountType, input.BusinessName)
		if err != nil {
			return nil, domain.WrapE(domain.ErrUpstream, "create-provider-account",
				"payment provider rejected account creation", err)
		}

		account := &domain.HostPayoutAccount{
			UserID:            input.UserID,
			ProviderAccountID: &providerAccountID,
			AccountType:       accountType,
			BusinessName:      input.BusinessName,
		}
		// A failure here leaves an orphaned provider account; there is no
		// provider-side rollback. The next onboarding call creates a fresh one.
		if _, err := s.payoutRepo.Upsert(ctx, account); err != nil {
			return nil, domain.WrapE(domain.ErrPersistence, "persist-account",
				"provider account created but could not be saved", err)
		}
	}

	origin := input.Origin
	if origin == "" {
		origin = s.publicBaseURL
	}
	onboardingURL, err := s.provider.CreateOnboardingLink(ctx, providerAccountID,
		origin+"/host/payouts?onboarding=refresh",
		origin+"/host/payouts?onboarding=complete",
	)
	if err != nil {
		return nil, domain.WrapE(domain.ErrUpstream, "create-onboarding-link",
			"could not create onboarding link", err)
	}

	return &OnboardingResult{
		OnboardingURL:     onboardingURL,
		ProviderAccountID: providerAccountID,
	}, nil
}

// StatusView is the wire result of refreshStatus. Warnings carry non-fatal
// degradations (e.g. a failed write-back) so callers can distinguish
// degraded-but-successful paths from full success.
type StatusView struct {
	HasAccount          bool     `json:"hasAccount"`
	ProviderAccountID   string   `json:"providerAccountId,omitempty"`
	AccountType         string   `json:"accountType,omitempty"`
	BusinessName        string   `json:"businessName,omitempty"`
	OnboardingCompleted bool     `json:"onboardingCompleted"`
	ChargesEnabled      bool     `json:"chargesEnabled"`
	PayoutsEnabled      bool     `json:"payoutsEnabled"`
	Warnings            []string `json:"warnings,omitempty"`
}

// RefreshStatus re-queries the payment provider for the host's account
// capabilities and writes them back to storage. The freshly fetched provider
// status is authoritative: a write failure is recorded as a warning and does
// not fail the operation.
func (s *PayoutService) RefreshStatus(ctx context.Context, userID string) (*StatusView, error) {
	account, err := s.payoutRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, domain.WrapE(domain.ErrPersistence, "load-account",
			"could not load payout account", err)
	}
	if account == nil {
		// Not an error: the host simply has not started onboarding.
		return &StatusView{HasAccount: false}, nil
	}

	view := &StatusView{
		HasAccount:          true,
		AccountType:         string(account.AccountType),
		OnboardingCompleted: account.OnboardingCompleted,
		ChargesEnabled:      account.ChargesEnabled,
		PayoutsEnabled:      account.PayoutsEnabled,
	}
	if account.BusinessName != nil {
		view.BusinessName = *account.BusinessName
	}
	if account.ProviderAccountID == nil || *account.ProviderAccountID == "" {
		// No provider account yet; nothing to query.
		return view, nil
	}
	view.ProviderAccountID = *account.ProviderAccountID

	status, err := s.provider.GetAccountStatus(ctx, *account.ProviderAccountID)
	if err != nil {
		return nil, domain.WrapE(domain.ErrUpstream, "fetch-provider-status",
			"could not fetch account status from payment provider", err)
	}

	wasVerified := account.OnboardingCompleted && account.ChargesEnabled && account.PayoutsEnabled

	if err := s.payoutRepo.UpdateProviderStatus(ctx, userID, status); err != nil {
		log.Printf("refresh-status: failed to persist provider status for user %s: %v", userID, err)
		view.Warnings = append(view.Warnings, "provider status could not be saved; returned status is live")
	}

	view.OnboardingCompleted = status.DetailsSubmitted
	view.ChargesEnabled = status.ChargesEnabled
	view.PayoutsEnabled = status.PayoutsEnabled

	nowVerified := status.DetailsSubmitted && status.ChargesEnabled && status.PayoutsEnabled
	if nowVerified && !wasVerified {
		s.publishPayoutVerified(ctx, userID, *account.ProviderAccountID)
	}

	return view, nil
}

func (s *PayoutService) publishPayoutVerified(ctx context.Context, userID, providerAccountID string) {
	if s.publisher == nil {
		return
	}
	event := domain.PayoutAccountVerifiedEvent{
		EventID:           uuid.NewString(),
		UserID:            userID,
		ProviderAccountID: providerAccountID,
		VerifiedAt:        time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, domain.PaymentsExchange, domain.EventPayoutAccountVerified, event); err != nil {
		log.Printf("Failed to publish %s event for user %s: %v", domain.EventPayoutAccountVerified, userID, err)
	}
}
