/**
 * @description
 * This file defines the domain models for host payout accounts. A payout
 * account links a marketplace host to their connected account at the payment
 * provider and tracks the provider's capability flags.
 *
 * @notes
 * - A host has at most one payout account row (unique on user_id). The
 *   provider account id, once set, is stable and reused on every subsequent
 *   onboarding call.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PayoutAccountType is the legal form of the host's payout account.
type PayoutAccountType string

const (
	PayoutAccountTypeIndividual PayoutAccountType = "individual"
	PayoutAccountTypeCompany    PayoutAccountType = "company"
)

// Valid reports whether the account type is one of the supported values.
func (t PayoutAccountType) Valid() bool {
	return t == PayoutAccountTypeIndividual || t == PayoutAccountTypeCompany
}

// HostPayoutAccount is a host's connected payout account at the payment provider.
type HostPayoutAccount struct {
	ID                  uuid.UUID         `json:"id"`
	UserID              string            `json:"user_id"`
	ProviderAccountID   *string           `json:"provider_account_id,omitempty"`
	AccountType         PayoutAccountType `json:"account_type"`
	BusinessName        *string           `json:"business_name,omitempty"`
	OnboardingCompleted bool              `json:"onboarding_completed"`
	ChargesEnabled      bool              `json:"charges_enabled"`
	PayoutsEnabled      bool              `json:"payouts_enabled"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// ProviderAccountStatus is the authoritative capability view fetched from the
// payment provider for a connected account.
type ProviderAccountStatus struct {
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
}
