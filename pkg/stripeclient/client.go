/**
 * @description
 * This package provides a client for the payment provider (Stripe). It
 * encapsulates the Connect-account lifecycle calls and checkout-session
 * retrieval used by the payments-service, and reduces the provider's
 * responses to the service's domain models.
 *
 * Key features:
 * - Creates Express connected accounts scoped to the operator's country with
 *   the card_payments and transfers capabilities.
 * - Produces single-use, time-limited account-onboarding links.
 * - Fetches the authoritative capability flags for a connected account.
 * - Retrieves checkout sessions with their payment status and metadata bag.
 *
 * @dependencies
 * - github.com/stripe/stripe-go/v82: The provider SDK.
 * - The service's internal domain package for the reduced response models.
 */
package stripeclient

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/account"
	"github.com/stripe/stripe-go/v82/accountlink"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"

	"github.com/cabinly/payments-service/internal/domain"
)

// Client is a client for the payment provider's Connect and Checkout APIs.
type Client struct {
	country string
}

// NewClient creates a new payment provider client. The secret key is set
// process-wide, matching the SDK's package-level call style.
func NewClient(secretKey, country string) *Client {
	stripe.Key = secretKey
	return &Client{country: country}
}

// CreateConnectedAccount creates a new Express connected account for a host
// and returns the provider account id.
func (c *Client) CreateConnectedAccount(ctx context.Context, accountType domain.PayoutAccountType, businessName *string) (string, error) {
	businessType := stripe.AccountBusinessTypeIndividual
	if accountType == domain.PayoutAccountTypeCompany {
		businessType = stripe.AccountBusinessTypeCompany
	}

	params := &stripe.AccountParams{
		Type:         stripe.String(string(stripe.AccountTypeExpress)),
		Country:      stripe.String(c.country),
		BusinessType: stripe.String(string(businessType)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	if businessName != nil && *businessName != "" {
		params.Company = &stripe.AccountCompanyParams{
			Name: stripe.String(*businessName),
		}
	}
	params.Params.Context = ctx

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("could not create connected account: %w", err)
	}
	return acct.ID, nil
}

// CreateOnboardingLink requests a single-use account-onboarding link for a
// connected account. The link is time-limited per provider semantics.
func (c *Client) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	params.Params.Context = ctx

	link, err := accountlink.New(params)
	if err != nil {
		return "", fmt.Errorf("could not create onboarding link: %w", err)
	}
	return link.URL, nil
}

// GetAccountStatus fetches the current capability flags for a connected account.
func (c *Client) GetAccountStatus(ctx context.Context, accountID string) (domain.ProviderAccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Params.Context = ctx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return domain.ProviderAccountStatus{}, fmt.Errorf("could not fetch account %s: %w", accountID, err)
	}
	return domain.ProviderAccountStatus{
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
	}, nil
}

// GetCheckoutSession retrieves a checkout session and reduces it to the
// payment status and metadata bag read back by the verifier.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Params.Context = ctx

	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve checkout session %s: %w", sessionID, err)
	}
	return &domain.CheckoutSessionResult{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
	}, nil
}
