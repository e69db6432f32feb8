package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/cabinly/payments-service/internal/domain"
)

// ---- fakes over the store/provider/publisher interfaces ----

type fakePayoutRepo struct {
	accounts    map[string]*domain.HostPayoutAccount
	findErr     error
	upsertErr   error
	updateErr   error
	findCalls   int
	upsertCalls int
	updateCalls int
	lastUpsert  *domain.HostPayoutAccount
	lastStatus  domain.ProviderAccountStatus
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{accounts: map[string]*domain.HostPayoutAccount{}}
}

func (f *fakePayoutRepo) FindByUserID(ctx context.Context, userID string) (*domain.HostPayoutAccount, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.accounts[userID]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

func (f *fakePayoutRepo) Upsert(ctx context.Context, account *domain.HostPayoutAccount) (*domain.HostPayoutAccount, error) {
	f.upsertCalls++
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	copied := *account
	f.accounts[account.UserID] = &copied
	f.lastUpsert = &copied
	return &copied, nil
}

func (f *fakePayoutRepo) UpdateProviderStatus(ctx context.Context, userID string, status domain.ProviderAccountStatus) error {
	f.updateCalls++
	f.lastStatus = status
	if f.updateErr != nil {
		return f.updateErr
	}
	if account, ok := f.accounts[userID]; ok {
		account.OnboardingCompleted = status.DetailsSubmitted
		account.ChargesEnabled = status.ChargesEnabled
		account.PayoutsEnabled = status.PayoutsEnabled
	}
	return nil
}

func (f *fakePayoutRepo) ListIncomplete(ctx context.Context, limit int) ([]domain.HostPayoutAccount, error) {
	var out []domain.HostPayoutAccount
	for _, account := range f.accounts {
		if account.ProviderAccountID != nil && !(account.OnboardingCompleted && account.ChargesEnabled && account.PayoutsEnabled) {
			out = append(out, *account)
		}
	}
	return out, nil
}

type fakeProvider struct {
	nextAccountID string
	createCalls   int
	createErr     error
	linkCalls     int
	linkErr       error
	lastRefresh   string
	lastReturn    string
	status        domain.ProviderAccountStatus
	statusCalls   int
	statusErr     error
	session       *domain.CheckoutSessionResult
	sessionCalls  int
	sessionErr    error
}

func (f *fakeProvider) CreateConnectedAccount(ctx context.Context, accountType domain.PayoutAccountType, businessName *string) (string, error) {
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.nextAccountID == "" {
		return fmt.Sprintf("acct_test_%d", f.createCalls), nil
	}
	return f.nextAccountID, nil
}

func (f *fakeProvider) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	f.linkCalls++
	f.lastRefresh = refreshURL
	f.lastReturn = returnURL
	if f.linkErr != nil {
		return "", f.linkErr
	}
	return "https://connect.example.com/setup/" + accountID, nil
}

func (f *fakeProvider) GetAccountStatus(ctx context.Context, accountID string) (domain.ProviderAccountStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return domain.ProviderAccountStatus{}, f.statusErr
	}
	return f.status, nil
}

func (f *fakeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSessionResult, error) {
	f.sessionCalls++
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (f *fakePublisher) Close() {}

func strPtr(s string) *string { return &s }

// ---- onboarding ----

func TestCreateOrResumeOnboarding_RejectsInvalidAccountType(t *testing.T) {
	tests := []struct {
		name        string
		accountType string
	}{
		{name: "empty", accountType: ""},
		{name: "unknown value", accountType: "partnership"},
		{name: "case sensitive", accountType: "Individual"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePayoutRepo()
			provider := &fakeProvider{}
			svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

			_, err := svc.CreateOrResumeOnboarding(context.Background(), OnboardingInput{
				UserID:      "u1",
				AccountType: tt.accountType,
			})
			if err == nil {
				t.Fatal("expected invalid account type to be rejected")
			}
			if domain.KindOf(err) != domain.ErrInvalidArgument {
				t.Fatalf("expected invalid_argument, got %s", domain.KindOf(err))
			}
			if provider.createCalls != 0 || provider.linkCalls != 0 {
				t.Fatalf("expected no provider calls, got create=%d link=%d", provider.createCalls, provider.linkCalls)
			}
			if repo.findCalls != 0 || repo.upsertCalls != 0 {
				t.Fatalf("expected no storage calls, got find=%d upsert=%d", repo.findCalls, repo.upsertCalls)
			}
		})
	}
}

func TestCreateOrResumeOnboarding_FreshHost(t *testing.T) {
	repo := newFakePayoutRepo()
	provider := &fakeProvider{nextAccountID: "acct_new_1"}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	result, err := svc.CreateOrResumeOnboarding(context.Background(), OnboardingInput{
		UserID:      "u1",
		AccountType: "individual",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.createCalls != 1 {
		t.Fatalf("expected exactly one provider create, got %d", provider.createCalls)
	}
	if result.ProviderAccountID != "acct_new_1" {
		t.Fatalf("expected new provider account id, got %q", result.ProviderAccountID)
	}
	if result.OnboardingURL == "" {
		t.Fatal("expected a non-empty onboarding url")
	}

	stored := repo.lastUpsert
	if stored == nil {
		t.Fatal("expected a payout account row to be inserted")
	}
	if stored.OnboardingCompleted || stored.ChargesEnabled || stored.PayoutsEnabled {
		t.Fatal("expected all capability flags initialized to false")
	}
	if stored.ProviderAccountID == nil || *stored.ProviderAccountID != "acct_new_1" {
		t.Fatal("expected stored row to carry the provider account id")
	}
}

func TestCreateOrResumeOnboarding_ReusesExistingProviderAccount(t *testing.T) {
	repo := newFakePayoutRepo()
	provider := &fakeProvider{nextAccountID: "acct_first"}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	first, err := svc.CreateOrResumeOnboarding(context.Background(), OnboardingInput{
		UserID:      "u1",
		AccountType: "company",
		BusinessName: strPtr("Fjell Cabins AS"),
	})
	if err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}

	second, err := svc.CreateOrResumeOnboarding(context.Background(), OnboardingInput{
		UserID:      "u1",
		AccountType: "company",
	})
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}

	if first.ProviderAccountID != second.ProviderAccountID {
		t.Fatalf("expected both calls to yield the same provider account id, got %q then %q",
			first.ProviderAccountID, second.ProviderAccountID)
	}
	if provider.createCalls != 1 {
		t.Fatalf("expected exactly one provider account creation across both calls, got %d", provider.createCalls)
	}
	if provider.linkCalls != 2 {
		t.Fatalf("expected a fresh onboarding link on every call, got %d", provider.linkCalls)
	}
}

func TestCreateOrResumeOnboarding_OriginFallback(t *testing.T) {
	repo := newFakePayoutRepo()
	provider := &fakeProvider{}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	t.Run("uses the request origin when present", func(t *testing.T) {
		_, err := svc.CreateOrResumeOnboarding(context.Background(), OnboardingInput{
			UserID:      "u1",
			AccountType: "individual",
			Origin:      "https://staging.cabinly.app",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if provider.lastReturn != "https://staging.cabinly.app/host/payouts?onboarding=complete" {
			t.Fatalf("expected return url derived from origin, got %q", provider.lastReturn)
		}
	})

	t.Run("falls back to the public base url", func(t *testing.T) {
		_, err := svc.CreateOrResumeOnboarding(context.Background(), OnboardingInput{
			UserID:      "u2",
			AccountType: "individual",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if provider.lastRefresh != "https://cabinly.app/host/payouts?onboarding=refresh" {
			t.Fatalf("expected refresh url derived from public base url, got %q", provider.lastRefresh)
		}
	})
}

func TestCreateOrResumeOnboarding_PersistFailureAfterProviderCreate(t *testing.T) {
	repo := newFakePayoutRepo()
	repo.upsertErr = fmt.Errorf("connection reset")
	provider := &fakeProvider{nextAccountID: "acct_orphan"}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	_, err := svc.CreateOrResumeOnboarding(context.Background(), OnboardingInput{
		UserID:      "u1",
		AccountType: "individual",
	})
	if err == nil {
		t.Fatal("expected persistence failure to surface as an error")
	}
	if domain.KindOf(err) != domain.ErrPersistence {
		t.Fatalf("expected persistence kind, got %s", domain.KindOf(err))
	}
	// No rollback: the provider-side account was still created.
	if provider.createCalls != 1 {
		t.Fatalf("expected the provider create to have happened, got %d calls", provider.createCalls)
	}
	if provider.linkCalls != 0 {
		t.Fatal("expected no onboarding link after a failed persist")
	}
}

// ---- status refresh ----

func TestRefreshStatus_NoStoredAccount(t *testing.T) {
	repo := newFakePayoutRepo()
	provider := &fakeProvider{}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	view, err := svc.RefreshStatus(context.Background(), "u-missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.HasAccount {
		t.Fatal("expected hasAccount=false")
	}
	if view.OnboardingCompleted || view.ChargesEnabled || view.PayoutsEnabled {
		t.Fatal("expected all capability flags false")
	}
	if provider.statusCalls != 0 {
		t.Fatalf("expected no provider call, got %d", provider.statusCalls)
	}
}

func TestRefreshStatus_AccountWithoutProviderID(t *testing.T) {
	repo := newFakePayoutRepo()
	repo.accounts["u1"] = &domain.HostPayoutAccount{
		UserID:      "u1",
		AccountType: domain.PayoutAccountTypeCompany,
		BusinessName: strPtr("Fjell Cabins AS"),
	}
	provider := &fakeProvider{}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	view, err := svc.RefreshStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.HasAccount {
		t.Fatal("expected hasAccount=true")
	}
	if view.AccountType != "company" || view.BusinessName != "Fjell Cabins AS" {
		t.Fatalf("expected account metadata in view, got %+v", view)
	}
	if provider.statusCalls != 0 {
		t.Fatalf("expected no provider call without a provider account id, got %d", provider.statusCalls)
	}
}

func TestRefreshStatus_WritesBackProviderStatus(t *testing.T) {
	repo := newFakePayoutRepo()
	repo.accounts["u1"] = &domain.HostPayoutAccount{
		UserID:            "u1",
		ProviderAccountID: strPtr("acct_1"),
		AccountType:       domain.PayoutAccountTypeIndividual,
	}
	provider := &fakeProvider{status: domain.ProviderAccountStatus{
		DetailsSubmitted: true,
		ChargesEnabled:   true,
		PayoutsEnabled:   false,
	}}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	view, err := svc.RefreshStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !view.OnboardingCompleted || !view.ChargesEnabled || view.PayoutsEnabled {
		t.Fatalf("expected view to mirror provider status, got %+v", view)
	}
	if repo.updateCalls != 1 {
		t.Fatalf("expected one status write-back, got %d", repo.updateCalls)
	}
	if !repo.lastStatus.DetailsSubmitted {
		t.Fatal("expected details_submitted to be written as onboarding_completed")
	}
	if len(view.Warnings) != 0 {
		t.Fatalf("expected no warnings on the happy path, got %v", view.Warnings)
	}
}

func TestRefreshStatus_WriteFailureDegradesToWarning(t *testing.T) {
	repo := newFakePayoutRepo()
	repo.accounts["u1"] = &domain.HostPayoutAccount{
		UserID:            "u1",
		ProviderAccountID: strPtr("acct_1"),
		AccountType:       domain.PayoutAccountTypeIndividual,
	}
	repo.updateErr = fmt.Errorf("write timeout")
	provider := &fakeProvider{status: domain.ProviderAccountStatus{
		DetailsSubmitted: true,
		ChargesEnabled:   true,
		PayoutsEnabled:   true,
	}}
	svc := NewPayoutService(repo, provider, &fakePublisher{}, "https://cabinly.app")

	view, err := svc.RefreshStatus(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected the live provider status despite the failed write, got error: %v", err)
	}
	if !view.OnboardingCompleted || !view.ChargesEnabled || !view.PayoutsEnabled {
		t.Fatalf("expected the freshly fetched status to be returned, got %+v", view)
	}
	if len(view.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", view.Warnings)
	}
}

func TestRefreshStatus_PublishesVerifiedEventOnTransition(t *testing.T) {
	repo := newFakePayoutRepo()
	repo.accounts["u1"] = &domain.HostPayoutAccount{
		UserID:            "u1",
		ProviderAccountID: strPtr("acct_1"),
		AccountType:       domain.PayoutAccountTypeIndividual,
	}
	publisher := &fakePublisher{}
	provider := &fakeProvider{status: domain.ProviderAccountStatus{
		DetailsSubmitted: true,
		ChargesEnabled:   true,
		PayoutsEnabled:   true,
	}}
	svc := NewPayoutService(repo, provider, publisher, "https://cabinly.app")

	if _, err := svc.RefreshStatus(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one verified event, got %d", len(publisher.events))
	}
	if publisher.events[0].routingKey != domain.EventPayoutAccountVerified {
		t.Fatalf("expected routing key %q, got %q", domain.EventPayoutAccountVerified, publisher.events[0].routingKey)
	}

	// A second refresh with unchanged status must not publish again.
	if _, err := svc.RefreshStatus(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error on second refresh: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected no duplicate verified event, got %d", len(publisher.events))
	}
}
