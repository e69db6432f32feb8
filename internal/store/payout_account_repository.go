/**
 * @description
 * This file implements the data access layer for host payout accounts. It
 * provides a clean interface for the application logic to interact with the
 * `host_payout_accounts` table in the database.
 *
 * @dependencies
 * - context: For managing request-scoped deadlines and cancellations.
 * - log: For logging database errors.
 * - github.com/jackc/pgx/v5/pgxpool: The PostgreSQL driver.
 * - The service's internal domain package for the HostPayoutAccount model.
 */
package store

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cabinly/payments-service/internal/domain"
)

// PostgresPayoutAccountRepository is the PostgreSQL implementation of the
// PayoutAccountRepository.
type PostgresPayoutAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresPayoutAccountRepository creates a new instance of PostgresPayoutAccountRepository.
func NewPostgresPayoutAccountRepository(db *pgxpool.Pool) *PostgresPayoutAccountRepository {
	return &PostgresPayoutAccountRepository{db: db}
}

// FindByUserID retrieves a host's payout account. A missing row is not an
// error; it returns (nil, nil) so the caller can distinguish "no account yet".
func (r *PostgresPayoutAccountRepository) FindByUserID(ctx context.Context, userID string) (*domain.HostPayoutAccount, error) {
	query := `
        SELECT id, user_id, provider_account_id, account_type, business_name,
               onboarding_completed, charges_enabled, payouts_enabled,
               created_at, updated_at
        FROM host_payout_accounts
        WHERE user_id = $1
    `
	var account domain.HostPayoutAccount
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&account.ID,
		&account.UserID,
		&account.ProviderAccountID,
		&account.AccountType,
		&account.BusinessName,
		&account.OnboardingCompleted,
		&account.ChargesEnabled,
		&account.PayoutsEnabled,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Printf("Error finding payout account for user %s: %v", userID, err)
		return nil, err
	}
	return &account, nil
}

// Upsert inserts or updates the payout account keyed uniquely on user_id.
// Two simultaneous first onboarding calls race here; the conflict clause makes
// the second write an overwrite rather than a second row.
func (r *PostgresPayoutAccountRepository) Upsert(ctx context.Context, account *domain.HostPayoutAccount) (*domain.HostPayoutAccount, error) {
	query := `
        INSERT INTO host_payout_accounts
            (user_id, provider_account_id, account_type, business_name,
             onboarding_completed, charges_enabled, payouts_enabled)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (user_id) DO UPDATE SET
            provider_account_id  = EXCLUDED.provider_account_id,
            account_type         = EXCLUDED.account_type,
            business_name        = EXCLUDED.business_name,
            onboarding_completed = EXCLUDED.onboarding_completed,
            charges_enabled      = EXCLUDED.charges_enabled,
            payouts_enabled      = EXCLUDED.payouts_enabled,
            updated_at           = now()
        RETURNING id, user_id, provider_account_id, account_type, business_name,
                  onboarding_completed, charges_enabled, payouts_enabled,
                  created_at, updated_at
    `
	var stored domain.HostPayoutAccount
	err := r.db.QueryRow(ctx, query,
		account.UserID,
		account.ProviderAccountID,
		account.AccountType,
		account.BusinessName,
		account.OnboardingCompleted,
		account.ChargesEnabled,
		account.PayoutsEnabled,
	).Scan(
		&stored.ID,
		&stored.UserID,
		&stored.ProviderAccountID,
		&stored.AccountType,
		&stored.BusinessName,
		&stored.OnboardingCompleted,
		&stored.ChargesEnabled,
		&stored.PayoutsEnabled,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" { // unique_violation
			log.Printf("Error upserting payout account: unique constraint violation on %s", pgErr.ConstraintName)
			return nil, err
		}
		log.Printf("Error upserting payout account for user %s: %v", account.UserID, err)
		return nil, err
	}
	return &stored, nil
}

// UpdateProviderStatus writes the freshly fetched provider capability flags
// back to the host's row.
func (r *PostgresPayoutAccountRepository) UpdateProviderStatus(ctx context.Context, userID string, status domain.ProviderAccountStatus) error {
	query := `
        UPDATE host_payout_accounts
        SET onboarding_completed = $2,
            charges_enabled      = $3,
            payouts_enabled      = $4,
            updated_at           = now()
        WHERE user_id = $1
    `
	tag, err := r.db.Exec(ctx, query, userID, status.DetailsSubmitted, status.ChargesEnabled, status.PayoutsEnabled)
	if err != nil {
		log.Printf("Error updating provider status for user %s: %v", userID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Printf("No payout account row to update for user %s", userID)
		return pgx.ErrNoRows
	}
	return nil
}

// ListIncomplete returns accounts with a provider account id whose
// capabilities are not yet fully enabled, oldest refresh first.
func (r *PostgresPayoutAccountRepository) ListIncomplete(ctx context.Context, limit int) ([]domain.HostPayoutAccount, error) {
	query := `
        SELECT id, user_id, provider_account_id, account_type, business_name,
               onboarding_completed, charges_enabled, payouts_enabled,
               created_at, updated_at
        FROM host_payout_accounts
        WHERE provider_account_id IS NOT NULL
          AND NOT (onboarding_completed AND charges_enabled AND payouts_enabled)
        ORDER BY updated_at ASC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		log.Printf("Error listing incomplete payout accounts: %v", err)
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.HostPayoutAccount
	for rows.Next() {
		var account domain.HostPayoutAccount
		if err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.ProviderAccountID,
			&account.AccountType,
			&account.BusinessName,
			&account.OnboardingCompleted,
			&account.ChargesEnabled,
			&account.PayoutsEnabled,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			log.Printf("Error scanning payout account row: %v", err)
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
