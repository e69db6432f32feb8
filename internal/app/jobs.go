/**
 * @description
 * Scheduled jobs for the payments-service. The status sweep re-queries the
 * payment provider for hosts whose onboarding is still incomplete, so
 * capability flags converge even when the host never returns to the site.
 */
package app

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cabinly/payments-service/internal/store"
)

const statusSweepBatchSize = 50

// Jobs bundles the scheduled job implementations.
type Jobs struct {
	payoutRepo    store.PayoutAccountRepository
	payoutService *PayoutService
}

// NewJobs creates a new Jobs instance.
func NewJobs(payoutRepo store.PayoutAccountRepository, payoutService *PayoutService) *Jobs {
	return &Jobs{payoutRepo: payoutRepo, payoutService: payoutService}
}

// RefreshIncompletePayoutAccounts sweeps payout accounts that have a provider
// account but are not yet fully enabled, refreshing each from the provider.
// Individual failures are logged and the sweep continues.
func (j *Jobs) RefreshIncompletePayoutAccounts() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	accounts, err := j.payoutRepo.ListIncomplete(ctx, statusSweepBatchSize)
	if err != nil {
		log.Printf("status sweep: could not list incomplete payout accounts: %v", err)
		return
	}
	if len(accounts) == 0 {
		return
	}

	log.Printf("status sweep: refreshing %d incomplete payout accounts", len(accounts))
	refreshed := 0
	for _, account := range accounts {
		view, err := j.payoutService.RefreshStatus(ctx, account.UserID)
		if err != nil {
			log.Printf("status sweep: refresh failed for user %s: %v", account.UserID, err)
			continue
		}
		for _, warning := range view.Warnings {
			log.Printf("status sweep: user %s: %s", account.UserID, warning)
		}
		refreshed++
	}
	log.Printf("status sweep: refreshed %d/%d accounts", refreshed, len(accounts))
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron *cron.Cron
	jobs *Jobs

	statusRefreshSchedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, statusRefreshSchedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:                  c,
		jobs:                  jobs,
		statusRefreshSchedule: statusRefreshSchedule,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.statusRefreshSchedule, s.jobs.RefreshIncompletePayoutAccounts); err != nil {
		log.Printf("failed to schedule payout status sweep: %v", err)
	} else {
		log.Printf("scheduled payout status sweep: %s", s.statusRefreshSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
