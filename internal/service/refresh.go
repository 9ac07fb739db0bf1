package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
	"skinvault-api/pkg/clock"
)

// UserSyncer runs one sync attempt for one user. Satisfied by
// *SyncService; tests substitute a fake.
type UserSyncer interface {
	SyncUser(ctx context.Context, user *model.UserAccount) model.SyncOutcome
}

// RefreshOptions holds the scheduled refresh tunables.
type RefreshOptions struct {
	// ActivityWindow bounds how recently a user must have been active.
	ActivityWindow time.Duration
	// StalenessWindow is the minimum age of the last sync before a user
	// becomes eligible again.
	StalenessWindow time.Duration
	// UserDelay is the fixed spacing between consecutive users' syncs.
	UserDelay time.Duration
}

// RefreshDriver selects users whose inventories are due for a refresh
// and drives the sync service over them, sequentially and with fixed
// inter-user spacing. Authorization is enforced at the endpoint before
// this driver runs.
type RefreshDriver struct {
	users repository.UserRepository
	sync  UserSyncer
	opts  RefreshOptions
	clock clock.Clock

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRefreshDriver creates a refresh driver.
func NewRefreshDriver(users repository.UserRepository, syncer UserSyncer, opts RefreshOptions, clk clock.Clock) *RefreshDriver {
	if opts.ActivityWindow <= 0 {
		opts.ActivityWindow = 7 * 24 * time.Hour
	}
	if opts.StalenessWindow <= 0 {
		opts.StalenessWindow = 24 * time.Hour
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &RefreshDriver{
		users: users,
		sync:  syncer,
		opts:  opts,
		clock: clk,
		sleep: sleepCtx,
	}
}

// RunDailyRefresh selects eligible users and syncs them one at a time.
// A failure for one user is recorded in the report and does not stop the
// run; only the eligibility query itself can fail the whole job.
func (d *RefreshDriver) RunDailyRefresh(ctx context.Context) (model.RefreshJobReport, error) {
	started := d.clock.Now()
	report := model.RefreshJobReport{PerUserErrors: []string{}}

	if d.users == nil {
		return report, fmt.Errorf("user store unavailable")
	}

	now := d.clock.Now()
	eligible, err := d.users.ListRefreshEligible(ctx,
		now.Add(-d.opts.ActivityWindow),
		now.Add(-d.opts.StalenessWindow))
	if err != nil {
		return report, fmt.Errorf("list eligible users: %w", err)
	}
	report.UsersEligible = len(eligible)

	log.Printf("[RefreshDriver] starting run: %d eligible users", len(eligible))

	for i := range eligible {
		user := &eligible[i]

		outcome := d.sync.SyncUser(ctx, user)
		report.UsersProcessed++
		if outcome.Status != model.SyncStatusSuccess {
			report.PerUserErrors = append(report.PerUserErrors,
				fmt.Sprintf("%s: %s (%s)", user.SteamID, outcome.Status, outcome.Message))
		}

		if i < len(eligible)-1 && d.opts.UserDelay > 0 {
			if err := d.sleep(ctx, d.opts.UserDelay); err != nil {
				// canceled mid-run: report what was done
				report.DurationMS = d.clock.Now().Sub(started).Milliseconds()
				return report, err
			}
		}
	}

	report.DurationMS = d.clock.Now().Sub(started).Milliseconds()
	log.Printf("[RefreshDriver] run complete: %d/%d processed, %d errors, %dms",
		report.UsersProcessed, report.UsersEligible, len(report.PerUserErrors), report.DurationMS)
	return report, nil
}
