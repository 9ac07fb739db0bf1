package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"skinvault-api/internal/model"
	"skinvault-api/internal/repository"
	"skinvault-api/internal/steamapi"
	"skinvault-api/pkg/clock"
)

// InventoryPager fetches one page of a user's external inventory.
// Satisfied by *steamapi.Client; tests substitute a fake.
type InventoryPager interface {
	FetchPage(ctx context.Context, steamID, startAssetID string, count int) (*steamapi.Page, error)
}

// SyncOptions holds the sync service tunables.
type SyncOptions struct {
	PageSize            int
	PageDelay           time.Duration
	UserDelay           time.Duration
	RateLimitCooldown   time.Duration
	MaxRateLimitRetries int
}

// SyncService paginates a user's external inventory, merges asset and
// description records, and persists the resulting snapshot.
//
// Per user the attempt moves through an explicit state machine:
// Fetching(page) -> merge -> Fetching(next) on success, -> wait -> retry
// the SAME page on rate limiting, -> terminal on a private inventory or
// any other upstream failure. Pagination ends on a short page.
type SyncService struct {
	pager     InventoryPager
	inventory repository.InventoryRepository
	users     repository.UserRepository
	audit     repository.SyncAuditRepository
	opts      SyncOptions
	clock     clock.Clock

	// sleep is injected so tests do not wait out real cooldowns.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSyncService creates a sync service. users and audit may be nil when
// no account bookkeeping is wanted (tests, one-off tools).
func NewSyncService(pager InventoryPager, inventory repository.InventoryRepository, users repository.UserRepository, audit repository.SyncAuditRepository, opts SyncOptions, clk clock.Clock) *SyncService {
	if opts.PageSize <= 0 {
		opts.PageSize = 2000
	}
	if opts.RateLimitCooldown <= 0 {
		opts.RateLimitCooldown = 60 * time.Second
	}
	if opts.MaxRateLimitRetries <= 0 {
		opts.MaxRateLimitRetries = 3
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &SyncService{
		pager:     pager,
		inventory: inventory,
		users:     users,
		audit:     audit,
		opts:      opts,
		clock:     clk,
		sleep:     sleepCtx,
	}
}

// UserDelay is the spacing callers apply between different users' syncs.
func (s *SyncService) UserDelay() time.Duration { return s.opts.UserDelay }

// SyncUser runs one full sync attempt for the user and returns a
// terminal outcome. It never panics past sibling work: every failure
// mode folds into the outcome.
func (s *SyncService) SyncUser(ctx context.Context, user *model.UserAccount) model.SyncOutcome {
	started := s.clock.Now()
	outcome := s.fetchAll(ctx, user.SteamID)

	s.record(ctx, user, outcome, s.clock.Now().Sub(started))
	return outcome
}

// fetchAll drives pagination for one Steam ID and persists the snapshot
// on success.
func (s *SyncService) fetchAll(ctx context.Context, steamID string) model.SyncOutcome {
	var (
		assets       []model.InventoryAsset
		descriptions = make(map[descKey]model.AssetDescription)
		cursor       string
		retries      int
	)

	for {
		page, err := s.pager.FetchPage(ctx, steamID, cursor, s.opts.PageSize)
		if err != nil {
			var rl *steamapi.RateLimitError
			switch {
			case errors.As(err, &rl):
				if retries >= s.opts.MaxRateLimitRetries {
					return model.SyncOutcome{
						Status:     model.SyncStatusRateLimited,
						RetryAfter: s.cooldown(rl),
						Message:    fmt.Sprintf("still rate limited after %d retries", retries),
					}
				}
				retries++
				log.Printf("[SyncService] rate limited for %s, waiting %s (retry %d/%d)",
					steamID, s.cooldown(rl), retries, s.opts.MaxRateLimitRetries)
				if err := s.sleep(ctx, s.cooldown(rl)); err != nil {
					return model.SyncOutcome{Status: model.SyncStatusError, Message: err.Error()}
				}
				// retry the identical page: cursor unchanged
				continue

			case errors.Is(err, steamapi.ErrPrivateInventory):
				return model.SyncOutcome{
					Status:  model.SyncStatusPrivate,
					Message: "inventory is private; make it public and sync again",
				}

			default:
				var ue *steamapi.UpstreamError
				code := 0
				if errors.As(err, &ue) {
					code = ue.StatusCode
				}
				return model.SyncOutcome{
					Status:  model.SyncStatusError,
					Code:    code,
					Message: err.Error(),
				}
			}
		}
		retries = 0

		assets = append(assets, page.Assets...)
		for _, d := range page.Descriptions {
			descriptions[descKey{d.ClassID, d.InstanceID}] = d
		}

		// Short page signals end-of-data; there is no explicit cursor
		// sentinel to rely on.
		if len(page.Assets) < s.opts.PageSize {
			break
		}
		cursor = page.LastAssetID

		if s.opts.PageDelay > 0 {
			if err := s.sleep(ctx, s.opts.PageDelay); err != nil {
				return model.SyncOutcome{Status: model.SyncStatusError, Message: err.Error()}
			}
		}
	}

	snapshot := mergeSnapshot(steamID, assets, descriptions, s.clock.Now())
	if err := s.inventory.UpsertSnapshot(ctx, snapshot); err != nil {
		return model.SyncOutcome{
			Status:  model.SyncStatusError,
			Message: fmt.Sprintf("persist snapshot: %v", err),
		}
	}

	return model.SyncOutcome{
		Status:    model.SyncStatusSuccess,
		ItemCount: len(snapshot.Items),
	}
}

func (s *SyncService) cooldown(rl *steamapi.RateLimitError) time.Duration {
	if rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return s.opts.RateLimitCooldown
}

// record updates the user's sync bookkeeping and writes an audit row.
// Bookkeeping failures are logged, not propagated: the outcome already
// happened.
func (s *SyncService) record(ctx context.Context, user *model.UserAccount, outcome model.SyncOutcome, took time.Duration) {
	if s.users != nil && user.ID != 0 {
		if err := s.users.RecordSyncResult(ctx, user.ID, outcome.Status, s.clock.Now()); err != nil {
			log.Printf("[SyncService] record sync result for %s: %v", user.SteamID, err)
		}
	}
	if s.audit != nil {
		entry := model.SyncAuditEntry{
			UserID:     user.ID,
			SteamID:    user.SteamID,
			Status:     outcome.Status,
			ItemCount:  outcome.ItemCount,
			Message:    outcome.Message,
			DurationMS: took.Milliseconds(),
		}
		if err := s.audit.Insert(ctx, entry); err != nil {
			log.Printf("[SyncService] audit insert for %s: %v", user.SteamID, err)
		}
	}
}

type descKey struct {
	classID    string
	instanceID string
}

// mergeSnapshot joins assets to descriptions by (classID, instanceID).
// Assets without a matching description keep their place in the item
// list with empty metadata; they count, they just have no icon or name.
func mergeSnapshot(steamID string, assets []model.InventoryAsset, descriptions map[descKey]model.AssetDescription, at time.Time) model.InventorySnapshot {
	items := make([]model.InventoryItem, 0, len(assets))
	for _, a := range assets {
		item := model.InventoryItem{
			AssetID:    a.AssetID,
			ClassID:    a.ClassID,
			InstanceID: a.InstanceID,
		}
		if d, ok := descriptions[descKey{a.ClassID, a.InstanceID}]; ok {
			item.IconURL = d.IconURL
			item.MarketHashName = d.MarketHashName
		}
		items = append(items, item)
	}
	return model.InventorySnapshot{
		SteamID:  steamID,
		Items:    items,
		SyncedAt: at,
	}
}

// sleepCtx waits for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
