package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const reportCacheKey = "accounts:report"

// RepositoryPort is what the service needs from persistence.
type RepositoryPort interface {
	ListInvoiceSummaries(ctx context.Context) ([]InvoiceSummary, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpsertAccount(ctx context.Context, a Account) error
}

// Service rebuilds and reports account snapshots. The report side caches in
// redis; a cache failure degrades to a direct read, never an error.
type Service struct {
	repo     RepositoryPort
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService constructs a Service. cache may be nil to disable caching.
func NewService(repo RepositoryPort, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Rebuild recomputes every account snapshot from bills and payments and
// upserts the result. Accounts no longer matching any invoice are zeroed.
// The rebuild is idempotent; rerunning it without data changes rewrites
// identical rows. Returns the number of snapshots written.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	invoices, err := s.repo.ListInvoiceSummaries(ctx)
	if err != nil {
		return 0, err
	}
	existing, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	snapshots := BuildSnapshots(invoices, existing)
	for _, snap := range snapshots {
		if err := s.repo.UpsertAccount(ctx, snap); err != nil {
			return 0, err
		}
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "account rollup complete",
		"invoices", len(invoices), "accounts", len(snapshots))
	return len(snapshots), nil
}

// Report returns all account snapshots, served from cache when warm.
func (s *Service) Report(ctx context.Context) ([]Account, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, reportCacheKey).Bytes()
		if err == nil {
			var cached []Account
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "accounts cache read failed", "error", err)
		}
	}

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(accounts); err == nil {
			if err := s.cache.Set(ctx, reportCacheKey, raw, s.cacheTTL).Err(); err != nil {
				s.logger.WarnContext(ctx, "accounts cache write failed", "error", err)
			}
		}
	}
	return accounts, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, reportCacheKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "accounts cache invalidation failed", "error", err)
	}
}
