package notify

import (
	"context"
	"time"

	"github.com/damoang/angple-cms/internal/domain"
	"github.com/damoang/angple-cms/pkg/cache"
	"github.com/damoang/angple-cms/pkg/logger"
)

// HistoryCache stores revision history pages in the redis cache
type HistoryCache struct {
	cache cache.Service
	ttl   time.Duration
}

// NewHistoryCache creates a HistoryCache; ttl <= 0 uses cache.TTLHistory
func NewHistoryCache(c cache.Service, ttl time.Duration) *HistoryCache {
	return &HistoryCache{cache: c, ttl: ttl}
}

func (h *HistoryCache) GetHistory(ctx context.Context, subject domain.Subject, limit int) ([]*domain.Revision, bool) {
	if !h.cache.IsAvailable() {
		return nil, false
	}
	var revs []*domain.Revision
	if err := h.cache.GetHistory(ctx, subject.String(), limit, &revs); err != nil {
		return nil, false
	}
	return revs, true
}

func (h *HistoryCache) SetHistory(ctx context.Context, subject domain.Subject, limit int, revs []*domain.Revision) {
	if !h.cache.IsAvailable() {
		return
	}
	if err := h.cache.SetHistory(ctx, subject.String(), limit, revs, h.ttl); err != nil {
		logger.GetLogger().Warn().Err(err).Str("subject", subject.String()).Msg("history cache write failed")
	}
}

func (h *HistoryCache) InvalidateHistory(ctx context.Context, subject domain.Subject) {
	if !h.cache.IsAvailable() {
		return
	}
	if err := h.cache.InvalidateHistory(ctx, subject.String()); err != nil {
		logger.GetLogger().Warn().Err(err).Str("subject", subject.String()).Msg("history cache invalidation failed")
	}
}

// CacheInvalidator drops cached history whenever a subject gets a new revision
type CacheInvalidator struct {
	cache cache.Service
}

// NewCacheInvalidator creates a CacheInvalidator
func NewCacheInvalidator(c cache.Service) *CacheInvalidator {
	return &CacheInvalidator{cache: c}
}

func (i *CacheInvalidator) OnRevisionCreated(ctx context.Context, rev *domain.Revision) error {
	return i.cache.InvalidateHistory(ctx, rev.Subject().String())
}
