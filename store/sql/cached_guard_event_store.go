package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-tradeguard/core"
)

const guardEventCacheKeyPrefix = "go-tradeguard::guard_events::v1"

// CachedGuardEventStore caches List pages of a base store. Every write moves
// the store to a new key generation, so pages cached before the write are
// never served again.
type CachedGuardEventStore struct {
	base       core.GuardEventStore
	cache      repositorycache.CacheService
	generation atomic.Uint64
}

func NewCachedGuardEventStore(
	base core.GuardEventStore,
	cacheService repositorycache.CacheService,
) (*CachedGuardEventStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base guard event store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: guard event cache service is required")
	}
	return &CachedGuardEventStore{base: base, cache: cacheService}, nil
}

// GuardEventCacheKey returns the cache key of a filtered page:
// go-tradeguard::guard_events::v1::<generation>::<operation>::<kind>::<token>::<from>::<to>::<page>::<per_page>
// with each filter segment URL-path escaped.
func GuardEventCacheKey(generation uint64, filter core.GuardEventFilter) string {
	page, perPage, _ := filter.Pagination()
	segments := []string{
		strings.TrimSpace(filter.Operation),
		strings.TrimSpace(string(filter.Kind)),
		canonicalToken(filter.Token),
		formatKeyTime(filter.From),
		formatKeyTime(filter.To),
		strconv.Itoa(page),
		strconv.Itoa(perPage),
	}
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	head := []string{guardEventCacheKeyPrefix, strconv.FormatUint(generation, 10)}
	return strings.Join(append(head, segments...), "::")
}

func (s *CachedGuardEventStore) Record(ctx context.Context, event core.GuardEvent) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached guard event store is not configured")
	}
	if err := s.base.Record(ctx, event); err != nil {
		return err
	}
	s.generation.Add(1)
	return nil
}

func (s *CachedGuardEventStore) List(ctx context.Context, filter core.GuardEventFilter) (core.GuardEventPage, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.GuardEventPage{}, fmt.Errorf("sqlstore: cached guard event store is not configured")
	}
	cacheKey := GuardEventCacheKey(s.generation.Load(), filter)
	page, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.GuardEventPage, error) {
		fetched, fetchErr := s.base.List(ctx, filter)
		if fetchErr != nil {
			return core.GuardEventPage{}, fetchErr
		}
		return cloneGuardEventPage(fetched), nil
	})
	if err != nil {
		return core.GuardEventPage{}, err
	}
	return cloneGuardEventPage(page), nil
}

// Invalidate drops the cached entry of one filter in the current generation.
func (s *CachedGuardEventStore) Invalidate(ctx context.Context, filter core.GuardEventFilter) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached guard event store is not configured")
	}
	return s.cache.Delete(ctx, GuardEventCacheKey(s.generation.Load(), filter))
}

func cloneGuardEventPage(page core.GuardEventPage) core.GuardEventPage {
	cloned := page
	cloned.Items = append([]core.GuardEvent{}, page.Items...)
	return cloned
}

func formatKeyTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.UTC().Format(time.RFC3339Nano)
}
