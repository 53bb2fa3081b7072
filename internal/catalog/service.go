// Package catalog is the cache-aside glue between the TTL store and the
// scraper: check the cache, on miss fetch, write the result back with an
// operation-specific TTL. The cache is an optimization layer only — any
// cache failure costs a refetch, never correctness.
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/calebhart/meshdocs/internal/cache"
	"github.com/calebhart/meshdocs/internal/web"
)

// Per-operation TTLs. Component detail and token pages change less often
// than the index.
const (
	ListTTL   = 1 * time.Hour
	DetailTTL = 2 * time.Hour
	TokensTTL = 2 * time.Hour
)

const (
	listKey      = "mesh_components_list"
	detailPrefix = "mesh_component_"
	tokensPrefix = "mesh_design_tokens_"
)

// Service serves the design-system lookups. One instance is built at
// process start and handed to every consumer.
type Service struct {
	store   cache.Store
	scraper *web.Scraper
	sf      singleflight.Group
	log     *zap.Logger
}

func NewService(store cache.Store, scraper *web.Scraper, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, scraper: scraper, log: log}
}

// ListComponents returns the component name list, cached for ListTTL.
// The result is always non-empty.
func (s *Service) ListComponents(ctx context.Context) ([]string, error) {
	var names []string
	if s.cached(listKey, &names) {
		return names, nil
	}
	v, err, _ := s.sf.Do(listKey, func() (any, error) {
		fetched := s.scraper.ListComponents(ctx)
		s.put(listKey, fetched, ListTTL)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// ComponentDetails returns the detail record for name, cached for
// DetailTTL. Not-found results are not cached.
func (s *Service) ComponentDetails(ctx context.Context, name string) (*web.ComponentDetail, error) {
	key := detailPrefix + strings.ToLower(strings.TrimSpace(name))
	var detail web.ComponentDetail
	if s.cached(key, &detail) {
		return &detail, nil
	}
	v, err, _ := s.sf.Do(key, func() (any, error) {
		fetched, err := s.scraper.ComponentDetails(ctx, name)
		if err != nil {
			return nil, err
		}
		s.put(key, fetched, DetailTTL)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*web.ComponentDetail), nil
}

// DesignTokens returns the token set for kind ("colors", "typography",
// "spacing" or "all"; empty means all), cached for TokensTTL.
func (s *Service) DesignTokens(ctx context.Context, kind string) (*web.TokenSet, error) {
	if kind == "" {
		kind = web.KindAll
	}
	key := tokensPrefix + kind
	var tokens web.TokenSet
	if s.cached(key, &tokens) {
		return &tokens, nil
	}
	v, err, _ := s.sf.Do(key, func() (any, error) {
		fetched := s.scraper.DesignTokens(ctx, kind)
		s.put(key, fetched, TokensTTL)
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*web.TokenSet), nil
}

// SweepCache removes expired entries and reports how many were removed.
func (s *Service) SweepCache() (int, error) {
	return s.store.ClearExpired()
}

// CacheStats reports entry counts for the backing store.
func (s *Service) CacheStats() (cache.Stats, error) {
	return s.store.Stats()
}

// InvalidateComponent drops the cached detail record for name.
func (s *Service) InvalidateComponent(name string) error {
	return s.store.Delete(detailPrefix + strings.ToLower(strings.TrimSpace(name)))
}

// cached loads key into out and reports whether a usable value was found.
// Every store or decode error is a miss, never a failure.
func (s *Service) cached(key string, out any) bool {
	buf, err := s.store.Get(key)
	if err != nil {
		if !cache.IsMiss(err) {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(buf, out); err != nil {
		s.log.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	s.log.Debug("cache hit", zap.String("key", key))
	return true
}

// put writes a fetched value back, best-effort.
func (s *Service) put(key string, value any, ttl time.Duration) {
	buf, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Put(key, buf, ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
