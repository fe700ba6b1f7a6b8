package profile

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
)

// CachedService memoises settings per instance for a fixed TTL.
type CachedService struct {
	next  Service
	cache *gocache.Cache
}

var _ Service = (*CachedService)(nil)

// NewCachedService wraps next with an in-memory cache.
func NewCachedService(next Service, ttl time.Duration) *CachedService {
	return &CachedService{next: next, cache: gocache.New(ttl, time.Minute)}
}

func (s *CachedService) GetSupportedScaApproaches(ctx context.Context, instanceID string) ([]model.ScaApproach, error) {
	settings, err := s.GetAspspSettings(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return settings.SupportedScaApproaches, nil
}

// GetAspspSettings returns a copy of the cached settings. Errors are not cached.
func (s *CachedService) GetAspspSettings(ctx context.Context, instanceID string) (*AspspSettings, error) {
	if v, ok := s.cache.Get(cacheKey(instanceID)); ok {
		return v.(*AspspSettings).clone(), nil
	}

	settings, err := s.next.GetAspspSettings(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(cacheKey(instanceID), settings)
	return settings.clone(), nil
}

// Invalidate drops every cached profile.
func (s *CachedService) Invalidate() {
	s.cache.Flush()
}

func cacheKey(instanceID string) string {
	return "aspsp-settings:" + instanceID
}
