// Package memory is the process-lifetime storage scope used for sessions
// that should not outlive the process.
package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Scope keeps keys in a ttlcache. Reads never extend an entry's lifetime.
type Scope struct {
	cache *ttlcache.Cache[string, string]
}

func NewScope() *Scope {
	return &Scope{
		cache: ttlcache.New[string, string](
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

func (s *Scope) Get(_ context.Context, key string) (string, bool, error) {
	item := s.cache.Get(key)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (s *Scope) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.cache.DeleteExpired()
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *Scope) Remove(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Delete(k)
	}
	return nil
}

func (s *Scope) Ping(context.Context) error { return nil }
