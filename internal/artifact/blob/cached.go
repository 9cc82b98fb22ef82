package blob

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheConfig sizes the read-through cache.
type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int
	ListTTL        time.Duration
	ListMaxEntries int
}

// DefaultCacheConfig returns the cache sizing used when a field is unset.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 512,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 128,
	}
}

// MetricsSnapshot is a point-in-time copy of cache counters.
type MetricsSnapshot struct {
	BlobHits       uint64
	BlobMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type metrics struct {
	blobHits       atomic.Uint64
	blobMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

// CachedStore wraps an origin Store with write-through, read-through LRU caches.
type CachedStore struct {
	origin    Store
	blobCache *expirable.LRU[string, []byte]
	listCache *expirable.LRU[string, []string]
	metrics   metrics
}

// NewCachedStore wraps origin. Zero fields in cfg take their defaults.
func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = def.BlobTTL
	}
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = def.BlobMaxEntries
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}

	return &CachedStore{
		origin:    origin,
		blobCache: expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		listCache: expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, namespace, p string, content []byte) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, namespace, p, content); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}

	s.blobCache.Add(cacheKey(namespace, p), append([]byte(nil), content...))
	s.listCache.Remove(strings.TrimSpace(namespace))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, namespace, p string) ([]byte, error) {
	key := cacheKey(namespace, p)
	if raw, ok := s.blobCache.Get(key); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.blobMisses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, namespace, p)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	copied := append([]byte(nil), raw...)
	s.blobCache.Add(key, copied)
	return append([]byte(nil), copied...), nil
}

func (s *CachedStore) List(ctx context.Context, namespace string) ([]string, error) {
	namespace = strings.TrimSpace(namespace)
	if list, ok := s.listCache.Get(namespace); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), list...), nil
	}
	s.metrics.listMisses.Add(1)
	s.metrics.originReads.Add(1)

	list, err := s.origin.List(ctx, namespace)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	copied := append([]string(nil), list...)
	s.listCache.Add(namespace, copied)
	return append([]string(nil), copied...), nil
}

// Metrics returns the current counters.
func (s *CachedStore) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:       s.metrics.blobHits.Load(),
		BlobMisses:     s.metrics.blobMisses.Load(),
		ListHits:       s.metrics.listHits.Load(),
		ListMisses:     s.metrics.listMisses.Load(),
		OriginReads:    s.metrics.originReads.Load(),
		OriginWrites:   s.metrics.originWrites.Load(),
		OriginReadErr:  s.metrics.originReadErr.Load(),
		OriginWriteErr: s.metrics.originWriteErr.Load(),
	}
}

func (s *CachedStore) Close() error {
	s.blobCache.Purge()
	s.listCache.Purge()
	return s.origin.Close()
}

func cacheKey(namespace, p string) string {
	return strings.TrimSpace(namespace) + "/" + strings.TrimLeft(strings.TrimSpace(p), "/")
}
