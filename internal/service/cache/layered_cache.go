package cache

import (
	"context"
	"time"
)

// LayeredCache puts a short-lived in-process L1 in front of a shared L2
// (Redis in production). Writes go through to L2 first.
type LayeredCache struct {
	l1    *MemoryCache
	l2    BytesCache
	l1TTL time.Duration
}

// NewLayeredCache keeps L1 entries for at most l1TTL so that evictions made
// by other replicas in L2 are picked up within that window.
func NewLayeredCache(l2 BytesCache, l1TTL time.Duration) *LayeredCache {
	if l1TTL <= 0 {
		l1TTL = 30 * time.Second
	}
	return &LayeredCache{l1: NewMemoryCache(l1TTL), l2: l2, l1TTL: l1TTL}
}

func (lc *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := lc.l1.GetBytes(ctx, key); ok {
		return b, true, nil
	}
	b, ok, err := lc.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = lc.l1.SetBytes(ctx, key, b, lc.l1TTL)
	return b, true, nil
}

func (lc *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := lc.l2.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	l1 := lc.l1TTL
	if ttl > 0 && ttl < l1 {
		l1 = ttl
	}
	return lc.l1.SetBytes(ctx, key, value, l1)
}

// Ping checks L2 when it supports health checks.
func (lc *LayeredCache) Ping(ctx context.Context) error {
	if p, ok := lc.l2.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (lc *LayeredCache) DeletePrefix(ctx context.Context, prefix string) error {
	_ = lc.l1.DeletePrefix(ctx, prefix)
	return lc.l2.DeletePrefix(ctx, prefix)
}
