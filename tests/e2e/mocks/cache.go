package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/godilite/evalreport/pkg/cache"
)

// TrackingCache is an in-process stand-in for the Redis cache that counts
// calls and honours expiry and lock ownership.
type TrackingCache struct {
	mu        sync.Mutex
	GetCalls  int
	SetCalls  int
	LockCalls int
	data      map[string]CacheEntry
	locks     map[string]time.Time
}

type CacheEntry struct {
	Value  []byte
	Expiry time.Time
}

func NewTrackingCache() *TrackingCache {
	return &TrackingCache{
		data:  make(map[string]CacheEntry),
		locks: make(map[string]time.Time),
	}
}

func (c *TrackingCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GetCalls++
	entry, exists := c.data[key]
	if !exists || time.Now().After(entry.Expiry) {
		return cache.ErrMiss
	}
	return json.Unmarshal(entry.Value, dest)
}

func (c *TrackingCache) Set(ctx context.Context, key string, value any, exp time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SetCalls++
	c.data[key] = CacheEntry{Value: data, Expiry: time.Now().Add(exp)}
	return nil
}

func (c *TrackingCache) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LockCalls++
	if until, held := c.locks[key]; held && time.Now().Before(until) {
		return nil, cache.ErrLocked
	}
	c.locks[key] = time.Now().Add(ttl)
	return func(context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.locks, key)
		return nil
	}, nil
}

// Hold marks key as locked by someone else.
func (c *TrackingCache) Hold(key string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locks[key] = time.Now().Add(ttl)
}

func (c *TrackingCache) Stats() (gets, sets, locks int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.GetCalls, c.SetCalls, c.LockCalls
}

func (c *TrackingCache) Close() error {
	return nil
}
