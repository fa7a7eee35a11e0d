package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache stores JSON-encodable values with an optional TTL and tags.
// Backend fetches for the catalog, regions and fee-per-kilo go through it.
type Cache interface {
	// Get decodes the value stored under key into dest. Returns false on a miss or expiry.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores value under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByTag drops every key assigned to tag.
	DeleteByTag(ctx context.Context, tag string) error
}

// Memory is a thread-safe in-process Cache backed by sync.Map.
type Memory struct {
	m sync.Map
	// tagIndex maps tag string to a *sync.Map set of keys
	tagIndex sync.Map
	now      func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// cacheItem holds an encoded value and its expiration time.
type cacheItem struct {
	Value     []byte
	ExpiresAt int64 // Unix nanoseconds; 0 means no expiration
}

func (c *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).UnixNano()
	}
	c.m.Store(key, cacheItem{Value: data, ExpiresAt: expiresAt})
	c.tagKey(key, tags)
	return nil
}

func (c *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := c.m.Load(key)
	if !ok {
		return false, nil
	}
	item := v.(cacheItem)
	if item.ExpiresAt > 0 && c.now().UnixNano() > item.ExpiresAt {
		c.m.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(item.Value, dest); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.m.Delete(key)
	}
	return nil
}

// tagKey assigns one or more tags to a cache key.
func (c *Memory) tagKey(key string, tags []string) {
	for _, tag := range tags {
		val, _ := c.tagIndex.LoadOrStore(tag, &sync.Map{})
		val.(*sync.Map).Store(key, struct{}{})
	}
}

// KeysByTag returns all keys assigned to a tag.
func (c *Memory) KeysByTag(tag string) []string {
	var keys []string
	if val, ok := c.tagIndex.Load(tag); ok {
		val.(*sync.Map).Range(func(key, _ interface{}) bool {
			keys = append(keys, key.(string))
			return true
		})
	}
	return keys
}

func (c *Memory) DeleteByTag(_ context.Context, tag string) error {
	if val, ok := c.tagIndex.LoadAndDelete(tag); ok {
		val.(*sync.Map).Range(func(key, _ interface{}) bool {
			c.m.Delete(key)
			return true
		})
	}
	return nil
}

// Key joins parts into a composite cache key.
func Key(parts ...interface{}) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprintf("%v", p)
	}
	return strings.Join(s, "|")
}
