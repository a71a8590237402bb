// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"context"
	"sync"

	"github.com/jcodagnone/rideloc/location"
)

type cached struct {
	value string
	ok    bool
}

// Cache memoizes lookups of an underlying store until it announces a change.
// Stores that cannot announce changes are read through on every call.
type Cache struct {
	store location.CredentialStore

	mu          sync.Mutex
	values      map[location.CredentialKey]cached
	epoch       uint64
	unsubscribe func()
}

// NewCache wraps store.
func NewCache(store location.CredentialStore) *Cache {
	c := &Cache{store: store, values: map[location.CredentialKey]cached{}}

	if n, ok := store.(location.CredentialNotifier); ok {
		c.unsubscribe = n.Subscribe(c.Invalidate)
	}

	return c
}

func (c *Cache) Get(ctx context.Context, key location.CredentialKey) (string, bool, error) {
	if c.unsubscribe == nil {
		return c.store.Get(ctx, key)
	}

	c.mu.Lock()
	v, hit := c.values[key]
	epoch := c.epoch
	c.mu.Unlock()

	if hit {
		return v.value, v.ok, nil
	}

	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return "", false, err
	}

	// An invalidation during the read makes the value stale already.
	c.mu.Lock()
	if c.epoch == epoch {
		c.values[key] = cached{value: value, ok: ok}
	}
	c.mu.Unlock()

	return value, ok, nil
}

// Invalidate drops the cached value for key.
func (c *Cache) Invalidate(key location.CredentialKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	delete(c.values, key)
}

// Close detaches the cache from the store.
func (c *Cache) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}
