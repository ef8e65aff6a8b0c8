// generic.go: generic key/value facade over the string/[]byte core
// (spec §9 "Generic key/value").
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Cache is a generic facade over Facade, parameterizing key and value
// types. Keys are serialized to strings via keyToString; values are
// JSON-marshaled to the payload bytes the core operates on.
type Cache[K comparable, V any] struct {
	inner *Facade
}

// NewCache wraps an existing Facade with generic key/value types.
func NewCache[K comparable, V any](inner *Facade) *Cache[K, V] {
	return &Cache[K, V]{inner: inner}
}

// keyToString renders k as the canonical string form used for filter
// membership, hot-key tracking, and lock naming. A type switch avoids
// allocating for the common scalar key types; everything else falls
// back to fmt.Sprintf, which is injective enough for the comparable
// struct key types this library expects. Callers with keys that don't
// stringify uniquely should wrap Facade directly instead of using
// Cache[K, V].
func keyToString[K comparable](k K) string {
	switch v := any(k).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprintf("%v", k)
	}
}

// Get returns the cached value for k, the boolean reporting presence.
func (c *Cache[K, V]) Get(ctx context.Context, k K) (V, bool, error) {
	var zero V

	payload, found, err := c.inner.Get(ctx, keyToString(k))
	if err != nil || !found {
		return zero, false, err
	}

	var v V
	if err := json.Unmarshal(payload, &v); err != nil {
		return zero, false, NewTypedError(ErrTypeSerialization, "cerberus.cache.get", err)
	}
	return v, true, nil
}

// Put writes v under k with the given ttl (0 uses the far-cache default).
func (c *Cache[K, V]) Put(ctx context.Context, k K, v V, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return NewTypedError(ErrTypeSerialization, "cerberus.cache.put", err)
	}
	return c.inner.Put(ctx, keyToString(k), payload, ttl)
}

// Delete removes k from both tiers.
func (c *Cache[K, V]) Delete(ctx context.Context, k K) error {
	return c.inner.Delete(ctx, keyToString(k))
}

// Invalidate performs delayed double delete for k.
func (c *Cache[K, V]) Invalidate(ctx context.Context, k K) error {
	return c.inner.Invalidate(ctx, keyToString(k))
}

// MultiGet is a serial composition of Get; absent keys are omitted.
func (c *Cache[K, V]) MultiGet(ctx context.Context, keys []K) map[K]V {
	results := make(map[K]V, len(keys))
	for _, k := range keys {
		if v, ok, err := c.Get(ctx, k); err == nil && ok {
			results[k] = v
		}
	}
	return results
}

// MultiPut is a serial composition of Put.
func (c *Cache[K, V]) MultiPut(ctx context.Context, entries map[K]V, ttl time.Duration) error {
	for k, v := range entries {
		if err := c.Put(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying Facade's resources.
func (c *Cache[K, V]) Close() error {
	return c.inner.Close()
}
