// nearcache.go: default near-cache adapter over the W-TinyLFU engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import "time"

// wtinyLFUNearCache adapts wtinyLFUEngine to the NearCache collaborator
// contract, storing *Entry values.
//
// Preserved anomaly (spec §9): the per-call ttl argument to Put is
// ignored; the engine always applies its configured default TTL. This
// mirrors the teacher's own near-cache behavior and is intentional,
// not a bug to fix.
type wtinyLFUNearCache struct {
	engine *wtinyLFUEngine
}

// NewNearCache builds the default near-cache adapter from a Near config
// group.
func NewNearCache(cfg NearConfig) NearCache {
	return &wtinyLFUNearCache{
		engine: newWTinyLFUEngine(engineConfig{
			MaxSize:      cfg.MaxSize,
			WindowRatio:  defaultWindowRatio,
			CounterBits:  defaultCounterBits,
			TTLNanos:     cfg.DefaultTTL.Nanoseconds(),
			TimeProvider: &systemTimeProvider{},
		}),
	}
}

func (n *wtinyLFUNearCache) Get(key string) (*Entry, bool) {
	v, ok := n.engine.get(key)
	if !ok {
		return nil, false
	}
	e, ok := v.(*Entry)
	if !ok {
		return nil, false
	}
	return e, true
}

// Put ignores ttl; see the type doc comment.
func (n *wtinyLFUNearCache) Put(key string, entry *Entry, ttl time.Duration) {
	n.engine.set(key, entry, 0)
}

func (n *wtinyLFUNearCache) Delete(key string) bool {
	return n.engine.delete(key)
}

func (n *wtinyLFUNearCache) Clear() {
	n.engine.clear()
}

func (n *wtinyLFUNearCache) Size() int {
	return n.engine.len()
}

func (n *wtinyLFUNearCache) Stats() NearCacheStats {
	return n.engine.stats()
}
