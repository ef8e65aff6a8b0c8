// doc.go: package documentation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package cerberus provides a two-tier (near + far) read-through and
// write-through cache facade guarding a slow authoritative data source.
//
// # Overview
//
// Cerberus composes a process-local near-cache (bounded, TTL-expiring,
// lock-free W-TinyLFU) with a shared far-cache (networked, over Redis)
// behind a single facade that implements four protections against
// mass-miss pathologies:
//
//   - Penetration: queries for keys that never existed are rejected by
//     an approximate-membership filter before either tier is consulted.
//   - Avalanche: far-cache writes get a randomized TTL jitter so that
//     bulk-loaded keys do not expire in lockstep.
//   - Breakdown: concurrent misses on a single hot key are collapsed
//     into one data-source call via a distributed lock.
//   - Downstream failure: a circuit breaker short-circuits the
//     data-source call once it starts failing consistently.
//
// # Quick start
//
//	cfg := cerberus.DefaultConfig()
//	far := cerberus.NewRedisFarCache(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), nil)
//	c, err := cerberus.New(cfg, dataLoader, nil, far, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	value, ok, err := c.Get(context.Background(), "user:1")
//
// # Generic facade
//
// Cache[K, V] wraps the string-keyed Facade for type-safe callers:
//
//	typed := cerberus.NewCache[int, User](facade)
//	user, ok, err := typed.Get(ctx, 1)
//
// # Collaborators
//
// The near-cache engine, far-cache transport and data loader are
// external collaborators with the contracts documented on NearCache,
// FarCache and DataLoader. Concrete defaults are shipped (an in-package
// W-TinyLFU near cache and a Redis-backed far cache) but callers may
// supply their own implementations at construction.
package cerberus
