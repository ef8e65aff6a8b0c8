// farcache.go: Redis-backed shared far cache (L2), including the
// distributed single-flight lock and the TTL-jitter write path
// (spec §4.9, §6).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	goerrors "errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript performs an atomic compare-and-delete: the lock
// key is removed only if its current value matches the caller's token.
const releaseLockScript = `
if redis.call('get', KEYS[1]) == ARGV[1] then
	return redis.call('del', KEYS[1])
else
	return 0
end`

// redisFarCache implements FarCache over a go-redis/v9 client.
type redisFarCache struct {
	client *redis.Client
	logger Logger
}

// NewRedisFarCache builds a far-cache adapter over an already
// configured go-redis client. The caller owns the client's connection
// options (addr, auth, TLS, pool size); this adapter only issues
// commands.
func NewRedisFarCache(client *redis.Client, logger Logger) FarCache {
	if logger == nil {
		logger = NoOpLogger{}
	}
	return &redisFarCache{client: client, logger: logger}
}

// wireEntry is the JSON envelope an Entry is marshaled to before
// being written to Redis.
type wireEntry struct {
	Payload    []byte    `json:"payload,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Version    int64     `json:"version"`
	IsNegative bool      `json:"is_negative"`
	IsHot      bool      `json:"is_hot"`
}

func toWire(e *Entry) wireEntry {
	return wireEntry{
		Payload:    e.Payload,
		CreatedAt:  e.CreatedAt,
		ExpiresAt:  e.ExpiresAt,
		Version:    e.Version,
		IsNegative: e.IsNegative,
		IsHot:      e.IsHot,
	}
}

func fromWire(w wireEntry) *Entry {
	return &Entry{
		Payload:    w.Payload,
		CreatedAt:  w.CreatedAt,
		ExpiresAt:  w.ExpiresAt,
		Version:    w.Version,
		IsNegative: w.IsNegative,
		IsHot:      w.IsHot,
	}
}

func lockKeyFor(key string) string {
	return "lock:" + key
}

func (f *redisFarCache) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := f.client.Get(ctx, key).Bytes()
	if err != nil {
		if goerrors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, NewTypedError(ErrTypeL2Connection, "far_cache.get", err)
	}

	var w wireEntry
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, NewTypedError(ErrTypeSerialization, "far_cache.get", err)
	}
	return fromWire(w), nil
}

func (f *redisFarCache) Put(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	raw, err := json.Marshal(toWire(entry))
	if err != nil {
		return NewTypedError(ErrTypeSerialization, "far_cache.put", err)
	}
	if err := f.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return NewTypedError(ErrTypeL2Connection, "far_cache.put", err)
	}
	return nil
}

func (f *redisFarCache) Delete(ctx context.Context, key string) error {
	if err := f.client.Del(ctx, key).Err(); err != nil {
		return NewTypedError(ErrTypeL2Connection, "far_cache.delete", err)
	}
	return nil
}

// GetWithLock attempts to claim "lock:"+key via SET-if-absent with an
// expiry of lockTimeout, then returns the currently cached entry (if
// any) regardless of the acquire outcome (spec §4.9/§6). The whole
// round trip is also bounded by lockTimeout.
func (f *redisFarCache) GetWithLock(ctx context.Context, key string, lockTimeout time.Duration) (LockResult, error) {
	if lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lockTimeout)
		defer cancel()
	}
	token := uuid.NewString()

	acquired, err := f.client.SetNX(ctx, lockKeyFor(key), token, lockTimeout).Result()
	if err != nil {
		return LockResult{}, NewTypedError(ErrTypeL2Connection, "far_cache.get_with_lock", err)
	}

	current, err := f.Get(ctx, key)
	if err != nil {
		return LockResult{}, err
	}

	result := LockResult{Value: current, Acquired: acquired}
	if acquired {
		result.Token = token
	}
	return result, nil
}

// ReleaseLock performs an atomic compare-and-delete via a Lua script:
// the lock is removed only if its value still equals token, so a
// caller whose lock already expired and was reclaimed by someone else
// cannot release the new holder's lock.
func (f *redisFarCache) ReleaseLock(ctx context.Context, key string, token string) error {
	err := f.client.Eval(ctx, releaseLockScript, []string{lockKeyFor(key)}, token).Err()
	if err != nil && !goerrors.Is(err, redis.Nil) {
		return NewTypedError(ErrTypeL2Connection, "far_cache.release_lock", err)
	}
	return nil
}

// PutWithRandomTTL writes with a jittered effective TTL.
//
// Source-faithful anomaly (spec §9): jitterPct is clamped into [10,30]
// as documented, but the clamped value is then discarded. The actual
// jitter fraction u is drawn independently, uniformly from [0.10,
// 0.30], with an independent fair-coin sign, floored at 1 second. This
// mirrors the original RedisDistributedCache's putWithRandomTtl
// exactly; it is a known discrepancy between the documented parameter
// and the implemented behavior, not a bug to silently fix here.
func (f *redisFarCache) PutWithRandomTTL(ctx context.Context, key string, entry *Entry, baseTTL time.Duration, jitterPct int) error {
	return f.Put(ctx, key, entry, randomizedTTL(baseTTL, jitterPct))
}

// randomizedTTL computes the jittered effective TTL for PutWithRandomTTL,
// factored out so the (deliberately preserved) jitter anomaly is
// directly testable without a Redis connection.
func randomizedTTL(baseTTL time.Duration, jitterPct int) time.Duration {
	if jitterPct < 10 {
		jitterPct = 10
	}
	if jitterPct > 30 {
		jitterPct = 30
	}
	_ = jitterPct // clamped per spec, then discarded; see doc comment above

	u := 0.10 + rand.Float64()*0.20 // #nosec G404 - jitter does not need CSPRNG
	sign := 1.0
	if rand.Intn(2) == 0 { // #nosec G404 - jitter does not need CSPRNG
		sign = -1.0
	}

	effective := time.Duration(float64(baseTTL) * (1 + sign*u))
	if effective < time.Second {
		effective = time.Second
	}
	return effective
}

func (f *redisFarCache) Close() error {
	return f.client.Close()
}
