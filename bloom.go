// bloom.go: Bloom-style membership filter guarding against cache
// penetration (spec §4.8).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
)

// bloomFilter is a classic k-hash Bloom filter sized from expected
// insertions and a target false-positive rate, using Kirsch-Mitzenmacher
// double hashing to derive k hash positions from two independent
// xxhash sums instead of computing k separate hash functions.
//
// Reads (MightContain, EstimatedFPRate, Stats) take the read lock;
// Rebuild takes the write lock and swaps the backing bitset wholesale,
// giving readers a consistent snapshot across a rebuild.
type bloomFilter struct {
	mu sync.RWMutex

	bits          *bitset.BitSet
	m             uint64 // bit array size
	k             uint   // number of hash functions
	insertions    uint64
	expectedCount int
	targetFPRate  float64
}

// newBloomFilter sizes a filter from the classic formulas:
//
//	m = ceil(-n*ln(p) / ln(2)^2)
//	k = round(m/n * ln(2))
func newBloomFilter(cfg FilterConfig) *bloomFilter {
	n := cfg.ExpectedInsertions
	p := cfg.FalsePositiveRate

	m := optimalBits(n, p)
	k := optimalHashCount(m, n)

	return &bloomFilter{
		bits:          bitset.New(uint(m)),
		m:             m,
		k:             k,
		expectedCount: n,
		targetFPRate:  p,
	}
}

func optimalBits(n int, p float64) uint64 {
	if n <= 0 {
		n = DefaultExpectedInsertions
	}
	if p <= 0 || p >= 1 {
		p = DefaultFalsePositiveRate
	}
	m := math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m < 64 {
		m = 64
	}
	return uint64(m)
}

func optimalHashCount(m uint64, n int) uint {
	if n <= 0 {
		n = DefaultExpectedInsertions
	}
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	if k > 16 {
		k = 16
	}
	return uint(k)
}

// positions computes the k bit positions for s using double hashing:
// h_i(s) = h1(s) + i*h2(s) mod m.
func (f *bloomFilter) positions(s string) []uint64 {
	h1 := xxhash.Sum64String(s)
	h2 := xxhash.Sum64String(s + "\x00salt")
	if h2 == 0 {
		h2 = 1
	}

	pos := make([]uint64, f.k)
	for i := uint(0); i < f.k; i++ {
		pos[i] = (h1 + uint64(i)*h2) % f.m
	}
	return pos
}

// MightContain reports whether s may have been inserted. False
// negatives never occur for keys inserted since the last Rebuild;
// false positives occur at approximately the configured rate.
func (f *bloomFilter) MightContain(s string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, p := range f.positions(s) {
		if !f.bits.Test(uint(p)) {
			return false
		}
	}
	return true
}

// Insert marks s as present. For already-present elements the bit
// array is unchanged, but the insertion count still increments.
func (f *bloomFilter) Insert(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.positions(s) {
		f.bits.Set(uint(p))
	}
	atomic.AddUint64(&f.insertions, 1)
}

// Rebuild atomically replaces the filter with a fresh one sized to the
// same parameters, re-inserting every key in keys. After Rebuild,
// ActualInsertions equals len(keys).
func (f *bloomFilter) Rebuild(keys []string) {
	fresh := &bloomFilter{
		bits:          bitset.New(uint(f.m)),
		m:             f.m,
		k:             f.k,
		expectedCount: f.expectedCount,
		targetFPRate:  f.targetFPRate,
	}
	for _, key := range keys {
		for _, p := range fresh.positions(key) {
			fresh.bits.Set(uint(p))
		}
	}
	fresh.insertions = uint64(len(keys)) // #nosec G115 - len is non-negative

	f.mu.Lock()
	defer f.mu.Unlock()
	f.bits = fresh.bits
	f.insertions = fresh.insertions
}

// EstimatedFPRate estimates the current false-positive rate from the
// insertion count n: p ≈ (1 - e^(-k*n/m))^k.
func (f *bloomFilter) EstimatedFPRate() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.estimatedFPRateLocked()
}

func (f *bloomFilter) estimatedFPRateLocked() float64 {
	n := float64(atomic.LoadUint64(&f.insertions))
	if n == 0 {
		return 0
	}
	exponent := -float64(f.k) * n / float64(f.m)
	return math.Pow(1-math.Exp(exponent), float64(f.k))
}

// Stats reports the filter's internal bookkeeping.
func (f *bloomFilter) Stats() FilterStats {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return FilterStats{
		ActualInsertions:   atomic.LoadUint64(&f.insertions),
		ExpectedInsertions: f.expectedCount,
		EstimatedFPRate:    f.estimatedFPRateLocked(),
	}
}
