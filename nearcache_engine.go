// nearcache_engine.go: lock-free W-TinyLFU storage engine backing the
// default near-cache adapter (nearcache.go).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cerberus

import (
	"sync/atomic"
	"unsafe"
)

// wtinyLFUEntry represents one slot with atomic access.
type wtinyLFUEntry struct {
	key      string
	value    interface{}
	keyHash  uint64
	expireAt int64 // expiration timestamp in nanoseconds (0 = no expiration)
	valid    int32 // atomic flag: 0=empty, 1=valid, 2=deleted
}

// wtinyLFUEngine is a lock-free W-TinyLFU cache over a fixed table,
// storing arbitrary values keyed by string. The near-cache adapter
// (nearcache.go) stores *Entry values here.
type wtinyLFUEngine struct {
	maxSize      int32
	tableMask    uint32
	ttlNanos     int64
	timeProvider TimeProvider

	entries []wtinyLFUEntry
	sketch  *admissionSketch

	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
	size      int64
}

const (
	engineEntryEmpty   = 0
	engineEntryValid   = 1
	engineEntryDeleted = 2
)

// engineConfig tunes the underlying W-TinyLFU table. Only MaxSize and
// TTLNanos come from the public Near config group. WindowRatio and
// CounterBits are accepted but not read: the engine keeps no separate
// window segment and its sketch always uses 4-bit counters.
type engineConfig struct {
	MaxSize      int
	WindowRatio  float64
	CounterBits  int
	TTLNanos     int64
	TimeProvider TimeProvider
}

func newWTinyLFUEngine(cfg engineConfig) *wtinyLFUEngine {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultNearMaxSize
	}
	if cfg.WindowRatio <= 0 {
		cfg.WindowRatio = defaultWindowRatio
	}
	if cfg.TimeProvider == nil {
		cfg.TimeProvider = &systemTimeProvider{}
	}

	tableSize := nextPowerOf2(cfg.MaxSize * 2)
	if tableSize < 16 {
		tableSize = 16
	}

	return &wtinyLFUEngine{
		maxSize:      int32(cfg.MaxSize),    // #nosec G115 - MaxSize is validated and bounded
		tableMask:    uint32(tableSize - 1), // #nosec G115 - tableSize is power of 2
		ttlNanos:     cfg.TTLNanos,
		timeProvider: cfg.TimeProvider,
		entries:      make([]wtinyLFUEntry, tableSize),
		sketch:       newAdmissionSketch(cfg.MaxSize),
	}
}

// set stores a key-value pair using lock-free operations. The ttl
// argument, if non-zero, overrides the engine's configured TTL for
// this entry.
func (c *wtinyLFUEngine) set(key string, value interface{}, ttl int64) bool {
	keyHash := keyFingerprint(key)
	c.sketch.touch(keyHash)

	effectiveTTL := c.ttlNanos
	if ttl > 0 {
		effectiveTTL = ttl
	}

	var expireAt int64
	if effectiveTTL > 0 {
		expireAt = c.timeProvider.Now() + effectiveTTL
	}

	startIdx := keyHash & uint64(c.tableMask)

	for i := uint32(0); i <= c.tableMask; i++ {
		idx := (startIdx + uint64(i)) & uint64(c.tableMask)
		e := &c.entries[idx]

		state := atomic.LoadInt32(&e.valid)

		if state == engineEntryEmpty || state == engineEntryDeleted {
			if atomic.CompareAndSwapInt32(&e.valid, state, engineEntryValid) {
				e.keyHash = keyHash
				e.key = key
				e.value = value
				atomic.StoreInt64(&e.expireAt, expireAt)

				if state == engineEntryEmpty {
					atomic.AddInt64(&c.size, 1)
				}
				atomic.AddInt64(&c.sets, 1)

				if atomic.LoadInt64(&c.size) > int64(c.maxSize) {
					c.evictOne()
				}
				return true
			}
			continue
		}

		if state == engineEntryValid && e.keyHash == keyHash {
			if atomic.LoadInt32(&e.valid) == engineEntryValid && e.key != "" && e.key == key {
				e.value = value
				atomic.StoreInt64(&e.expireAt, expireAt)
				atomic.AddInt64(&c.sets, 1)
				return true
			}
		}
	}

	c.evictOne()
	return false
}

func (c *wtinyLFUEngine) get(key string) (interface{}, bool) {
	keyHash := keyFingerprint(key)
	c.sketch.touch(keyHash)

	startIdx := keyHash & uint64(c.tableMask)

	for i := uint32(0); i <= c.tableMask; i++ {
		idx := (startIdx + uint64(i)) & uint64(c.tableMask)
		e := &c.entries[idx]

		state := atomic.LoadInt32(&e.valid)

		if state == engineEntryEmpty {
			break
		}

		if state == engineEntryValid && e.keyHash == keyHash {
			if atomic.LoadInt32(&e.valid) == engineEntryValid && e.key != "" && e.key == key {
				expireAt := atomic.LoadInt64(&e.expireAt)
				if expireAt > 0 && c.timeProvider.Now() > expireAt {
					atomic.CompareAndSwapInt32(&e.valid, engineEntryValid, engineEntryDeleted)
					atomic.AddInt64(&c.misses, 1)
					return nil, false
				}

				atomic.AddInt64(&c.hits, 1)
				return e.value, true
			}
		}
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, false
}

func (c *wtinyLFUEngine) delete(key string) bool {
	keyHash := keyFingerprint(key)
	startIdx := keyHash & uint64(c.tableMask)

	for i := uint32(0); i <= c.tableMask; i++ {
		idx := (startIdx + uint64(i)) & uint64(c.tableMask)
		e := &c.entries[idx]

		state := atomic.LoadInt32(&e.valid)

		if state == engineEntryEmpty {
			return false
		}

		if state == engineEntryValid && e.keyHash == keyHash {
			if atomic.LoadInt32(&e.valid) == engineEntryValid && e.key != "" && e.key == key {
				if atomic.CompareAndSwapInt32(&e.valid, engineEntryValid, engineEntryDeleted) {
					e.key = ""
					e.value = nil
					atomic.AddInt64(&c.size, -1)
					atomic.AddInt64(&c.deletes, 1)
					return true
				}
			}
		}
	}

	return false
}

func (c *wtinyLFUEngine) len() int {
	return int(atomic.LoadInt64(&c.size))
}

func (c *wtinyLFUEngine) capacity() int {
	return int(c.maxSize)
}

func (c *wtinyLFUEngine) clear() {
	for i := range c.entries {
		atomic.StoreInt32(&c.entries[i].valid, engineEntryEmpty)
		c.entries[i].key = ""
		c.entries[i].value = nil
		c.entries[i].keyHash = 0
	}

	atomic.StoreInt64(&c.size, 0)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	atomic.StoreInt64(&c.sets, 0)
	atomic.StoreInt64(&c.deletes, 0)
	atomic.StoreInt64(&c.evictions, 0)

	c.sketch.clear()
}

func (c *wtinyLFUEngine) stats() NearCacheStats {
	return NearCacheStats{
		Hits:      uint64(atomic.LoadInt64(&c.hits)),      // #nosec G115
		Misses:    uint64(atomic.LoadInt64(&c.misses)),    // #nosec G115
		Sets:      uint64(atomic.LoadInt64(&c.sets)),      // #nosec G115
		Deletes:   uint64(atomic.LoadInt64(&c.deletes)),   // #nosec G115
		Evictions: uint64(atomic.LoadInt64(&c.evictions)), // #nosec G115
		Size:      int(atomic.LoadInt64(&c.size)),
		Capacity:  int(c.maxSize),
	}
}

// evictOne performs W-TinyLFU eviction by sampling a handful of slots
// and evicting the one with lowest estimated frequency, falling back
// to a linear scan if sampling misses every valid slot.
func (c *wtinyLFUEngine) evictOne() {
	const sampleSize = 5

	var victim *wtinyLFUEntry
	minFrequency := uint64(^uint64(0))

	tableSize := int(c.tableMask) + 1
	step := tableSize / sampleSize
	if step < 1 {
		step = 1
	}

	for i := 0; i < sampleSize; i++ {
		idx := (i * step) % tableSize
		e := &c.entries[idx]
		state := atomic.LoadInt32(&e.valid)

		if state == engineEntryValid {
			freq := c.sketch.frequencyOf(e.keyHash)
			if freq < minFrequency {
				minFrequency = freq
				victim = e
			}
		}
	}

	if victim != nil {
		if atomic.CompareAndSwapInt32(&victim.valid, engineEntryValid, engineEntryDeleted) {
			victim.key = ""
			victim.value = nil
			atomic.AddInt64(&c.size, -1)
			atomic.AddInt64(&c.evictions, 1)
			return
		}
	}

	for i := range c.entries {
		e := &c.entries[i]
		state := atomic.LoadInt32(&e.valid)

		if state == engineEntryValid {
			if atomic.CompareAndSwapInt32(&e.valid, engineEntryValid, engineEntryDeleted) {
				e.key = ""
				e.value = nil
				atomic.AddInt64(&c.size, -1)
				atomic.AddInt64(&c.evictions, 1)
				return
			}
		}
	}
}

// admissionSketch is a Count-Min Sketch with 4-bit saturating counters,
// used by wtinyLFUEngine.evictOne to compare candidate victims by
// estimated access frequency instead of evicting arbitrarily. Lock-free
// and allocation-free on the hot path.
type admissionSketch struct {
	// counters packs 16 four-bit saturating counters per uint64 slot.
	counters []uint64
	slotMask uint64

	// mixA..mixD seed four independent multiplicative hash functions,
	// giving the Count-Min Sketch its four counter rows.
	mixA, mixB, mixC, mixD uint64

	// touches counts operations since the last aging pass.
	touches     int64
	agingPeriod int64
}

// newAdmissionSketch sizes a sketch for a near-cache holding roughly
// capacity entries: one table slot packs 16 counters, so the table is
// sized to capacity/4 slots (a few counters per expected entry keeps
// collision-driven overestimation low).
func newAdmissionSketch(capacity int) *admissionSketch {
	slots := nextPowerOf2(capacity / 4)
	if slots < 64 {
		slots = 64
	}

	return &admissionSketch{
		counters:    make([]uint64, slots),
		slotMask:    uint64(slots - 1), // #nosec G115 - slots is power of 2, bounded and safe
		mixA:        0x9e3779b97f4a7c15,
		mixB:        0xbf58476d1ce4e5b9,
		mixC:        0x94d049bb133111eb,
		mixD:        0xbf58476d1ce4e5b7,
		agingPeriod: int64(capacity * 10),
	}
}

// nextPowerOf2 returns the next power of 2 greater than or equal to n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// rows returns the four table slots a key hashes to, one per counter
// row of the sketch.
func (s *admissionSketch) rows(keyHash uint64) [4]uint64 {
	return [4]uint64{
		((keyHash * s.mixA) >> 32) & s.slotMask,
		((keyHash * s.mixB) >> 32) & s.slotMask,
		((keyHash * s.mixC) >> 32) & s.slotMask,
		((keyHash * s.mixD) >> 32) & s.slotMask,
	}
}

// subcounters returns the four bit-offsets within each packed slot that
// a key's counters live at.
func (s *admissionSketch) subcounters(keyHash uint64) [4]uint64 {
	return [4]uint64{
		(keyHash & 0xF) * 4,
		((keyHash >> 4) & 0xF) * 4,
		((keyHash >> 8) & 0xF) * 4,
		((keyHash >> 12) & 0xF) * 4,
	}
}

// touch records one access for keyHash, aging the whole table every
// agingPeriod touches so frequency estimates track recent behavior
// rather than all-time totals.
func (s *admissionSketch) touch(keyHash uint64) {
	if atomic.AddInt64(&s.touches, 1)%s.agingPeriod == 0 {
		s.age()
	}

	row := s.rows(keyHash)
	sub := s.subcounters(keyHash)
	for i := 0; i < 4; i++ {
		s.bump(row[i], sub[i])
	}
}

// bump atomically increments one 4-bit counter, saturating at 15.
func (s *admissionSketch) bump(slot, sub uint64) {
	mask := uint64(0xF) << sub

	for {
		old := atomic.LoadUint64(&s.counters[slot])
		count := (old >> sub) & 0xF
		if count >= 15 {
			return
		}

		updated := (old &^ mask) | ((count + 1) << sub)
		if atomic.CompareAndSwapUint64(&s.counters[slot], old, updated) {
			return
		}
	}
}

// frequencyOf estimates keyHash's access frequency as the minimum
// across its four counters, the standard Count-Min Sketch read.
func (s *admissionSketch) frequencyOf(keyHash uint64) uint64 {
	row := s.rows(keyHash)
	sub := s.subcounters(keyHash)

	min := uint64(15)
	for i := 0; i < 4; i++ {
		count := (atomic.LoadUint64(&s.counters[row[i]]) >> sub[i]) & 0xF
		if count < min {
			min = count
		}
	}
	return min
}

// age halves every counter in the table, preventing long-lived keys
// from permanently outscoring newly popular ones.
func (s *admissionSketch) age() {
	for i := range s.counters {
		for {
			old := atomic.LoadUint64(&s.counters[i])

			halved := uint64(0)
			for j := 0; j < 16; j++ {
				shift := uint64(j * 4) // #nosec G115 - j is bounded 0-15, multiplication is safe
				count := (old >> shift) & 0xF
				halved |= (count >> 1) << shift
			}

			if atomic.CompareAndSwapUint64(&s.counters[i], old, halved) {
				break
			}
		}
	}
}

// clear zeroes every counter and resets the aging cadence, used when
// the owning near-cache is cleared.
func (s *admissionSketch) clear() {
	for i := range s.counters {
		atomic.StoreUint64(&s.counters[i], 0)
	}
	atomic.StoreInt64(&s.touches, 0)
}

// keyFingerprint computes a 64-bit FNV-1a hash of a string key,
// avoiding an allocation by reading the string's backing bytes
// directly.
func keyFingerprint(key string) uint64 {
	const (
		fnvOffset = 14695981039346656037
		fnvPrime  = 1099511628211
	)

	hash := uint64(fnvOffset)

	// #nosec G103 - read-only view of the string's bytes, no writes or pointer arithmetic
	data := unsafe.Slice(unsafe.StringData(key), len(key))
	for _, b := range data {
		hash ^= uint64(b)
		hash *= fnvPrime
	}

	return hash
}
