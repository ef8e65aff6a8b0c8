package cerberus

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRandomizedTTL_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("effective TTL stays within +/-30% of base and floors at 1s", prop.ForAll(
		func(baseSeconds int, jitterPct int) bool {
			base := time.Duration(baseSeconds) * time.Second
			got := randomizedTTL(base, jitterPct)

			if got < time.Second {
				return false
			}
			lower := time.Duration(float64(base) * 0.70)
			upper := time.Duration(float64(base) * 1.30)
			if got < lower-time.Second || got > upper+time.Second {
				// small epsilon above the theoretical bound for float rounding
				return false
			}
			return true
		},
		gen.IntRange(10, 3600),
		gen.IntRange(-50, 200),
	))

	properties.TestingRun(t)
}

func TestFilter_NoFalseNegativesAfterInsert(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("a key is always found after insert", prop.ForAll(
		func(key string) bool {
			f := newBloomFilter(FilterConfig{ExpectedInsertions: 1000, FalsePositiveRate: 0.01})
			f.Insert(key)
			return f.MightContain(key)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestFacade_FilterRejectionNeverCallsLoader(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("a key never inserted never reaches the loader", prop.ForAll(
		func(key string) bool {
			if key == "" {
				return true
			}
			tp := newFakeTimeProvider(time.Unix(1000, 0))
			cfg := testConfig(tp)
			near := newFakeNearCache()
			far := newFakeFarCache()

			loaderCalled := false
			loader := func(ctx context.Context, k string) ([]byte, bool, error) {
				loaderCalled = true
				return nil, false, nil
			}

			f, err := New(cfg, loader, near, far, nil)
			if err != nil {
				return false
			}

			_, ok, err := f.Get(context.Background(), key)
			return err == nil && !ok && !loaderCalled
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestFacade_PutGetRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Put followed by Get returns the same payload", prop.ForAll(
		func(key, value string) bool {
			if key == "" {
				return true
			}
			tp := newFakeTimeProvider(time.Unix(1000, 0))
			cfg := testConfig(tp)
			near := newFakeNearCache()
			far := newFakeFarCache()
			loader := func(ctx context.Context, k string) ([]byte, bool, error) { return nil, false, nil }

			f, err := New(cfg, loader, near, far, nil)
			if err != nil {
				return false
			}

			if err := f.Put(context.Background(), key, []byte(value), time.Minute); err != nil {
				return false
			}
			got, ok, err := f.Get(context.Background(), key)
			return err == nil && ok && string(got) == value
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestMetricsSnapshot_HitRatioConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("hit_rate equals hits/(hits+misses)", prop.ForAll(
		func(hitsInt, missesInt int) bool {
			hits, misses := uint64(hitsInt), uint64(missesInt)
			m := newMetricsRecorder()
			for i := uint64(0); i < hits; i++ {
				m.RecordHit(LevelNear)
			}
			for i := uint64(0); i < misses; i++ {
				m.RecordMiss(LevelNear)
			}

			snap := m.Snapshot()
			got := snap.HitRatesByLevel[LevelNear]
			total := hits + misses
			if total == 0 {
				return got == 0
			}
			want := float64(hits) / float64(total)
			diff := want - got
			if diff < 0 {
				diff = -diff
			}
			return diff < 1e-9
		},
		gen.IntRange(0, 500),
		gen.IntRange(0, 500),
	))

	properties.TestingRun(t)
}
