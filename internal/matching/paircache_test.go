package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emberdate/matchkit/internal/cache"
)

type failingKV struct {
	getErr error
	setErr error
}

func (f *failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.getErr }

func (f *failingKV) Set(context.Context, string, []byte, time.Duration) error { return f.setErr }

func (f *failingKV) Delete(context.Context, string) error { return nil }

func (f *failingKV) Close() error { return nil }

func TestPairKeyCanonicalOrder(t *testing.T) {
	if pairKey(7, 3) != pairKey(3, 7) {
		t.Fatalf("pair key depends on argument order: %q vs %q", pairKey(7, 3), pairKey(3, 7))
	}
	if got, want := pairKey(3, 7), "compat:3-7"; got != want {
		t.Fatalf("pairKey(3, 7) = %q, want %q", got, want)
	}
}

func TestPairCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	pairs := NewPairCache(cache.NewMemory(), 0, zap.NewNop())

	stored := &Result{
		Score: 0.75,
		Breakdown: map[string]float64{
			DimensionValues: 1,
		},
	}
	pairs.Put(ctx, 10, 20, stored)

	// The reversed pair must hit the same entry.
	got, ok := pairs.Get(ctx, 20, 10)
	if !ok {
		t.Fatal("expected cache hit for reversed pair")
	}
	if got.Score != stored.Score {
		t.Fatalf("cached score = %v, want %v", got.Score, stored.Score)
	}
	if got.Breakdown[DimensionValues] != 1 {
		t.Fatalf("cached breakdown lost: %v", got.Breakdown)
	}
}

func TestPairCacheMiss(t *testing.T) {
	pairs := NewPairCache(cache.NewMemory(), 0, zap.NewNop())

	if _, ok := pairs.Get(context.Background(), 1, 2); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestPairCacheReadErrorIsMiss(t *testing.T) {
	pairs := NewPairCache(&failingKV{getErr: errors.New("connection refused")}, 0, zap.NewNop())

	if _, ok := pairs.Get(context.Background(), 1, 2); ok {
		t.Fatal("expected read error to degrade to a miss")
	}
}

func TestPairCacheWriteErrorSwallowed(t *testing.T) {
	pairs := NewPairCache(&failingKV{setErr: errors.New("connection refused")}, 0, zap.NewNop())

	// Must not panic or surface the error.
	pairs.Put(context.Background(), 1, 2, &Result{Score: 0.5})
}

func TestPairCacheDiscardsUndecodableEntry(t *testing.T) {
	ctx := context.Background()
	kv := cache.NewMemory()
	if err := kv.Set(ctx, pairKey(1, 2), []byte("not json"), 0); err != nil {
		t.Fatalf("seeding entry: %v", err)
	}

	pairs := NewPairCache(kv, 0, zap.NewNop())
	if _, ok := pairs.Get(ctx, 1, 2); ok {
		t.Fatal("expected undecodable entry to be treated as a miss")
	}
}
