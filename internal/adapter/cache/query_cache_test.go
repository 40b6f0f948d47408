package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingEmbedder struct {
	calls [][]string
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.calls = append(e.calls, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return 1 }
func (e *countingEmbedder) ModelName() string { return "counting" }

func TestVectorCache_GetPut(t *testing.T) {
	c := NewVectorCache(2, time.Minute)

	if _, hit := c.Get("m", "a"); hit {
		t.Fatal("expected miss on empty cache")
	}
	c.Put("m", "a", []float32{1})
	if v, hit := c.Get("m", "a"); !hit || v[0] != 1 {
		t.Fatalf("expected hit with [1], got %v %v", v, hit)
	}
	if _, hit := c.Get("other-model", "a"); hit {
		t.Fatal("entries must be keyed by model")
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("stats = %d/%d, want 1/2", hits, misses)
	}
}

func TestVectorCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewVectorCache(2, time.Minute)
	c.Put("m", "a", []float32{1})
	c.Put("m", "b", []float32{2})
	c.Get("m", "a")
	c.Put("m", "c", []float32{3})

	if _, hit := c.Get("m", "b"); hit {
		t.Error("b should have been evicted")
	}
	if _, hit := c.Get("m", "a"); !hit {
		t.Error("a should still be cached")
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestVectorCache_TTL(t *testing.T) {
	c := NewVectorCache(10, time.Millisecond)
	c.Put("m", "a", []float32{1})
	time.Sleep(5 * time.Millisecond)
	if _, hit := c.Get("m", "a"); hit {
		t.Error("expired entry returned")
	}
}

func TestCachedEmbedder_OnlyEmbedsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	e := NewCachedEmbedder(inner, 10, time.Minute)
	ctx := context.Background()

	if _, err := e.Embed(ctx, []string{"uno", "dos"}); err != nil {
		t.Fatal(err)
	}
	vecs, err := e.Embed(ctx, []string{"dos", "tres", "uno"})
	if err != nil {
		t.Fatal(err)
	}

	if len(inner.calls) != 2 {
		t.Fatalf("inner calls = %d, want 2", len(inner.calls))
	}
	if len(inner.calls[1]) != 1 || inner.calls[1][0] != "tres" {
		t.Errorf("second call = %v, want [tres]", inner.calls[1])
	}
	want := []float32{3, 4, 3}
	for i, v := range vecs {
		if v[0] != want[i] {
			t.Errorf("vecs[%d] = %v, want %v", i, v[0], want[i])
		}
	}
	if e.ModelName() != "counting" || e.Dimension() != 1 {
		t.Error("identity must come from the wrapped embedder")
	}
}

func TestCachedEmbedder_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	e := NewCachedEmbedder(&countingEmbedder{err: boom}, 10, time.Minute)
	if _, err := e.Embed(context.Background(), []string{"x"}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if e.Cache().Size() != 0 {
		t.Error("failed embeddings must not be cached")
	}
}
