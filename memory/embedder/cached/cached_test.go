package cached_test

import (
	"context"
	"testing"

	"github.com/sageai/sage-go-sdk/memory/embedder/cached"
	"github.com/sageai/sage-go-sdk/memory/embedder/mock"
)

// countingEmbedder counts delegated Embed calls.
type countingEmbedder struct {
	inner *mock.Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

func TestCacheHitSkipsInner(t *testing.T) {
	ctx := context.Background()
	counting := &countingEmbedder{inner: mock.New()}

	e, err := cached.New(counting, 1<<20)
	if err != nil {
		t.Fatalf("create cached embedder: %v", err)
	}
	defer e.Close()

	first, err := e.Embed(ctx, "the quarterly report")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	e.Wait()

	second, err := e.Embed(ctx, "the quarterly report")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	if counting.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", counting.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("vector length changed across cache hit")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at index %d", i)
		}
	}
}

func TestCacheMissOnNewText(t *testing.T) {
	ctx := context.Background()
	counting := &countingEmbedder{inner: mock.New()}

	e, err := cached.New(counting, 1<<20)
	if err != nil {
		t.Fatalf("create cached embedder: %v", err)
	}
	defer e.Close()

	e.Embed(ctx, "first text")
	e.Wait()
	e.Embed(ctx, "second text")

	if counting.calls != 2 {
		t.Errorf("expected 2 inner calls for distinct texts, got %d", counting.calls)
	}
}

func TestDimensionsPassthrough(t *testing.T) {
	counting := &countingEmbedder{inner: mock.New()}
	e, err := cached.New(counting, 1<<20)
	if err != nil {
		t.Fatalf("create cached embedder: %v", err)
	}
	defer e.Close()

	if e.Dimensions() != counting.Dimensions() {
		t.Errorf("expected dimensions passthrough, got %d", e.Dimensions())
	}
}
