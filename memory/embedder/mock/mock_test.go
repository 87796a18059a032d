package mock

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestDeterministic(t *testing.T) {
	ctx := context.Background()
	e := New()

	a, err := e.Embed(ctx, "the quarterly report")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed(ctx, "the quarterly report")

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at index %d", i)
		}
	}
	if len(a) != e.Dimensions() {
		t.Errorf("expected %d dimensions, got %d", e.Dimensions(), len(a))
	}
}

func TestUnitNorm(t *testing.T) {
	ctx := context.Background()
	e := New()

	vec, _ := e.Embed(ctx, "some text to embed")

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-4 {
		t.Errorf("expected unit vector, norm %v", math.Sqrt(norm))
	}
}

func TestTokenOverlapRanksHigher(t *testing.T) {
	ctx := context.Background()
	e := New()

	query, _ := e.Embed(ctx, "quarterly report deadline")
	related, _ := e.Embed(ctx, "the quarterly report is due Friday")
	unrelated, _ := e.Embed(ctx, "my cat is asleep on the couch")

	if cosine(query, related) <= cosine(query, unrelated) {
		t.Error("expected shared vocabulary to produce higher similarity")
	}
}
