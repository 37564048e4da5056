package vectormemory

import (
	"context"
	"testing"
)

func TestMemStoreUpsertAndQueryOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(nil, nil)

	if _, err := store.Upsert(ctx, "m1", "", "the quick brown fox", "text/plain", nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := store.Upsert(ctx, "m1", "", "stock market analytics dashboard", "text/plain", nil); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := store.Query(ctx, "m1", "quick brown fox jumps", 5, nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "the quick brown fox" {
		t.Fatalf("expected closest match first, got %q", results[0].Content)
	}
	if results[0].Distance > results[1].Distance {
		t.Fatalf("expected ascending distance order")
	}
}

func TestMemStoreQueryEmptyCollectionReturnsEmptyNotError(t *testing.T) {
	store := NewMemStore(nil, nil)
	results, err := store.Query(context.Background(), "missing-mission", "anything", 5, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %d", len(results))
	}
}

func TestMemStoreQueryFiltersByMetadataEquality(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(nil, nil)
	_, _ = store.Upsert(ctx, "m1", "", "a report", "text/plain", map[string]any{"category": "finance"})
	_, _ = store.Upsert(ctx, "m1", "", "another report", "text/plain", map[string]any{"category": "marketing"})

	results, err := store.Query(ctx, "m1", "report", 5, Filter{"category": "finance"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 filtered result, got %d", len(results))
	}
	if results[0].Content != "a report" {
		t.Fatalf("unexpected match: %q", results[0].Content)
	}
}

func TestMemStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(nil, nil)
	id, _ := store.Upsert(ctx, "m1", "", "content", "text/plain", nil)

	deleted, err := store.Delete(ctx, "m1", id)
	if err != nil || !deleted {
		t.Fatalf("expected delete true, got %v %v", deleted, err)
	}
	deleted, _ = store.Delete(ctx, "m1", id)
	if deleted {
		t.Fatalf("expected second delete to report false")
	}

	_, _ = store.Upsert(ctx, "m1", "", "more content", "text/plain", nil)
	cleared, err := store.Clear(ctx, "m1")
	if err != nil || !cleared {
		t.Fatalf("expected clear true, got %v %v", cleared, err)
	}
	stats, _ := store.Stats(ctx, "m1")
	if stats.Count != 0 {
		t.Fatalf("expected 0 records after clear, got %d", stats.Count)
	}
}

func TestHashEmbedderIsDeterministic(t *testing.T) {
	e := NewHashEmbedder()
	v1, _ := e.Embed(context.Background(), "hello world")
	v2, _ := e.Embed(context.Background(), "hello world")
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected deterministic embedding, differed at index %d", i)
		}
	}
}
