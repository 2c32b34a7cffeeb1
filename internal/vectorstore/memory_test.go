package vectorstore

import (
	"context"
	"testing"
)

func TestMemory_SearchRanksByCosineSimilarity(t *testing.T) {
	m := NewMemory("default")
	ctx := context.Background()
	if err := m.InitCollection(ctx, "docs", 2, "test collection"); err != nil {
		t.Fatalf("InitCollection: %v", err)
	}
	if err := m.Insert(ctx, "docs", Hit{Text: "close", Embedding: []float32{1, 0}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Insert(ctx, "docs", Hit{Text: "far", Embedding: []float32{0, 1}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := m.Search(ctx, "docs", []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Text != "close" {
		t.Fatalf("got top hit %q, want %q", hits[0].Text, "close")
	}
}

func TestMemory_SearchRespectsTopK(t *testing.T) {
	m := NewMemory("default")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := m.Insert(ctx, "docs", Hit{Text: "x", Embedding: []float32{1, 0}}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	hits, err := m.Search(ctx, "docs", []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
}

func TestMemory_SearchUnknownCollectionReturnsEmpty(t *testing.T) {
	m := NewMemory("default")
	hits, err := m.Search(context.Background(), "missing", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %d hits, want 0", len(hits))
	}
}

func TestMemory_ListCollectionsFiltersByDimension(t *testing.T) {
	m := NewMemory("default")
	ctx := context.Background()
	if err := m.InitCollection(ctx, "dim2", 2, ""); err != nil {
		t.Fatalf("InitCollection: %v", err)
	}
	if err := m.InitCollection(ctx, "dim4", 4, ""); err != nil {
		t.Fatalf("InitCollection: %v", err)
	}

	all, err := m.ListCollections(ctx, 0)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d collections for dim 0 (all), want 2", len(all))
	}

	filtered, err := m.ListCollections(ctx, 2)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "dim2" {
		t.Fatalf("got %v, want only dim2", filtered)
	}
}

func TestMemory_ClearRemovesPointsButKeepsCollection(t *testing.T) {
	m := NewMemory("default")
	ctx := context.Background()
	if err := m.Insert(ctx, "docs", Hit{Text: "a", Embedding: []float32{1, 0}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Clear(ctx, "docs"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	hits, err := m.Search(ctx, "docs", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %d hits after Clear, want 0", len(hits))
	}
	cols, err := m.ListCollections(ctx, 0)
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(cols) != 1 || cols[0].Name != "docs" {
		t.Fatalf("got collections %v after Clear, want [docs]", cols)
	}
}

func TestMemory_InsertCopiesEmbeddingAndMetadata(t *testing.T) {
	m := NewMemory("default")
	ctx := context.Background()
	vec := []float32{1, 0}
	meta := map[string]any{"k": "v"}
	if err := m.Insert(ctx, "docs", Hit{Text: "a", Embedding: vec, Metadata: meta}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	vec[0] = 99
	meta["k"] = "mutated"

	hits, err := m.Search(ctx, "docs", []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Embedding[0] == 99 {
		t.Fatal("Insert did not copy the embedding slice")
	}
	if hits[0].Metadata["k"] == "mutated" {
		t.Fatal("Insert did not copy the metadata map")
	}
}
