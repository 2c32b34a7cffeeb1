package providers

import (
	"context"
	"testing"

	"deepsearcher/internal/config"
)

func TestNew_DefaultsBuildWithoutError(t *testing.T) {
	reg, err := New(context.Background(), config.Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if reg.LLM() == nil {
		t.Fatal("expected non-nil default llm client")
	}
	if reg.Embedding() == nil {
		t.Fatal("expected non-nil default embedding client")
	}
	if reg.VectorStore() == nil {
		t.Fatal("expected non-nil default vector store")
	}
}

func TestSet_SwapsEmbeddingProvider(t *testing.T) {
	reg, err := New(context.Background(), config.Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	before := reg.Embedding()

	err = reg.Set(context.Background(), "embedding", config.ProviderConfig{
		Provider: "deterministic",
		Options:  map[string]any{"dimension": 32, "seed": 7},
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if reg.Embedding() == before {
		t.Fatal("expected Set to install a new embedding client")
	}
	if reg.Embedding().Dimension() != 32 {
		t.Fatalf("got dimension %d, want 32", reg.Embedding().Dimension())
	}
}

func TestSet_UnknownFeatureErrors(t *testing.T) {
	reg, err := New(context.Background(), config.Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := reg.Set(context.Background(), "bogus", config.ProviderConfig{}); err == nil {
		t.Fatal("expected error for unknown feature")
	}
}

func TestSet_UnknownProviderErrors(t *testing.T) {
	reg, err := New(context.Background(), config.Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := reg.Set(context.Background(), "llm", config.ProviderConfig{Provider: "bogus"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
