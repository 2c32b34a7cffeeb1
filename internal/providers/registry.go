// Package providers resolves the active LLM, embedding, and vector-store
// collaborators from configuration, and supports swapping any of them at
// runtime without caching references across requests, per spec §9's
// "configuration hot-swap" design note and SPEC_FULL.md §4.9.
package providers

import (
	"context"
	"fmt"
	"sync"

	"deepsearcher/internal/config"
	"deepsearcher/internal/embedding"
	"deepsearcher/internal/embedding/deterministic"
	embopenai "deepsearcher/internal/embedding/openai"
	"deepsearcher/internal/llm"
	"deepsearcher/internal/llm/anthropic"
	"deepsearcher/internal/llm/google"
	"deepsearcher/internal/llm/openai"
	"deepsearcher/internal/observability"
	"deepsearcher/internal/vectorstore"
)

// Registry holds the currently active collaborator for each feature.
// Callers must fetch the active collaborator via LLM/Embedding/VectorStore
// on every request rather than holding their own reference, so a
// concurrent Set call takes effect on the very next call.
type Registry struct {
	mu        sync.RWMutex
	llmClient llm.Client
	embedder  embedding.Client
	store     vectorstore.Store
}

// New builds a Registry from cfg, constructing the initially configured
// provider for each feature.
func New(ctx context.Context, cfg config.Config) (*Registry, error) {
	r := &Registry{}
	if err := r.setLLM(ctx, cfg.LLM); err != nil {
		return nil, err
	}
	if err := r.setEmbedding(ctx, cfg.Embedding); err != nil {
		return nil, err
	}
	if err := r.setVectorStore(ctx, cfg.VectorDB); err != nil {
		return nil, err
	}
	return r, nil
}

// LLM returns the currently active LLM client.
func (r *Registry) LLM() llm.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.llmClient
}

// Embedding returns the currently active embedding client.
func (r *Registry) Embedding() embedding.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.embedder
}

// VectorStore returns the currently active vector store.
func (r *Registry) VectorStore() vectorstore.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store
}

// Set swaps the collaborator for one feature ("llm", "embedding", or
// "vector_db") to a newly constructed provider, matching the HTTP
// façade's POST /set-provider-config contract (§6.3).
func (r *Registry) Set(ctx context.Context, feature string, pc config.ProviderConfig) error {
	switch feature {
	case "llm":
		return r.setLLM(ctx, pc)
	case "embedding":
		return r.setEmbedding(ctx, pc)
	case "vector_db":
		return r.setVectorStore(ctx, pc)
	default:
		return fmt.Errorf("providers: unknown feature %q", feature)
	}
}

func (r *Registry) setLLM(ctx context.Context, pc config.ProviderConfig) error {
	client, err := buildLLM(ctx, pc)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.llmClient = client
	r.mu.Unlock()
	return nil
}

func (r *Registry) setEmbedding(_ context.Context, pc config.ProviderConfig) error {
	client, err := buildEmbedding(pc)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.embedder = client
	r.mu.Unlock()
	return nil
}

func (r *Registry) setVectorStore(_ context.Context, pc config.ProviderConfig) error {
	store, err := buildVectorStore(pc)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.store = store
	r.mu.Unlock()
	return nil
}

func optStr(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, _ := opts[key].(string)
	return v
}

func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func buildLLM(ctx context.Context, pc config.ProviderConfig) (llm.Client, error) {
	switch pc.Provider {
	case "", "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:    optStr(pc.Options, "api_key"),
			BaseURL:   optStr(pc.Options, "base_url"),
			Model:     optStr(pc.Options, "model"),
			MaxTokens: int64(optInt(pc.Options, "max_tokens")),
		}, observability.NewHTTPClient(nil)), nil
	case "openai":
		return openai.New(openai.Config{
			APIKey:  optStr(pc.Options, "api_key"),
			BaseURL: optStr(pc.Options, "base_url"),
			Model:   optStr(pc.Options, "model"),
		}, observability.NewHTTPClient(nil)), nil
	case "google":
		return google.New(ctx, google.Config{
			APIKey: optStr(pc.Options, "api_key"),
			Model:  optStr(pc.Options, "model"),
		}, observability.NewHTTPClient(nil))
	default:
		return nil, fmt.Errorf("providers: unknown llm provider %q", pc.Provider)
	}
}

func buildEmbedding(pc config.ProviderConfig) (embedding.Client, error) {
	switch pc.Provider {
	case "", "deterministic":
		return deterministic.New(optInt(pc.Options, "dimension"), true, uint64(optInt(pc.Options, "seed"))), nil
	case "openai":
		return embopenai.New(embopenai.Config{
			APIKey:    optStr(pc.Options, "api_key"),
			Model:     optStr(pc.Options, "model"),
			Dimension: optInt(pc.Options, "dimension"),
		}, observability.NewHTTPClient(nil)), nil
	default:
		return nil, fmt.Errorf("providers: unknown embedding provider %q", pc.Provider)
	}
}

func buildVectorStore(pc config.ProviderConfig) (vectorstore.Store, error) {
	switch pc.Provider {
	case "", "memory":
		return vectorstore.NewMemory(optStr(pc.Options, "default_collection")), nil
	case "qdrant":
		return vectorstore.NewQdrant(
			optStr(pc.Options, "dsn"),
			optStr(pc.Options, "default_collection"),
			optStr(pc.Options, "metric"),
		)
	default:
		return nil, fmt.Errorf("providers: unknown vector store provider %q", pc.Provider)
	}
}
