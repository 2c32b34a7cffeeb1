package engine

import (
	"context"
	"testing"

	"deepsearcher/internal/agentrouter"
	"deepsearcher/internal/chainsearch"
	"deepsearcher/internal/deepsearch"
	"deepsearcher/internal/embedding/deterministic"
	"deepsearcher/internal/llm"
	"deepsearcher/internal/metrics"
	"deepsearcher/internal/naivesearch"
	"deepsearcher/internal/router"
	"deepsearcher/internal/vectorstore"
)

type fakeLLM struct{}

func (fakeLLM) Chat(ctx context.Context, msgs []llm.Message) (llm.Reply, error) {
	return llm.Reply{Content: "[]", TotalTokens: 1}, nil
}

func newTestStore(t *testing.T) vectorstore.Store {
	t.Helper()
	store := vectorstore.NewMemory("default")
	embedder := deterministic.New(8, true, 1)
	if err := store.InitCollection(context.Background(), "default", embedder.Dimension(), ""); err != nil {
		t.Fatalf("InitCollection: %v", err)
	}
	vec, err := embedder.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if err := store.Insert(context.Background(), "default", vectorstore.Hit{Text: "hello world", Embedding: vec}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return store
}

func TestEngine_QueryDispatchesToPinnedAgent(t *testing.T) {
	store := newTestStore(t)
	embedder := deterministic.New(8, true, 1)
	client := fakeLLM{}
	r := router.New(store, client, nil)

	naive := naivesearch.New(r, embedder, store, client, naivesearch.Config{})
	agents := Agents{Naive: naive}
	autoRouter := agentrouter.New(RegisteredAgents(agents), client)
	eng := New(agents, autoRouter).WithMetrics(metrics.NewMock())

	_, hits, _, err := eng.Query(context.Background(), "naive", "what is hello", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
}

func TestEngine_UnconfiguredAgentErrors(t *testing.T) {
	eng := New(Agents{}, nil)
	if _, _, _, err := eng.Query(context.Background(), "deep", "q", 1); err == nil {
		t.Fatal("expected error for unconfigured deep agent")
	}
}

func TestEngine_RecordsMetrics(t *testing.T) {
	store := newTestStore(t)
	embedder := deterministic.New(8, true, 1)
	client := fakeLLM{}
	r := router.New(store, client, nil)

	naive := naivesearch.New(r, embedder, store, client, naivesearch.Config{})
	deep := deepsearch.New(r, embedder, store, client, nil, deepsearch.Config{})
	chain := chainsearch.New(r, embedder, store, client, chainsearch.Config{})
	agents := Agents{Naive: naive, Deep: deep, Chain: chain}
	autoRouter := agentrouter.New(RegisteredAgents(agents), client)

	mock := metrics.NewMock()
	eng := New(agents, autoRouter).WithMetrics(mock)

	if _, _, _, err := eng.Query(context.Background(), "naive", "what is hello", 1); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if mock.Counters[metrics.QueriesTotal] != 1 {
		t.Fatalf("got %d queries recorded, want 1", mock.Counters[metrics.QueriesTotal])
	}
}
