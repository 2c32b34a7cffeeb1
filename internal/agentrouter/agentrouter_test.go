package agentrouter

import (
	"context"
	"testing"

	"deepsearcher/internal/llm"
	"deepsearcher/internal/vectorstore"
)

type fakeAgent struct {
	name          string
	queryTokens   int
	retrieveTokens int
}

func (a *fakeAgent) Description() string { return a.name }

func (a *fakeAgent) Query(_ context.Context, question string, _ int) (string, []vectorstore.Hit, int, error) {
	return "answer from " + a.name, nil, a.queryTokens, nil
}

func (a *fakeAgent) Retrieve(_ context.Context, question string, _ int) ([]vectorstore.Hit, int, error) {
	return nil, a.retrieveTokens, nil
}

type fakeLLM struct{ reply string; tokens int }

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message) (llm.Reply, error) {
	return llm.Reply{Content: f.reply, TotalTokens: f.tokens}, nil
}

// Scenario 6: non-numeric reply falls back to the last digit.
func TestQuery_LastDigitFallbackSelectsSecondAgent(t *testing.T) {
	deep := &fakeAgent{name: "deep", queryTokens: 5}
	chain := &fakeAgent{name: "chain", queryTokens: 7}
	fake := &fakeLLM{reply: "I recommend agent 2", tokens: 3}
	r := New([]Searcher{deep, chain}, fake)

	answer, _, tokens, err := r.Query(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "answer from chain" {
		t.Fatalf("got %q, want delegation to chain (index 2 -> internal 1)", answer)
	}
	if tokens != 3+7 {
		t.Fatalf("got %d tokens, want %d (routing + delegated)", tokens, 3+7)
	}
}

func TestQuery_SingleAgentShortcut(t *testing.T) {
	only := &fakeAgent{name: "naive", queryTokens: 4}
	fake := &fakeLLM{reply: "irrelevant"}
	r := New([]Searcher{only}, fake)

	_, _, tokens, err := r.Query(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if tokens != 4 {
		t.Fatalf("got %d, want 4 (no routing LLM call needed)", tokens)
	}
}

func TestQuery_NumericReplySelectsAgent(t *testing.T) {
	deep := &fakeAgent{name: "deep"}
	chain := &fakeAgent{name: "chain"}
	naive := &fakeAgent{name: "naive"}
	fake := &fakeLLM{reply: "1"}
	r := New([]Searcher{deep, chain, naive}, fake)

	answer, _, _, err := r.Query(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "answer from deep" {
		t.Fatalf("got %q", answer)
	}
}
