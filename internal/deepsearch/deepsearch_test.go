package deepsearch

import (
	"context"
	"strings"
	"testing"

	"deepsearcher/internal/cache"
	"deepsearcher/internal/embedding/deterministic"
	"deepsearcher/internal/llm"
	"deepsearcher/internal/router"
	"deepsearcher/internal/vectorstore"
)

// scriptedLLM dispatches Chat calls to a handler based on a substring match
// against the prompt, so a single fake can drive sub-query generation,
// judging, reflection, and summarization differently within one test.
type scriptedLLM struct {
	judgeAccept func(content, passage string) bool
	reflectFn   func(content string) (string, int)
	subQuery    string
	summary     string
	summaryTok  int

	summaryCalls int
}

func (s *scriptedLLM) Chat(_ context.Context, msgs []llm.Message) (llm.Reply, error) {
	content := msgs[len(msgs)-1].Content
	switch {
	case strings.Contains(content, "Decompose the following question"):
		return llm.Reply{Content: s.subQuery, TotalTokens: 5}, nil
	case strings.Contains(content, "Is the following passage helpful"):
		passage := content[strings.LastIndex(content, "Passage:")+len("Passage:"):]
		passage = strings.TrimSpace(passage)
		if s.judgeAccept(content, passage) {
			return llm.Reply{Content: "YES", TotalTokens: 1}, nil
		}
		return llm.Reply{Content: "NO", TotalTokens: 1}, nil
	case strings.Contains(content, "deciding whether more information"):
		reply, tok := s.reflectFn(content)
		return llm.Reply{Content: reply, TotalTokens: tok}, nil
	case strings.Contains(content, "Answer the question using only"):
		s.summaryCalls++
		return llm.Reply{Content: s.summary, TotalTokens: s.summaryTok}, nil
	default:
		return llm.Reply{Content: "[]"}, nil
	}
}

// Scenario 3: one iteration, two sub-queries, all hits accepted, no reflection.
func TestRetrieve_OneIterationNoReflection(t *testing.T) {
	store := vectorstore.NewMemory("docs")
	embedder := deterministic.New(16, true, 1)
	ctx := context.Background()
	if err := store.InitCollection(ctx, "docs", 16, "general"); err != nil {
		t.Fatalf("InitCollection: %v", err)
	}
	texts := []string{"alpha passage", "beta passage", "gamma passage", "delta passage", "epsilon passage", "zeta passage"}
	for _, tx := range texts {
		vec, _ := embedder.EmbedQuery(ctx, tx)
		if err := store.Insert(ctx, "docs", vectorstore.Hit{Text: tx, Embedding: vec}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	r := router.New(store, &scriptedLLM{}, cache.Noop{})
	fake := &scriptedLLM{
		subQuery:    `["q1","q2"]`,
		judgeAccept: func(string, string) bool { return true },
		reflectFn:   func(string) (string, int) { return "[]", 3 },
		summary:     "final answer",
		summaryTok:  7,
	}
	s := New(r, embedder, store, fake, cache.Noop{}, Config{TopK: len(texts)})

	hits, tokens, _, err := s.Retrieve(ctx, "what is alpha?", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != len(texts) {
		t.Fatalf("got %d deduped hits, want %d", len(hits), len(texts))
	}
	if tokens <= 0 {
		t.Fatalf("expected positive token count, got %d", tokens)
	}

	answer, _, _, err := s.Query(ctx, "what is alpha?", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer != "final answer" {
		t.Fatalf("got %q, want final answer", answer)
	}
	if fake.summaryCalls != 1 {
		t.Fatalf("expected exactly one summary call, got %d", fake.summaryCalls)
	}
}

// Scenario 4: reflection adds one gap sub-query; max_iter=2 bounds iteration
// count; all_sub_queries grows to 4; final hits = 3 (P3).
func TestRetrieve_ReflectionBoundedByMaxIter(t *testing.T) {
	store := vectorstore.NewMemory("docs")
	embedder := deterministic.New(16, true, 1)
	ctx := context.Background()
	if err := store.InitCollection(ctx, "docs", 16, "general"); err != nil {
		t.Fatalf("InitCollection: %v", err)
	}
	for _, tx := range []string{"hitA", "hitB", "hitC"} {
		vec, _ := embedder.EmbedQuery(ctx, tx)
		if err := store.Insert(ctx, "docs", vectorstore.Hit{Text: tx, Embedding: vec}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	r := router.New(store, &scriptedLLM{}, cache.Noop{})
	fake := &scriptedLLM{
		subQuery: `["q1","q2","q3"]`,
		// hitA and hitB are accepted in every iteration; hitC is accepted
		// only once the gap sub-query "q4" has entered the active set,
		// which the questions list carries in its content.
		judgeAccept: func(content, passage string) bool {
			switch passage {
			case "hitA", "hitB":
				return true
			case "hitC":
				return strings.Contains(content, "q4")
			default:
				return false
			}
		},
		reflectFn: func(string) (string, int) { return `["q4"]`, 4 },
	}

	s := New(r, embedder, store, fake, cache.Noop{}, Config{TopK: 3})

	hits, _, allSubQueries, err := s.Retrieve(ctx, "original question", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(allSubQueries) != 4 {
		t.Fatalf("got %d sub-queries, want 4 (P3 gap bound honored)", len(allSubQueries))
	}
	if len(hits) != 3 {
		t.Fatalf("got %d hits, want 3", len(hits))
	}
}

// P6: judge conservatism — <think> stripped, YES+NO ambiguity rejected.
func TestJudgeAccepts_Conservative(t *testing.T) {
	if llm.JudgeAccepts("<think>weighing…</think> NO") {
		t.Fatalf("expected rejection")
	}
	if !llm.JudgeAccepts("<think>ok</think> YES") {
		t.Fatalf("expected acceptance")
	}
	if llm.JudgeAccepts("YES and also NO") {
		t.Fatalf("expected rejection on ambiguous YES+NO")
	}
}
