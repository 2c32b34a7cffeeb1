// Package naivesearch implements the Naive Searcher: a single-shot
// baseline used as a control and for evaluation, per spec §4.4. Route,
// embed, search every selected collection at a shared top_k budget,
// dedupe, and summarize in one LLM call.
package naivesearch

import (
	"context"
	"fmt"
	"strings"

	"deepsearcher/internal/dedupe"
	"deepsearcher/internal/embedding"
	"deepsearcher/internal/llm"
	"deepsearcher/internal/router"
	"deepsearcher/internal/vectorstore"
)

// Description is the Naive Searcher's self-description, used by the agent
// router to decide when to delegate here.
const Description = "Best for simple, single-fact questions where one round of retrieval and a direct summary is enough."

const defaultTopK = 10

const summaryPrompt = `Answer the question using only the passages below.

Question: %s

Passages:
%s`

// Config tunes the Naive Searcher.
type Config struct {
	TopK int // total search budget shared across selected collections; 0 → defaultTopK
}

// Searcher implements the Naive Searcher protocol.
type Searcher struct {
	Router   *router.Router
	Embedder embedding.Client
	Store    vectorstore.Store
	LLM      llm.Client

	cfg Config
}

// New constructs a Naive Searcher.
func New(r *router.Router, embedder embedding.Client, store vectorstore.Store, client llm.Client, cfg Config) *Searcher {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &Searcher{Router: r, Embedder: embedder, Store: store, LLM: client, cfg: cfg}
}

// Retrieve runs the single-shot protocol. max_iter is accepted for
// signature symmetry with the other searchers but is not consulted: the
// Naive Searcher never iterates.
func (s *Searcher) Retrieve(ctx context.Context, question string, _ int) ([]vectorstore.Hit, int, error) {
	tokens := 0

	collections, routeTokens, err := s.Router.Route(ctx, question, s.Embedder.Dimension())
	tokens += routeTokens
	if err != nil {
		return nil, tokens, fmt.Errorf("naivesearch: route: %w", err)
	}
	if len(collections) == 0 {
		return nil, tokens, nil
	}

	vec, err := s.Embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, tokens, fmt.Errorf("naivesearch: embed: %w", err)
	}

	perCollection := s.cfg.TopK / len(collections)
	if perCollection < 1 {
		perCollection = 1
	}

	var hits []vectorstore.Hit
	for _, coll := range collections {
		found, err := s.Store.Search(ctx, coll, vec, perCollection)
		if err != nil {
			continue
		}
		hits = append(hits, found...)
	}

	return dedupe.Hits(hits), tokens, nil
}

// Description returns the Naive Searcher's self-description for the agent
// router's prompt.
func (s *Searcher) Description() string { return Description }

// Query runs Retrieve and summarizes the resulting hits in one LLM call.
func (s *Searcher) Query(ctx context.Context, question string, maxIter int) (string, []vectorstore.Hit, int, error) {
	hits, tokens, err := s.Retrieve(ctx, question, maxIter)
	if err != nil {
		return "", hits, tokens, err
	}
	if len(hits) == 0 {
		return "No relevant information was found for this question.", hits, tokens, nil
	}

	var passages strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&passages, "<chunk_%d>\n%s\n</chunk_%d>\n", i, h.Text, i)
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(summaryPrompt, question, passages.String())},
	})
	if err != nil {
		return "", hits, tokens, fmt.Errorf("naivesearch: summarization: %w", err)
	}
	tokens += reply.TotalTokens
	return reply.Content, hits, tokens, nil
}
