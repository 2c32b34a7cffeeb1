// Package chainsearch implements the Chain Searcher: a strictly sequential
// multi-hop reasoner that generates one follow-up question per hop,
// answers it from freshly retrieved passages, and optionally stops early
// once it judges the accumulated context sufficient, per spec §4.3.
package chainsearch

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

// Description is the Chain Searcher's self-description, used by the agent
// router to decide when to delegate here.
const Description = "Best for multi-hop questions answered by reasoning forward one follow-up question at a time, each grounded in newly retrieved passages."

const defaultTopK = 10

// Hop is one (follow-up question, per-hop answer) pair.
type Hop struct {
	FollowUp string
	Answer   string
}

const followUpPrompt = `You are investigating a question step by step.

Original question: %s

Progress so far:
%s

What is the single next follow-up question to investigate? Reply with
only the follow-up question text, no explanation.`

const hopAnswerPrompt = `Answer the following question using only the passages below. If they
don't contain enough information, say so plainly.

Question: %s

Passages:
%s`

const supportingDocPrompt = `Which of the passages below actually support this answer?

Question: %s
Answer: %s

Passages:
%s

Reply with a JSON list of the 0-based indices of the supporting passages,
e.g. [0, 2]. Reply with an empty list [] if none support it.`

const sufficiencyPrompt = `Original question: %s

Progress so far:
%s

Is this enough to fully answer the original question? Reply YES or NO
only.`

const finalAnswerPrompt = `Original question: %s

Investigation steps:
%s

Supporting passages:
%s

Write the final answer to the original question using the investigation
above.`

// Config tunes the Chain Searcher.
type Config struct {
	TopK      int  // per-collection search width; 0 → defaultTopK
	EarlyStop bool // enable the sufficiency check after each hop
}

// Searcher implements the Chain Searcher protocol.
type Searcher struct {
	Router   *router.Router
	Embedder embedding.Client
	Store    vectorstore.Store
	LLM      llm.Client

	cfg Config
}

// New constructs a Chain Searcher.
func New(r *router.Router, embedder embedding.Client, store vectorstore.Store, client llm.Client, cfg Config) *Searcher {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &Searcher{Router: r, Embedder: embedder, Store: store, LLM: client, cfg: cfg}
}

// Retrieve runs up to maxIter hops and returns the deduplicated supporting
// hits, total tokens spent, and the follow-up questions investigated.
func (s *Searcher) Retrieve(ctx context.Context, question string, maxIter int) ([]vectorstore.Hit, int, []string, error) {
	if maxIter < 1 {
		maxIter = 1
	}
	tokens := 0
	var hops []Hop
	var followUps []string
	var accumulated []vectorstore.Hit

	for i := 0; i < maxIter; i++ {
		followUp, t, err := s.generateFollowUp(ctx, question, hops)
		tokens += t
		if err != nil {
			return dedupe.Hits(accumulated), tokens, followUps, fmt.Errorf("chainsearch: follow-up generation: %w", err)
		}
		followUps = append(followUps, followUp)

		candidates, answer, t, err := s.retrieveAndAnswer(ctx, followUp)
		tokens += t
		if err != nil {
			return dedupe.Hits(accumulated), tokens, followUps, fmt.Errorf("chainsearch: retrieve and answer: %w", err)
		}

		supporting, t := s.filterSupportingDocs(ctx, followUp, answer, candidates)
		tokens += t

		hops = append(hops, Hop{FollowUp: followUp, Answer: answer})
		accumulated = dedupe.Hits(append(accumulated, supporting...))

		if !s.cfg.EarlyStop {
			continue
		}
		sufficient, t, err := s.checkSufficiency(ctx, question, hops)
		tokens += t
		if err == nil && sufficient {
			break
		}
	}

	return accumulated, tokens, followUps, nil
}

// Description returns the Chain Searcher's self-description for the agent
// router's prompt.
func (s *Searcher) Description() string { return Description }

// Query runs Retrieve and summarizes the investigation into a final answer.
func (s *Searcher) Query(ctx context.Context, question string, maxIter int) (string, []vectorstore.Hit, int, error) {
	hits, tokens, followUps, err := s.Retrieve(ctx, question, maxIter)
	if err != nil {
		return "", hits, tokens, err
	}
	if len(hits) == 0 && len(followUps) == 0 {
		return "No relevant information was found for this question.", hits, tokens, nil
	}

	var steps strings.Builder
	for i, f := range followUps {
		fmt.Fprintf(&steps, "%d. %s\n", i+1, f)
	}
	var passages strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&passages, "<chunk_%d>\n%s\n</chunk_%d>\n", i, h.Text, i)
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(finalAnswerPrompt, question, steps.String(), passages.String())},
	})
	if err != nil {
		return "", hits, tokens, fmt.Errorf("chainsearch: final answer: %w", err)
	}
	tokens += reply.TotalTokens
	return reply.Content, hits, tokens, nil
}

func (s *Searcher) generateFollowUp(ctx context.Context, question string, hops []Hop) (string, int, error) {
	var progress strings.Builder
	for i, h := range hops {
		fmt.Fprintf(&progress, "%d. Q: %s\n   A: %s\n", i+1, h.FollowUp, h.Answer)
	}
	if len(hops) == 0 {
		progress.WriteString("(none yet)")
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(followUpPrompt, question, progress.String())},
	})
	if err != nil {
		return "", 0, err
	}
	return strings.TrimSpace(llm.StripThink(reply.Content)), reply.TotalTokens, nil
}

func (s *Searcher) retrieveAndAnswer(ctx context.Context, followUp string) ([]vectorstore.Hit, string, int, error) {
	tokens := 0

	collections, routeTokens, err := s.Router.Route(ctx, followUp, s.Embedder.Dimension())
	tokens += routeTokens
	if err != nil {
		return nil, "", tokens, fmt.Errorf("route: %w", err)
	}
	if len(collections) == 0 {
		return nil, "No relevant information was found for this step.", tokens, nil
	}

	vec, err := s.Embedder.EmbedQuery(ctx, followUp)
	if err != nil {
		return nil, "", tokens, fmt.Errorf("embed: %w", err)
	}

	var candidates []vectorstore.Hit
	for _, coll := range collections {
		hits, err := s.Store.Search(ctx, coll, vec, s.cfg.TopK)
		if err != nil {
			continue
		}
		candidates = append(candidates, hits...)
	}
	candidates = dedupe.Hits(candidates)

	if len(candidates) == 0 {
		return nil, "No relevant information was found for this step.", tokens, nil
	}

	var passages strings.Builder
	for i, h := range candidates {
		fmt.Fprintf(&passages, "<chunk_%d>\n%s\n</chunk_%d>\n", i, h.Text, i)
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(hopAnswerPrompt, followUp, passages.String())},
	})
	if err != nil {
		return candidates, "", tokens, fmt.Errorf("answer: %w", err)
	}
	tokens += reply.TotalTokens
	return candidates, reply.Content, tokens, nil
}

// filterSupportingDocs asks the LLM which retrieved chunks actually
// support (followUp, answer). An index-parse failure drops the supporting
// set for this hop without failing the hop itself, per spec §4.3.
func (s *Searcher) filterSupportingDocs(ctx context.Context, followUp, answer string, candidates []vectorstore.Hit) ([]vectorstore.Hit, int) {
	if len(candidates) == 0 {
		return nil, 0
	}
	var passages strings.Builder
	for i, h := range candidates {
		fmt.Fprintf(&passages, "<chunk_%d>\n%s\n</chunk_%d>\n", i, h.Text, i)
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(supportingDocPrompt, followUp, answer, passages.String())},
	})
	if err != nil {
		return nil, 0
	}
	indices, perr := llm.ParseIndices(reply.Content)
	if perr != nil {
		return nil, reply.TotalTokens
	}
	var out []vectorstore.Hit
	for _, idx := range indices {
		if idx >= 0 && idx < len(candidates) {
			out = append(out, candidates[idx])
		}
	}
	return out, reply.TotalTokens
}

func (s *Searcher) checkSufficiency(ctx context.Context, question string, hops []Hop) (bool, int, error) {
	var progress strings.Builder
	for i, h := range hops {
		fmt.Fprintf(&progress, "%d. Q: %s\n   A: %s\n", i+1, h.FollowUp, h.Answer)
	}
	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(sufficiencyPrompt, question, progress.String())},
	})
	if err != nil {
		return false, 0, err
	}
	return llm.JudgeAccepts(reply.Content), reply.TotalTokens, nil
}
