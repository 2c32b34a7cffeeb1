// Package agentrouter implements the Agent Router: given a question and a
// registry of available searchers, each with a natural-language
// self-description, it asks the LLM to pick exactly one and delegates to
// it fully, per spec §4.5.
package agentrouter

import (
	"context"
	"fmt"
	"strings"

	"deepsearcher/internal/llm"
	"deepsearcher/internal/vectorstore"
)

// Searcher is the common contract every delegate searcher (Deep, Chain,
// Naive) satisfies. Description is a short, static, natural-language
// summary of the searcher's strengths, used to build the router's prompt.
type Searcher interface {
	Query(ctx context.Context, question string, maxIter int) (answer string, hits []vectorstore.Hit, tokens int, err error)
	Retrieve(ctx context.Context, question string, maxIter int) (hits []vectorstore.Hit, tokens int, err error)
	Description() string
}

const routingPrompt = `You are choosing which search agent should handle a question.

Agents:
%s

Question: %s

Reply with only the number of the agent to use.`

// Router picks one Searcher per question and delegates fully to it,
// adding only its own routing-call token cost.
type Router struct {
	Agents []Searcher
	LLM    llm.Client
}

// New constructs an agent Router over a fixed, ordered list of agents. The
// list order determines the 1-based external indices shown to the LLM.
func New(agents []Searcher, client llm.Client) *Router {
	return &Router{Agents: agents, LLM: client}
}

// Query picks an agent and delegates Query to it.
func (r *Router) Query(ctx context.Context, question string, maxIter int) (string, []vectorstore.Hit, int, error) {
	agent, routeTokens, err := r.choose(ctx, question)
	if err != nil {
		return "", nil, routeTokens, fmt.Errorf("agentrouter: %w", err)
	}
	answer, hits, tokens, err := agent.Query(ctx, question, maxIter)
	return answer, hits, tokens + routeTokens, err
}

// Retrieve picks an agent and delegates Retrieve to it.
func (r *Router) Retrieve(ctx context.Context, question string, maxIter int) ([]vectorstore.Hit, int, error) {
	agent, routeTokens, err := r.choose(ctx, question)
	if err != nil {
		return nil, routeTokens, fmt.Errorf("agentrouter: %w", err)
	}
	hits, tokens, err := agent.Retrieve(ctx, question, maxIter)
	return hits, tokens + routeTokens, err
}

// choose asks the LLM which registered agent should handle question and
// returns it, along with the routing call's own token cost.
func (r *Router) choose(ctx context.Context, question string) (Searcher, int, error) {
	if len(r.Agents) == 0 {
		return nil, 0, fmt.Errorf("no agents registered")
	}
	if len(r.Agents) == 1 {
		return r.Agents[0], 0, nil
	}

	var b strings.Builder
	for i, a := range r.Agents {
		fmt.Fprintf(&b, "[%d]: %s\n", i+1, a.Description())
	}

	reply, err := r.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(routingPrompt, b.String(), question)},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("llm chat: %w", err)
	}

	idx, err := llm.IndexFromReply(reply.Content)
	if err != nil {
		return nil, reply.TotalTokens, fmt.Errorf("parse agent index: %w", err)
	}
	internal := idx - 1
	if internal < 0 || internal >= len(r.Agents) {
		return nil, reply.TotalTokens, fmt.Errorf("agent index %d out of range [1,%d]", idx, len(r.Agents))
	}
	return r.Agents[internal], reply.TotalTokens, nil
}
