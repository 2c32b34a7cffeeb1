// Package engine wires the Collection Router, the three searchers, and the
// Agent Router into the single entrypoint façade described in spec §6.1:
// Query and Retrieve over a question and an iteration cap, agent chosen
// automatically or pinned by the caller.
package engine

import (
	"context"
	"fmt"
	"time"

	"deepsearcher/internal/agentrouter"
	"deepsearcher/internal/chainsearch"
	"deepsearcher/internal/deepsearch"
	"deepsearcher/internal/metrics"
	"deepsearcher/internal/naivesearch"
	"deepsearcher/internal/vectorstore"
)

// deepAdapter narrows deepsearch.Searcher's 4-value Retrieve (which also
// returns the sub-queries it explored) down to agentrouter.Searcher's
// 3-value shape. The sub-query list is diagnostic only; nothing downstream
// of the agent router consumes it.
type deepAdapter struct{ s *deepsearch.Searcher }

func (a deepAdapter) Query(ctx context.Context, question string, maxIter int) (string, []vectorstore.Hit, int, error) {
	return a.s.Query(ctx, question, maxIter)
}

func (a deepAdapter) Retrieve(ctx context.Context, question string, maxIter int) ([]vectorstore.Hit, int, error) {
	hits, tokens, _, err := a.s.Retrieve(ctx, question, maxIter)
	return hits, tokens, err
}

func (a deepAdapter) Description() string { return a.s.Description() }

// chainAdapter does the same narrowing for chainsearch.Searcher, whose 4th
// Retrieve value is the follow-up questions it generated.
type chainAdapter struct{ s *chainsearch.Searcher }

func (a chainAdapter) Query(ctx context.Context, question string, maxIter int) (string, []vectorstore.Hit, int, error) {
	return a.s.Query(ctx, question, maxIter)
}

func (a chainAdapter) Retrieve(ctx context.Context, question string, maxIter int) ([]vectorstore.Hit, int, error) {
	hits, tokens, _, err := a.s.Retrieve(ctx, question, maxIter)
	return hits, tokens, err
}

func (a chainAdapter) Description() string { return a.s.Description() }

// Agents bundles the three concrete searchers. Any may be nil; only the
// non-nil ones are registered with the agent router.
type Agents struct {
	Deep  *deepsearch.Searcher
	Chain *chainsearch.Searcher
	Naive *naivesearch.Searcher
}

// Engine is the orchestrator's entrypoint: Query and Retrieve, dispatching
// to a pinned agent by name or letting the Agent Router choose.
type Engine struct {
	deep  agentrouter.Searcher
	chain agentrouter.Searcher
	naive agentrouter.Searcher
	auto  *agentrouter.Router

	metrics metrics.Recorder
}

// New builds an Engine over whichever of Deep/Chain/Naive are non-nil and
// the given Agent Router, which the caller builds (usually over
// RegisteredAgents(agents)) and which serves the "auto" agent name.
func New(agents Agents, router *agentrouter.Router) *Engine {
	e := &Engine{auto: router, metrics: metrics.Noop{}}
	if agents.Deep != nil {
		e.deep = deepAdapter{agents.Deep}
	}
	if agents.Chain != nil {
		e.chain = chainAdapter{agents.Chain}
	}
	if agents.Naive != nil {
		e.naive = agents.Naive
	}
	return e
}

// WithMetrics installs a metrics.Recorder for query counts, token spend,
// and latency. An Engine built by New records to a no-op recorder until
// WithMetrics installs another; a nil r leaves the current recorder.
func (e *Engine) WithMetrics(r metrics.Recorder) *Engine {
	if r != nil {
		e.metrics = r
	}
	return e
}

// RegisteredAgents returns whichever of Deep/Chain/Naive are non-nil, in
// fixed order, ready to pass to agentrouter.New. Callers build the agent
// router themselves (it needs an llm.Client) and pass the result to New.
func RegisteredAgents(agents Agents) []agentrouter.Searcher {
	var out []agentrouter.Searcher
	if agents.Deep != nil {
		out = append(out, deepAdapter{agents.Deep})
	}
	if agents.Chain != nil {
		out = append(out, chainAdapter{agents.Chain})
	}
	if agents.Naive != nil {
		out = append(out, agents.Naive)
	}
	return out
}

// resolve returns the searcher registered for name ("deep", "chain",
// "naive", "auto", or "" which behaves like "auto").
func (e *Engine) resolve(name string) (agentrouter.Searcher, error) {
	switch name {
	case "deep":
		if e.deep == nil {
			return nil, fmt.Errorf("engine: deep searcher not configured")
		}
		return e.deep, nil
	case "chain":
		if e.chain == nil {
			return nil, fmt.Errorf("engine: chain searcher not configured")
		}
		return e.chain, nil
	case "naive":
		if e.naive == nil {
			return nil, fmt.Errorf("engine: naive searcher not configured")
		}
		return e.naive, nil
	case "", "auto":
		if e.auto == nil {
			return nil, fmt.Errorf("engine: no agent router configured")
		}
		return e.auto, nil
	default:
		return nil, fmt.Errorf("engine: unknown agent %q", name)
	}
}

// Query answers question via the named agent ("deep", "chain", "naive",
// or "auto"/"" for the Agent Router's choice), bounding each searcher's
// internal iteration to maxIter.
func (e *Engine) Query(ctx context.Context, agent, question string, maxIter int) (string, []vectorstore.Hit, int, error) {
	start := time.Now()
	s, err := e.resolve(agent)
	if err != nil {
		return "", nil, 0, err
	}
	answer, hits, tokens, err := s.Query(ctx, question, maxIter)

	labels := map[string]string{"agent": agent}
	e.metrics.IncCounter(metrics.QueriesTotal, labels)
	e.metrics.ObserveHistogram(metrics.QueryLatencyMS, float64(time.Since(start).Milliseconds()), labels)
	e.metrics.ObserveHistogram(metrics.QueryTokensTotal, float64(tokens), labels)
	e.metrics.ObserveHistogram(metrics.RetrievedHits, float64(len(hits)), labels)
	return answer, hits, tokens, err
}

// Retrieve runs only the retrieval half of the named agent, returning the
// deduplicated citations and the token spend without producing a final
// answer.
func (e *Engine) Retrieve(ctx context.Context, agent, question string, maxIter int) ([]vectorstore.Hit, int, error) {
	s, err := e.resolve(agent)
	if err != nil {
		return nil, 0, err
	}
	return s.Retrieve(ctx, question, maxIter)
}
