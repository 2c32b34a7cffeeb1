// Command query runs a single question through the orchestrator from the
// command line, per spec §6.4.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"deepsearcher/internal/agentrouter"
	"deepsearcher/internal/chainsearch"
	"deepsearcher/internal/config"
	"deepsearcher/internal/deepsearch"
	"deepsearcher/internal/engine"
	"deepsearcher/internal/naivesearch"
	"deepsearcher/internal/observability"
	"deepsearcher/internal/providers"
	"deepsearcher/internal/router"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("query")
	}
}

func run() error {
	agentFlag := flag.String("agent", "auto", "agent to use: deep, chain, naive, or auto")
	maxIter := flag.Int("max_iter", 0, "override the configured iteration cap (0 = use config default)")
	retrieveOnly := flag.Bool("retrieve-only", false, "print citations only, skip the final answer")
	flag.Parse()

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		return fmt.Errorf("usage: query [--agent deep|chain|naive|auto] [--max_iter N] [--retrieve-only] <question>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.InitLogger("", cfg.Logging.Level)

	ctx := context.Background()
	reg, err := providers.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}

	iterCap := cfg.QuerySettings.MaxIter
	if *maxIter > 0 {
		iterCap = *maxIter
	}

	eng, err := buildEngine(reg)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if *retrieveOnly {
		hits, tokens, err := eng.Retrieve(ctx, *agentFlag, question, iterCap)
		if err != nil {
			return fmt.Errorf("retrieve: %w", err)
		}
		for i, h := range hits {
			fmt.Printf("[%d] %s\n", i, h.Text)
		}
		fmt.Fprintf(os.Stderr, "tokens: %d\n", tokens)
		return nil
	}

	answer, hits, tokens, err := eng.Query(ctx, *agentFlag, question, iterCap)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	fmt.Println(answer)
	fmt.Println("\nReferences:")
	for i, h := range hits {
		ref := h.Reference
		if ref == "" {
			ref = h.Text
		}
		fmt.Printf("[%d] %s\n", i, ref)
	}
	fmt.Fprintf(os.Stderr, "citations: %d, tokens: %d\n", len(hits), tokens)
	return nil
}

func buildEngine(reg *providers.Registry) (*engine.Engine, error) {
	r := router.New(reg.VectorStore(), reg.LLM(), nil)

	deepSearcher := deepsearch.New(r, reg.Embedding(), reg.VectorStore(), reg.LLM(), nil, deepsearch.Config{})
	chainSearcher := chainsearch.New(r, reg.Embedding(), reg.VectorStore(), reg.LLM(), chainsearch.Config{})
	naiveSearcher := naivesearch.New(r, reg.Embedding(), reg.VectorStore(), reg.LLM(), naivesearch.Config{})

	agents := engine.Agents{Deep: deepSearcher, Chain: chainSearcher, Naive: naiveSearcher}
	autoRouter := agentrouter.New(engine.RegisteredAgents(agents), reg.LLM())

	return engine.New(agents, autoRouter), nil
}
