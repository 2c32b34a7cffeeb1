// Package router implements the Collection Router: given a query and the
// embedding dimension in use, it picks the subset of vector-store
// collections whose descriptions plausibly relate to the query.
package router

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"deepsearcher/internal/cache"
	"deepsearcher/internal/llm"
	"deepsearcher/internal/vectorstore"
)

// CacheTTL is how long a routing decision is cached.
const CacheTTL = 10 * time.Minute

const systemPrompt = `You are a collection router for a retrieval system. Given a list of
collections with their descriptions and a user question, reply with a JSON
list of the collection names whose description plausibly relates to the
question. Reply with only the list, no explanation.`

// Router routes a query to the subset of collections worth searching.
type Router struct {
	Store vectorstore.Store
	LLM   llm.Client
	Cache cache.Cache // optional; use cache.Noop{} to disable
}

// New constructs a Router. cache may be nil, in which case caching is
// disabled.
func New(store vectorstore.Store, client llm.Client, c cache.Cache) *Router {
	if c == nil {
		c = cache.Noop{}
	}
	return &Router{Store: store, LLM: client, Cache: c}
}

// Route returns the collection names whose declared dimension matches dim
// and whose description plausibly relates to query, plus the LLM tokens
// spent deciding. See spec §4.1 for the exact algorithm.
func (r *Router) Route(ctx context.Context, query string, dim int) ([]string, int, error) {
	all, err := r.Store.ListCollections(ctx, dim)
	if err != nil {
		return nil, 0, fmt.Errorf("router: list collections: %w", err)
	}
	if len(all) == 0 {
		return nil, 0, nil
	}
	if len(all) == 1 {
		return []string{all[0].Name}, 0, nil
	}

	key := cacheKey(dim, query)
	if cached, ok := r.Cache.Get(ctx, key); ok {
		return strings.Split(cached, "\x1f"), 0, nil
	}

	names, tokens, err := r.routeViaLLM(ctx, query, all)
	if err != nil {
		return nil, tokens, err
	}

	if len(names) > 0 {
		_ = r.Cache.Set(ctx, key, strings.Join(names, "\x1f"), CacheTTL)
	}
	return names, tokens, nil
}

func (r *Router) routeViaLLM(ctx context.Context, query string, all []vectorstore.CollectionInfo) ([]string, int, error) {
	var b strings.Builder
	b.WriteString("Collections:\n")
	for _, c := range all {
		fmt.Fprintf(&b, "- name: %s, description: %s\n", c.Name, c.Description)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", query)

	reply, err := r.LLM.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("router: llm chat: %w", err)
	}

	chosen, err := llm.ParseList(reply.Content)
	if err != nil {
		return nil, reply.TotalTokens, fmt.Errorf("router: %w", err)
	}

	byName := make(map[string]vectorstore.CollectionInfo, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}

	defaultName := r.Store.DefaultCollection()
	seen := make(map[string]struct{}, len(all))
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		if _, ok := byName[name]; !ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range chosen {
		add(name)
	}
	for _, c := range all {
		if c.Description == "" {
			add(c.Name)
		}
	}
	if defaultName != "" {
		add(defaultName)
	}
	return out, reply.TotalTokens, nil
}

func cacheKey(dim int, query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("route:%d:%s", dim, hex.EncodeToString(sum[:]))
}
