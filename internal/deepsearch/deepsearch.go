// Package deepsearch implements the Deep Searcher: parallel sub-query
// retrieval with LLM-judge reranking, gap-question reflection, and bounded
// iteration, per spec §4.2.
package deepsearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"deepsearcher/internal/cache"
	"deepsearcher/internal/dedupe"
	"deepsearcher/internal/embedding"
	"deepsearcher/internal/llm"
	"deepsearcher/internal/router"
	"deepsearcher/internal/vectorstore"
)

// Description is the Deep Searcher's self-description, used by the agent
// router to decide when to delegate here.
const Description = "Best for complex, multi-part questions that benefit from decomposing into several sub-questions searched in parallel, with reflection on gaps before answering."

const (
	maxSubQueries = 4
	maxGapQueries = 3
	defaultTopK   = 10
	judgeCacheTTL = 30 * time.Minute
)

const subQueryPrompt = `Decompose the following question into up to %d independent search
sub-queries that together cover what is needed to answer it. If the
question is already simple, return a single-element list containing it
unchanged. Reply with a JSON list of strings only.

Question: %s`

const reflectionPrompt = `You are deciding whether more information is needed to answer a question.

Original question: %s

Sub-queries investigated so far:
%s

Accepted passages so far:
%s

If the passages above are sufficient, reply with an empty JSON list: [].
Otherwise reply with up to %d new "gap" sub-queries, as a JSON list of
strings, that would fill in what is missing. Do not repeat a sub-query
already investigated.`

const judgePrompt = `Is the following passage helpful for answering any of these questions?

Questions:
%s

Passage:
%s

Reply with YES or NO only.`

const summaryPrompt = `Answer the question using only the information in the passages below. If
the passages do not contain enough information, say so plainly.

Question: %s

Sub-queries investigated:
%s

Passages:
%s`

// Config tunes the Deep Searcher's resource usage. The zero value is usable
// and applies the package defaults.
type Config struct {
	TopK         int // per-collection search width; 0 → defaultTopK
	JudgeWorkers int // max concurrent judge calls across all tasks; 0 → unbounded
}

// Searcher implements the Deep Searcher protocol.
type Searcher struct {
	Router   *router.Router
	Embedder embedding.Client
	Store    vectorstore.Store
	LLM      llm.Client
	Cache    cache.Cache // optional judge-verdict cache; nil → cache.Noop{}

	cfg Config
}

// New constructs a Deep Searcher.
func New(r *router.Router, embedder embedding.Client, store vectorstore.Store, client llm.Client, c cache.Cache, cfg Config) *Searcher {
	if c == nil {
		c = cache.Noop{}
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &Searcher{Router: r, Embedder: embedder, Store: store, LLM: client, Cache: c, cfg: cfg}
}

// Retrieve runs the Deep Searcher protocol up to maxIter iterations and
// returns the deduplicated accepted hits, total tokens spent, and the full
// history of sub-queries investigated.
func (s *Searcher) Retrieve(ctx context.Context, question string, maxIter int) ([]vectorstore.Hit, int, []string, error) {
	if maxIter < 1 {
		maxIter = 1
	}
	tokens := 0

	subReply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(subQueryPrompt, maxSubQueries, question)},
	})
	if err != nil {
		return nil, tokens, nil, fmt.Errorf("deepsearch: sub-query generation: %w", err)
	}
	tokens += subReply.TotalTokens

	active, err := llm.ParseList(subReply.Content)
	if err != nil {
		return nil, tokens, nil, fmt.Errorf("deepsearch: sub-query generation: %w", err)
	}
	if len(active) == 0 {
		active = []string{question}
	}
	if len(active) > maxSubQueries {
		active = active[:maxSubQueries]
	}

	allSubQueries := append([]string(nil), active...)
	var accepted []vectorstore.Hit

	for iter := 1; iter <= maxIter; iter++ {
		hits, taskTokens, err := s.runIteration(ctx, question, active, allSubQueries)
		if err != nil {
			return dedupe.Hits(accepted), tokens + taskTokens, allSubQueries, err
		}
		tokens += taskTokens
		accepted = dedupe.Hits(append(accepted, hits...))

		if iter == maxIter {
			break
		}

		gapQueries, reflectTokens, err := s.reflect(ctx, question, allSubQueries, accepted)
		tokens += reflectTokens
		if err != nil {
			// Reflection failures are not fatal: treat as "no gaps found".
			break
		}
		if len(gapQueries) == 0 {
			break
		}
		active = gapQueries
		allSubQueries = append(allSubQueries, gapQueries...)
	}

	return accepted, tokens, allSubQueries, nil
}

// Description returns the Deep Searcher's self-description for the agent
// router's prompt.
func (s *Searcher) Description() string { return Description }

// Query runs Retrieve and then summarizes the accepted hits into a final
// answer.
func (s *Searcher) Query(ctx context.Context, question string, maxIter int) (string, []vectorstore.Hit, int, error) {
	hits, tokens, allSubQueries, err := s.Retrieve(ctx, question, maxIter)
	if err != nil {
		return "", hits, tokens, err
	}
	if len(hits) == 0 {
		return "No relevant information was found for this question.", hits, tokens, nil
	}

	var chunks strings.Builder
	for i, h := range hits {
		text := h.Text
		if wider, ok := h.Metadata["wider_text"].(string); ok && wider != "" {
			text = wider
		}
		fmt.Fprintf(&chunks, "<chunk_%d>\n%s\n</chunk_%d>\n", i, text, i)
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(summaryPrompt, question, strings.Join(allSubQueries, "\n"), chunks.String())},
	})
	if err != nil {
		return "", hits, tokens, fmt.Errorf("deepsearch: summarization: %w", err)
	}
	tokens += reply.TotalTokens
	return reply.Content, hits, tokens, nil
}

// runIteration fans out one retrieval task per active sub-query and waits
// for all of them to complete before returning.
func (s *Searcher) runIteration(ctx context.Context, question string, active, allSubQueries []string) ([]vectorstore.Hit, int, error) {
	var (
		mu       sync.Mutex
		allHits  []vectorstore.Hit
		total    int
		sem      *semaphore.Weighted
	)
	if s.cfg.JudgeWorkers > 0 {
		sem = semaphore.NewWeighted(int64(s.cfg.JudgeWorkers))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, sq := range active {
		sq := sq
		g.Go(func() error {
			hits, tokens, err := s.runTask(gctx, question, sq, allSubQueries, sem)
			mu.Lock()
			allHits = append(allHits, hits...)
			total += tokens
			mu.Unlock()
			if err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dedupe.Hits(allHits), total, err
	}
	return dedupe.Hits(allHits), total, nil
}

// runTask performs one sub-query's retrieval: route, embed, search every
// selected collection, then judge every returned hit.
func (s *Searcher) runTask(ctx context.Context, question, subQuery string, allSubQueries []string, sem *semaphore.Weighted) ([]vectorstore.Hit, int, error) {
	tokens := 0

	collections, routeTokens, err := s.Router.Route(ctx, subQuery, s.Embedder.Dimension())
	tokens += routeTokens
	if err != nil {
		return nil, tokens, fmt.Errorf("deepsearch: route sub-query %q: %w", subQuery, err)
	}
	if len(collections) == 0 {
		return nil, tokens, nil
	}

	vec, err := s.Embedder.EmbedQuery(ctx, subQuery)
	if err != nil {
		return nil, tokens, fmt.Errorf("deepsearch: embed sub-query %q: %w", subQuery, err)
	}

	var candidates []vectorstore.Hit
	for _, coll := range collections {
		hits, err := s.Store.Search(ctx, coll, vec, s.cfg.TopK)
		if err != nil {
			// Per spec §4.2 failure semantics: log and continue.
			log.Debug().Err(err).Str("collection", coll).Msg("deepsearch_search_error")
			continue
		}
		candidates = append(candidates, hits...)
	}

	questions := append([]string{question}, allSubQueries...)
	questionList := strings.Join(dedupeStrings(questions), "\n")

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		judged  []vectorstore.Hit
		jTokens int
	)
	for _, hit := range candidates {
		hit := hit
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)
			}
			accept, t, err := s.judge(ctx, hit, questionList)
			if err != nil {
				// Per spec §4.2: a failing judge call drops the hit, others continue.
				return
			}
			mu.Lock()
			jTokens += t
			if accept {
				judged = append(judged, hit)
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	tokens += jTokens

	return judged, tokens, nil
}

func (s *Searcher) judge(ctx context.Context, hit vectorstore.Hit, questionList string) (bool, int, error) {
	key := judgeCacheKey(hit.Text, questionList)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		return cached == "1", 0, nil
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(judgePrompt, questionList, hit.Text)},
	})
	if err != nil {
		return false, 0, err
	}
	accept := llm.JudgeAccepts(reply.Content)

	verdict := "0"
	if accept {
		verdict = "1"
	}
	_ = s.Cache.Set(ctx, key, verdict, judgeCacheTTL)

	return accept, reply.TotalTokens, nil
}

func (s *Searcher) reflect(ctx context.Context, question string, allSubQueries []string, accepted []vectorstore.Hit) ([]string, int, error) {
	var texts strings.Builder
	for _, h := range accepted {
		texts.WriteString(h.Text)
		texts.WriteString("\n")
	}

	reply, err := s.LLM.Chat(ctx, []llm.Message{
		{Role: "user", Content: fmt.Sprintf(reflectionPrompt, question, strings.Join(allSubQueries, "\n"), texts.String(), maxGapQueries)},
	})
	if err != nil {
		return nil, 0, err
	}

	gaps, err := llm.ParseList(reply.Content)
	if err != nil {
		return nil, reply.TotalTokens, err
	}
	if len(gaps) > maxGapQueries {
		gaps = gaps[:maxGapQueries]
	}
	return gaps, reply.TotalTokens, nil
}

func judgeCacheKey(text, questionList string) string {
	sum := sha256.Sum256([]byte(text + "\x1f" + questionList))
	return "judge:" + hex.EncodeToString(sum[:])
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
