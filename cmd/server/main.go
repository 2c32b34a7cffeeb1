// Command server exposes the orchestrator over HTTP, per spec §6.3:
// POST /query, POST /retrieve, POST /set-provider-config, GET /healthz.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"deepsearcher/internal/agentrouter"
	"deepsearcher/internal/audit"
	"deepsearcher/internal/cache"
	"deepsearcher/internal/chainsearch"
	"deepsearcher/internal/config"
	"deepsearcher/internal/deepsearch"
	"deepsearcher/internal/engine"
	"deepsearcher/internal/metrics"
	"deepsearcher/internal/naivesearch"
	"deepsearcher/internal/observability"
	"deepsearcher/internal/providers"
	"deepsearcher/internal/router"
	"deepsearcher/internal/vectorstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.InitLogger("", cfg.Logging.Level)

	ctx := context.Background()
	if cfg.Obs.OTLP != "" {
		shutdown, err := observability.InitOTel(ctx, cfg.Obs)
		if err != nil {
			return fmt.Errorf("init otel: %w", err)
		}
		defer shutdown(ctx)
		observability.EnableOTelLogs(cfg.Obs.ServiceName)
	}

	reg, err := providers.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}

	sink, err := buildAuditSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("audit sink: %w", err)
	}
	defer sink.Close()

	routeCache, err := buildCache(cfg)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer routeCache.Close()

	srv := &server{cfg: cfg, reg: reg, sink: sink, cache: routeCache, metrics: metrics.NewOtel()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealthz)
	mux.HandleFunc("POST /query", srv.handleQuery)
	mux.HandleFunc("POST /retrieve", srv.handleRetrieve)
	mux.HandleFunc("POST /set-provider-config", srv.handleSetProviderConfig)

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server: listening")
	return http.ListenAndServe(cfg.HTTPAddr, mux)
}

func buildAuditSink(ctx context.Context, cfg config.Config) (audit.Sink, error) {
	var sinks audit.Multi
	if cfg.Audit.Postgres.Enabled {
		pg, err := audit.NewPostgres(ctx, cfg.Audit.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres audit sink: %w", err)
		}
		sinks = append(sinks, pg)
	}
	if cfg.Audit.Kafka.Enabled {
		kw, err := audit.NewKafka(cfg.Audit.Kafka.Brokers, cfg.Audit.Kafka.Topic)
		if err != nil {
			return nil, fmt.Errorf("kafka audit sink: %w", err)
		}
		sinks = append(sinks, kw)
	}
	if len(sinks) == 0 {
		return audit.Noop{}, nil
	}
	return sinks, nil
}

func buildCache(cfg config.Config) (cache.Cache, error) {
	if !cfg.Redis.Enabled {
		return cache.Noop{}, nil
	}
	return cache.NewRedis(cache.RedisConfig{
		Addr:                  cfg.Redis.Addr,
		Password:              cfg.Redis.Password,
		DB:                    cfg.Redis.DB,
		TLSInsecureSkipVerify: cfg.Redis.TLSInsecureSkipVerify,
	})
}

type server struct {
	cfg     config.Config
	reg     *providers.Registry
	sink    audit.Sink
	cache   cache.Cache
	metrics metrics.Recorder
}

func (s *server) buildEngine() *engine.Engine {
	r := router.New(s.reg.VectorStore(), s.reg.LLM(), s.cache)

	deepSearcher := deepsearch.New(r, s.reg.Embedding(), s.reg.VectorStore(), s.reg.LLM(), s.cache, deepsearch.Config{JudgeWorkers: 4})
	chainSearcher := chainsearch.New(r, s.reg.Embedding(), s.reg.VectorStore(), s.reg.LLM(), chainsearch.Config{EarlyStop: true})
	naiveSearcher := naivesearch.New(r, s.reg.Embedding(), s.reg.VectorStore(), s.reg.LLM(), naivesearch.Config{})

	agents := engine.Agents{Deep: deepSearcher, Chain: chainSearcher, Naive: naiveSearcher}
	autoRouter := agentrouter.New(engine.RegisteredAgents(agents), s.reg.LLM())
	return engine.New(agents, autoRouter).WithMetrics(s.metrics)
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type citation struct {
	Text      string         `json:"text"`
	Reference string         `json:"reference,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type queryResponse struct {
	Result       string     `json:"result"`
	Citations    []citation `json:"citations"`
	ConsumeToken int        `json:"consume_token"`
}

// parseQueryParams reads original_query/max_iter/agent from the request's
// query string, matching the HTTP façade's POST /query and POST /retrieve
// contract (original_query= & max_iter=, agent is an orchestrator extension
// beyond the documented contract, defaulting to the Agent Router's choice).
func (s *server) parseQueryParams(r *http.Request) (question, agent string, maxIter int) {
	q := r.URL.Query()
	question = q.Get("original_query")
	agent = q.Get("agent")
	maxIter = s.cfg.QuerySettings.MaxIter
	if v := q.Get("max_iter"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxIter = n
		}
	}
	return question, agent, maxIter
}

func toCitations(hits []vectorstore.Hit) []citation {
	out := make([]citation, len(hits))
	for i, h := range hits {
		out[i] = citation{Text: h.Text, Reference: h.Reference, Metadata: h.Metadata}
	}
	return out
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	question, agent, maxIter := s.parseQueryParams(r)
	if question == "" {
		http.Error(w, "original_query is required", http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	started := time.Now()
	logger := observability.LoggerWithTrace(r.Context())

	eng := s.buildEngine()
	answer, hits, tokens, err := eng.Query(r.Context(), agent, question, maxIter)

	rec := audit.Record{
		RequestID:  requestID,
		Question:   question,
		Agent:      agent,
		Iterations: maxIter,
		Tokens:     tokens,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		rec.Err = err.Error()
	}
	s.sink.Record(r.Context(), rec)

	if err != nil {
		logger.Error().Err(err).Str("request_id", requestID).Msg("query failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, queryResponse{Result: answer, Citations: toCitations(hits), ConsumeToken: tokens})
}

type retrieveResponse struct {
	Citations    []citation `json:"citations"`
	ConsumeToken int        `json:"consume_token"`
}

func (s *server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	question, agent, maxIter := s.parseQueryParams(r)
	if question == "" {
		http.Error(w, "original_query is required", http.StatusBadRequest)
		return
	}

	logger := observability.LoggerWithTrace(r.Context())

	eng := s.buildEngine()
	hits, tokens, err := eng.Retrieve(r.Context(), agent, question, maxIter)
	if err != nil {
		logger.Error().Err(err).Msg("retrieve failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, retrieveResponse{Citations: toCitations(hits), ConsumeToken: tokens})
}

type setProviderConfigRequest struct {
	Feature  string         `json:"feature"`
	Provider string         `json:"provider"`
	Config   map[string]any `json:"config"`
}

func (s *server) handleSetProviderConfig(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerWithTrace(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	logger.Debug().RawJSON("body", observability.RedactJSON(body)).Msg("set-provider-config request")

	var req setProviderConfigRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	pc := config.ProviderConfig{Provider: req.Provider, Options: req.Config}
	if err := s.reg.Set(r.Context(), req.Feature, pc); err != nil {
		logger.Error().Err(err).Str("feature", req.Feature).Msg("set-provider-config failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
