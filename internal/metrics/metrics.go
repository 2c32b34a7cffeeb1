// Package metrics exposes a small counter/histogram interface and an
// OpenTelemetry-backed implementation for the orchestrator's own
// operational metrics (query counts, latency, token spend and retrieved
// hits per query, recorded by internal/engine), as distinct from the
// per-answer token count returned to callers. JudgeVerdictTotal is
// declared here but no package records it.
package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder is the minimum contract a metrics backend must satisfy.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveHistogram(name string, value float64, labels map[string]string)
}

// Names of the counters and histograms the orchestrator records.
const (
	QueriesTotal      = "deepsearcher_queries_total"
	QueryTokensTotal  = "deepsearcher_query_tokens_total"
	JudgeVerdictTotal = "deepsearcher_judge_verdicts_total"
	QueryLatencyMS    = "deepsearcher_query_latency_ms"
	RetrievedHits     = "deepsearcher_retrieved_hits"
)

// Otel is a thin adapter over the OpenTelemetry metrics API, caching
// instruments by name since the SDK does not allow re-registering one.
type Otel struct {
	meter metric.Meter

	mu         sync.RWMutex
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewOtel constructs an Otel recorder using the global MeterProvider.
// Call otel.SetMeterProvider in main() before traffic starts if you want
// metrics actually exported somewhere; with the default no-op provider
// this is a safe, inert recorder.
func NewOtel() *Otel {
	return &Otel{
		meter:      otel.Meter("deepsearcher"),
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (o *Otel) IncCounter(name string, labels map[string]string) {
	if o == nil {
		return
	}
	c, ok := o.getCounter(name)
	if !ok {
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(toAttrs(labels)...))
}

func (o *Otel) ObserveHistogram(name string, value float64, labels map[string]string) {
	if o == nil {
		return
	}
	h, ok := o.getHistogram(name)
	if !ok {
		return
	}
	h.Record(context.Background(), value, metric.WithAttributes(toAttrs(labels)...))
}

func (o *Otel) getCounter(name string) (metric.Int64Counter, bool) {
	o.mu.RLock()
	c, ok := o.counters[name]
	o.mu.RUnlock()
	if ok {
		return c, true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok = o.counters[name]; ok {
		return c, true
	}
	ctr, err := o.meter.Int64Counter(name)
	if err != nil {
		return ctr, false
	}
	o.counters[name] = ctr
	return ctr, true
}

func (o *Otel) getHistogram(name string) (metric.Float64Histogram, bool) {
	o.mu.RLock()
	h, ok := o.histograms[name]
	o.mu.RUnlock()
	if ok {
		return h, true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if h, ok = o.histograms[name]; ok {
		return h, true
	}
	hist, err := o.meter.Float64Histogram(name)
	if err != nil {
		return hist, false
	}
	o.histograms[name] = hist
	return hist, true
}

func toAttrs(labels map[string]string) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		out = append(out, attribute.String(k, v))
	}
	return out
}

// Noop discards every call; used when metrics are not configured.
type Noop struct{}

func (Noop) IncCounter(string, map[string]string)            {}
func (Noop) ObserveHistogram(string, float64, map[string]string) {}
