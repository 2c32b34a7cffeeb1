// Package audit provides write-only telemetry sinks for completed queries.
// An audit sink is never read back by the orchestrator: it exists purely
// for downstream observability and is not part of any request's answer or
// citations. A nil or no-op Sink must never change a request's result.
package audit

import (
	"context"
	"time"
)

// Record describes one completed Query or Retrieve call.
type Record struct {
	RequestID  string
	Question   string
	Agent      string
	Collections []string
	Iterations int
	Tokens     int
	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Sink receives completed query records. Record is best effort: it logs and
// swallows its own errors instead of returning them. The Postgres and Kafka
// sinks write synchronously under the caller's context, so a slow backend
// delays the caller until the write finishes or that context ends.
type Sink interface {
	Record(ctx context.Context, rec Record)
	Close() error
}
