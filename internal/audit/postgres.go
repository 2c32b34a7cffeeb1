package audit

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Postgres is a write-only Sink backed by a pgx connection pool. It appends
// one row per completed query to a query_audit table and never selects
// from it; the orchestrator has no use for historical records.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres dials the pool and ensures the query_audit table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS query_audit (
			request_id  TEXT PRIMARY KEY,
			question    TEXT NOT NULL,
			agent       TEXT NOT NULL,
			collections TEXT NOT NULL,
			iterations  INT NOT NULL,
			tokens      INT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		)`); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// Record inserts rec. Failures are logged, not returned, since the audit
// sink must never fail a request.
func (p *Postgres) Record(ctx context.Context, rec Record) {
	if p == nil || p.pool == nil {
		return
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO query_audit(request_id, question, agent, collections, iterations, tokens, error, started_at, finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (request_id) DO NOTHING`,
		rec.RequestID, rec.Question, rec.Agent, strings.Join(rec.Collections, ","),
		rec.Iterations, rec.Tokens, rec.Err, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		log.Debug().Err(err).Str("request_id", rec.RequestID).Msg("audit_postgres_record_error")
	}
}

func (p *Postgres) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}
