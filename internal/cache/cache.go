// Package cache defines the optional key/value cache the router and deep
// searcher consult for route decisions and judge verdicts. Every caller
// must degrade gracefully to a cache miss: a nil or no-op Cache must never
// change the collections, answer or citations of a request, only its token
// cost (a cache hit skips an LLM call and so reports fewer tokens).
package cache

import (
	"context"
	"time"
)

// Cache is the minimum contract every cache backend satisfies. Get reports
// a miss via ok=false; it must never return an error for an ordinary miss.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}
