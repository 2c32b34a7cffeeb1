package cache

import (
	"context"
	"time"
)

// Noop is a Cache that never stores anything. It is the default when no
// cache backend is configured, so callers can consult a Cache
// unconditionally without a nil check.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool)        { return "", false }
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Close() error                                      { return nil }
