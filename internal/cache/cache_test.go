package cache

import (
	"context"
	"testing"
	"time"
)

func TestNoop_AlwaysMisses(t *testing.T) {
	var c Noop
	ctx := context.Background()
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after Set on Noop")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
