package audit

import (
	"context"
	"testing"
)

type recording struct {
	got    []Record
	closed bool
}

func (r *recording) Record(_ context.Context, rec Record) { r.got = append(r.got, rec) }
func (r *recording) Close() error                          { r.closed = true; return nil }

func TestMulti_FansOutAndCloses(t *testing.T) {
	a := &recording{}
	b := &recording{}
	m := Multi{a, b, nil}
	rec := Record{RequestID: "r1", Question: "q"}

	m.Record(context.Background(), rec)
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Fatalf("expected both sinks to record, got a=%d b=%d", len(a.got), len(b.got))
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatalf("expected both sinks closed")
	}
}

func TestNoop_DiscardsSilently(t *testing.T) {
	var n Noop
	n.Record(context.Background(), Record{RequestID: "x"})
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
