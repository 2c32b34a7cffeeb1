package dedupe

import (
	"testing"

	"deepsearcher/internal/vectorstore"
)

func hit(text string) vectorstore.Hit { return vectorstore.Hit{Text: text} }

func TestHits_FirstSeenOrder(t *testing.T) {
	in := []vectorstore.Hit{hit("a"), hit("b"), hit("a"), hit("c"), hit("b")}
	out := Hits(in)
	want := []string{"a", "b", "c"}
	if len(out) != len(want) {
		t.Fatalf("got %d hits, want %d", len(out), len(want))
	}
	for i, w := range want {
		if out[i].Text != w {
			t.Errorf("index %d: got %q, want %q", i, out[i].Text, w)
		}
	}
}

func TestHits_Idempotent(t *testing.T) {
	in := []vectorstore.Hit{hit("a"), hit("b"), hit("a")}
	once := Hits(in)
	twice := Hits(once)
	if len(once) != len(twice) {
		t.Fatalf("dedupe not idempotent: %v vs %v", once, twice)
	}
	for i := range once {
		if once[i].Text != twice[i].Text {
			t.Fatalf("dedupe not idempotent at %d: %v vs %v", i, once, twice)
		}
	}
}

func TestHits_Empty(t *testing.T) {
	if out := Hits(nil); len(out) != 0 {
		t.Fatalf("expected empty, got %v", out)
	}
}
