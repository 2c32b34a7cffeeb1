package tokenledger

import "testing"

func TestLedger_Add(t *testing.T) {
	var l Ledger
	l.Add(10)
	l.Add(5)
	l.Add(-3)
	l.Add(0)
	if got := l.Total(); got != 15 {
		t.Fatalf("got %d, want 15", got)
	}
}

func TestLedger_Zero(t *testing.T) {
	var l Ledger
	if got := l.Total(); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}
