package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "data", "trading.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	trades := []Trade{
		{UUID: "a", Market: "KRW-BTC", Side: "bid", Price: 50000000, Volume: 0.001999, Strategy: "RSI_14", CreatedAt: base},
		{UUID: "b", Market: "KRW-BTC", Side: "ask", Price: 51000000, Volume: 0.001999, Strategy: "stop-loss", CreatedAt: base.Add(time.Minute)},
		{UUID: "c", Market: "KRW-ETH", Side: "bid", Price: 3000000, Volume: 0.5, Strategy: "SMA_5_20", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, tr := range trades {
		if err := j.Record(ctx, tr); err != nil {
			t.Fatalf("Record(%s) returned error: %v", tr.UUID, err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d trades, expected 3", len(got))
	}
	// Most recent first.
	if got[0].UUID != "c" || got[2].UUID != "a" {
		t.Fatalf("order=[%s %s %s], expected [c b a]", got[0].UUID, got[1].UUID, got[2].UUID)
	}
	if got[2].Price != 50000000 || got[2].Volume != 0.001999 || got[2].Side != "bid" {
		t.Fatalf("trade=%+v", got[2])
	}

	limited, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent(2) returned error: %v", err)
	}
	if len(limited) != 2 || limited[0].UUID != "c" {
		t.Fatalf("limited=%v", limited)
	}
}

func TestJournalRecentEmpty(t *testing.T) {
	j := openTestJournal(t)

	got, err := j.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Recent on empty journal returned %d rows", len(got))
	}
}
