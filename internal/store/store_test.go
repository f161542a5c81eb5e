package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/edubyte/eubyte-backend/internal"
	"github.com/edubyte/eubyte-backend/internal/config"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestStoreAppendRecent(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, st := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				ex := internal.Exchange{
					Kind:      internal.ExchangeChat,
					Bot:       "eubyte",
					Model:     "gpt-4o",
					Status:    200,
					LatencyMS: int64(100 * (i + 1)),
					CreatedAt: base.Add(time.Duration(i) * time.Minute),
				}
				if err := st.Append(ctx, ex); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}
			if err := st.Append(ctx, internal.Exchange{
				Kind:      internal.ExchangeTranscribe,
				Status:    422,
				Error:     "Could not process the audio format",
				CreatedAt: base.Add(10 * time.Minute),
			}); err != nil {
				t.Fatalf("Append() error = %v", err)
			}

			got, err := st.Recent(ctx, 2)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Recent(2) len = %d", len(got))
			}
			if got[0].Kind != internal.ExchangeTranscribe || got[0].Status != 422 || got[0].Error == "" {
				t.Errorf("newest = %+v", got[0])
			}
			if got[1].LatencyMS != 300 || got[1].Bot != "eubyte" {
				t.Errorf("second = %+v", got[1])
			}
			if got[0].ID <= got[1].ID {
				t.Errorf("ids not descending: %d, %d", got[0].ID, got[1].ID)
			}
			if !got[1].CreatedAt.Equal(base.Add(2 * time.Minute)) {
				t.Errorf("CreatedAt = %v", got[1].CreatedAt)
			}

			all, err := st.Recent(ctx, 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 4 {
				t.Errorf("Recent(0) len = %d, want default limit to cover all 4", len(all))
			}
		})
	}
}

func TestStorePrune(t *testing.T) {
	now := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	for name, st := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, age := range []time.Duration{40 * 24 * time.Hour, 31 * 24 * time.Hour, 2 * time.Hour, time.Minute} {
				if err := st.Append(ctx, internal.Exchange{Kind: internal.ExchangeChat, Status: 200, CreatedAt: now.Add(-age)}); err != nil {
					t.Fatal(err)
				}
			}

			p := &Pruner{store: st, retention: 30 * 24 * time.Hour, log: discardLogger(), now: func() time.Time { return now }}
			n, err := p.RunOnce(ctx)
			if err != nil {
				t.Fatalf("RunOnce() error = %v", err)
			}
			if n != 2 {
				t.Errorf("pruned %d, want 2", n)
			}
			left, _ := st.Recent(ctx, 10)
			if len(left) != 2 {
				t.Errorf("left %d rows, want 2", len(left))
			}
		})
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	st, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Append(context.Background(), internal.Exchange{Kind: internal.ExchangeChat, Status: 200}); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	// migrations already applied: reopening must not fail
	st, err = NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer st.Close()
	got, err := st.Recent(context.Background(), 10)
	if err != nil || len(got) != 1 {
		t.Errorf("Recent() = %v, %v", got, err)
	}
}

func TestOpen(t *testing.T) {
	st, err := Open(config.StoreConfig{Driver: "memory"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T", st)
	}
	if _, err := Open(config.StoreConfig{Driver: "postgres"}, nil); err == nil {
		t.Error("Open(postgres) succeeded")
	}
}

func TestNewPruner(t *testing.T) {
	p, err := NewPruner(NewMemoryStore(), time.Hour, "0 0 3 * * *", discardLogger())
	if err != nil {
		t.Fatalf("NewPruner() error = %v", err)
	}
	p.Start()
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	if _, err := NewPruner(NewMemoryStore(), time.Hour, "not a cron", discardLogger()); err == nil {
		t.Error("NewPruner() accepted an invalid schedule")
	}
	if _, err := NewPruner(NewMemoryStore(), 0, "0 0 3 * * *", discardLogger()); err == nil {
		t.Error("NewPruner() accepted zero retention")
	}
}
