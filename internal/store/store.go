// Package store keeps the exchange ledger: one metadata row per finished chat or
// transcription request. Nothing on the request path reads it back.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/edubyte/eubyte-backend/internal"
	"github.com/edubyte/eubyte-backend/internal/config"
)

// DefaultRecentLimit caps Recent when callers pass a non-positive limit.
const DefaultRecentLimit = 50

// MaxRecentLimit is the largest page Recent returns.
const MaxRecentLimit = 500

type Store interface {
	// Append records an exchange; the stored ID is assigned by the store.
	Append(ctx context.Context, ex internal.Exchange) error
	// Recent returns up to limit exchanges, newest first.
	Recent(ctx context.Context, limit int) ([]internal.Exchange, error)
	// Prune deletes exchanges created before the cutoff and reports how many.
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.StoreConfig, log *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}
