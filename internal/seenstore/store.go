// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package seenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/paperbot/internal/dedup"
	"github.com/pdiddy/paperbot/pkg/types"
)

// Store is a SeenSet that also supports the maintenance operations behind
// the seen command.
type Store interface {
	dedup.SeenSet
	Remove(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit int) ([]dedup.Entry, error)
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GCSStore)(nil)
)

// Open returns the store selected by cfg.Driver. An empty driver selects
// SQLite.
func Open(ctx context.Context, cfg types.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case types.StoreSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite store: path is required")
		}
		return OpenSQLite(cfg.Path)
	case types.StoreGCS:
		return OpenGCS(ctx, cfg.Bucket, cfg.Prefix)
	case types.StoreMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// OpenReadOnly is Open for dry runs: nothing is created or written. A SQLite
// database that does not exist yet reads as an empty set.
func OpenReadOnly(ctx context.Context, cfg types.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case types.StoreSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite store: path is required")
		}
		return OpenSQLiteReadOnly(cfg.Path)
	default:
		return Open(ctx, cfg)
	}
}
