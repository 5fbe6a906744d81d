package store

import (
	"context"
	"fmt"
	"time"
)

// KV is what every driver provides. Values are opaque bytes and a ttl of
// zero keeps an entry until it is deleted.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Sweep(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// Open picks a driver by name: memory, sqlite or postgres.
func Open(ctx context.Context, driver, dsn string) (KV, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
