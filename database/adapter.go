package database

import (
	"context"

	"github.com/kbukum/watershed/provider"
)

var _ provider.Provider = (*DB)(nil)

// Name returns "sqlite".
func (d *DB) Name() string { return "sqlite" }

// IsAvailable reports whether the database is open and answers a ping.
func (d *DB) IsAvailable(ctx context.Context) bool {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return false
	}
	return d.PingContext(ctx) == nil
}
