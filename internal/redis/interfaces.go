package redis

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireShiftStartLock(ctx context.Context, ttl time.Duration) (token string, ok bool, err error)
	ReleaseShiftStartLock(ctx context.Context, token string) error
}

// SettingsStoreInterface defines the interface for externally supplied settings.
type SettingsStoreInterface interface {
	// GetTargetAmount returns the stored daily target and whether one is set.
	GetTargetAmount(ctx context.Context) (decimal.Decimal, bool, error)
	SetTargetAmount(ctx context.Context, amount decimal.Decimal) error
}

// IdempotencyStoreInterface defines the interface for replayable responses.
type IdempotencyStoreInterface interface {
	// Get returns the stored payload, or nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface        = (*LockStore)(nil)
	_ SettingsStoreInterface    = (*SettingsStore)(nil)
	_ IdempotencyStoreInterface = (*IdempotencyStore)(nil)
)
