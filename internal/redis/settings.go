package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const targetAmountKey = "settings:target_amount"

// SettingsStore keeps settings owned by collaborators outside the core, such
// as the daily income target written by the reminder feature.
type SettingsStore struct {
	client *redis.Client
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(client *redis.Client) *SettingsStore {
	return &SettingsStore{client: client}
}

// GetTargetAmount returns the stored daily target.
func (s *SettingsStore) GetTargetAmount(ctx context.Context) (decimal.Decimal, bool, error) {
	raw, err := s.client.Get(ctx, targetAmountKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return amount, true, nil
}

// SetTargetAmount stores the daily target. It does not expire.
func (s *SettingsStore) SetTargetAmount(ctx context.Context, amount decimal.Decimal) error {
	return s.client.Set(ctx, targetAmountKey, amount.String(), 0).Err()
}
