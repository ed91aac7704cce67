package service

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"taxi/internal/domain"
	"taxi/internal/redis"
)

var settingsLogger = loggo.GetLogger("taxi.service.settings")

// SettingsService resolves the daily income target. The value is owned by
// the reminder collaborator and stored in Redis; configuration supplies the
// fallback.
type SettingsService struct {
	store         redis.SettingsStoreInterface
	defaultTarget domain.Money
}

// NewSettingsService creates a new SettingsService. store may be nil.
func NewSettingsService(store redis.SettingsStoreInterface, defaultTarget domain.Money) *SettingsService {
	return &SettingsService{
		store:         store,
		defaultTarget: defaultTarget,
	}
}

// TargetAmount returns the stored target, or the configured one when none is
// stored or the store cannot be reached.
func (s *SettingsService) TargetAmount(ctx context.Context) domain.Money {
	if s.store == nil {
		return s.defaultTarget
	}

	amount, ok, err := s.store.GetTargetAmount(ctx)
	if err != nil {
		settingsLogger.Warningf("reading target amount, using configured value: %v", err)
		return s.defaultTarget
	}
	if !ok {
		return s.defaultTarget
	}
	return amount
}

// SetTargetAmount stores a new daily target.
func (s *SettingsService) SetTargetAmount(ctx context.Context, amount domain.Money) error {
	if amount.IsNegative() {
		return ErrInvalidTarget
	}
	if s.store == nil {
		return storageError(errors.New("settings store not configured"))
	}
	if err := s.store.SetTargetAmount(ctx, amount); err != nil {
		return errors.Annotate(storageError(err), "storing target amount")
	}
	settingsLogger.Infof("daily target set to %s", amount.StringFixed(2))
	return nil
}
