package nonce

import (
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence/badger"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence/memory"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence/redis"
	"go.uber.org/zap"
)

// NewStore opens the high-water-mark store described by cfg. A nil cfg or an empty
// type means no store, which is reported as a nil store and no error.
func NewStore(cfg *config.NonceStoreConfig, logger *zap.Logger) (persistence.INoncePersistence, error) {
	if cfg == nil || cfg.Type == config.NonceStoreNone {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid nonce store config: %w", err)
	}

	var (
		store persistence.INoncePersistence
		err   error
	)
	switch cfg.Type {
	case config.NonceStoreMemory:
		store = memory.NewMemoryPersistence(logger)
	case config.NonceStoreBadger:
		store, err = badger.NewBadgerPersistence(cfg.Path, logger)
	case config.NonceStoreRedis:
		store, err = redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.RedisAddress,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported nonce store type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return checkHealth(store, cfg.Type)
}

// checkHealth closes store and fails if it does not pass its own health check.
func checkHealth(store persistence.INoncePersistence, storeType config.NonceStoreType) (persistence.INoncePersistence, error) {
	if err := store.HealthCheck(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s nonce store failed health check: %w", storeType, err)
	}
	return store, nil
}
