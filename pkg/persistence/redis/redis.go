package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefixNonce       = "hl:nonce:"
	keySchemaVersion     = "hl:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Redis has no prefix iteration, so addresses are also kept in a set
	keySetNonces = "hl:nonces:index"

	maxReserveAttempts = 64
)

// RedisPersistence keeps nonce high-water marks in Redis so several agents signing
// for the same address never hand out the same nonce.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.INoncePersistence = (*RedisPersistence)(nil)

type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address  string
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "desk1:" gives "desk1:hl:nonce:0x...".
	KeyPrefix string
}

func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis nonce persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) nonceKey(address common.Address) string {
	return r.prefixKey(keyPrefixNonce + persistence.AddressKey(address))
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	// SETNX so that two agents starting together agree on the version
	if err := r.client.SetNX(ctx, schemaKey, currentSchemaVersion, 0).Err(); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisPersistence) getRecord(ctx context.Context, c redis.Cmdable, key string) (*persistence.NonceRecord, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return persistence.UnmarshalNonceRecord(data)
}

// ReserveNonce uses WATCH/MULTI so that concurrent reservations from other clients
// abort and retry instead of overwriting each other.
func (r *RedisPersistence) ReserveNonce(ctx context.Context, address common.Address, candidate uint64) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, persistence.ErrClosed
	}

	key := r.nonceKey(address)
	indexKey := r.prefixKey(keySetNonces)

	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		var reserved uint64
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			var last uint64
			rec, err := r.getRecord(ctx, tx, key)
			if err != nil {
				return err
			}
			if rec != nil {
				last = rec.Nonce
			}

			reserved, err = persistence.NextNonce(last, candidate)
			if err != nil {
				return err
			}

			data, err := persistence.MarshalNonceRecord(persistence.NewNonceRecord(address, reserved))
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				pipe.SAdd(ctx, indexKey, persistence.AddressKey(address))
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			r.logger.Sugar().Debugw("Nonce reservation raced, retrying", "address", address.Hex(), "attempt", attempt)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to reserve nonce: %w", err)
		}
		return reserved, nil
	}
	return 0, fmt.Errorf("failed to reserve nonce for %s after %d attempts", address.Hex(), maxReserveAttempts)
}

func (r *RedisPersistence) LoadNonceRecord(ctx context.Context, address common.Address) (*persistence.NonceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	rec, err := r.getRecord(ctx, r.client, r.nonceKey(address))
	if err != nil {
		return nil, fmt.Errorf("failed to load NonceRecord: %w", err)
	}
	return rec, nil
}

func (r *RedisPersistence) ListNonceRecords(ctx context.Context) ([]*persistence.NonceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	members, err := r.client.SMembers(ctx, r.prefixKey(keySetNonces)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list nonce index: %w", err)
	}

	records := make([]*persistence.NonceRecord, 0, len(members))
	for _, member := range members {
		if !strings.HasPrefix(member, "0x") || !common.IsHexAddress(member) {
			r.logger.Sugar().Warnw("Skipping malformed nonce index entry", "member", member)
			continue
		}

		rec, err := r.getRecord(ctx, r.client, r.prefixKey(keyPrefixNonce+member))
		if err != nil {
			r.logger.Sugar().Warnw("Failed to load NonceRecord, skipping", "address", member, "error", err)
			continue
		}
		if rec == nil {
			// index entry outlived its record
			continue
		}
		records = append(records, rec)
	}

	persistence.SortNonceRecords(records)
	return records, nil
}

func (r *RedisPersistence) DeleteNonceRecord(ctx context.Context, address common.Address) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.nonceKey(address))
	pipe.SRem(ctx, r.prefixKey(keySetNonces), persistence.AddressKey(address))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete NonceRecord: %w", err)
	}
	return nil
}

func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis nonce persistence closed")
	return nil
}

func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}
