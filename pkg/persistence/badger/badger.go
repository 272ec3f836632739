package badger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Key prefixes for namespacing
const (
	keyPrefixNonce       = "nonce:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"

	// attempts before a conflicting reservation gives up
	maxReserveAttempts = 64
)

// BadgerPersistence keeps nonce high-water marks on local disk.
// Only one process may open a given path.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

var _ persistence.INoncePersistence = (*BadgerPersistence)(nil)

// NewBadgerPersistence opens the database at dataPath with SyncWrites enabled, so a
// reservation is on disk before the nonce is returned. A background goroutine runs
// value log GC.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = newNonceStoreLogger(logger)
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger nonce persistence initialized", "path", absPath)

	return bp, nil
}

func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func nonceKey(address common.Address) []byte {
	return []byte(keyPrefixNonce + persistence.AddressKey(address))
}

func readRecord(txn *badgerdb.Txn, key []byte) (*persistence.NonceRecord, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := item.Value(func(val []byte) error {
		data = append([]byte{}, val...)
		return nil
	}); err != nil {
		return nil, err
	}
	return persistence.UnmarshalNonceRecord(data)
}

// ReserveNonce runs read-modify-write in one transaction and retries on conflict.
func (b *BadgerPersistence) ReserveNonce(ctx context.Context, address common.Address, candidate uint64) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, persistence.ErrClosed
	}

	key := nonceKey(address)
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var reserved uint64
		err := b.db.Update(func(txn *badgerdb.Txn) error {
			var last uint64
			rec, err := readRecord(txn, key)
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
			return txn.Set(key, data)
		})
		if errors.Is(err, badgerdb.ErrConflict) {
			b.logger.Sugar().Debugw("Nonce reservation conflicted, retrying", "address", address.Hex(), "attempt", attempt)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to reserve nonce: %w", err)
		}
		return reserved, nil
	}
	return 0, fmt.Errorf("failed to reserve nonce for %s after %d attempts", address.Hex(), maxReserveAttempts)
}

func (b *BadgerPersistence) LoadNonceRecord(ctx context.Context, address common.Address) (*persistence.NonceRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	var rec *persistence.NonceRecord
	err := b.db.View(func(txn *badgerdb.Txn) error {
		var err error
		rec, err = readRecord(txn, nonceKey(address))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load NonceRecord: %w", err)
	}
	return rec, nil
}

func (b *BadgerPersistence) ListNonceRecords(ctx context.Context) ([]*persistence.NonceRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, persistence.ErrClosed
	}

	records := make([]*persistence.NonceRecord, 0)
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefixNonce)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			var data []byte
			err := item.Value(func(val []byte) error {
				data = append([]byte{}, val...)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}

			rec, err := persistence.UnmarshalNonceRecord(data)
			if err != nil {
				b.logger.Sugar().Warnw("Failed to unmarshal NonceRecord, skipping",
					"key", string(item.Key()), "error", err)
				continue
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list NonceRecords: %w", err)
	}

	persistence.SortNonceRecords(records)
	return records, nil
}

func (b *BadgerPersistence) DeleteNonceRecord(ctx context.Context, address common.Address) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(nonceKey(address))
	})
}

func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger nonce persistence closed")
	return nil
}

func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}
