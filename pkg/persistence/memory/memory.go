package memory

import (
	"context"
	"sync"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// MemoryPersistence is an in-memory implementation of INoncePersistence.
// Nothing survives the process, so a restart inside the same millisecond can reuse a
// nonce. Use badger or redis for anything long-lived.
type MemoryPersistence struct {
	mu sync.RWMutex

	records map[common.Address]persistence.NonceRecord

	closed bool
}

var _ persistence.INoncePersistence = (*MemoryPersistence)(nil)

func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	if logger != nil {
		logger.Sugar().Warnw("Using in-memory nonce persistence, high-water marks are lost on restart")
	}
	return &MemoryPersistence{
		records: make(map[common.Address]persistence.NonceRecord),
	}
}

func (m *MemoryPersistence) ReserveNonce(ctx context.Context, address common.Address, candidate uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, persistence.ErrClosed
	}

	next, err := persistence.NextNonce(m.records[address].Nonce, candidate)
	if err != nil {
		return 0, err
	}
	m.records[address] = *persistence.NewNonceRecord(address, next)
	return next, nil
}

func (m *MemoryPersistence) LoadNonceRecord(ctx context.Context, address common.Address) (*persistence.NonceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	rec, ok := m.records[address]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryPersistence) ListNonceRecords(ctx context.Context) ([]*persistence.NonceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	result := make([]*persistence.NonceRecord, 0, len(m.records))
	for _, rec := range m.records {
		rec := rec
		result = append(result, &rec)
	}
	persistence.SortNonceRecords(result)
	return result, nil
}

func (m *MemoryPersistence) DeleteNonceRecord(ctx context.Context, address common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	delete(m.records, address)
	return nil
}

func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}
