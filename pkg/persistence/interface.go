package persistence

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// INoncePersistence stores the highest nonce handed out per signing address so that a
// restarted process, or several processes sharing one signer, never reuse a nonce.
// All implementations must be safe for concurrent use.
type INoncePersistence interface {
	// ReserveNonce atomically records and returns max(candidate, stored+1) for address.
	// The stored value never decreases.
	ReserveNonce(ctx context.Context, address common.Address, candidate uint64) (uint64, error)

	// LoadNonceRecord returns the stored record for address, or nil if none exists.
	// Returns error only on storage failure.
	LoadNonceRecord(ctx context.Context, address common.Address) (*NonceRecord, error)

	// ListNonceRecords returns every stored record sorted by address.
	ListNonceRecords(ctx context.Context) ([]*NonceRecord, error)

	// DeleteNonceRecord forgets address. Idempotent.
	DeleteNonceRecord(ctx context.Context, address common.Address) error

	// Close cleanly shuts down the store. Idempotent; every other call fails afterwards.
	Close() error

	// HealthCheck returns nil if the store is operational.
	HealthCheck() error
}
