// Package nonce hands out the millisecond nonces the exchange expects. Each signer
// address must never reuse a nonce, so the provider returns max(now, last+1) and,
// when given a store, records the high-water mark before returning.
package nonce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Clock returns unix milliseconds
type Clock func() uint64

func SystemClock() uint64 {
	return uint64(time.Now().UnixMilli())
}

type Provider struct {
	mu      sync.Mutex
	address common.Address
	store   persistence.INoncePersistence
	clock   Clock
	logger  *zap.Logger
	last    uint64
}

type Option func(*Provider)

// WithStore persists every nonce before it is returned.
func WithStore(store persistence.INoncePersistence) Option {
	return func(p *Provider) {
		p.store = store
	}
}

func WithClock(clock Clock) Option {
	return func(p *Provider) {
		p.clock = clock
	}
}

func NewProvider(address common.Address, logger *zap.Logger, opts ...Option) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		address: address,
		clock:   SystemClock,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Address() common.Address {
	return p.address
}

// Next returns a nonce strictly greater than every nonce this provider, or any other
// provider sharing its store, has returned for the address.
func (p *Provider) Next(ctx context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	candidate, err := persistence.NextNonce(p.last, p.clock())
	if err != nil {
		return 0, err
	}

	if p.store != nil {
		candidate, err = p.store.ReserveNonce(ctx, p.address, candidate)
		if err != nil {
			return 0, fmt.Errorf("failed to reserve nonce for %s: %w", p.address.Hex(), err)
		}
	}

	p.last = candidate
	p.logger.Debug("Issued nonce",
		zap.String("address", p.address.Hex()),
		zap.Uint64("nonce", candidate),
	)
	return candidate, nil
}

// Last returns the most recent nonce returned by this provider, 0 before the first call.
func (p *Provider) Last() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
