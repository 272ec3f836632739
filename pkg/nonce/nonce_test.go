package nonce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence/badger"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence/memory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testAddress = common.HexToAddress("0x14791697260E4c9A71f18484C9f997B308e59325")

func fixedClock(ms uint64) Clock {
	return func() uint64 { return ms }
}

func Test_Provider_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("follows the clock", func(t *testing.T) {
		var now atomic.Uint64
		now.Store(1000)
		p := NewProvider(testAddress, zaptest.NewLogger(t), WithClock(func() uint64 { return now.Load() }))

		n, err := p.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), n)

		now.Store(1500)
		n, err = p.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1500), n)
		assert.Equal(t, uint64(1500), p.Last())
	})

	t.Run("same millisecond", func(t *testing.T) {
		p := NewProvider(testAddress, nil, WithClock(fixedClock(1000)))
		for want := uint64(1000); want < 1010; want++ {
			n, err := p.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
	})

	t.Run("clock goes backwards", func(t *testing.T) {
		var now atomic.Uint64
		now.Store(5000)
		p := NewProvider(testAddress, nil, WithClock(func() uint64 { return now.Load() }))

		_, err := p.Next(ctx)
		require.NoError(t, err)
		now.Store(100)
		n, err := p.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(5001), n)
	})

	t.Run("cancelled context", func(t *testing.T) {
		p := NewProvider(testAddress, nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.Next(cctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, p.Last())
	})

	t.Run("system clock", func(t *testing.T) {
		p := NewProvider(testAddress, nil)
		n, err := p.Next(ctx)
		require.NoError(t, err)
		assert.Greater(t, n, uint64(1700000000000))
	})
}

func Test_Provider_Concurrent(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(testAddress, nil, WithClock(fixedClock(1)))

	const workers, perWorker = 10, 100
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := p.Next(ctx)
				assert.NoError(t, err)
				_, dup := seen.LoadOrStore(n, struct{}{})
				assert.False(t, dup)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(workers*perWorker), p.Last())
}

func Test_Provider_SharedStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryPersistence(nil)

	// two processes with identical clocks signing for one address
	a := NewProvider(testAddress, nil, WithStore(store), WithClock(fixedClock(1000)))
	b := NewProvider(testAddress, nil, WithStore(store), WithClock(fixedClock(1000)))

	n1, err := a.Next(ctx)
	require.NoError(t, err)
	n2, err := b.Next(ctx)
	require.NoError(t, err)
	n3, err := a.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, []uint64{1000, 1001, 1002}, []uint64{n1, n2, n3})
}

func Test_Provider_RestartWithBadger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := badger.NewBadgerPersistence(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	p := NewProvider(testAddress, nil, WithStore(store), WithClock(fixedClock(9000)))
	first, err := p.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// restarted with a clock that is behind the last issued nonce
	store, err = badger.NewBadgerPersistence(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	p = NewProvider(testAddress, nil, WithStore(store), WithClock(fixedClock(8000)))
	second, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

type failingStore struct {
	persistence.INoncePersistence
}

var errStoreDown = errors.New("store down")

func (failingStore) ReserveNonce(ctx context.Context, address common.Address, candidate uint64) (uint64, error) {
	return 0, errStoreDown
}

func Test_Provider_StoreFailure(t *testing.T) {
	p := NewProvider(testAddress, nil, WithStore(failingStore{}), WithClock(fixedClock(1000)))

	_, err := p.Next(context.Background())
	require.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, p.Last())
}
