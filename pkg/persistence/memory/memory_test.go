package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	addrA = common.HexToAddress("0x14791697260E4c9A71f18484C9f997B308e59325")
	addrB = common.HexToAddress("0x1719884eb866cb12b2287399b15f7db5e7d775ea")
)

func TestMemoryPersistence_ReserveNonce(t *testing.T) {
	ctx := context.Background()
	mp := NewMemoryPersistence(zaptest.NewLogger(t))
	defer func() { _ = mp.Close() }()

	got, err := mp.ReserveNonce(ctx, addrA, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got)

	// same millisecond and a clock that went backwards both move forward by one
	got, err = mp.ReserveNonce(ctx, addrA, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), got)

	got, err = mp.ReserveNonce(ctx, addrA, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1002), got)

	// addresses are independent
	got, err = mp.ReserveNonce(ctx, addrB, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got)

	rec, err := mp.LoadNonceRecord(ctx, addrA)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, addrA, rec.Address)
	assert.Equal(t, uint64(1002), rec.Nonce)
	assert.NotZero(t, rec.UpdatedAt)
}

func TestMemoryPersistence_LoadNonceRecord_NotFound(t *testing.T) {
	mp := NewMemoryPersistence(nil)

	rec, err := mp.LoadNonceRecord(context.Background(), addrA)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryPersistence_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	mp := NewMemoryPersistence(nil)

	_, err := mp.ReserveNonce(ctx, addrB, 5)
	require.NoError(t, err)
	_, err = mp.ReserveNonce(ctx, addrA, 7)
	require.NoError(t, err)

	records, err := mp.ListNonceRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, addrA, records[0].Address)
	assert.Equal(t, addrB, records[1].Address)

	// returned records are copies
	records[0].Nonce = 0
	rec, err := mp.LoadNonceRecord(ctx, addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rec.Nonce)

	require.NoError(t, mp.DeleteNonceRecord(ctx, addrA))
	require.NoError(t, mp.DeleteNonceRecord(ctx, addrA))

	records, err = mp.ListNonceRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemoryPersistence_Concurrent(t *testing.T) {
	ctx := context.Background()
	mp := NewMemoryPersistence(nil)

	const workers, perWorker = 8, 100
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				n, err := mp.ReserveNonce(ctx, addrA, 1)
				assert.NoError(t, err)
				_, dup := seen.LoadOrStore(n, struct{}{})
				assert.False(t, dup, "nonce %d handed out twice", n)
			}
		}()
	}
	wg.Wait()

	rec, err := mp.LoadNonceRecord(ctx, addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(workers*perWorker), rec.Nonce)
}

func TestMemoryPersistence_Closed(t *testing.T) {
	ctx := context.Background()
	mp := NewMemoryPersistence(nil)
	require.NoError(t, mp.HealthCheck())

	require.NoError(t, mp.Close())
	require.NoError(t, mp.Close())

	_, err := mp.ReserveNonce(ctx, addrA, 1)
	assert.ErrorIs(t, err, persistence.ErrClosed)
	_, err = mp.LoadNonceRecord(ctx, addrA)
	assert.ErrorIs(t, err, persistence.ErrClosed)
	_, err = mp.ListNonceRecords(ctx)
	assert.ErrorIs(t, err, persistence.ErrClosed)
	assert.ErrorIs(t, mp.DeleteNonceRecord(ctx, addrA), persistence.ErrClosed)
	assert.ErrorIs(t, mp.HealthCheck(), persistence.ErrClosed)
}

func TestMemoryPersistence_CancelledContext(t *testing.T) {
	mp := NewMemoryPersistence(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mp.ReserveNonce(ctx, addrA, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
