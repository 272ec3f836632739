package persistence

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrClosed is returned by every operation on a closed store
	ErrClosed = errors.New("persistence layer is closed")

	// ErrNonceExhausted is returned once the high-water mark reaches the top of the uint64 range
	ErrNonceExhausted = errors.New("nonce space exhausted")
)

// NonceRecord is the high-water mark of one signing address.
type NonceRecord struct {
	Address common.Address `json:"address"`

	// Nonce is the last nonce reserved for Address.
	Nonce uint64 `json:"nonce"`

	// UpdatedAt is the unix millisecond time of the last reservation.
	UpdatedAt int64 `json:"updatedAt"`
}

// NextNonce returns the nonce to hand out after last when the caller would like candidate.
func NextNonce(last, candidate uint64) (uint64, error) {
	if candidate > last {
		return candidate, nil
	}
	if last == math.MaxUint64 {
		return 0, fmt.Errorf("%w: last nonce %d", ErrNonceExhausted, last)
	}
	return last + 1, nil
}

// NewNonceRecord stamps a record for address at the current time.
func NewNonceRecord(address common.Address, nonce uint64) *NonceRecord {
	return &NonceRecord{
		Address:   address,
		Nonce:     nonce,
		UpdatedAt: time.Now().UnixMilli(),
	}
}

// AddressKey is the lowercase hex form used as the storage key suffix.
func AddressKey(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// SortNonceRecords orders records by address.
func SortNonceRecords(records []*NonceRecord) {
	sort.Slice(records, func(i, j int) bool {
		return AddressKey(records[i].Address) < AddressKey(records[j].Address)
	})
}
