package wallet

import (
	"context"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/ethereum/go-ethereum/common"
)

// IWallet is an account that can sign EIP-712 typed data
type IWallet interface {
	// GetAddress returns the address signatures recover to
	GetAddress() common.Address

	// SignTypedData signs the EIP-712 digest of typedData and returns the
	// 65-byte r ‖ s ‖ v signature as 0x-prefixed hex
	SignTypedData(ctx context.Context, typedData *eip712.TypedData) (string, error)
}
