package web3signer

import (
	"context"
)

// IWeb3Signer is the Web3Signer surface the wallets use.
type IWeb3Signer interface {
	// EthAccounts lists the addresses the service can sign for (eth_accounts)
	EthAccounts(ctx context.Context) ([]string, error)

	// EthSignTypedData signs an EIP-712 descriptor (eth_signTypedData). The result is
	// a 65-byte r||s||v hex string.
	EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error)

	// Upcheck fails unless the service answers /upcheck with OK
	Upcheck(ctx context.Context) error
}

var _ IWeb3Signer = (*Client)(nil)
