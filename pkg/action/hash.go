package action

import (
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/crypto"
	"github.com/ethereum/go-ethereum/common"
)

// Hash returns the connection id of an L1 action.
func Hash(a Action, nonce uint64, vaultAddress string, expiresAfter *uint64) (common.Hash, error) {
	data, err := EncodeForHash(a, nonce, vaultAddress, expiresAfter)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(data), nil
}
