package crypto

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// UncompressedPublicKeyLength is marker byte + 32-byte X + 32-byte Y
	UncompressedPublicKeyLength = 65
	uncompressedMarker          = 0x04
)

// PublicKeyToAddress derives the account address from an uncompressed secp256k1
// public key: the last 20 bytes of keccak256(X || Y).
func PublicKeyToAddress(pubKey []byte) (common.Address, error) {
	if len(pubKey) != UncompressedPublicKeyLength {
		return common.Address{}, fmt.Errorf("invalid public key length: expected %d bytes, got %d", UncompressedPublicKeyLength, len(pubKey))
	}
	if pubKey[0] != uncompressedMarker {
		return common.Address{}, fmt.Errorf("public key is not uncompressed: marker 0x%02x", pubKey[0])
	}

	hash := Keccak256(pubKey[1:])
	return common.BytesToAddress(hash[12:]), nil
}
