package secp256k1Signer

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/crypto"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const PrivateKeyLength = 32

// PrivateKey holds a secp256k1 scalar together with its public key and address,
// both derived once at construction.
type PrivateKey struct {
	key     *secp256k1.PrivateKey
	pubKey  []byte
	address common.Address
}

// NewPrivateKey loads a 32-byte big-endian scalar. Values of zero or >= N are rejected
// instead of being reduced.
func NewPrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeyLength {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", PrivateKeyLength, len(b))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow {
		return nil, fmt.Errorf("private key is not below the curve order")
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("private key cannot be zero")
	}

	return fromSecp256k1(secp256k1.NewPrivateKey(&scalar))
}

// NewPrivateKeyFromHex loads a hex scalar, with or without 0x.
func NewPrivateKeyFromHex(h string) (*PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(h), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key hex: %w", err)
	}
	defer clear(b)

	return NewPrivateKey(b)
}

// GeneratePrivateKey creates a fresh key from the system CSPRNG.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return fromSecp256k1(key)
}

func fromSecp256k1(key *secp256k1.PrivateKey) (*PrivateKey, error) {
	pubKey := key.PubKey().SerializeUncompressed()
	address, err := crypto.PublicKeyToAddress(pubKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address: %w", err)
	}

	return &PrivateKey{
		key:     key,
		pubKey:  pubKey,
		address: address,
	}, nil
}

// PublicKeyBytes returns the 65-byte uncompressed public key.
func (k *PrivateKey) PublicKeyBytes() []byte {
	out := make([]byte, len(k.pubKey))
	copy(out, k.pubKey)
	return out
}

func (k *PrivateKey) Address() common.Address {
	return k.address
}

// Zero wipes the scalar. The key is unusable afterwards.
func (k *PrivateKey) Zero() {
	k.key.Zero()
}

// Hex returns the 0x-prefixed scalar. Only for handing a freshly generated key to
// its owner.
func (k *PrivateKey) Hex() string {
	return hexutil.Encode(k.key.Serialize())
}
