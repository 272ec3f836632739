package keyGenerator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type GeneratedKey struct {
	// PublicKey is the 65-byte uncompressed secp256k1 key
	PublicKey []byte
	Address   common.Address
	KeyId     string

	// PrivateKeyHex is only set by generators that hold the key in-process, and only
	// on the GenerateKey result.
	PrivateKeyHex string
}

func (gk *GeneratedKey) GetPublicKeyHex() (string, error) {
	if len(gk.PublicKey) == 0 {
		return "", fmt.Errorf("public key is nil")
	}
	return hexutil.Encode(gk.PublicKey), nil
}

// GetPublicKeyHexUnprefixed returns the public key without the 0x04 prefix (64 bytes).
// This is the format Web3Signer key configs use.
func (gk *GeneratedKey) GetPublicKeyHexUnprefixed() (string, error) {
	switch {
	case len(gk.PublicKey) == 65 && gk.PublicKey[0] == 0x04:
		return hexutil.Encode(gk.PublicKey[1:]), nil
	case len(gk.PublicKey) == 64:
		return hexutil.Encode(gk.PublicKey), nil
	default:
		return "", fmt.Errorf("unexpected public key length: %d", len(gk.PublicKey))
	}
}

type generatedKeyJSON struct {
	KeyId               string         `json:"keyId"`
	Address             common.Address `json:"address"`
	PublicKey           string         `json:"publicKey"`
	PublicKeyUnprefixed string         `json:"publicKeyUnprefixed"`
	PrivateKey          string         `json:"privateKey,omitempty"`
}

// Summary is the JSON shape printed by the keygen command.
func (gk *GeneratedKey) Summary() (interface{}, error) {
	pub, err := gk.GetPublicKeyHex()
	if err != nil {
		return nil, err
	}
	unprefixed, err := gk.GetPublicKeyHexUnprefixed()
	if err != nil {
		return nil, err
	}
	return generatedKeyJSON{
		KeyId:               gk.KeyId,
		Address:             gk.Address,
		PublicKey:           pub,
		PublicKeyUnprefixed: unprefixed,
		PrivateKey:          gk.PrivateKeyHex,
	}, nil
}

type IKeyGenerator interface {
	GenerateKey(ctx context.Context, keyName string, aliasName string) (*GeneratedKey, error)
	GetKeyById(ctx context.Context, keyId string) (*GeneratedKey, error)
}
