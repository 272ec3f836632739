package localWallet

import (
	"context"
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// LocalWallet signs in process with a private key held in memory
type LocalWallet struct {
	logger *zap.Logger
	key    *secp256k1Signer.PrivateKey
}

var _ wallet.IWallet = (*LocalWallet)(nil)

func NewLocalWallet(key *secp256k1Signer.PrivateKey, logger *zap.Logger) (*LocalWallet, error) {
	if key == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("Loaded local wallet", zap.String("address", key.Address().Hex()))

	return &LocalWallet{
		logger: logger,
		key:    key,
	}, nil
}

// NewLocalWalletFromHex loads a private key from a hex string, with or without 0x.
func NewLocalWalletFromHex(privateKeyHex string, logger *zap.Logger) (*LocalWallet, error) {
	key, err := secp256k1Signer.NewPrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key from hex: %w", err)
	}
	return NewLocalWallet(key, logger)
}

// GenerateLocalWallet creates a wallet around a fresh random key.
func GenerateLocalWallet(logger *zap.Logger) (*LocalWallet, error) {
	key, err := secp256k1Signer.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return NewLocalWallet(key, logger)
}

func (l *LocalWallet) GetAddress() common.Address {
	return l.key.Address()
}

func (l *LocalWallet) SignTypedData(ctx context.Context, typedData *eip712.TypedData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	digest, err := eip712.Digest(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to compute typed data digest: %w", err)
	}

	sig, err := l.SignDigest(digest)
	if err != nil {
		return "", err
	}
	return sig.Serialize(), nil
}

// SignDigest signs an already computed 32-byte digest
func (l *LocalWallet) SignDigest(digest common.Hash) (*signature.Signature, error) {
	sig, err := l.key.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest with %s: %w", l.key.Address().Hex(), err)
	}

	l.logger.Debug("Signed digest with local key",
		zap.String("address", l.key.Address().Hex()),
		zap.String("digest", digest.Hex()),
	)
	return sig, nil
}

// Close wipes the private key. The wallet cannot sign afterwards.
func (l *LocalWallet) Close() {
	l.key.Zero()
}
