package web3SignerWallet

import (
	"context"
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/clients/web3signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Web3SignerWallet implements IWallet using a remote Web3Signer service
type Web3SignerWallet struct {
	logger           *zap.Logger
	web3SignerClient web3signer.IWeb3Signer
	fromAddress      common.Address
}

var _ wallet.IWallet = (*Web3SignerWallet)(nil)

func NewWeb3SignerWallet(web3SignerClient web3signer.IWeb3Signer, fromAddress common.Address, logger *zap.Logger) (*Web3SignerWallet, error) {
	if web3SignerClient == nil {
		return nil, fmt.Errorf("web3signer client cannot be nil")
	}
	if fromAddress == (common.Address{}) {
		return nil, fmt.Errorf("from address cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Web3SignerWallet{
		logger:           logger,
		web3SignerClient: web3SignerClient,
		fromAddress:      fromAddress,
	}, nil
}

// NewWeb3SignerWalletFromConfig builds the client and the wallet from the remote signer config.
// The service must be up and must hold a key for the configured from address.
func NewWeb3SignerWalletFromConfig(ctx context.Context, cfg *config.RemoteSignerConfig, logger *zap.Logger) (*Web3SignerWallet, error) {
	if cfg == nil {
		return nil, fmt.Errorf("remote signer config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote signer config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create web3signer client: %w", err)
	}

	fromAddress := common.HexToAddress(cfg.FromAddress)
	if err := checkSignerHoldsAddress(ctx, client, fromAddress); err != nil {
		return nil, err
	}
	logger.Sugar().Infow("Connected to Web3Signer",
		"url", cfg.Url,
		"address", fromAddress.Hex(),
	)
	return NewWeb3SignerWallet(client, fromAddress, logger)
}

func checkSignerHoldsAddress(ctx context.Context, client web3signer.IWeb3Signer, address common.Address) error {
	if err := client.Upcheck(ctx); err != nil {
		return fmt.Errorf("web3signer is not available: %w", err)
	}
	accounts, err := client.EthAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list web3signer accounts: %w", err)
	}
	for _, account := range accounts {
		if common.IsHexAddress(account) && common.HexToAddress(account) == address {
			return nil
		}
	}
	return fmt.Errorf("web3signer has no key for %s", address.Hex())
}

func (w *Web3SignerWallet) GetAddress() common.Address {
	return w.fromAddress
}

// SignTypedData sends the descriptor to Web3Signer and checks the returned
// signature recovers to the configured address before handing it out.
func (w *Web3SignerWallet) SignTypedData(ctx context.Context, typedData *eip712.TypedData) (string, error) {
	digest, err := eip712.Digest(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to compute typed data digest: %w", err)
	}

	w.logger.Debug("Requesting typed data signature from Web3Signer",
		zap.String("address", w.fromAddress.Hex()),
		zap.String("primaryType", typedData.PrimaryType),
		zap.String("digest", digest.Hex()),
	)

	sigHex, err := w.web3SignerClient.EthSignTypedData(ctx, w.fromAddress.Hex(), typedData)
	if err != nil {
		return "", fmt.Errorf("failed to sign typed data with Web3Signer: %w", err)
	}

	sig, err := signature.Parse(sigHex)
	if err != nil {
		return "", fmt.Errorf("web3signer returned an invalid signature: %w", err)
	}
	if !sig.IsLowS() {
		return "", fmt.Errorf("web3signer returned a high-s signature: %w", signature.ErrSignatureFormat)
	}

	recovered, err := secp256k1Signer.RecoverAddress(digest, sig)
	if err != nil {
		return "", fmt.Errorf("failed to recover web3signer signature: %w", err)
	}
	if recovered != w.fromAddress {
		return "", fmt.Errorf("%w: web3signer signature recovers to %s, expected %s",
			secp256k1Signer.ErrRecoveryFailure, recovered.Hex(), w.fromAddress.Hex())
	}

	return sig.Serialize(), nil
}
