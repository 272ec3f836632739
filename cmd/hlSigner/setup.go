package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/logger"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/nonce"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/persistence"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet/awsKmsWallet"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet/localWallet"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet/web3SignerWallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

func readPEMFlag(c *cli.Context, name string) (string, error) {
	path := c.String(name)
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s: %w", name, err)
	}
	return string(data), nil
}

func nonceStoreConfig(c *cli.Context) *config.NonceStoreConfig {
	if c.String("nonce-store") == "" {
		return nil
	}
	return &config.NonceStoreConfig{
		Type:         config.NonceStoreType(strings.ToLower(c.String("nonce-store"))),
		Path:         c.String("nonce-store-path"),
		RedisAddress: c.String("redis-address"),
	}
}

// signerConfig assembles and validates the configuration from flags and HL_* env vars.
func signerConfig(c *cli.Context) (*config.SignerConfig, error) {
	network, err := config.ParseNetwork(c.String("network"))
	if err != nil {
		return nil, err
	}

	cfg := &config.SignerConfig{
		Network:      network,
		WalletType:   config.WalletType(strings.ToLower(c.String("wallet-type"))),
		PrivateKey:   c.String("private-key"),
		VaultAddress: c.String("vault-address"),
		NonceStore:   nonceStoreConfig(c),
		Debug:        c.Bool("verbose"),
	}

	switch cfg.WalletType {
	case config.WalletTypeWeb3Signer:
		rsc := &config.RemoteSignerConfig{
			Url:         c.String("remote-signer-url"),
			FromAddress: c.String("remote-signer-from"),
		}
		if rsc.CACert, err = readPEMFlag(c, "remote-signer-ca-cert"); err != nil {
			return nil, err
		}
		if rsc.Cert, err = readPEMFlag(c, "remote-signer-cert"); err != nil {
			return nil, err
		}
		if rsc.Key, err = readPEMFlag(c, "remote-signer-key"); err != nil {
			return nil, err
		}
		cfg.RemoteSigner = rsc
	case config.WalletTypeAWSKMS:
		cfg.AWSKMS = &config.AWSKMSConfig{
			KeyId:   c.String("kms-key-id"),
			Region:  c.String("aws-region"),
			Profile: c.String("aws-profile"),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newWallet builds the wallet selected by cfg. The returned cleanup releases key
// material held in-process.
func newWallet(c *cli.Context, cfg *config.SignerConfig, l *zap.Logger) (wallet.IWallet, func(), error) {
	switch cfg.WalletType {
	case config.WalletTypeLocal:
		w, err := localWallet.NewLocalWalletFromHex(cfg.PrivateKey, l)
		if err != nil {
			return nil, nil, err
		}
		return w, w.Close, nil
	case config.WalletTypeWeb3Signer:
		w, err := web3SignerWallet.NewWeb3SignerWalletFromConfig(c.Context, cfg.RemoteSigner, l)
		if err != nil {
			return nil, nil, err
		}
		return w, func() {}, nil
	case config.WalletTypeAWSKMS:
		w, err := awsKmsWallet.NewAWSKMSWalletFromConfig(c.Context, cfg.AWSKMS, l)
		if err != nil {
			return nil, nil, err
		}
		return w, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported wallet type: %s", cfg.WalletType)
	}
}

func newNonceStore(cfg *config.NonceStoreConfig, l *zap.Logger) (persistence.INoncePersistence, func(), error) {
	store, err := nonce.NewStore(cfg, l)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, func() {}, nil
	}
	return store, func() {
		if err := store.Close(); err != nil {
			l.Sugar().Warnw("Failed to close nonce store", "error", err)
		}
	}, nil
}

// resolveNonce returns --nonce when given, otherwise the next nonce for address.
func resolveNonce(c *cli.Context, cfg *config.SignerConfig, address common.Address, l *zap.Logger) (uint64, error) {
	if c.IsSet("nonce") {
		return c.Uint64("nonce"), nil
	}

	store, closeStore, err := newNonceStore(cfg.NonceStore, l)
	if err != nil {
		return 0, err
	}
	defer closeStore()

	var opts []nonce.Option
	if store != nil {
		opts = append(opts, nonce.WithStore(store))
	}
	return nonce.NewProvider(address, l, opts...).Next(c.Context)
}

// readAction returns the action JSON from --action or --action-file.
func readAction(c *cli.Context) ([]byte, error) {
	inline, file := c.String("action"), c.String("action-file")
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("--action and --action-file are mutually exclusive")
	case inline != "":
		return []byte(inline), nil
	case file == "-":
		return io.ReadAll(c.App.Reader)
	case file != "":
		return os.ReadFile(file)
	default:
		return nil, fmt.Errorf("one of --action or --action-file is required")
	}
}
