package main

import (
	"encoding/json"
	"fmt"
	"strings"

	internalAws "github.com/Riten-Zone/hyperliquid-signer-go/internal/aws"
	"github.com/Riten-Zone/hyperliquid-signer-go/internal/keyGenerator"
	"github.com/Riten-Zone/hyperliquid-signer-go/internal/keyGenerator/awsKms"
	"github.com/Riten-Zone/hyperliquid-signer-go/internal/keyGenerator/localKeyGenerator"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/action"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/exchangeSigner"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func writeJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func l1Options(c *cli.Context) []exchangeSigner.Option {
	var opts []exchangeSigner.Option
	if vault := c.String("vault-address"); vault != "" {
		opts = append(opts, exchangeSigner.WithVaultAddress(vault))
	}
	if c.IsSet("expires-after") {
		opts = append(opts, exchangeSigner.WithExpiresAfter(c.Uint64("expires-after")))
	}
	return opts
}

func addressCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	cfg, err := signerConfig(c)
	if err != nil {
		return err
	}

	w, cleanup, err := newWallet(c, cfg, l)
	if err != nil {
		return err
	}
	defer cleanup()

	_, err = fmt.Fprintln(c.App.Writer, w.GetAddress().Hex())
	return err
}

type signerSetup struct {
	signer  *exchangeSigner.ExchangeSigner
	cfg     *config.SignerConfig
	logger  *zap.Logger
	cleanup func()
}

func newSigner(c *cli.Context) (*signerSetup, error) {
	l, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	cfg, err := signerConfig(c)
	if err != nil {
		return nil, err
	}

	w, cleanup, err := newWallet(c, cfg, l)
	if err != nil {
		return nil, err
	}
	s, err := exchangeSigner.NewExchangeSigner(w, cfg.Network, l)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &signerSetup{signer: s, cfg: cfg, logger: l, cleanup: cleanup}, nil
}

func (s *signerSetup) nextNonce(c *cli.Context) (uint64, error) {
	return resolveNonce(c, s.cfg, s.signer.Address(), s.logger)
}

func signL1Command(c *cli.Context) error {
	raw, err := readAction(c)
	if err != nil {
		return err
	}
	a, err := action.ParseJSON(raw)
	if err != nil {
		return err
	}

	setup, err := newSigner(c)
	if err != nil {
		return err
	}
	defer setup.cleanup()

	n, err := setup.nextNonce(c)
	if err != nil {
		return err
	}

	env, err := setup.signer.SignL1Action(c.Context, a, n, l1Options(c)...)
	if err != nil {
		return err
	}
	return writeJSON(c, env)
}

func signUserCommand(c *cli.Context) error {
	raw, err := readAction(c)
	if err != nil {
		return err
	}
	u, err := action.ParseUserJSON(raw)
	if err != nil {
		return err
	}

	setup, err := newSigner(c)
	if err != nil {
		return err
	}
	defer setup.cleanup()

	n, err := setup.nextNonce(c)
	if err != nil {
		return err
	}

	env, err := setup.signer.SignUserAction(c.Context, u, n)
	if err != nil {
		return err
	}
	return writeJSON(c, env)
}

// parseSignatureFlag accepts either the 65-byte hex form or the {r,s,v} object of an
// exchange request body.
func parseSignatureFlag(s string) (*signature.Signature, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		var sig signature.Signature
		if err := json.Unmarshal([]byte(s), &sig); err != nil {
			return nil, err
		}
		return &sig, nil
	}
	return signature.Parse(s)
}

func recoverCommand(c *cli.Context) error {
	if !c.IsSet("nonce") {
		return fmt.Errorf("--nonce is required to recover a signer")
	}
	network, err := config.ParseNetwork(c.String("network"))
	if err != nil {
		return err
	}
	sig, err := parseSignatureFlag(c.String("signature"))
	if err != nil {
		return err
	}
	raw, err := readAction(c)
	if err != nil {
		return err
	}

	var td *eip712.TypedData
	if c.Bool("user") {
		u, err := action.ParseUserJSON(raw)
		if err != nil {
			return err
		}
		td, err = exchangeSigner.BuildUserTypedData(u.WithNonce(c.Uint64("nonce")), network)
		if err != nil {
			return err
		}
	} else {
		a, err := action.ParseJSON(raw)
		if err != nil {
			return err
		}
		td, _, err = exchangeSigner.BuildL1TypedData(a, c.Uint64("nonce"), network, l1Options(c)...)
		if err != nil {
			return err
		}
	}

	digest, err := eip712.Digest(td)
	if err != nil {
		return err
	}
	addr, err := secp256k1Signer.RecoverAddress(digest, sig)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(c.App.Writer, addr.Hex())
	return err
}

type hashOutput struct {
	Msgpack      string      `json:"msgpack"`
	ConnectionId common.Hash `json:"connectionId"`
}

func hashActionCommand(c *cli.Context) error {
	if !c.IsSet("nonce") {
		return fmt.Errorf("--nonce is required to hash an action")
	}
	raw, err := readAction(c)
	if err != nil {
		return err
	}
	a, err := action.ParseJSON(raw)
	if err != nil {
		return err
	}

	var expiresAfter *uint64
	if c.IsSet("expires-after") {
		v := c.Uint64("expires-after")
		expiresAfter = &v
	}

	packed, err := action.EncodeMsgpack(a.Map())
	if err != nil {
		return err
	}
	connectionId, err := action.Hash(a, c.Uint64("nonce"), c.String("vault-address"), expiresAfter)
	if err != nil {
		return err
	}

	return writeJSON(c, hashOutput{
		Msgpack:      hexutil.Encode(packed),
		ConnectionId: connectionId,
	})
}

func noncesCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	cfg := nonceStoreConfig(c)
	if cfg == nil {
		return fmt.Errorf("--nonce-store is required")
	}

	address := c.String("address")
	if c.Bool("delete") && address == "" {
		return fmt.Errorf("--delete requires --address")
	}
	if address != "" && !common.IsHexAddress(address) {
		return fmt.Errorf("invalid address %q", address)
	}

	store, closeStore, err := newNonceStore(cfg, l)
	if err != nil {
		return err
	}
	defer closeStore()

	if address == "" {
		records, err := store.ListNonceRecords(c.Context)
		if err != nil {
			return err
		}
		return writeJSON(c, records)
	}

	addr := common.HexToAddress(address)
	record, err := store.LoadNonceRecord(c.Context, addr)
	if err != nil {
		return err
	}
	if c.Bool("delete") {
		if err := store.DeleteNonceRecord(c.Context, addr); err != nil {
			return err
		}
		l.Sugar().Infow("Deleted nonce record", "address", addr.Hex())
	}
	return writeJSON(c, record)
}

func keygenCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	network, err := config.ParseNetwork(c.String("network"))
	if err != nil {
		return err
	}

	var gen keyGenerator.IKeyGenerator
	switch strings.ToLower(c.String("key-type")) {
	case "local":
		local := localKeyGenerator.NewLocalKeyGenerator(l)
		defer local.ClearKeys()
		gen = local
	case "awskms":
		awsCfg, err := internalAws.LoadAWSConfig(c.Context, internalAws.Options{
			Region:  c.String("aws-region"),
			Profile: c.String("aws-profile"),
		})
		if err != nil {
			return err
		}
		gen = awsKms.NewAWSKMSKeyGeneratorFromConfig(awsCfg, network, l)
	default:
		return fmt.Errorf("unsupported key type %q", c.String("key-type"))
	}

	key, err := gen.GenerateKey(c.Context, c.String("key-name"), c.String("alias"))
	if err != nil {
		return err
	}
	summary, err := key.Summary()
	if err != nil {
		return err
	}
	return writeJSON(c, summary)
}
