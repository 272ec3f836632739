// Package exchangeSigner turns exchange actions into signed /exchange request bodies.
//
// L1 actions (orders, cancels, transfers between own accounts) are hashed into a
// connection id and signed as an Agent struct in the fixed Exchange domain. User
// actions (withdrawals, sends, approvals) are signed field by field in the
// HyperliquidSignTransaction domain so wallets can display them.
package exchangeSigner

import (
	"context"
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/action"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var ErrMalformedInput = action.ErrMalformedInput

const (
	AgentPrimaryType = "Agent"
)

// AgentTypes is the field list of the Agent struct
var AgentTypes = []eip712.Type{
	{Name: "source", Type: "string"},
	{Name: "connectionId", Type: "bytes32"},
}

type signOptions struct {
	vaultAddress string
	expiresAfter *uint64
}

type Option func(*signOptions)

// WithVaultAddress signs the action on behalf of a vault or sub-account
func WithVaultAddress(addr string) Option {
	return func(o *signOptions) {
		o.vaultAddress = addr
	}
}

// WithExpiresAfter makes the venue reject the action after ms (unix milliseconds)
func WithExpiresAfter(ms uint64) Option {
	return func(o *signOptions) {
		o.expiresAfter = &ms
	}
}

func buildOptions(opts []Option) signOptions {
	var o signOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type ExchangeSigner struct {
	logger  *zap.Logger
	wallet  wallet.IWallet
	network config.Network
}

func NewExchangeSigner(w wallet.IWallet, network config.Network, logger *zap.Logger) (*ExchangeSigner, error) {
	if w == nil {
		return nil, fmt.Errorf("wallet cannot be nil")
	}
	if _, err := config.ParseNetwork(string(network)); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExchangeSigner{
		logger:  logger,
		wallet:  w,
		network: network,
	}, nil
}

func (e *ExchangeSigner) Address() common.Address {
	return e.wallet.GetAddress()
}

func (e *ExchangeSigner) Network() config.Network {
	return e.network
}

// BuildL1TypedData returns the Agent descriptor for a, along with its connection id.
func BuildL1TypedData(a action.Action, nonce uint64, network config.Network, opts ...Option) (*eip712.TypedData, common.Hash, error) {
	o := buildOptions(opts)

	connectionId, err := action.Hash(a, nonce, o.vaultAddress, o.expiresAfter)
	if err != nil {
		return nil, common.Hash{}, err
	}

	domain, err := config.GetSigningDomain(config.SigningDomainAgent, network)
	if err != nil {
		return nil, common.Hash{}, err
	}

	td := eip712.NewTypedData(domain, AgentPrimaryType, AgentTypes, map[string]interface{}{
		"source":       network.AgentSource(),
		"connectionId": connectionId,
	})
	return td, connectionId, nil
}

// BuildUserTypedData returns the descriptor for u exactly as it will be signed. The
// caller is responsible for having stamped the nonce.
func BuildUserTypedData(u action.UserAction, network config.Network) (*eip712.TypedData, error) {
	if action.IsNil(u) {
		return nil, fmt.Errorf("%w: user action is nil", ErrMalformedInput)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	domain, err := config.GetSigningDomain(config.SigningDomainUserTransaction, network)
	if err != nil {
		return nil, err
	}

	return eip712.NewTypedData(
		domain,
		u.PrimaryType(),
		action.UserActionTypes(u),
		action.UserActionMessage(u, network.HyperliquidChain()),
	), nil
}

// SignL1Action signs a with the given nonce. The nonce must be unique per signer,
// see the nonce package.
func (e *ExchangeSigner) SignL1Action(ctx context.Context, a action.Action, nonce uint64, opts ...Option) (*Envelope, error) {
	o := buildOptions(opts)

	td, connectionId, err := BuildL1TypedData(a, nonce, e.network, opts...)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Signing L1 action",
		zap.String("type", a.Type()),
		zap.String("address", e.wallet.GetAddress().Hex()),
		zap.Uint64("nonce", nonce),
		zap.String("connectionId", connectionId.Hex()),
		zap.String("network", e.network.String()),
	)

	sig, err := e.sign(ctx, td)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Action:       a.Map(),
		Nonce:        nonce,
		Signature:    sig,
		ExpiresAfter: o.expiresAfter,
	}
	if o.vaultAddress != "" {
		vault := o.vaultAddress
		env.VaultAddress = &vault
	}
	return env, nil
}

// SignUserAction stamps nonce into u's time or nonce field and signs it.
func (e *ExchangeSigner) SignUserAction(ctx context.Context, u action.UserAction, nonce uint64) (*Envelope, error) {
	if action.IsNil(u) {
		return nil, fmt.Errorf("%w: user action is nil", ErrMalformedInput)
	}
	stamped := u.WithNonce(nonce)

	td, err := BuildUserTypedData(stamped, e.network)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Signing user action",
		zap.String("type", stamped.Type()),
		zap.String("address", e.wallet.GetAddress().Hex()),
		zap.Uint64("nonce", nonce),
		zap.String("network", e.network.String()),
	)

	sig, err := e.sign(ctx, td)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		Action:    action.UserActionWire(stamped, e.network.HyperliquidChain(), e.network.SignatureChainIdHex()),
		Nonce:     nonce,
		Signature: sig,
	}, nil
}

// sign asks the wallet for a signature and only accepts it if it is low-s and
// recovers to the wallet's address.
func (e *ExchangeSigner) sign(ctx context.Context, td *eip712.TypedData) (*signature.Signature, error) {
	digest, err := eip712.Digest(td)
	if err != nil {
		return nil, err
	}

	sigHex, err := e.wallet.SignTypedData(ctx, td)
	if err != nil {
		return nil, fmt.Errorf("wallet failed to sign: %w", err)
	}

	sig, err := signature.Parse(sigHex)
	if err != nil {
		return nil, err
	}
	if !sig.IsLowS() {
		return nil, fmt.Errorf("%w: wallet returned a high-s signature", signature.ErrSignatureFormat)
	}

	recovered, err := secp256k1Signer.RecoverAddress(digest, sig)
	if err != nil {
		return nil, err
	}
	if recovered != e.wallet.GetAddress() {
		return nil, fmt.Errorf("%w: signature recovers to %s, wallet is %s",
			secp256k1Signer.ErrRecoveryFailure, recovered.Hex(), e.wallet.GetAddress().Hex())
	}

	e.logger.Debug("Signed typed data",
		zap.String("primaryType", td.PrimaryType),
		zap.String("digest", digest.Hex()),
	)
	return sig, nil
}
