package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the signer CLI
const (
	EnvHLNetwork          = "HL_NETWORK"
	EnvHLWalletType       = "HL_WALLET_TYPE"
	EnvHLPrivateKey       = "HL_PRIVATE_KEY"
	EnvHLVaultAddress     = "HL_VAULT_ADDRESS"
	EnvHLRemoteSignerURL  = "HL_REMOTE_SIGNER_URL"
	EnvHLRemoteSignerFrom = "HL_REMOTE_SIGNER_FROM_ADDRESS"
	EnvHLKMSKeyID         = "HL_KMS_KEY_ID"
	EnvHLAWSRegion        = "HL_AWS_REGION"
	EnvHLAWSProfile       = "HL_AWS_PROFILE"
	EnvHLNonceStore       = "HL_NONCE_STORE"
	EnvHLNonceStorePath   = "HL_NONCE_STORE_PATH"
	EnvHLRedisAddress     = "HL_REDIS_ADDRESS"
	EnvHLVerbose          = "HL_VERBOSE"
)

type Network string

func (n Network) String() string {
	return string(n)
}

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
)

func ParseNetwork(s string) (Network, error) {
	switch Network(strings.ToLower(strings.TrimSpace(s))) {
	case NetworkMainnet:
		return NetworkMainnet, nil
	case NetworkTestnet:
		return NetworkTestnet, nil
	default:
		return "", fmt.Errorf("unsupported network %q. Supported: %s", s, GetSupportedNetworksString())
	}
}

func (n Network) IsMainnet() bool {
	return n == NetworkMainnet
}

// HyperliquidChain is the chain label user-signed actions carry in their message.
func (n Network) HyperliquidChain() string {
	if n.IsMainnet() {
		return "Mainnet"
	}
	return "Testnet"
}

// AgentSource is the "source" field of the Agent struct for L1 actions.
func (n Network) AgentSource() string {
	if n.IsMainnet() {
		return "a"
	}
	return "b"
}

// Signature chain ids used by user-signed actions (Arbitrum One / Arbitrum Sepolia).
const (
	SignatureChainId_Mainnet int64 = 0xa4b1
	SignatureChainId_Testnet int64 = 0x66eee
)

// SignatureChainId is the EIP-712 chain id of the user transaction domain.
func (n Network) SignatureChainId() *big.Int {
	if n.IsMainnet() {
		return big.NewInt(SignatureChainId_Mainnet)
	}
	return big.NewInt(SignatureChainId_Testnet)
}

// SignatureChainIdHex is the "signatureChainId" message value, e.g. "0x66eee".
func (n Network) SignatureChainIdHex() string {
	return fmt.Sprintf("0x%x", n.SignatureChainId())
}

func GetSupportedNetworksString() string {
	return fmt.Sprintf("%s, %s", NetworkMainnet, NetworkTestnet)
}

type WalletType string

const (
	WalletTypeLocal      WalletType = "local"
	WalletTypeWeb3Signer WalletType = "web3signer"
	WalletTypeAWSKMS     WalletType = "awskms"
)

type NonceStoreType string

const (
	NonceStoreNone   NonceStoreType = ""
	NonceStoreMemory NonceStoreType = "memory"
	NonceStoreBadger NonceStoreType = "badger"
	NonceStoreRedis  NonceStoreType = "redis"
)

// SignerConfig is the complete configuration of a signing process
type SignerConfig struct {
	Network    Network    `json:"network" yaml:"network"`
	WalletType WalletType `json:"walletType" yaml:"walletType"`

	// Hex private key, only for WalletTypeLocal
	PrivateKey string `json:"privateKey" yaml:"privateKey"`

	// Optional vault or sub-account the L1 actions are executed for
	VaultAddress string `json:"vaultAddress" yaml:"vaultAddress"`

	RemoteSigner *RemoteSignerConfig `json:"remoteSigner,omitempty" yaml:"remoteSigner,omitempty"`
	AWSKMS       *AWSKMSConfig       `json:"awsKms,omitempty" yaml:"awsKms,omitempty"`
	NonceStore   *NonceStoreConfig   `json:"nonceStore,omitempty" yaml:"nonceStore,omitempty"`

	Debug bool `json:"debug" yaml:"debug"`
}

// Validate validates the signer configuration and reports every problem at once
func (c *SignerConfig) Validate() error {
	var allErrors field.ErrorList

	if _, err := ParseNetwork(string(c.Network)); err != nil {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("network"), c.Network, []string{string(NetworkMainnet), string(NetworkTestnet)}))
	}

	if c.VaultAddress != "" && !common.IsHexAddress(c.VaultAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("vaultAddress"), c.VaultAddress, "must be a 20-byte hex address"))
	}

	switch c.WalletType {
	case WalletTypeLocal:
		key := strings.TrimPrefix(c.PrivateKey, "0x")
		if key == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("privateKey"), "privateKey is required for the local wallet"))
		} else if len(key) != 64 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("privateKey"), "<redacted>", fmt.Sprintf("must be 32 bytes (64 hex chars), got %d chars", len(key))))
		}
	case WalletTypeWeb3Signer:
		if c.RemoteSigner == nil {
			allErrors = append(allErrors, field.Required(field.NewPath("remoteSigner"), "remoteSigner is required for the web3signer wallet"))
		} else if err := c.RemoteSigner.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("remoteSigner"), c.RemoteSigner.Url, err.Error()))
		}
	case WalletTypeAWSKMS:
		if c.AWSKMS == nil {
			allErrors = append(allErrors, field.Required(field.NewPath("awsKms"), "awsKms is required for the awskms wallet"))
		} else if err := c.AWSKMS.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("awsKms"), c.AWSKMS.KeyId, err.Error()))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("walletType"), c.WalletType, []string{string(WalletTypeLocal), string(WalletTypeWeb3Signer), string(WalletTypeAWSKMS)}))
	}

	if c.NonceStore != nil {
		if err := c.NonceStore.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("nonceStore"), c.NonceStore.Type, err.Error()))
		}
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

type RemoteSignerConfig struct {
	Url         string `json:"url" yaml:"url"`
	CACert      string `json:"caCert" yaml:"caCert"`
	Cert        string `json:"cert" yaml:"cert"`
	Key         string `json:"key" yaml:"key"`
	FromAddress string `json:"fromAddress" yaml:"fromAddress"`
	PublicKey   string `json:"publicKey" yaml:"publicKey"`

	// Client-side cap on signing requests per second, 0 disables limiting
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.Url == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("url"), "url is required"))
	}
	if rsc.FromAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("fromAddress"), "fromAddress is required"))
	} else if !common.IsHexAddress(rsc.FromAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("fromAddress"), rsc.FromAddress, "must be a 20-byte hex address"))
	}
	if (rsc.Cert == "") != (rsc.Key == "") {
		allErrors = append(allErrors, field.Invalid(field.NewPath("cert"), rsc.Cert, "cert and key must be set together"))
	}
	if rsc.RequestsPerSecond < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("requestsPerSecond"), rsc.RequestsPerSecond, "cannot be negative"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

type AWSKMSConfig struct {
	KeyId   string `json:"keyId" yaml:"keyId"`
	Region  string `json:"region" yaml:"region"`
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`
}

func (k *AWSKMSConfig) Validate() error {
	if k.KeyId == "" {
		return field.Required(field.NewPath("keyId"), "keyId is required")
	}
	return nil
}

type NonceStoreConfig struct {
	Type NonceStoreType `json:"type" yaml:"type"`

	// Badger data directory
	Path string `json:"path" yaml:"path"`

	// Redis connection
	RedisAddress string `json:"redisAddress" yaml:"redisAddress"`
	RedisDB      int    `json:"redisDb" yaml:"redisDb"`
	KeyPrefix    string `json:"keyPrefix" yaml:"keyPrefix"`
}

func (n *NonceStoreConfig) Validate() error {
	switch n.Type {
	case NonceStoreNone, NonceStoreMemory:
		return nil
	case NonceStoreBadger:
		if n.Path == "" {
			return field.Required(field.NewPath("path"), "path is required for the badger nonce store")
		}
		return nil
	case NonceStoreRedis:
		if n.RedisAddress == "" {
			return field.Required(field.NewPath("redisAddress"), "redisAddress is required for the redis nonce store")
		}
		return nil
	default:
		return field.NotSupported(field.NewPath("type"), n.Type, []string{string(NonceStoreMemory), string(NonceStoreBadger), string(NonceStoreRedis)})
	}
}
