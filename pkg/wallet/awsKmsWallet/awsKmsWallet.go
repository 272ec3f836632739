package awsKmsWallet

import (
	"context"
	"encoding/asn1"
	"fmt"
	"math/big"

	internalAws "github.com/Riten-Zone/hyperliquid-signer-go/internal/aws"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// IKMSClient is the subset of the KMS API the wallet uses
type IKMSClient interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

// AWSKMSWallet signs with an ECC_SECG_P256K1 key that never leaves AWS KMS
type AWSKMSWallet struct {
	logger    *zap.Logger
	kmsClient IKMSClient
	keyId     string
	pubKey    []byte
	address   common.Address
}

var _ wallet.IWallet = (*AWSKMSWallet)(nil)

// NewAWSKMSWallet fetches the public key of keyId once and derives the wallet address from it.
func NewAWSKMSWallet(ctx context.Context, kmsClient IKMSClient, keyId string, logger *zap.Logger) (*AWSKMSWallet, error) {
	if kmsClient == nil {
		return nil, fmt.Errorf("kms client cannot be nil")
	}
	if keyId == "" {
		return nil, fmt.Errorf("key id cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &AWSKMSWallet{
		logger:    logger,
		kmsClient: kmsClient,
		keyId:     keyId,
	}

	kmsPubKey, err := w.getPublicKey(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", keyId)
	}

	pubKey, err := ParseECDSAPublicKey(kmsPubKey.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s", keyId)
	}
	w.pubKey = crypto.FromECDSAPub(pubKey)
	w.address = crypto.PubkeyToAddress(*pubKey)

	logger.Info("Loaded AWS KMS wallet",
		zap.String("keyId", keyId),
		zap.String("address", w.address.Hex()),
	)
	return w, nil
}

// NewAWSKMSWalletFromConfig loads the AWS config the same way the rest of the
// tooling does and logs the caller identity the key is used under.
func NewAWSKMSWalletFromConfig(ctx context.Context, cfg *config.AWSKMSConfig, logger *zap.Logger) (*AWSKMSWallet, error) {
	if cfg == nil {
		return nil, fmt.Errorf("aws kms config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	awsCfg, err := internalAws.LoadAWSConfig(ctx, internalAws.Options{Region: cfg.Region, Profile: cfg.Profile})
	if err != nil {
		return nil, errors.Wrapf(err, "region %s", cfg.Region)
	}

	identity, err := internalAws.CallerIdentity(ctx, awsCfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using AWS identity",
		zap.String("account", identity.Account),
		zap.String("arn", identity.Arn),
	)

	return NewAWSKMSWallet(ctx, kms.NewFromConfig(awsCfg), cfg.KeyId, logger)
}

func (w *AWSKMSWallet) GetAddress() common.Address {
	return w.address
}

func (w *AWSKMSWallet) SignTypedData(ctx context.Context, typedData *eip712.TypedData) (string, error) {
	digest, err := eip712.Digest(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to compute typed data digest: %w", err)
	}

	sig, err := w.SignDigest(ctx, digest)
	if err != nil {
		return "", err
	}
	return sig.Serialize(), nil
}

// SignDigest asks KMS to sign digest as-is and turns the DER answer into a
// low-s recoverable signature.
func (w *AWSKMSWallet) SignDigest(ctx context.Context, digest common.Hash) (*signature.Signature, error) {
	signOutput, err := w.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(w.keyId),
		Message:          digest.Bytes(),
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      types.MessageTypeDigest,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sign digest with key %s", w.keyId)
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(signOutput.Signature, &sigAsn1); err != nil {
		return nil, errors.Wrapf(err, "failed to parse DER signature from key %s", w.keyId)
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)

	sig, err := secp256k1Signer.FinalizeSignature(digest, r, s, w.pubKey)
	if err != nil {
		return nil, errors.Wrapf(err, "could not determine recovery id for key %s", w.keyId)
	}

	w.logger.Debug("Signed digest with AWS KMS",
		zap.String("keyId", w.keyId),
		zap.String("address", w.address.Hex()),
		zap.String("digest", digest.Hex()),
	)
	return sig, nil
}

func (w *AWSKMSWallet) getPublicKey(ctx context.Context) (*kms.GetPublicKeyOutput, error) {
	result, err := w.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(w.keyId),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	if result.KeySpec != "" && result.KeySpec != types.KeySpecEccSecgP256k1 {
		return nil, fmt.Errorf("key spec %s is not %s", result.KeySpec, types.KeySpecEccSecgP256k1)
	}
	return result, nil
}
