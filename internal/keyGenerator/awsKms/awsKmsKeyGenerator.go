package awsKms

import (
	"context"
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/internal/keyGenerator"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/config"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/wallet/awsKmsWallet"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// IKMSKeyClient is the subset of the KMS API needed to create and inspect keys
type IKMSKeyClient interface {
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput, optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
}

type AWSKMSKeyGenerator struct {
	logger    *zap.Logger
	kmsClient IKMSKeyClient
	awsRegion string
	network   config.Network
}

var _ keyGenerator.IKeyGenerator = (*AWSKMSKeyGenerator)(nil)

func NewAWSKMSKeyGenerator(kmsClient IKMSKeyClient, awsRegion string, network config.Network, logger *zap.Logger) *AWSKMSKeyGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AWSKMSKeyGenerator{
		logger:    logger,
		kmsClient: kmsClient,
		awsRegion: awsRegion,
		network:   network,
	}
}

func NewAWSKMSKeyGeneratorFromConfig(awsCfg aws.Config, network config.Network, logger *zap.Logger) *AWSKMSKeyGenerator {
	return NewAWSKMSKeyGenerator(kms.NewFromConfig(awsCfg), awsCfg.Region, network, logger)
}

// GenerateKey creates an ECC_SECG_P256K1 signing key and, if aliasName is set, an
// alias pointing at it.
func (a *AWSKMSKeyGenerator) GenerateKey(ctx context.Context, keyName string, aliasName string) (*keyGenerator.GeneratedKey, error) {
	keyRes, err := a.createSigningKey(ctx, keyName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create key %s in region %s", keyName, a.awsRegion)
	}
	keyId := aws.ToString(keyRes.KeyMetadata.KeyId)

	if aliasName != "" {
		if err := a.createKeyAlias(ctx, keyId, aliasName); err != nil {
			return nil, errors.Wrapf(err, "failed to create alias %s for key %s in region %s", aliasName, keyId, a.awsRegion)
		}
	}

	return a.GetKeyById(ctx, keyId)
}

func (a *AWSKMSKeyGenerator) GetKeyById(ctx context.Context, keyId string) (*keyGenerator.GeneratedKey, error) {
	out, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(keyId)})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s in region %s", keyId, a.awsRegion)
	}
	if out.KeySpec != types.KeySpecEccSecgP256k1 {
		return nil, fmt.Errorf("key %s has spec %s, expected %s", keyId, out.KeySpec, types.KeySpecEccSecgP256k1)
	}

	pubKey, err := awsKmsWallet.ParseECDSAPublicKey(out.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse public key for key %s in region %s", keyId, a.awsRegion)
	}

	return &keyGenerator.GeneratedKey{
		PublicKey: crypto.FromECDSAPub(pubKey),
		Address:   crypto.PubkeyToAddress(*pubKey),
		KeyId:     keyId,
	}, nil
}

func (a *AWSKMSKeyGenerator) createSigningKey(ctx context.Context, keyName string) (*kms.CreateKeyOutput, error) {
	input := &kms.CreateKeyInput{
		KeyUsage:    types.KeyUsageTypeSignVerify,
		KeySpec:     types.KeySpecEccSecgP256k1,
		Description: aws.String(fmt.Sprintf("Hyperliquid signing key - %s", keyName)),
		Tags: []types.Tag{
			{TagKey: aws.String("Name"), TagValue: aws.String(keyName)},
			{TagKey: aws.String("Network"), TagValue: aws.String(a.network.String())},
			{TagKey: aws.String("Purpose"), TagValue: aws.String("hyperliquid-signing-key")},
			{TagKey: aws.String("Curve"), TagValue: aws.String("secp256k1")},
		},
	}

	result, err := a.kmsClient.CreateKey(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create KMS key: %w", err)
	}
	if result.KeyMetadata == nil || result.KeyMetadata.KeyId == nil {
		return nil, fmt.Errorf("KMS returned no key id")
	}
	return result, nil
}

func (a *AWSKMSKeyGenerator) createKeyAlias(ctx context.Context, keyId, aliasName string) error {
	_, err := a.kmsClient.CreateAlias(ctx, &kms.CreateAliasInput{
		AliasName:   aws.String(fmt.Sprintf("alias/%s", aliasName)),
		TargetKeyId: aws.String(keyId),
	})
	if err != nil {
		return fmt.Errorf("failed to create key alias: %w", err)
	}

	a.logger.Info("Created KMS key alias",
		zap.String("alias", "alias/"+aliasName),
		zap.String("keyId", keyId),
	)
	return nil
}
