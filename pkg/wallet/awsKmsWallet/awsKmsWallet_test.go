package awsKmsWallet

import (
	"context"
	"encoding/asn1"
	"fmt"
	"math/big"
	"testing"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/eip712"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/secp256k1Signer"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredEcdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var curveOrder = secp256k1.S256().Params().N

type derSig struct {
	R, S *big.Int
}

// fakeKMS signs with an in-memory key and answers in the DER shapes KMS uses
type fakeKMS struct {
	key      *secp256k1.PrivateKey
	signWith *secp256k1.PrivateKey
	highS    bool
	keySpec  types.KeySpec
	signErr  error
}

func newFakeKMS(t *testing.T, keyHex string) *fakeKMS {
	b := common.FromHex(keyHex)
	require.Len(t, b, 32)
	key := secp256k1.PrivKeyFromBytes(b)
	return &fakeKMS{key: key, signWith: key, keySpec: types.KeySpecEccSecgP256k1}
}

func (f *fakeKMS) GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	der, err := MarshalECDSAPublicKey(f.key.PubKey().SerializeUncompressed())
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{KeyId: params.KeyId, PublicKey: der, KeySpec: f.keySpec}, nil
}

func (f *fakeKMS) Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	if params.MessageType != types.MessageTypeDigest || len(params.Message) != 32 {
		return nil, fmt.Errorf("expected a 32-byte digest")
	}

	der := decredEcdsa.Sign(f.signWith, params.Message).Serialize()
	if f.highS {
		var sig derSig
		if _, err := asn1.Unmarshal(der, &sig); err != nil {
			return nil, err
		}
		sig.S = new(big.Int).Sub(curveOrder, sig.S)
		var err error
		if der, err = asn1.Marshal(sig); err != nil {
			return nil, err
		}
	}
	return &kms.SignOutput{KeyId: params.KeyId, Signature: der, SigningAlgorithm: params.SigningAlgorithm}, nil
}

const testPrivateKey = "0x0123456789012345678901234567890123456789012345678901234567890123"

func usdSendTypedData() *eip712.TypedData {
	return eip712.NewTypedData(
		eip712.Domain{Name: "HyperliquidSignTransaction", Version: "1", ChainId: big.NewInt(0x66eee)},
		"HyperliquidTransaction:UsdSend",
		[]eip712.Type{
			{Name: "hyperliquidChain", Type: "string"},
			{Name: "destination", Type: "string"},
			{Name: "amount", Type: "string"},
			{Name: "time", Type: "uint64"},
		},
		map[string]interface{}{
			"hyperliquidChain": "Testnet",
			"destination":      "0x5e9ee1089755c3435139848e47e6635505d5a13a",
			"amount":           "1",
			"time":             uint64(1687816341423),
		},
	)
}

const expectedUsdSendSig = "0x" +
	"637b37dd731507cdd24f46532ca8ba6eec616952c56218baeff04144e4a77073" +
	"11a6a24900e6e314136d2592e2f8d502cd89b7c15b198e1bee043c9589f9fad7" +
	"1b"

func Test_AWSKMSWallet(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	t.Run("Should derive the address from the KMS public key", func(t *testing.T) {
		w, err := NewAWSKMSWallet(ctx, newFakeKMS(t, testPrivateKey), "key-1", logger)
		require.NoError(t, err)
		assert.Equal(t, "0x14791697260E4c9A71f18484C9f997B308e59325", w.GetAddress().Hex())
	})

	t.Run("Should produce the same signature as a local key", func(t *testing.T) {
		w, err := NewAWSKMSWallet(ctx, newFakeKMS(t, testPrivateKey), "key-1", logger)
		require.NoError(t, err)

		sig, err := w.SignTypedData(ctx, usdSendTypedData())
		require.NoError(t, err)
		assert.Equal(t, expectedUsdSendSig, sig)
	})

	t.Run("Should normalise a high-s signature", func(t *testing.T) {
		f := newFakeKMS(t, testPrivateKey)
		f.highS = true
		w, err := NewAWSKMSWallet(ctx, f, "key-1", logger)
		require.NoError(t, err)

		sigHex, err := w.SignTypedData(ctx, usdSendTypedData())
		require.NoError(t, err)
		assert.Equal(t, expectedUsdSendSig, sigHex)

		sig, err := signature.Parse(sigHex)
		require.NoError(t, err)
		assert.True(t, sig.IsLowS())
	})

	t.Run("Should fail when KMS signs with a different key", func(t *testing.T) {
		f := newFakeKMS(t, testPrivateKey)
		f.signWith = secp256k1.PrivKeyFromBytes(common.FromHex("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"))
		w, err := NewAWSKMSWallet(ctx, f, "key-1", logger)
		require.NoError(t, err)

		_, err = w.SignTypedData(ctx, usdSendTypedData())
		require.ErrorIs(t, err, secp256k1Signer.ErrRecoveryFailure)
	})

	t.Run("Should surface KMS errors", func(t *testing.T) {
		f := newFakeKMS(t, testPrivateKey)
		f.signErr = fmt.Errorf("AccessDeniedException")
		w, err := NewAWSKMSWallet(ctx, f, "key-1", logger)
		require.NoError(t, err)

		_, err = w.SignTypedData(ctx, usdSendTypedData())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AccessDeniedException")
	})

	t.Run("Should reject keys on another curve", func(t *testing.T) {
		f := newFakeKMS(t, testPrivateKey)
		f.keySpec = types.KeySpecEccNistP256
		_, err := NewAWSKMSWallet(ctx, f, "key-1", logger)
		require.Error(t, err)
	})

	t.Run("Should validate constructor arguments", func(t *testing.T) {
		_, err := NewAWSKMSWallet(ctx, nil, "key-1", logger)
		require.Error(t, err)
		_, err = NewAWSKMSWallet(ctx, newFakeKMS(t, testPrivateKey), "", logger)
		require.Error(t, err)
		_, err = NewAWSKMSWalletFromConfig(ctx, nil, logger)
		require.Error(t, err)
	})
}

func Test_ParseECDSAPublicKey_Invalid(t *testing.T) {
	_, err := ParseECDSAPublicKey([]byte{0x30, 0x01})
	require.Error(t, err)

	der, err := asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{Algorithm: oidEcPublicKey, Parameters: oidSecp256k1},
		PublicKey:       asn1.BitString{Bytes: []byte{0x04, 0x01}, BitLength: 16},
	})
	require.NoError(t, err)
	_, err = ParseECDSAPublicKey(der)
	require.Error(t, err)

	_, err = MarshalECDSAPublicKey([]byte{0x02, 0x01})
	require.Error(t, err)
}
