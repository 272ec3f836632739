package awsKmsWallet

import (
	"crypto/ecdsa"
	"encoding/asn1"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// DER shapes returned by KMS Sign and GetPublicKey
type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

var (
	oidEcPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// ParseECDSAPublicKey parses the DER-encoded SubjectPublicKeyInfo from KMS
func ParseECDSAPublicKey(derBytes []byte) (*ecdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	if _, err := asn1.Unmarshal(derBytes, &asn1pubk); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}

// MarshalECDSAPublicKey is the inverse of ParseECDSAPublicKey for a 65-byte
// uncompressed secp256k1 key.
func MarshalECDSAPublicKey(pub []byte) ([]byte, error) {
	if len(pub) != 65 || pub[0] != 0x04 {
		return nil, fmt.Errorf("expected a 65-byte uncompressed public key, got %d bytes", len(pub))
	}
	return asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{Algorithm: oidEcPublicKey, Parameters: oidSecp256k1},
		PublicKey:       asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
}
