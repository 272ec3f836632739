package secp256k1Signer

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
)

// ErrRecoveryFailure means neither recovery id reproduces the signing key, which
// points at a corrupted digest or scalar. Nothing is ever guessed.
var ErrRecoveryFailure = errors.New("signature recovery failed")

// Sign produces a deterministic (RFC 6979) low-s signature over a 32-byte digest.
// The digest is signed as-is; no prefix or further hashing is applied.
func (k *PrivateKey) Sign(digest common.Hash) (*signature.Signature, error) {
	if k.key.Key.IsZero() {
		return nil, fmt.Errorf("private key has been zeroed")
	}

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest[:])

	privBytes := k.key.Key.Bytes()
	defer clear(privBytes[:])

	var r, s secp256k1.ModNScalar
	for iteration := uint32(0); ; iteration++ {
		nonce := secp256k1.NonceRFC6979(privBytes[:], digest[:], nil, nil, iteration)
		ok := signWithNonce(&k.key.Key, nonce, &e, &r, &s)
		nonce.Zero()
		if ok {
			break
		}
	}

	if s.IsOverHalfOrder() {
		s.Negate()
	}

	recoveryID, err := ResolveRecoveryID(digest, &r, &s, k.pubKey)
	if err != nil {
		return nil, err
	}

	rBytes, sBytes := r.Bytes(), s.Bytes()
	return signature.New(new(big.Int).SetBytes(rBytes[:]), new(big.Int).SetBytes(sBytes[:]), recoveryID)
}

// signWithNonce computes r = (k*G).x mod N and s = k^-1 (e + r*d) mod N. It reports
// false when the nonce must be discarded: r or s is zero, or k*G.x >= N (which would
// need a recovery id outside {0,1}).
func signWithNonce(d, nonce, e, r, s *secp256k1.ModNScalar) bool {
	var point secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(nonce, &point)
	point.ToAffine()

	if overflow := r.SetBytes(point.X.Bytes()); overflow != 0 {
		return false
	}
	if r.IsZero() {
		return false
	}

	var kInv secp256k1.ModNScalar
	kInv.InverseValNonConst(nonce)
	s.Mul2(r, d).Add(e).Mul(&kInv)

	return !s.IsZero()
}

// ResolveRecoveryID returns the recovery id (0 or 1) under which (r, s) over digest
// recovers expectedPubKey, an uncompressed 65-byte key.
func ResolveRecoveryID(digest common.Hash, r, s *secp256k1.ModNScalar, expectedPubKey []byte) (byte, error) {
	for recoveryID := byte(0); recoveryID < 2; recoveryID++ {
		candidate, err := RecoverPublicKey(digest, r, s, recoveryID)
		if err != nil {
			continue
		}
		if bytes.Equal(candidate.SerializeUncompressed(), expectedPubKey) {
			return recoveryID, nil
		}
	}
	return 0, fmt.Errorf("%w: no recovery id reproduces the signing key", ErrRecoveryFailure)
}

// FinalizeSignature turns a raw (r, s) pair produced elsewhere (HSM, KMS) into a wire
// signature: s is low-s normalised and v is resolved against the signer's public key.
func FinalizeSignature(digest common.Hash, r, s *big.Int, expectedPubKey []byte) (*signature.Signature, error) {
	if r == nil || s == nil {
		return nil, fmt.Errorf("%w: nil r or s", signature.ErrSignatureFormat)
	}
	s = signature.NormalizeS(s)

	rScalar, err := scalarFromBig(r)
	if err != nil {
		return nil, fmt.Errorf("invalid r: %w", err)
	}
	sScalar, err := scalarFromBig(s)
	if err != nil {
		return nil, fmt.Errorf("invalid s: %w", err)
	}

	recoveryID, err := ResolveRecoveryID(digest, rScalar, sScalar, expectedPubKey)
	if err != nil {
		return nil, err
	}
	return signature.New(r, s, recoveryID)
}

func scalarFromBig(v *big.Int) (*secp256k1.ModNScalar, error) {
	if v.Sign() <= 0 || v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: scalar out of range", signature.ErrSignatureFormat)
	}

	var buf [32]byte
	v.FillBytes(buf[:])

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetBytes(&buf); overflow != 0 {
		return nil, fmt.Errorf("%w: scalar not below the curve order", signature.ErrSignatureFormat)
	}
	return &scalar, nil
}
