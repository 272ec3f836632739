package secp256k1Signer

import (
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/crypto"
	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/signature"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
)

// RecoverPublicKey recomputes the signer's public key from (r, s) and a recovery id:
// R is decompressed from x = r with the y parity given by recoveryID, then
// Q = r^-1 (s*R - e*G).
func RecoverPublicKey(digest common.Hash, r, s *secp256k1.ModNScalar, recoveryID byte) (*secp256k1.PublicKey, error) {
	if recoveryID > 1 {
		return nil, fmt.Errorf("recovery id %d out of range", recoveryID)
	}
	if r.IsZero() || s.IsZero() {
		return nil, fmt.Errorf("r and s must be non-zero")
	}

	// r < N < P, so r is always a valid x coordinate candidate.
	rBytes := r.Bytes()
	var x, y secp256k1.FieldVal
	x.SetBytes(&rBytes)
	if !secp256k1.DecompressY(&x, recoveryID == 1, &y) {
		return nil, fmt.Errorf("x = r is not on the curve")
	}
	y.Normalize()

	var bigR secp256k1.JacobianPoint
	bigR.X.Set(&x)
	bigR.Y.Set(&y)
	bigR.Z.SetInt(1)

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest[:])

	var rInv, u1, u2 secp256k1.ModNScalar
	rInv.InverseValNonConst(r)
	u1.Mul2(&e, &rInv).Negate()
	u2.Mul2(s, &rInv)

	var u1G, u2R, q secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&u1, &u1G)
	secp256k1.ScalarMultNonConst(&u2, &bigR, &u2R)
	secp256k1.AddNonConst(&u1G, &u2R, &q)

	if (q.X.IsZero() && q.Y.IsZero()) || q.Z.IsZero() {
		return nil, fmt.Errorf("recovered point is at infinity")
	}
	q.ToAffine()

	return secp256k1.NewPublicKey(&q.X, &q.Y), nil
}

// RecoverAddress returns the address that produced sig over digest.
func RecoverAddress(digest common.Hash, sig *signature.Signature) (common.Address, error) {
	r, err := scalarFromBig(sig.RInt())
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid r: %w", err)
	}
	s, err := scalarFromBig(sig.SInt())
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid s: %w", err)
	}

	pubKey, err := RecoverPublicKey(digest, r, s, sig.RecoveryID())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrRecoveryFailure, err)
	}
	return crypto.PublicKeyToAddress(pubKey.SerializeUncompressed())
}
