package signature

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrSignatureFormat is returned for anything that is not a 65-byte r||s||v signature
// with a recognisable recovery byte.
var ErrSignatureFormat = errors.New("invalid signature format")

const (
	// Length is the wire size of r(32) || s(32) || v(1)
	Length = 65

	hexLength = Length * 2
)

var (
	// secp256k1 curve order
	curveOrder, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	halfOrder     = new(big.Int).Rsh(curveOrder, 1)
)

// Signature is a recoverable secp256k1 signature in its wire components.
// V is always 27 or 28.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// New builds a Signature from big-endian scalars and a recovery id (0 or 1).
func New(r, s *big.Int, recoveryID byte) (*Signature, error) {
	if r == nil || s == nil {
		return nil, fmt.Errorf("%w: nil r or s", ErrSignatureFormat)
	}
	if r.Sign() <= 0 || r.BitLen() > 256 || s.Sign() <= 0 || s.BitLen() > 256 {
		return nil, fmt.Errorf("%w: r and s must be positive 256-bit values", ErrSignatureFormat)
	}
	if recoveryID > 1 {
		return nil, fmt.Errorf("%w: recovery id %d out of range", ErrSignatureFormat, recoveryID)
	}

	sig := &Signature{V: 27 + recoveryID}
	r.FillBytes(sig.R[:])
	s.FillBytes(sig.S[:])
	return sig, nil
}

// Parse decodes a hex signature, with or without 0x, into its components and
// normalises v to 27/28.
func Parse(sigHex string) (*Signature, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(sigHex, "0x"), "0X")
	if len(raw) != hexLength {
		return nil, fmt.Errorf("%w: expected %d hex chars, got %d", ErrSignatureFormat, hexLength, len(raw))
	}

	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureFormat, err)
	}
	return FromBytes(b)
}

// FromBytes splits a 65-byte signature into r, s and a normalised v.
func FromBytes(b []byte) (*Signature, error) {
	if len(b) != Length {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrSignatureFormat, Length, len(b))
	}

	v, err := normalizeV(b[64])
	if err != nil {
		return nil, err
	}

	sig := &Signature{V: v}
	copy(sig.R[:], b[0:32])
	copy(sig.S[:], b[32:64])
	return sig, nil
}

// normalizeV maps {0,1} to {27,28}. Anything else is rejected rather than coerced.
func normalizeV(v byte) (byte, error) {
	switch v {
	case 0, 1:
		return v + 27, nil
	case 27, 28:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: unsupported recovery byte %d", ErrSignatureFormat, v)
	}
}

// Bytes returns the 65-byte r || s || v form.
func (s *Signature) Bytes() []byte {
	out := make([]byte, Length)
	copy(out[0:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

// Serialize is the inverse of Parse: 0x-prefixed, 130 hex chars.
func (s *Signature) Serialize() string {
	return hexutil.Encode(s.Bytes())
}

func (s *Signature) String() string {
	return s.Serialize()
}

// RecoveryID returns v as 0 or 1.
func (s *Signature) RecoveryID() byte {
	return s.V - 27
}

func (s *Signature) RInt() *big.Int {
	return new(big.Int).SetBytes(s.R[:])
}

func (s *Signature) SInt() *big.Int {
	return new(big.Int).SetBytes(s.S[:])
}

// IsLowS reports whether s sits in the lower half of the curve order.
func (s *Signature) IsLowS() bool {
	return IsLowS(s.SInt())
}

// IsLowS reports whether s <= N/2.
func IsLowS(s *big.Int) bool {
	return s.Cmp(halfOrder) <= 0
}

// NormalizeS returns N - s when s is in the upper half of the curve order, s otherwise.
// Flipping s also flips the parity of the recovery id; callers must resolve v after
// normalising.
func NormalizeS(s *big.Int) *big.Int {
	if s.Cmp(halfOrder) > 0 {
		return new(big.Int).Sub(curveOrder, s)
	}
	return new(big.Int).Set(s)
}

type jsonSignature struct {
	R string `json:"r"`
	S string `json:"s"`
	V byte   `json:"v"`
}

// MarshalJSON emits the exchange envelope shape: r and s as minimal 0x-hex
// quantities, v as a number.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSignature{
		R: hexutil.EncodeBig(s.RInt()),
		S: hexutil.EncodeBig(s.SInt()),
		V: s.V,
	})
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var js jsonSignature
	if err := json.Unmarshal(data, &js); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureFormat, err)
	}

	r, err := parseScalar(js.R)
	if err != nil {
		return fmt.Errorf("%w: r: %v", ErrSignatureFormat, err)
	}
	sv, err := parseScalar(js.S)
	if err != nil {
		return fmt.Errorf("%w: s: %v", ErrSignatureFormat, err)
	}
	v, err := normalizeV(js.V)
	if err != nil {
		return err
	}

	r.FillBytes(s.R[:])
	sv.FillBytes(s.S[:])
	s.V = v
	return nil
}

func parseScalar(h string) (*big.Int, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if raw == "" || len(raw) > 64 {
		return nil, fmt.Errorf("invalid scalar %q", h)
	}
	v, ok := new(big.Int).SetString(raw, 16)
	if !ok {
		return nil, fmt.Errorf("invalid scalar %q", h)
	}
	return v, nil
}
