// Package eip712 implements EIP-712 structured data hashing: type encoding, value
// encoding, struct hashing, the domain separator and the final signing digest.
//
// The descriptor types are the go-ethereum apitypes shapes, so a descriptor built here
// serialises to exactly what eth_signTypedData_v4 remote signers accept.
package eip712

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ErrEncoding covers every structural problem: a referenced struct missing from the
// type table, an unrecognised primitive, a missing or surplus field, a value that does
// not fit its declared type.
var ErrEncoding = errors.New("eip712 encoding error")

const DomainTypeName = "EIP712Domain"

type (
	TypedData        = apitypes.TypedData
	TypedDataDomain  = apitypes.TypedDataDomain
	TypedDataMessage = apitypes.TypedDataMessage
	Types            = apitypes.Types
	Type             = apitypes.Type
)

// Domain is the strongly typed form of an EIP-712 domain.
type Domain struct {
	Name              string
	Version           string
	ChainId           *big.Int
	VerifyingContract common.Address
}

// DomainTypes is the field list of the four-field EIP712Domain struct.
var DomainTypes = []Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// TypedDataDomain converts to the descriptor form.
func (d Domain) TypedDataDomain() TypedDataDomain {
	chainId := new(big.Int)
	if d.ChainId != nil {
		chainId.Set(d.ChainId)
	}
	return TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(chainId),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

// NewTypedData assembles a descriptor for a single flat struct signed under domain.
func NewTypedData(domain Domain, primaryType string, fields []Type, message map[string]interface{}) *TypedData {
	return &TypedData{
		Types: Types{
			DomainTypeName: DomainTypes,
			primaryType:    fields,
		},
		PrimaryType: primaryType,
		Domain:      domain.TypedDataDomain(),
		Message:     message,
	}
}

var (
	bytesNPattern = regexp.MustCompile(`^bytes([0-9]{1,2})$`)
	intNPattern   = regexp.MustCompile(`^(u?)int([0-9]{1,3})$`)
	arrayPattern  = regexp.MustCompile(`^(.+)\[([0-9]*)\]$`)
)

// parseArrayType splits "T[]" or "T[k]". length is -1 for dynamic arrays.
func parseArrayType(t string) (elem string, length int, ok bool) {
	m := arrayPattern.FindStringSubmatch(t)
	if m == nil {
		return "", 0, false
	}
	if m[2] == "" {
		return m[1], -1, true
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// bytesSize returns N for "bytesN" with 1 <= N <= 32.
func bytesSize(t string) (int, bool) {
	m := bytesNPattern.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 32 {
		return 0, false
	}
	return n, true
}

// intSize returns the bit size and signedness of "uintN"/"intN", N in 8..256 step 8.
func intSize(t string) (bits int, signed bool, ok bool) {
	m := intNPattern.FindStringSubmatch(t)
	if m == nil {
		return 0, false, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return 0, false, false
	}
	return n, m[1] == "", true
}

func isPrimitive(t string) bool {
	switch t {
	case "string", "bytes", "bool", "address":
		return true
	}
	if _, ok := bytesSize(t); ok {
		return true
	}
	_, _, ok := intSize(t)
	return ok
}

// Validate checks the structural invariants before any hashing: EIP712Domain and the
// primary type exist, and every field type is either a primitive or a declared struct.
func Validate(td *TypedData) error {
	if td == nil {
		return fmt.Errorf("%w: typed data is nil", ErrEncoding)
	}
	if _, ok := td.Types[DomainTypeName]; !ok {
		return fmt.Errorf("%w: %s missing from types", ErrEncoding, DomainTypeName)
	}
	if td.PrimaryType == "" {
		return fmt.Errorf("%w: primary type is empty", ErrEncoding)
	}
	if _, ok := td.Types[td.PrimaryType]; !ok {
		return fmt.Errorf("%w: primary type %q missing from types", ErrEncoding, td.PrimaryType)
	}

	for structName, fields := range td.Types {
		seen := make(map[string]struct{}, len(fields))
		for _, field := range fields {
			if field.Name == "" {
				return fmt.Errorf("%w: %s has an unnamed field", ErrEncoding, structName)
			}
			if _, dup := seen[field.Name]; dup {
				return fmt.Errorf("%w: %s declares %q twice", ErrEncoding, structName, field.Name)
			}
			seen[field.Name] = struct{}{}

			base := field.Type
			for {
				elem, _, isArray := parseArrayType(base)
				if !isArray {
					break
				}
				base = elem
			}
			if isPrimitive(base) {
				continue
			}
			if _, ok := td.Types[base]; !ok {
				return fmt.Errorf("%w: %s.%s references unknown type %q", ErrEncoding, structName, field.Name, field.Type)
			}
		}
	}
	return nil
}

// EncodeType renders "Name(type1 name1,type2 name2,...)" from the declared field list
// of name only.
func EncodeType(name string, types Types) (string, error) {
	fields, ok := types[name]
	if !ok {
		return "", fmt.Errorf("%w: type %q not declared", ErrEncoding, name)
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(field.Type)
		b.WriteByte(' ')
		b.WriteString(field.Name)
	}
	b.WriteByte(')')
	return b.String(), nil
}
