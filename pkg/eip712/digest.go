package eip712

import (
	"fmt"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/crypto"
	"github.com/ethereum/go-ethereum/common"
)

// DomainSeparator is hashStruct("EIP712Domain", domain).
func DomainSeparator(td *TypedData) (common.Hash, error) {
	values, err := domainValues(td)
	if err != nil {
		return common.Hash{}, err
	}
	return HashStruct(DomainTypeName, values, td.Types)
}

// domainValues lays the descriptor's domain out as a struct value covering exactly the
// fields EIP712Domain declares.
func domainValues(td *TypedData) (map[string]interface{}, error) {
	declared, ok := td.Types[DomainTypeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s missing from types", ErrEncoding, DomainTypeName)
	}

	values := make(map[string]interface{}, len(declared))
	for _, field := range declared {
		switch field.Name {
		case "name":
			values["name"] = td.Domain.Name
		case "version":
			values["version"] = td.Domain.Version
		case "chainId":
			if td.Domain.ChainId == nil {
				return nil, fmt.Errorf("%w: domain declares chainId but none is set", ErrEncoding)
			}
			values["chainId"] = td.Domain.ChainId
		case "verifyingContract":
			values["verifyingContract"] = td.Domain.VerifyingContract
		case "salt":
			values["salt"] = td.Domain.Salt
		default:
			return nil, fmt.Errorf("%w: unknown domain field %q", ErrEncoding, field.Name)
		}
	}
	return values, nil
}

// Digest is keccak256(0x19 || 0x01 || domainSeparator || hashStruct(primaryType, message)).
// This, never the struct hash alone, is what gets signed.
func Digest(td *TypedData) (common.Hash, error) {
	if err := Validate(td); err != nil {
		return common.Hash{}, err
	}

	domainSeparator, err := DomainSeparator(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("domain separator: %w", err)
	}
	structHash, err := HashStruct(td.PrimaryType, td.Message, td.Types)
	if err != nil {
		return common.Hash{}, fmt.Errorf("message: %w", err)
	}

	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator[:], structHash[:]), nil
}
