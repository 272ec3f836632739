package eip712

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/Riten-Zone/hyperliquid-signer-go/pkg/crypto"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// TypeHash is keccak256(EncodeType(name)).
func TypeHash(name string, types Types) (common.Hash, error) {
	encoded, err := EncodeType(name, types)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte(encoded)), nil
}

// HashStruct is keccak256(typeHash || enc(field_1) || ... || enc(field_n)) with fields
// taken in declared order. Every declared field must be present in data and data may
// not carry undeclared fields.
func HashStruct(name string, data map[string]interface{}, types Types) (common.Hash, error) {
	fields, ok := types[name]
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: type %q not declared", ErrEncoding, name)
	}
	if len(data) > len(fields) {
		return common.Hash{}, fmt.Errorf("%w: %s carries %d values for %d declared fields", ErrEncoding, name, len(data), len(fields))
	}

	typeHash, err := TypeHash(name, types)
	if err != nil {
		return common.Hash{}, err
	}

	buf := make([]byte, 0, 32*(len(fields)+1))
	buf = append(buf, typeHash[:]...)
	for _, field := range fields {
		value, ok := data[field.Name]
		if !ok {
			return common.Hash{}, fmt.Errorf("%w: %s.%s is missing", ErrEncoding, name, field.Name)
		}
		encoded, err := EncodeValue(field.Type, value, types)
		if err != nil {
			return common.Hash{}, fmt.Errorf("%s.%s: %w", name, field.Name, err)
		}
		buf = append(buf, encoded...)
	}
	return crypto.Keccak256Hash(buf), nil
}

// EncodeValue returns the 32-byte encoding of value as fieldType.
func EncodeValue(fieldType string, value interface{}, types Types) ([]byte, error) {
	if elem, length, ok := parseArrayType(fieldType); ok {
		return encodeArray(elem, length, value, types)
	}

	if _, ok := types[fieldType]; ok {
		nested, err := toMap(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEncoding, fieldType, err)
		}
		hash, err := HashStruct(fieldType, nested, types)
		if err != nil {
			return nil, err
		}
		return hash.Bytes(), nil
	}

	switch fieldType {
	case "string":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: string expected, got %T", ErrEncoding, value)
		}
		return crypto.Keccak256([]byte(s)), nil

	case "bytes":
		b, err := toBytes(value)
		if err != nil {
			return nil, fmt.Errorf("%w: bytes: %v", ErrEncoding, err)
		}
		return crypto.Keccak256(b), nil

	case "bool":
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool expected, got %T", ErrEncoding, value)
		}
		out := make([]byte, 32)
		if b {
			out[31] = 1
		}
		return out, nil

	case "address":
		addr, err := toAddress(value)
		if err != nil {
			return nil, fmt.Errorf("%w: address: %v", ErrEncoding, err)
		}
		return common.LeftPadBytes(addr.Bytes(), 32), nil
	}

	if size, ok := bytesSize(fieldType); ok {
		return encodeFixedBytes(size, value)
	}
	if bits, signed, ok := intSize(fieldType); ok {
		return encodeInteger(fieldType, bits, signed, value)
	}

	return nil, fmt.Errorf("%w: unrecognised type %q", ErrEncoding, fieldType)
}

// encodeFixedBytes zero-left-pads short input to size bytes and lays the result out
// left-aligned in the 32-byte word. For bytes32 that is simply the value, padded on
// the left when shorter.
func encodeFixedBytes(size int, value interface{}) ([]byte, error) {
	b, err := toBytes(value)
	if err != nil {
		return nil, fmt.Errorf("%w: bytes%d: %v", ErrEncoding, size, err)
	}
	if len(b) > size {
		return nil, fmt.Errorf("%w: bytes%d given %d bytes", ErrEncoding, size, len(b))
	}

	out := make([]byte, 32)
	copy(out[size-len(b):size], b)
	return out, nil
}

func encodeInteger(fieldType string, bits int, signed bool, value interface{}) ([]byte, error) {
	n, err := toBigInt(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncoding, fieldType, err)
	}

	if signed {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%w: %s out of range: %s", ErrEncoding, fieldType, n)
		}
		return math.U256Bytes(new(big.Int).Set(n)), nil
	}

	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s cannot be negative: %s", ErrEncoding, fieldType, n)
	}
	if n.BitLen() > bits {
		return nil, fmt.Errorf("%w: %s overflows: %s", ErrEncoding, fieldType, n)
	}
	return common.LeftPadBytes(n.Bytes(), 32), nil
}

func encodeArray(elemType string, length int, value interface{}, types Types) ([]byte, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %s[] expects a list, got %T", ErrEncoding, elemType, value)
	}
	if length >= 0 && rv.Len() != length {
		return nil, fmt.Errorf("%w: %s[%d] given %d elements", ErrEncoding, elemType, length, rv.Len())
	}

	buf := make([]byte, 0, 32*rv.Len())
	for i := 0; i < rv.Len(); i++ {
		encoded, err := EncodeValue(elemType, rv.Index(i).Interface(), types)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		buf = append(buf, encoded...)
	}
	return crypto.Keccak256(buf), nil
}

// toMap accepts plain maps, which includes TypedDataMessage (an alias).
func toMap(value interface{}) (map[string]interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	default:
		return nil, fmt.Errorf("struct value expected, got %T", value)
	}
}

func toBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case hexutil.Bytes:
		return v, nil
	case common.Hash:
		return v.Bytes(), nil
	case [32]byte:
		return v[:], nil
	case string:
		return hexutil.Decode(v)
	default:
		return nil, fmt.Errorf("unsupported byte value %T", value)
	}
}

func toAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *v, nil
	case string:
		if !common.IsHexAddress(v) {
			return common.Address{}, fmt.Errorf("invalid address %q", v)
		}
		return common.HexToAddress(v), nil
	case []byte:
		if len(v) != common.AddressLength {
			return common.Address{}, fmt.Errorf("address must be %d bytes, got %d", common.AddressLength, len(v))
		}
		return common.BytesToAddress(v), nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address value %T", value)
	}
}

func toBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return v, nil
	case *math.HexOrDecimal256:
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return (*big.Int)(v), nil
	case math.HexOrDecimal256:
		return (*big.Int)(&v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case float64:
		// JSON-decoded numbers arrive as float64; only exact integers are accepted.
		f := new(big.Float).SetFloat64(v)
		if !f.IsInt() {
			return nil, fmt.Errorf("non-integer number %v", v)
		}
		n, _ := f.Int(nil)
		return n, nil
	case json.Number:
		return parseIntegerString(v.String())
	case string:
		return parseIntegerString(v)
	default:
		return nil, fmt.Errorf("unsupported integer value %T", value)
	}
}

func parseIntegerString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	n, ok := math.ParseBig256(s)
	if !ok || s == "" {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if negative {
		n.Neg(n)
	}
	return n, nil
}
