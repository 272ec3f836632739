package action

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrMalformedInput = errors.New("malformed input")

const (
	vaultAbsent  byte = 0x00
	vaultPresent byte = 0x01

	expiresPresent byte = 0x00
)

// EncodeMsgpack serialises m as msgpack, keys in slice order, integers in their
// shortest form.
func EncodeMsgpack(m Map) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeMap(enc, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMap(enc *msgpack.Encoder, m Map) error {
	seen := make(map[string]struct{}, len(m))
	for _, e := range m {
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrMalformedInput, e.Key)
		}
		seen[e.Key] = struct{}{}
	}

	if err := enc.EncodeMapLen(len(m)); err != nil {
		return err
	}
	for _, e := range m {
		if err := enc.EncodeString(e.Key); err != nil {
			return err
		}
		if err := encodeValue(enc, e.Value); err != nil {
			return fmt.Errorf("field %q: %w", e.Key, err)
		}
	}
	return nil
}

func encodeValue(enc *msgpack.Encoder, v Value) error {
	switch v.kind {
	case KindNil:
		return enc.EncodeNil()
	case KindString:
		return enc.EncodeString(v.str)
	case KindInt:
		return enc.EncodeInt(v.i)
	case KindUint:
		return enc.EncodeUint(v.u)
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindMap:
		return encodeMap(enc, v.m)
	case KindList:
		if err := enc.EncodeArrayLen(len(v.list)); err != nil {
			return err
		}
		for i, item := range v.list {
			if err := encodeValue(enc, item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown value kind %s", ErrMalformedInput, v.kind)
	}
}

// IsNil reports whether v is nil or an interface holding a nil pointer, such as
// (*Order)(nil).
func IsNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// EncodeForHash builds msgpack(action) ‖ nonce ‖ vault marker ‖ expiry marker.
// An empty vaultAddress is the same as no vault.
func EncodeForHash(a Action, nonce uint64, vaultAddress string, expiresAfter *uint64) ([]byte, error) {
	if IsNil(a) {
		return nil, fmt.Errorf("%w: action is nil", ErrMalformedInput)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	data, err := EncodeMsgpack(a.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s action: %w", a.Type(), err)
	}

	data = binary.BigEndian.AppendUint64(data, nonce)

	if vaultAddress == "" {
		data = append(data, vaultAbsent)
	} else {
		if !common.IsHexAddress(vaultAddress) {
			return nil, fmt.Errorf("%w: invalid vault address %q", ErrMalformedInput, vaultAddress)
		}
		data = append(data, vaultPresent)
		data = append(data, common.HexToAddress(vaultAddress).Bytes()...)
	}

	if expiresAfter != nil {
		data = append(data, expiresPresent)
		data = binary.BigEndian.AppendUint64(data, *expiresAfter)
	}
	return data, nil
}
