// Package action models exchange actions as ordered field lists and turns them into
// the canonical byte string whose keccak256 digest is the L1 connection id.
package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Kind uint8

const (
	KindNil Kind = iota
	KindString
	KindInt
	KindUint
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is one node of an action tree. The zero Value is nil.
type Value struct {
	kind Kind
	str  string
	i    int64
	u    uint64
	b    bool
	m    Map
	list []Value
}

func Nil() Value                 { return Value{} }
func String(s string) Value      { return Value{kind: KindString, str: s} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Uint(u uint64) Value        { return Value{kind: KindUint, u: u} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Object(m Map) Value         { return Value{kind: KindMap, m: m} }
func List(values ...Value) Value { return Value{kind: KindList, list: values} }

func (v Value) Kind() Kind         { return v.kind }
func (v Value) Str() string        { return v.str }
func (v Value) IntValue() int64    { return v.i }
func (v Value) UintValue() uint64  { return v.u }
func (v Value) BoolValue() bool    { return v.b }
func (v Value) MapValue() Map      { return v.m }
func (v Value) ListValue() []Value { return v.list }
func (v Value) IsNil() bool        { return v.kind == KindNil }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNil:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindUint:
		return []byte(strconv.FormatUint(v.u, 10)), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindMap:
		return v.m.MarshalJSON()
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown value kind %s", ErrMalformedInput, v.kind)
	}
}

type Entry struct {
	Key   string
	Value Value
}

// Map is an ordered list of key/value entries. Its order is the wire order.
type Map []Entry

func NewMap(entries ...Entry) Map {
	return Map(entries)
}

func E(key string, value Value) Entry {
	return Entry{Key: key, Value: value}
}

// Set replaces the value of an existing key in place or appends a new entry.
func (m Map) Set(key string, value Value) Map {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, Entry{Key: key, Value: value})
}

func (m Map) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, e := range m {
		keys = append(keys, e.Key)
	}
	return keys
}

func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		b, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrdered(dec)
	if err != nil {
		return err
	}
	if v.kind != KindMap {
		return fmt.Errorf("%w: expected a JSON object", ErrMalformedInput)
	}
	*m = v.m
	return nil
}

// decodeOrdered reads one JSON value keeping object key order. Numbers must be
// integers; fractional amounts travel as strings on the wire.
func decodeOrdered(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	switch t := tok.(type) {
	case nil:
		return Nil(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if u, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return Uint(u), nil
		}
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return Int(i), nil
		}
		return Value{}, fmt.Errorf("%w: number %s is not a 64-bit integer", ErrMalformedInput, t)
	case json.Delim:
		switch t {
		case '{':
			m := Map{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("%w: object key is not a string", ErrMalformedInput)
				}
				if _, dup := m.Get(key); dup {
					return Value{}, fmt.Errorf("%w: duplicate key %q", ErrMalformedInput, key)
				}
				val, err := decodeOrdered(dec)
				if err != nil {
					return Value{}, err
				}
				m = append(m, Entry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
			}
			return Object(m), nil
		case '[':
			list := []Value{}
			for dec.More() {
				val, err := decodeOrdered(dec)
				if err != nil {
					return Value{}, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
			}
			return List(list...), nil
		}
	}
	return Value{}, fmt.Errorf("%w: unexpected JSON token %v", ErrMalformedInput, tok)
}
