package action

import (
	"bytes"
	"testing"
)

func FuzzParseJSON(f *testing.F) {
	f.Add([]byte(`{"type":"cancel","cancels":[{"a":1,"o":123}]}`))
	f.Add([]byte(`{"type":"order","orders":[{"a":1,"b":true,"p":"100","s":"100","r":false,"t":{"limit":{"tif":"Gtc"}}}],"grouping":"na"}`))
	f.Add([]byte(`{"type":"x","a":[1,-2,"s",null,{"b":false}]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		a, err := ParseJSON(data)
		if err != nil {
			return
		}
		b1, err := EncodeForHash(a, 1, "", nil)
		if err != nil {
			return
		}
		b2, err := EncodeForHash(a, 1, "", nil)
		if err != nil {
			t.Fatalf("second encode failed: %v", err)
		}
		if !bytes.Equal(b1, b2) {
			t.Fatalf("encoding is not deterministic for %q", data)
		}
	})
}
