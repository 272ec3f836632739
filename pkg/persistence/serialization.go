package persistence

import (
	"encoding/json"
	"fmt"
)

// MarshalNonceRecord serializes a NonceRecord to JSON bytes.
func MarshalNonceRecord(rec *NonceRecord) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("cannot marshal nil NonceRecord")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal NonceRecord to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalNonceRecord deserializes a NonceRecord from JSON bytes.
func UnmarshalNonceRecord(data []byte) (*NonceRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var rec NonceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to NonceRecord: %w", err)
	}
	return &rec, nil
}
