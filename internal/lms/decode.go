package lms

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// resultsKey is the wrapper every list endpoint of the API falls back to.
const resultsKey = "results"

// DecodeList normalizes a list payload. A bare array decodes directly; an
// object is searched for the first array under keys, then "results". Any
// other shape (null, string, number, an object with no array) yields an
// empty, non-nil slice. Only malformed JSON is an error.
func DecodeList[T any](data []byte, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if !json.Valid(trimmed) {
		return []T{}, fmt.Errorf("decode list: invalid json")
	}

	switch trimmed[0] {
	case '[':
		return decodeArray[T](trimmed)
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return []T{}, fmt.Errorf("decode list: %w", err)
		}
		for _, key := range wrapperKeys(keys) {
			raw, ok := wrapper[key]
			if !ok {
				continue
			}
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 || raw[0] != '[' {
				continue
			}
			return decodeArray[T](raw)
		}
		return []T{}, nil
	default:
		return []T{}, nil
	}
}

func decodeArray[T any](data []byte) ([]T, error) {
	out := []T{}
	if err := json.Unmarshal(data, &out); err != nil {
		return []T{}, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// decodeObject reads a single record that may be bare or wrapped under keys
// or "results".
func decodeObject(data []byte, dest any, keys ...string) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("decode object: not an object")
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return fmt.Errorf("decode object: %w", err)
	}
	for _, key := range wrapperKeys(keys) {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		return json.Unmarshal(raw, dest)
	}
	return json.Unmarshal(trimmed, dest)
}

func wrapperKeys(keys []string) []string {
	out := make([]string, 0, len(keys)+1)
	out = append(out, keys...)
	return append(out, resultsKey)
}
