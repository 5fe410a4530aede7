package jsonhelper

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func Encode[T any](t T) ([]byte, error) {
	return json.Marshal(t)
}

func EncodeIndent[T any](t T) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

func Decode[T any](b []byte) (T, error) {
	var t T
	err := json.Unmarshal(b, &t)
	return t, err
}

// Fields decodes a JSON object into a generic field map.
func Fields(b []byte) (map[string]any, error) {
	return Decode[map[string]any](b)
}

// PickString returns the first non-empty string value among keys.
func PickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
