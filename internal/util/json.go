package util

import "encoding/json"

// ConvertStructToJson marshals v, returning "{}" when marshalling fails so
// the result is always valid JSON.
func ConvertStructToJson(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
