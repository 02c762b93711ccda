package engine

import "encoding/json"

// unmarshalLenient decodes content into v, tolerating tool results that
// are not JSON objects by simply failing rather than panicking.
func unmarshalLenient(content string, v any) error {
	return json.Unmarshal([]byte(content), v)
}
