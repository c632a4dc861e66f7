package store

import "encoding/json"

// decodeJSON and encodeJSON wrap the standard library codec for the
// store's machine-only records (run meta, memories.json, proposals.json).
// Unlike the human-browsable frontmatter records, these never need a
// body, so plain JSON is the simpler fit.
func decodeJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func encodeJSON(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
