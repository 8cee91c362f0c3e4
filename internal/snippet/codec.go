package snippet

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes a collection to the portable JSON representation
// used both for the local store file and for exports.
func Encode(s []Snippet) ([]byte, error) {
	if s == nil {
		s = []Snippet{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// Decode parses a JSON array of snippet records. Anything that is not
// an ordered sequence is rejected; individual records are taken as-is
// beyond basic shape (the engine performs no structural validation).
func Decode(data []byte) ([]Snippet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of snippets")
	}
	var out []Snippet
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("invalid snippet array: %w", err)
	}
	return out, nil
}
