// Package output bounds rendered tool results with head/tail
// preservation.
package output

import "fmt"

// DefaultMaxBytes caps the rendered text of one tool result.
const DefaultMaxBytes = 50 * 1024

// Truncate bounds text to maxBytes, keeping the head and tail around an
// elision marker so both the leading fields and any trailing summary
// survive. maxBytes <= 0 uses DefaultMaxBytes.
func Truncate(text string, maxBytes int) (string, bool) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data := []byte(text)
	if len(data) <= maxBytes {
		return text, false
	}

	marker := fmt.Sprintf("\n... [truncated: %d bytes total; narrow the query or request fewer fields] ...\n", len(data))
	if maxBytes <= len(marker) {
		return string([]byte(marker)[:maxBytes]), true
	}

	budget := maxBytes - len(marker)
	headSize := budget * 3 / 4
	tailSize := budget - headSize

	out := make([]byte, 0, maxBytes)
	out = append(out, data[:headSize]...)
	out = append(out, marker...)
	if tailSize > 0 {
		out = append(out, data[len(data)-tailSize:]...)
	}
	return string(out), true
}
