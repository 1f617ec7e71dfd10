package tools

import (
	"errors"
	"fmt"
	"strings"
)

const (
	listDefaultLimit = 10
	listMaxLimit     = 200

	queryDefaultLimit = 100
	// queryMaxLimit matches the platform's paging ceiling.
	queryMaxLimit = 10000
)

// normalizeLimit applies the default for an absent limit and rejects
// out-of-range values.
func normalizeLimit(limit, def, max int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 0 {
		return 0, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if limit > max {
		return 0, fmt.Errorf("limit must not exceed %d, got %d", max, limit)
	}
	return limit, nil
}

func requireField(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(name + " is required")
	}
	return nil
}

// joinFilter glues encoded-query fragments with the platform's ^
// conjunction, skipping empties.
func joinFilter(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "^")
}

// setIf adds a field to data only when the value is non-empty.
func setIf(data map[string]any, field, value string) {
	if value != "" {
		data[field] = value
	}
}
