package pokemon

import (
	"fmt"
	"strings"
)

// NormalizeQuery prepares free-form search text for a by-name lookup:
// leading/trailing whitespace is trimmed and the result is lowercased.
// Returns "" for blank input.
func NormalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Normalize validates the required fields of a decoded record and fills
// missing nested collections so callers never handle nil slices.
// The record is modified in place.
func Normalize(p *Pokemon) error {
	if p.ID <= 0 {
		return fmt.Errorf("id must be positive, got %d", p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.Types == nil {
		p.Types = []TypeSlot{}
	}
	if p.Stats == nil {
		p.Stats = []Stat{}
	}
	return nil
}
