package domain

import "strings"

// SplitTags splits a raw comma-separated tag string into chips. Segments keep
// their surrounding whitespace and empty segments are kept; an empty raw
// string has no tags.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
