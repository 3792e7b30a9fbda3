// ABOUTME: Tag string parsing helpers for the comma-separated tags field
// ABOUTME: Single seam for tag split/join so a future tag relation only touches this file

package store

import "strings"

// SplitTags parses a raw comma-separated tags string into trimmed, non-empty
// tokens. Order is preserved and duplicates are kept; callers that need a
// deduplicated set handle that themselves.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// JoinTags reassembles tag tokens into the stored comma-separated form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
