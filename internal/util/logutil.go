package util

import "strings"

// TruncateForLog shortens a string to the given rune limit, appending an
// ellipsis when truncated. Used to keep prompt and model-output previews
// readable in debug logs.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
