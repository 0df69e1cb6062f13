package models

import "strings"

// reservedPaths are platform path segments that look like profile hrefs
// but are not usernames.
var reservedPaths = map[string]bool{
	"explore":   true,
	"direct":    true,
	"accounts":  true,
	"p":         true,
	"reel":      true,
	"tv":        true,
	"stories":   true,
	"followers": true,
	"following": true,
}

// ParseHandle extracts a username from a profile href ("/username/" or a
// full profile URL). It strips a leading "@" and surrounding slashes but
// performs no other normalization. Reserved platform paths are rejected.
func ParseHandle(href string) (string, bool) {
	trimmed := strings.Trim(href, "/")
	if trimmed == "" {
		return "", false
	}

	parts := strings.Split(trimmed, "/")
	handle := strings.TrimPrefix(parts[len(parts)-1], "@")
	if handle == "" || reservedPaths[strings.ToLower(handle)] {
		return "", false
	}
	// Multi-segment paths ("/user/reel/XYZ") are content, not profiles
	if len(parts) > 1 && !strings.Contains(href, "://") {
		return "", false
	}

	return handle, true
}
