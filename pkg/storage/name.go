package storage

import "strings"

// SanitizeName strips path separator characters from a display name coming
// from an external provider. An empty result falls back to the provided
// default (typically the external file id).
func SanitizeName(name, fallback string) string {
	candidate := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(name))
	if candidate == "" || candidate == "." || candidate == ".." {
		return fallback
	}
	return candidate
}
