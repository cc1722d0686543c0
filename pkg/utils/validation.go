package utils

import (
	"net/url"
	"strings"
)

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

// SafeRedirectPath returns target when it is a same-origin path, otherwise fallback.
// Absolute URLs, scheme-relative URLs and backslash tricks are rejected.
func SafeRedirectPath(target, fallback string) string {
	target = SanitizeString(target)
	if target == "" || len(target) > 2048 {
		return fallback
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return u.RequestURI()
}

// ParseBoolField interprets an HTML form checkbox value
func ParseBoolField(value string) bool {
	switch strings.ToLower(SanitizeString(value)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
