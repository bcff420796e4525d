package validator

import (
	"net/url"
	"strings"
)

// IsHTTPURL reports whether s is an absolute http or https URL with a host
func IsHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsLetters reports whether s has exactly n ASCII letters
func IsLetters(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
