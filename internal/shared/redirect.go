package shared

import "strings"

// SafeRedirect returns to when it is a safe same-site path, otherwise fallback.
// Rejects absolute URLs and protocol-relative paths so login redirects cannot
// send the browser off-site.
func SafeRedirect(to, fallback string) string {
	if to == "" {
		return fallback
	}
	if !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.HasPrefix(to, "/\\") {
		return fallback
	}
	return to
}
