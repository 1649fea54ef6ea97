package util

import (
	"net/http"
	"strings"
)

// WithLegacyRedirects permanently redirects the retired Turkish-prefixed paths:
// /tr/menu and /public/tr/menu go to /menu, anything else under /tr goes home.
func WithLegacyRedirects(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if target, ok := legacyTarget(r.URL.Path); ok {
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func legacyTarget(path string) (string, bool) {
	switch {
	case path == "/tr/menu" || path == "/public/tr/menu":
		return "/menu", true
	case path == "/tr" || strings.HasPrefix(path, "/tr/"):
		return "/", true
	default:
		return "", false
	}
}
