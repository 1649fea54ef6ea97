package util

import (
	"net/http"
	"strings"
)

// WithSecurityHeaders sets headers for a JSON and CSV-download API that is
// never framed or rendered as a page. Admin and submission responses carry
// personal data, so they are marked no-store.
func WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cross-Origin-Resource-Policy", "same-site")
		if privatePath(r.URL.Path) {
			h.Set("Cache-Control", "no-store")
		}
		if r.TLS != nil || strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func privatePath(path string) bool {
	return strings.HasPrefix(path, "/api/admin/") ||
		strings.HasPrefix(path, "/api/reservations") ||
		strings.HasPrefix(path, "/api/careers/")
}
