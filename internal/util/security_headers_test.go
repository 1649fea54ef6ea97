package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithSecurityHeaders(t *testing.T) {
	h := WithSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="rezervasyonlar.csv"`)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path      string
		forwarded string
		noStore   bool
		hsts      bool
	}{
		{path: "/api/content/menu"},
		{path: "/api/admin/exports/reservations", noStore: true},
		{path: "/api/admin/users", forwarded: "https", noStore: true, hsts: true},
		{path: "/api/reservations", noStore: true},
		{path: "/api/careers/applications", noStore: true},
		{path: "/healthz", forwarded: "HTTPS", hsts: true},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tc.forwarded)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Fatalf("X-Content-Type-Options = %q", got)
			}
			if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
				t.Fatalf("X-Frame-Options = %q", got)
			}
			if got := rec.Header().Get("Content-Disposition"); got == "" {
				t.Fatalf("handler headers must pass through")
			}
			if got := rec.Header().Get("Cache-Control") == "no-store"; got != tc.noStore {
				t.Fatalf("no-store = %v, want %v", got, tc.noStore)
			}
			if got := rec.Header().Get("Strict-Transport-Security") != ""; got != tc.hsts {
				t.Fatalf("hsts = %v, want %v", got, tc.hsts)
			}
		})
	}
}
