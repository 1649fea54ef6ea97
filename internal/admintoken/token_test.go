package admintoken

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	m := New(Options{Secret: "s3cret"})
	token, err := m.Sign("user-1", "admin@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "admin@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti")
	}
}

func TestVerifyRejectsNonAdminRole(t *testing.T) {
	m := New(Options{Secret: "s3cret"})
	token, err := m.Sign("user-2", "", "editor")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestVerifyRejectsWrongSecretAndExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	signer := New(Options{Secret: "a", TTL: time.Minute, Now: func() time.Time { return now }})
	token, err := signer.Sign("user-1", "", RoleAdmin)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := New(Options{Secret: "b"}).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	later := New(Options{Secret: "a", Now: func() time.Time { return now.Add(time.Hour) }})
	if _, err := later.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	if _, err := New(Options{Secret: "s3cret"}).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNotConfigured(t *testing.T) {
	m := New(Options{})
	if m.Configured() {
		t.Fatalf("manager without secret must not be configured")
	}
	if _, err := m.Sign("u", "", RoleAdmin); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("sign: expected ErrNotConfigured, got %v", err)
	}
	if _, err := m.Verify("x.y.z"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("verify: expected ErrNotConfigured, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		req := httptest.NewRequest("GET", "/api/admin/users", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		got, ok := BearerToken(req)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("BearerToken(%q) = %q,%v want %q,%v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
