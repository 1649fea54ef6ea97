// Package admintoken issues and verifies the HS256 bearer tokens that guard the admin API.
package admintoken

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ocakbasi/pkg/domain"
)

const (
	DefaultIssuer = "ocakbasi-site"
	DefaultTTL    = 12 * time.Hour
	DefaultLeeway = 30 * time.Second
	// RoleAdmin is the only role claim accepted by the admin API.
	RoleAdmin = string(domain.RoleAdmin)
)

var (
	// ErrNotConfigured means no signing secret is set; callers treat it as a server misconfiguration.
	ErrNotConfigured = errors.New("admin token secret not configured")
	ErrInvalidToken  = errors.New("invalid admin token")
	ErrForbidden     = errors.New("admin role required")
)

// Claims carried by an admin token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Options configures both signer and verifier.
type Options struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time
}

// Manager signs and verifies admin tokens with a shared secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// New returns a manager. An empty secret is allowed; every Sign and Verify
// then fails with ErrNotConfigured.
func New(opts Options) *Manager {
	m := &Manager{
		secret: []byte(strings.TrimSpace(opts.Secret)),
		issuer: strings.TrimSpace(opts.Issuer),
		ttl:    opts.TTL,
		leeway: opts.Leeway,
		now:    opts.Now,
	}
	if m.issuer == "" {
		m.issuer = DefaultIssuer
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.leeway <= 0 {
		m.leeway = DefaultLeeway
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Configured reports whether a secret is set.
func (m *Manager) Configured() bool {
	return m != nil && len(m.secret) > 0
}

// Sign issues a token for subject with the given role.
func (m *Manager) Sign(subject, email, role string) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("admin token subject is required")
	}
	now := m.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		Email: strings.TrimSpace(email),
		Role:  strings.TrimSpace(role),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry, then requires the admin role.
// A structurally valid token without the admin role yields ErrForbidden.
func (m *Manager) Verify(token string) (Claims, error) {
	claims := Claims{}
	if !m.Configured() {
		return claims, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return claims, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token not valid")
		}
		return claims, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return claims, fmt.Errorf("%w: subject required", ErrInvalidToken)
	}
	if claims.Role != RoleAdmin {
		return claims, ErrForbidden
	}
	return claims, nil
}

// BearerToken extracts a bearer token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	if token == "" {
		return "", false
	}
	return token, true
}
