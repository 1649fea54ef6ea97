package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ocakbasi/internal/admintoken"
	"ocakbasi/internal/metrics"
	"ocakbasi/internal/ratelimit"
	"ocakbasi/internal/util"
	"ocakbasi/pkg/export"
	"ocakbasi/services/site/internal/app"
)

const maxBodyBytes = 64 << 10

// Config wires required dependencies for the HTTP server.
type Config struct {
	App             *app.App
	Tokens          *admintoken.Manager
	Metrics         *metrics.Metrics
	RedisAddr       string
	RedisPassword   string
	RateLimit       int
	RateLimitWindow time.Duration
	TrustedProxies  *util.TrustedProxies
	AllowedOrigins  []string
	Now             func() time.Time
}

// Server exposes the public site API and the admin API.
type Server struct {
	app            *app.App
	tokens         *admintoken.Manager
	metrics        *metrics.Metrics
	limiter        *ratelimit.SlidingWindowLimiter
	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	now            func() time.Time
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	limiterOpts := []ratelimit.Option{ratelimit.WithClock(now)}
	if cfg.Metrics != nil {
		limiterOpts = append(limiterOpts, ratelimit.WithObserver(cfg.Metrics))
	}
	s := &Server{
		app:     cfg.App,
		tokens:  cfg.Tokens,
		metrics: cfg.Metrics,
		limiter: ratelimit.NewSlidingWindowLimiter(ratelimit.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Prefix:   "ocakbasi:site:ratelimit",
			Limit:    cfg.RateLimit,
			Window:   cfg.RateLimitWindow,
		}, limiterOpts...),
		trustedProxies: cfg.TrustedProxies,
		allowedOrigins: cfg.AllowedOrigins,
		now:            now,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(
		util.WithRequestLog(
			util.WithLegacyRedirects(
				util.WithSecurityHeaders(
					util.WithCORS(s.allowedOrigins, s.mux),
				),
			),
		),
	)
}

// Close releases the rate limiter's Redis connection.
func (s *Server) Close() error {
	return s.limiter.Close()
}

func (s *Server) routes() {
	s.handle("/healthz", "healthz", http.HandlerFunc(s.handleHealth))
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	// public
	s.handle("/api/content/", "content", http.HandlerFunc(s.handleContent))
	s.handle("/api/reservations", "reservations", http.HandlerFunc(s.handleReservations))
	s.handle("/api/careers/applications", "applications", http.HandlerFunc(s.handleApplications))

	// admin
	s.handle("/api/admin/users", "admin_users", s.adminOnly(s.handleAdminUsers))
	s.handle("/api/admin/exports/", "admin_exports", s.adminOnly(s.handleExport))
	s.handle("/api/admin/cache/refresh", "admin_cache", s.adminOnly(s.handleCacheRefresh))
}

// handle registers h behind its own recover boundary so a panic stays scoped to one endpoint.
func (s *Server) handle(pattern, route string, h http.Handler) {
	s.mux.Handle(pattern, s.metrics.Instrument(route, util.WithRecover(h)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"store":       s.app.StoreStatus(r.Context()),
		"rateLimiter": s.limiter.Configured(),
	})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	ctx := r.Context()
	c := s.app.Content()
	switch strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/content/"), "/") {
	case "hero":
		writeJSON(w, http.StatusOK, c.HeroSlides(ctx))
	case "menu":
		writeJSON(w, http.StatusOK, c.Menu(ctx))
	case "gallery":
		writeJSON(w, http.StatusOK, c.Gallery(ctx))
	case "awards":
		writeJSON(w, http.StatusOK, c.Awards(ctx))
	case "press":
		writeJSON(w, http.StatusOK, c.Press(ctx))
	case "positions":
		writeJSON(w, http.StatusOK, c.Positions(ctx))
	case "videos":
		writeJSON(w, http.StatusOK, c.Videos(ctx))
	default:
		writeError(w, r, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if !s.allowRate(w, r) {
		return
	}
	var req app.ReservationInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	reservation, err := s.app.CreateReservation(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "reservation": reservation})
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if !s.allowRate(w, r) {
		return
	}
	var req app.ApplicationInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	application, err := s.app.CreateApplication(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "application": application})
}

// admin wrappers
type adminHandler func(http.ResponseWriter, *http.Request, admintoken.Claims)

func (s *Server) adminOnly(next adminHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.tokens.Configured() {
			s.audit(r, "site.admin.authorize", "fail", "reason", "not_configured")
			writeError(w, r, http.StatusInternalServerError, "admin auth not configured")
			return
		}
		token, ok := admintoken.BearerToken(r)
		if !ok {
			s.audit(r, "site.admin.authorize", "fail", "reason", "missing_token")
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := s.tokens.Verify(token)
		switch {
		case errors.Is(err, admintoken.ErrForbidden):
			s.audit(r, "site.admin.authorize", "fail", "admin_id", claims.Subject, "reason", "forbidden")
			writeError(w, r, http.StatusForbidden, "forbidden")
			return
		case err != nil:
			s.audit(r, "site.admin.authorize", "fail", "reason", "invalid_token")
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		s.audit(r, "site.admin.authorize", "success", "admin_id", claims.Subject)
		next(w, r, claims)
	})
}

type adminUserRequest struct {
	Action string `json:"action"`
	app.InviteInput
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, admin admintoken.Claims) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.app.ListAdmins(r.Context())
		if err != nil {
			writeAdminError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": users, "count": len(users)})
	case http.MethodPost:
		var req adminUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid json body")
			return
		}
		if req.Action != "invite" {
			writeError(w, r, http.StatusBadRequest, "invalid action")
			return
		}
		user, err := s.app.InviteAdmin(r.Context(), req.InviteInput)
		if err != nil {
			s.audit(r, "site.admin.invite", "fail", "admin_id", admin.Subject, "err", err.Error())
			writeAdminError(w, r, err)
			return
		}
		s.audit(r, "site.admin.invite", "success", "admin_id", admin.Subject, "target_id", user.ID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
	case http.MethodDelete:
		q := r.URL.Query()
		userID, dbID := q.Get("userId"), q.Get("dbId")
		if err := s.app.RemoveAdmin(r.Context(), userID, dbID); err != nil {
			s.audit(r, "site.admin.remove", "fail", "admin_id", admin.Subject, "err", err.Error())
			writeAdminError(w, r, err)
			return
		}
		s.audit(r, "site.admin.remove", "success", "admin_id", admin.Subject, "user_id", userID, "db_id", dbID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		methodNotAllowed(w, r)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, admin admintoken.Claims) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	kind, err := export.ParseKind(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/exports/"), "/"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if archive, _ := strconv.ParseBool(r.URL.Query().Get("archive")); archive {
		url, err := s.app.ArchiveExport(r.Context(), kind)
		if err != nil {
			writeAdminError(w, r, err)
			return
		}
		s.audit(r, "site.admin.export", "success", "admin_id", admin.Subject, "kind", string(kind), "archived", true)
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
		return
	}
	doc, err := s.app.Export(r.Context(), kind)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	s.audit(r, "site.admin.export", "success", "admin_id", admin.Subject, "kind", string(kind), "rows", doc.Rows)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

func (s *Server) handleCacheRefresh(w http.ResponseWriter, r *http.Request, admin admintoken.Claims) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	s.app.Content().Refresh()
	s.audit(r, "site.admin.cache_refresh", "success", "admin_id", admin.Subject)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// allowRate applies the submission quota per route and client IP.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request) bool {
	key := util.RateLimitKey(r, s.trustedProxies)
	d := s.limiter.Check(r.Context(), key)
	if d.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	}
	if d.Allowed {
		return true
	}
	retryAfter := int(d.RetryAfter(s.now()) / time.Second)
	w.Header().Set("Retry-After", strconv.Itoa(max(retryAfter, 1)))
	s.audit(r, "site.ratelimit", "denied", "key", key)
	writeError(w, r, http.StatusTooManyRequests, "too many requests, please try again later")
	return false
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trustedProxies),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(out)
}

// writeAppError maps application errors for the public endpoints.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *app.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, r, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, app.ErrStoreNotConfigured):
		writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// writeAdminError maps application errors for the admin API. Operator-facing
// failures are reported verbatim.
func writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *app.InputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, r, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, app.ErrMissingIDs):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrStoreNotConfigured),
		errors.Is(err, app.ErrAuthNotConfigured),
		errors.Is(err, export.ErrArchiveNotConfigured):
		writeError(w, r, http.StatusInternalServerError, err.Error())
	case errors.Is(err, app.ErrProfileInsert), errors.Is(err, app.ErrProfileDelete):
		util.LoggerFromContext(r.Context()).Error("admin operation partially failed", "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("admin request failed", "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status),
		RequestID: util.RequestIDFromContext(r.Context()),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "AUTH_FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
