package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"ocakbasi/internal/metrics"
	"ocakbasi/internal/util"
	"ocakbasi/pkg/authprovider"
	"ocakbasi/pkg/content"
	"ocakbasi/pkg/domain"
	"ocakbasi/pkg/export"
	"ocakbasi/pkg/querycache"
	"ocakbasi/pkg/queue"
	"ocakbasi/pkg/storage"
	"ocakbasi/pkg/store"
)

// Notifier announces new submissions. Implemented by queue.NotificationQueue.
type Notifier interface {
	Enqueue(ctx context.Context, kind, subjectID, summary string) (queue.Notification, error)
}

// Config holds the collaborators of the application. Every field is optional:
// without a Store the public site serves fallback content and writes return
// ErrStoreNotConfigured.
type Config struct {
	Store        store.Store
	Auth         *authprovider.Client
	Notifier     Notifier
	Objects      storage.ObjectStore
	ExportExpiry time.Duration
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	Now          func() time.Time
}

// App is the core application service behind the HTTP server and the CLI.
type App struct {
	store        store.Store
	content      *content.Service
	auth         *authprovider.Client
	notifier     Notifier
	exporter     *export.Exporter
	objects      storage.ObjectStore
	exportExpiry time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	validator    *validator.Validate
	now          func() time.Time
}

// New constructs the application.
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	var observer querycache.Observer
	if cfg.Metrics != nil {
		observer = cfg.Metrics
	}
	var contentStore store.ContentStore
	var submissions store.SubmissionStore
	if cfg.Store != nil {
		contentStore = cfg.Store
		submissions = cfg.Store
	}
	return &App{
		store: cfg.Store,
		content: content.New(content.Config{
			Store:  contentStore,
			Cache:  querycache.NewDefault(observer),
			Logger: logger,
		}),
		auth:         cfg.Auth,
		notifier:     cfg.Notifier,
		exporter:     export.NewExporter(submissions, now),
		objects:      cfg.Objects,
		exportExpiry: cfg.ExportExpiry,
		metrics:      cfg.Metrics,
		logger:       logger,
		validator:    newValidator(),
		now:          now,
	}
}

// Content returns the cached public read side.
func (a *App) Content() *content.Service {
	return a.content
}

// StoreStatus reports "disabled", "up" or "down" for health checks.
func (a *App) StoreStatus(ctx context.Context) string {
	if a.store == nil {
		return "disabled"
	}
	if err := a.store.Ping(ctx); err != nil {
		a.logger.Warn("store ping failed", "err", err)
		return "down"
	}
	return "up"
}

// InviteInput is the admin invite payload.
type InviteInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=120"`
	Role  string `json:"role" validate:"required,oneof=admin editor"`
}

// InviteAdmin creates the auth identity and then the admin profile referencing
// it. A failed profile insert leaves the identity in place.
func (a *App) InviteAdmin(ctx context.Context, in InviteInput) (domain.AdminUser, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := a.validate(in); err != nil {
		a.metrics.RecordAdminAction("invite", "invalid")
		return domain.AdminUser{}, err
	}
	if !a.auth.Configured() {
		return domain.AdminUser{}, ErrAuthNotConfigured
	}
	if a.store == nil {
		return domain.AdminUser{}, ErrStoreNotConfigured
	}

	identity, err := a.auth.InviteUser(ctx, in.Email, map[string]string{"name": in.Name, "role": in.Role})
	if err != nil {
		a.metrics.RecordAdminAction("invite", "identity_failed")
		a.logger.Warn("admin invite: identity creation failed", "email", in.Email, "err", err)
		return domain.AdminUser{}, &InputError{Message: identityMessage(err)}
	}

	user := domain.AdminUser{
		ID:         util.NewID(),
		AuthUserID: identity.ID,
		Email:      in.Email,
		Name:       in.Name,
		Role:       domain.AdminRole(in.Role),
		CreatedAt:  a.now().UTC(),
	}
	if err := a.store.CreateAdminUser(ctx, user); err != nil {
		a.metrics.RecordAdminAction("invite", "profile_failed")
		a.logger.Error("admin invite: profile insert failed, identity left without profile",
			"auth_user_id", identity.ID, "email", in.Email, "err", err)
		return domain.AdminUser{}, fmt.Errorf("%w: %v", ErrProfileInsert, err)
	}
	a.metrics.RecordAdminAction("invite", "success")
	return user, nil
}

// RemoveAdmin deletes the auth identity and the admin profile independently.
// A failed identity delete is logged and tolerated; a failed profile delete is returned.
func (a *App) RemoveAdmin(ctx context.Context, userID, dbID string) error {
	userID = strings.TrimSpace(userID)
	dbID = strings.TrimSpace(dbID)
	if userID == "" && dbID == "" {
		a.metrics.RecordAdminAction("remove", "invalid")
		return ErrMissingIDs
	}
	if userID != "" && !a.auth.Configured() {
		a.metrics.RecordAdminAction("remove", "misconfigured")
		return ErrAuthNotConfigured
	}

	if userID != "" {
		if err := a.auth.DeleteUser(ctx, userID); err != nil {
			a.logger.Warn("admin remove: identity delete failed", "auth_user_id", userID, "err", err)
		}
	}

	if dbID != "" {
		if a.store == nil {
			a.metrics.RecordAdminAction("remove", "profile_failed")
			return ErrStoreNotConfigured
		}
		if err := a.store.DeleteAdminUser(ctx, dbID); err != nil {
			a.metrics.RecordAdminAction("remove", "profile_failed")
			return fmt.Errorf("%w: %v", ErrProfileDelete, err)
		}
	}
	a.metrics.RecordAdminAction("remove", "success")
	return nil
}

// ListAdmins returns every admin profile.
func (a *App) ListAdmins(ctx context.Context) ([]domain.AdminUser, error) {
	if a.store == nil {
		return nil, ErrStoreNotConfigured
	}
	users, err := a.store.ListAdminUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	return users, nil
}

// ReservationInput is the public reservation form.
type ReservationInput struct {
	Name   string `json:"name" validate:"required,max=120"`
	Email  string `json:"email" validate:"required,email"`
	Phone  string `json:"phone" validate:"required,max=32"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string `json:"time" validate:"required,datetime=15:04"`
	Guests int    `json:"guests" validate:"required,min=1,max=30"`
	Notes  string `json:"notes" validate:"max=1000"`
}

// CreateReservation validates and stores a reservation, then queues a notification.
func (a *App) CreateReservation(ctx context.Context, in ReservationInput) (domain.Reservation, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := a.validate(in); err != nil {
		a.metrics.RecordSubmission(queue.KindReservation, "invalid")
		return domain.Reservation{}, err
	}
	if a.store == nil {
		a.metrics.RecordSubmission(queue.KindReservation, "unavailable")
		return domain.Reservation{}, ErrStoreNotConfigured
	}
	r := domain.Reservation{
		ID:        util.NewID(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Date:      in.Date,
		Time:      in.Time,
		Guests:    in.Guests,
		Notes:     in.Notes,
		Status:    domain.ReservationPending,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.CreateReservation(ctx, r); err != nil {
		a.metrics.RecordSubmission(queue.KindReservation, "error")
		return domain.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	a.metrics.RecordSubmission(queue.KindReservation, "success")
	a.notify(ctx, queue.KindReservation, r.ID,
		fmt.Sprintf("Yeni rezervasyon: %s, %s %s, %d kişi", r.Name, r.Date, r.Time, r.Guests))
	return r, nil
}

// ApplicationInput is the public careers form.
type ApplicationInput struct {
	PositionID    string `json:"positionId" validate:"max=64"`
	PositionTitle string `json:"positionTitle" validate:"required,max=120"`
	Name          string `json:"name" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Experience    string `json:"experience" validate:"max=2000"`
	Message       string `json:"message" validate:"max=4000"`
}

// CreateApplication validates and stores a job application, then queues a notification.
func (a *App) CreateApplication(ctx context.Context, in ApplicationInput) (domain.JobApplication, error) {
	in.PositionID = strings.TrimSpace(in.PositionID)
	in.PositionTitle = strings.TrimSpace(in.PositionTitle)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := a.validate(in); err != nil {
		a.metrics.RecordSubmission(queue.KindApplication, "invalid")
		return domain.JobApplication{}, err
	}
	if a.store == nil {
		a.metrics.RecordSubmission(queue.KindApplication, "unavailable")
		return domain.JobApplication{}, ErrStoreNotConfigured
	}
	app := domain.JobApplication{
		ID:            util.NewID(),
		PositionID:    in.PositionID,
		PositionTitle: in.PositionTitle,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Experience:    strings.TrimSpace(in.Experience),
		Message:       strings.TrimSpace(in.Message),
		Status:        domain.ApplicationNew,
		CreatedAt:     a.now().UTC(),
	}
	if err := a.store.CreateJobApplication(ctx, app); err != nil {
		a.metrics.RecordSubmission(queue.KindApplication, "error")
		return domain.JobApplication{}, fmt.Errorf("create application: %w", err)
	}
	a.metrics.RecordSubmission(queue.KindApplication, "success")
	a.notify(ctx, queue.KindApplication, app.ID,
		fmt.Sprintf("Yeni başvuru: %s, %s", app.Name, app.PositionTitle))
	return app, nil
}

func (a *App) notify(ctx context.Context, kind, subjectID, summary string) {
	if a.notifier == nil {
		return
	}
	if _, err := a.notifier.Enqueue(ctx, kind, subjectID, summary); err != nil {
		a.logger.Warn("enqueue notification failed", "kind", kind, "subject_id", subjectID, "err", err)
	}
}

// Export renders all submissions of kind as CSV.
func (a *App) Export(ctx context.Context, kind export.Kind) (export.Document, error) {
	if a.store == nil {
		return export.Document{}, ErrStoreNotConfigured
	}
	return a.exporter.Export(ctx, kind)
}

// ArchiveExport renders kind, uploads it to object storage and returns a
// time-limited download link.
func (a *App) ArchiveExport(ctx context.Context, kind export.Kind) (string, error) {
	doc, err := a.Export(ctx, kind)
	if err != nil {
		return "", err
	}
	url, err := export.Archive(ctx, a.objects, doc, a.exportExpiry)
	if err != nil {
		return "", err
	}
	a.logger.Info("export archived", "kind", kind, "file", doc.Filename, "rows", doc.Rows)
	return url, nil
}

func identityMessage(err error) string {
	var apiErr *authprovider.APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return err.Error()
}
