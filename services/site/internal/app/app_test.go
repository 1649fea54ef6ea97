package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ocakbasi/pkg/authprovider"
	"ocakbasi/pkg/domain"
	"ocakbasi/pkg/export"
	"ocakbasi/pkg/queue"
	"ocakbasi/pkg/store"
)

type fakeProvider struct {
	mu          sync.Mutex
	invites     int
	deletes     []string
	inviteFail  string
	deleteFails bool
}

func (p *fakeProvider) client(t *testing.T) *authprovider.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/invite":
			p.invites++
			if p.inviteFail != "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(map[string]string{"msg": p.inviteFail})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "auth-1", "email": "new@example.com"})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/auth/v1/admin/users/"):
			p.deletes = append(p.deletes, strings.TrimPrefix(r.URL.Path, "/auth/v1/admin/users/"))
			if p.deleteFails {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]string{"msg": "User not found"})
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return authprovider.NewClient(authprovider.Config{BaseURL: srv.URL, ServiceKey: "service-key"})
}

func (p *fakeProvider) calls() (int, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.invites, append([]string(nil), p.deletes...)
}

type recordingNotifier struct {
	calls []string
	err   error
}

func (n *recordingNotifier) Enqueue(_ context.Context, kind, subjectID, summary string) (queue.Notification, error) {
	n.calls = append(n.calls, kind+":"+subjectID)
	if n.err != nil {
		return queue.Notification{}, n.err
	}
	return queue.Notification{ID: "n-1", Kind: kind, SubjectID: subjectID, Summary: summary}, nil
}

func TestInviteAdminCreatesIdentityThenProfile(t *testing.T) {
	mem := store.NewMemoryStore()
	provider := &fakeProvider{}
	a := New(Config{Store: mem, Auth: provider.client(t)})

	user, err := a.InviteAdmin(context.Background(), InviteInput{Email: " New@Example.com ", Name: "Deniz", Role: "editor"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if user.AuthUserID != "auth-1" || user.Email != "new@example.com" || user.Role != domain.RoleEditor {
		t.Fatalf("unexpected user: %+v", user)
	}
	users, _ := mem.ListAdminUsers(context.Background())
	if len(users) != 1 || users[0].ID != user.ID {
		t.Fatalf("profile not stored: %+v", users)
	}
}

func TestInviteAdminIdentityFailureIsInputError(t *testing.T) {
	mem := store.NewMemoryStore()
	provider := &fakeProvider{inviteFail: "A user with this email address has already been registered"}
	a := New(Config{Store: mem, Auth: provider.client(t)})

	_, err := a.InviteAdmin(context.Background(), InviteInput{Email: "dup@example.com", Name: "Dup", Role: "admin"})
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
	if inputErr.Message != provider.inviteFail {
		t.Fatalf("message = %q", inputErr.Message)
	}
	if users, _ := mem.ListAdminUsers(context.Background()); len(users) != 0 {
		t.Fatalf("no profile expected, got %+v", users)
	}
}

func TestInviteAdminProfileFailureKeepsIdentity(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.SetError(errors.New("insert failed"))
	provider := &fakeProvider{}
	a := New(Config{Store: mem, Auth: provider.client(t)})

	_, err := a.InviteAdmin(context.Background(), InviteInput{Email: "new@example.com", Name: "Deniz", Role: "admin"})
	if !errors.Is(err, ErrProfileInsert) {
		t.Fatalf("expected ErrProfileInsert, got %v", err)
	}
	if invites, deletes := provider.calls(); invites != 1 || len(deletes) != 0 {
		t.Fatalf("identity must not be rolled back: invites=%d deletes=%v", invites, deletes)
	}
}

func TestInviteAdminValidation(t *testing.T) {
	provider := &fakeProvider{}
	a := New(Config{Store: store.NewMemoryStore(), Auth: provider.client(t)})
	tests := []struct {
		name string
		in   InviteInput
		want string
	}{
		{"bad email", InviteInput{Email: "nope", Name: "X", Role: "admin"}, "email must be a valid email address"},
		{"missing name", InviteInput{Email: "a@example.com", Role: "admin"}, "name is required"},
		{"bad role", InviteInput{Email: "a@example.com", Name: "X", Role: "owner"}, "role must be one of: admin, editor"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.InviteAdmin(context.Background(), tc.in)
			var inputErr *InputError
			if !errors.As(err, &inputErr) || inputErr.Message != tc.want {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
	if invites, _ := provider.calls(); invites != 0 {
		t.Fatalf("invalid input must not reach the provider")
	}
}

func TestInviteAdminRequiresProvider(t *testing.T) {
	a := New(Config{Store: store.NewMemoryStore()})
	_, err := a.InviteAdmin(context.Background(), InviteInput{Email: "a@example.com", Name: "A", Role: "admin"})
	if !errors.Is(err, ErrAuthNotConfigured) {
		t.Fatalf("expected ErrAuthNotConfigured, got %v", err)
	}
}

func TestRemoveAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("neither id", func(t *testing.T) {
		a := New(Config{Store: store.NewMemoryStore()})
		if err := a.RemoveAdmin(ctx, " ", ""); !errors.Is(err, ErrMissingIDs) {
			t.Fatalf("expected ErrMissingIDs, got %v", err)
		}
	})

	t.Run("profile only", func(t *testing.T) {
		mem := store.NewMemoryStore()
		_ = mem.CreateAdminUser(ctx, domain.AdminUser{ID: "db-1", Email: "a@example.com", Role: domain.RoleAdmin})
		provider := &fakeProvider{}
		a := New(Config{Store: mem, Auth: provider.client(t)})
		if err := a.RemoveAdmin(ctx, "", "db-1"); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if _, deletes := provider.calls(); len(deletes) != 0 {
			t.Fatalf("identity delete must not be called: %v", deletes)
		}
		if users, _ := mem.ListAdminUsers(ctx); len(users) != 0 {
			t.Fatalf("profile not deleted: %+v", users)
		}
	})

	t.Run("identity failure tolerated", func(t *testing.T) {
		provider := &fakeProvider{deleteFails: true}
		a := New(Config{Store: store.NewMemoryStore(), Auth: provider.client(t)})
		if err := a.RemoveAdmin(ctx, "auth-9", "db-9"); err != nil {
			t.Fatalf("identity failure must be tolerated: %v", err)
		}
		if _, deletes := provider.calls(); len(deletes) != 1 || deletes[0] != "auth-9" {
			t.Fatalf("unexpected deletes: %v", deletes)
		}
	})

	t.Run("identity without provider", func(t *testing.T) {
		mem := store.NewMemoryStore()
		_ = mem.CreateAdminUser(ctx, domain.AdminUser{ID: "db-2", Email: "b@example.com", Role: domain.RoleAdmin})
		a := New(Config{Store: mem, Auth: authprovider.NewClient(authprovider.Config{})})
		if err := a.RemoveAdmin(ctx, "auth-42", "db-2"); !errors.Is(err, ErrAuthNotConfigured) {
			t.Fatalf("expected ErrAuthNotConfigured, got %v", err)
		}
		if users, _ := mem.ListAdminUsers(ctx); len(users) != 1 {
			t.Fatalf("profile must be kept when the identity cannot be removed: %+v", users)
		}
	})

	t.Run("profile failure surfaced", func(t *testing.T) {
		mem := store.NewMemoryStore()
		mem.SetError(errors.New("db down"))
		a := New(Config{Store: mem})
		if err := a.RemoveAdmin(ctx, "", "db-1"); !errors.Is(err, ErrProfileDelete) {
			t.Fatalf("expected ErrProfileDelete, got %v", err)
		}
	})
}

func TestCreateReservationStoresAndNotifies(t *testing.T) {
	mem := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	fixed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	a := New(Config{Store: mem, Notifier: notifier, Now: func() time.Time { return fixed }})

	r, err := a.CreateReservation(context.Background(), ReservationInput{
		Name: "Ayşe", Email: "ayse@example.com", Phone: "0555", Date: "2025-05-10", Time: "20:00", Guests: 4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Status != domain.ReservationPending || r.ID == "" || !r.CreatedAt.Equal(fixed) {
		t.Fatalf("unexpected reservation: %+v", r)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != queue.KindReservation+":"+r.ID {
		t.Fatalf("unexpected notifications: %v", notifier.calls)
	}
	list, _ := mem.ListReservations(context.Background())
	if len(list) != 1 {
		t.Fatalf("reservation not stored")
	}
}

func TestCreateReservationValidation(t *testing.T) {
	a := New(Config{Store: store.NewMemoryStore()})
	_, err := a.CreateReservation(context.Background(), ReservationInput{
		Name: "A", Email: "a@example.com", Phone: "1", Date: "10.05.2025", Time: "20:00", Guests: 2,
	})
	var inputErr *InputError
	if !errors.As(err, &inputErr) || !strings.HasPrefix(inputErr.Message, "date") {
		t.Fatalf("expected date error, got %v", err)
	}
}

func TestCreateApplicationNotifyFailureIsIgnored(t *testing.T) {
	mem := store.NewMemoryStore()
	notifier := &recordingNotifier{err: errors.New("redis down")}
	a := New(Config{Store: mem, Notifier: notifier})

	app, err := a.CreateApplication(context.Background(), ApplicationInput{
		PositionTitle: "Garson", Name: "Mehmet", Email: "m@example.com", Phone: "0532",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if app.Status != domain.ApplicationNew {
		t.Fatalf("status = %q", app.Status)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("enqueue should have been attempted")
	}
}

func TestWritesWithoutStore(t *testing.T) {
	a := New(Config{})
	ctx := context.Background()
	if _, err := a.CreateApplication(ctx, ApplicationInput{
		PositionTitle: "Garson", Name: "M", Email: "m@example.com", Phone: "1",
	}); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
	if _, err := a.Export(ctx, export.KindReservations); !errors.Is(err, ErrStoreNotConfigured) {
		t.Fatalf("expected ErrStoreNotConfigured, got %v", err)
	}
	if got := a.StoreStatus(ctx); got != "disabled" {
		t.Fatalf("store status = %q", got)
	}
	if res := a.Content().Awards(ctx); !res.Fallback {
		t.Fatalf("content must fall back without a store")
	}
}

func TestArchiveExportRequiresObjectStore(t *testing.T) {
	a := New(Config{Store: store.NewMemoryStore()})
	if _, err := a.ArchiveExport(context.Background(), export.KindApplications); !errors.Is(err, export.ErrArchiveNotConfigured) {
		t.Fatalf("expected ErrArchiveNotConfigured, got %v", err)
	}
}
