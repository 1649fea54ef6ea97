package store

import (
	"context"
	"sort"
	"sync"

	"ocakbasi/pkg/domain"
)

// MemoryStore keeps records in-process. Used for local runs without a database and in tests.
type MemoryStore struct {
	mu           sync.RWMutex
	err          error
	reads        int
	heroSlides   []domain.HeroSlide
	categories   []domain.MenuCategory
	menuItems    []domain.MenuItem
	gallery      []domain.GalleryItem
	awards       []domain.Award
	press        []domain.PressItem
	positions    []domain.JobPosition
	videos       []domain.Video
	admins       map[string]domain.AdminUser
	reservations []domain.Reservation
	applications []domain.JobApplication
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{admins: make(map[string]domain.AdminUser)}
}

// SetError makes every subsequent call fail with err (nil restores normal behavior).
func (m *MemoryStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Reads returns how many content reads were served or attempted.
func (m *MemoryStore) Reads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

// SeedContent replaces the content tables.
func (m *MemoryStore) SeedContent(c Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heroSlides = c.HeroSlides
	m.categories = c.Categories
	m.menuItems = c.MenuItems
	m.gallery = c.Gallery
	m.awards = c.Awards
	m.press = c.Press
	m.positions = c.Positions
	m.videos = c.Videos
}

// Content groups seedable content rows.
type Content struct {
	HeroSlides []domain.HeroSlide
	Categories []domain.MenuCategory
	MenuItems  []domain.MenuItem
	Gallery    []domain.GalleryItem
	Awards     []domain.Award
	Press      []domain.PressItem
	Positions  []domain.JobPosition
	Videos     []domain.Video
}

func readAll[T any](m *MemoryStore, rows func() []T) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	return append([]T(nil), rows()...), nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *MemoryStore) ListHeroSlides(context.Context) ([]domain.HeroSlide, error) {
	return readAll(m, func() []domain.HeroSlide { return m.heroSlides })
}

func (m *MemoryStore) ListMenuCategories(context.Context) ([]domain.MenuCategory, error) {
	return readAll(m, func() []domain.MenuCategory { return m.categories })
}

func (m *MemoryStore) ListMenuItems(context.Context) ([]domain.MenuItem, error) {
	return readAll(m, func() []domain.MenuItem { return m.menuItems })
}

func (m *MemoryStore) ListGalleryItems(context.Context) ([]domain.GalleryItem, error) {
	return readAll(m, func() []domain.GalleryItem { return m.gallery })
}

func (m *MemoryStore) ListAwards(context.Context) ([]domain.Award, error) {
	return readAll(m, func() []domain.Award { return m.awards })
}

func (m *MemoryStore) ListPressItems(context.Context) ([]domain.PressItem, error) {
	return readAll(m, func() []domain.PressItem { return m.press })
}

func (m *MemoryStore) ListJobPositions(context.Context) ([]domain.JobPosition, error) {
	return readAll(m, func() []domain.JobPosition { return m.positions })
}

func (m *MemoryStore) ListVideos(context.Context) ([]domain.Video, error) {
	return readAll(m, func() []domain.Video { return m.videos })
}

// CreateAdminUser registers a profile.
func (m *MemoryStore) CreateAdminUser(_ context.Context, u domain.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.admins[u.ID] = u
	return nil
}

// DeleteAdminUser removes a profile.
func (m *MemoryStore) DeleteAdminUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.admins, id)
	return nil
}

// ListAdminUsers returns profiles ordered by creation time.
func (m *MemoryStore) ListAdminUsers(context.Context) ([]domain.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	res := make([]domain.AdminUser, 0, len(m.admins))
	for _, u := range m.admins {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) CreateReservation(_ context.Context, r domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reservations = append(m.reservations, r)
	return nil
}

// ListReservations returns reservations, newest first.
func (m *MemoryStore) ListReservations(context.Context) ([]domain.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	res := append([]domain.Reservation(nil), m.reservations...)
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (m *MemoryStore) CreateJobApplication(_ context.Context, a domain.JobApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.applications = append(m.applications, a)
	return nil
}

// ListJobApplications returns applications, newest first.
func (m *MemoryStore) ListJobApplications(context.Context) ([]domain.JobApplication, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	res := append([]domain.JobApplication(nil), m.applications...)
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}
