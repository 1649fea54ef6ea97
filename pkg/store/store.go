package store

import (
	"context"

	"ocakbasi/pkg/domain"
)

// ContentStore exposes the read-only projections behind the public site.
// Implementations return rows already filtered (active only) and ordered.
type ContentStore interface {
	ListHeroSlides(ctx context.Context) ([]domain.HeroSlide, error)
	ListMenuCategories(ctx context.Context) ([]domain.MenuCategory, error)
	ListMenuItems(ctx context.Context) ([]domain.MenuItem, error)
	ListGalleryItems(ctx context.Context) ([]domain.GalleryItem, error)
	ListAwards(ctx context.Context) ([]domain.Award, error)
	ListPressItems(ctx context.Context) ([]domain.PressItem, error)
	ListJobPositions(ctx context.Context) ([]domain.JobPosition, error)
	ListVideos(ctx context.Context) ([]domain.Video, error)
}

// AdminStore persists back-office profile records.
type AdminStore interface {
	CreateAdminUser(ctx context.Context, u domain.AdminUser) error
	DeleteAdminUser(ctx context.Context, id string) error
	ListAdminUsers(ctx context.Context) ([]domain.AdminUser, error)
}

// SubmissionStore persists public submissions and lists them for export.
type SubmissionStore interface {
	CreateReservation(ctx context.Context, r domain.Reservation) error
	ListReservations(ctx context.Context) ([]domain.Reservation, error)
	CreateJobApplication(ctx context.Context, a domain.JobApplication) error
	ListJobApplications(ctx context.Context) ([]domain.JobApplication, error)
}

// Store is the full relational store collaborator.
type Store interface {
	ContentStore
	AdminStore
	SubmissionStore
	Ping(ctx context.Context) error
}
