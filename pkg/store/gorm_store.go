package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"ocakbasi/pkg/domain"
)

const migrateLockID int64 = 51917001

type GormStoreOptions struct {
	AutoMigrate bool
}

type GormStoreOption func(*GormStoreOptions)

// WithAutoMigrate creates the tables when missing. The hosted schema is managed
// outside this service, so this is meant for local SQLite runs and tests.
func WithAutoMigrate(enabled bool) GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.AutoMigrate = enabled
	}
}

// GormStore implements Store using GORM + Postgres (or SQLite for local runs).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB. DSNs prefixed with "sqlite://" use the SQLite driver,
// anything else is handed to Postgres.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	dialector, isSQLite := dialectorFor(dsn)
	// Connectivity is checked per query so an unreachable database degrades
	// reads instead of failing startup.
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog, DisableAutomaticPing: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if opts.AutoMigrate {
		migrate := func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(
				&HeroSlideModel{}, &MenuCategoryModel{}, &MenuItemModel{}, &GalleryItemModel{},
				&AwardModel{}, &PressItemModel{}, &JobPositionModel{}, &VideoModel{},
				&AdminUserModel{}, &ReservationModel{}, &JobApplicationModel{},
			); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			return nil
		}
		if isSQLite {
			err = migrate(db)
		} else {
			err = withMigrationLock(db, migrate)
		}
		if err != nil {
			return nil, err
		}
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreFromDB wraps an already opened connection.
func NewGormStoreFromDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for seeding and tests.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func dialectorFor(dsn string) (gorm.Dialector, bool) {
	if path, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		return sqlite.Open(path), true
	}
	return postgres.Open(dsn), false
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListHeroSlides returns active slides by display order.
func (s *GormStore) ListHeroSlides(ctx context.Context) ([]domain.HeroSlide, error) {
	var models []HeroSlideModel
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("display_order ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.HeroSlide, 0, len(models))
	for _, m := range models {
		res = append(res, domain.HeroSlide{ID: m.ID, Image: m.Image, Alt: m.Alt, Order: m.DisplayOrder})
	}
	return res, nil
}

// ListMenuCategories returns active categories without items.
func (s *GormStore) ListMenuCategories(ctx context.Context) ([]domain.MenuCategory, error) {
	var models []MenuCategoryModel
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("display_order ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.MenuCategory, 0, len(models))
	for _, m := range models {
		res = append(res, domain.MenuCategory{ID: m.ID, Title: m.Title, Icon: m.Icon})
	}
	return res, nil
}

// ListMenuItems returns active items across all categories.
func (s *GormStore) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	var models []MenuItemModel
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("display_order ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.MenuItem, 0, len(models))
	for _, m := range models {
		res = append(res, domain.MenuItem{
			ID:          m.ID,
			CategoryID:  m.CategoryID,
			Name:        m.Name,
			Price:       FormatPrice(m.Price),
			Description: m.Description,
			Image:       m.ImageURL,
		})
	}
	return res, nil
}

// ListGalleryItems returns gallery items by display order.
func (s *GormStore) ListGalleryItems(ctx context.Context) ([]domain.GalleryItem, error) {
	var models []GalleryItemModel
	if err := s.db.WithContext(ctx).Order("display_order ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.GalleryItem, 0, len(models))
	for _, m := range models {
		res = append(res, domain.GalleryItem{
			ID:       m.ID,
			Category: domain.GalleryCategory(m.Category),
			Image:    m.Image,
			Alt:      m.Alt,
			Order:    m.DisplayOrder,
		})
	}
	return res, nil
}

// ListAwards returns awards by display order.
func (s *GormStore) ListAwards(ctx context.Context) ([]domain.Award, error) {
	var models []AwardModel
	if err := s.db.WithContext(ctx).Order("display_order ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Award, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Award{
			ID:          m.ID,
			Title:       m.Title,
			Year:        m.Year,
			Image:       m.Image,
			Description: m.Description,
			Order:       m.DisplayOrder,
		})
	}
	return res, nil
}

// ListPressItems returns press mentions, newest first.
func (s *GormStore) ListPressItems(ctx context.Context) ([]domain.PressItem, error) {
	var models []PressItemModel
	if err := s.db.WithContext(ctx).Order("date DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.PressItem, 0, len(models))
	for _, m := range models {
		res = append(res, domain.PressItem{ID: m.ID, Name: m.Name, Link: m.Link, Quote: m.Quote, Color: m.Color, Date: m.Date})
	}
	return res, nil
}

// ListJobPositions returns open positions, newest first.
func (s *GormStore) ListJobPositions(ctx context.Context) ([]domain.JobPosition, error) {
	var models []JobPositionModel
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.JobPosition, 0, len(models))
	for _, m := range models {
		res = append(res, domain.JobPosition{
			ID:           m.ID,
			Title:        m.Title,
			Department:   m.Department,
			Location:     m.Location,
			Type:         m.Type,
			Description:  m.Description,
			Requirements: append([]string(nil), m.Requirements...),
		})
	}
	return res, nil
}

// ListVideos returns active video rows in insertion order.
func (s *GormStore) ListVideos(ctx context.Context) ([]domain.Video, error) {
	var models []VideoModel
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Video, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Video{ID: m.ID, URL: m.URL, IsBackground: m.IsBackground, IsModal: m.IsModal})
	}
	return res, nil
}

// CreateAdminUser inserts a profile record.
func (s *GormStore) CreateAdminUser(ctx context.Context, u domain.AdminUser) error {
	model := AdminUserModel{
		ID:         u.ID,
		AuthUserID: u.AuthUserID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       string(u.Role),
		CreatedAt:  u.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// DeleteAdminUser removes a profile record by ID. Missing rows are not an error.
func (s *GormStore) DeleteAdminUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&AdminUserModel{}, "id = ?", id).Error
}

// ListAdminUsers returns profiles ordered by created_at.
func (s *GormStore) ListAdminUsers(ctx context.Context) ([]domain.AdminUser, error) {
	var models []AdminUserModel
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.AdminUser, 0, len(models))
	for _, m := range models {
		res = append(res, domain.AdminUser{
			ID:         m.ID,
			AuthUserID: m.AuthUserID,
			Email:      m.Email,
			Name:       m.Name,
			Role:       domain.AdminRole(m.Role),
			CreatedAt:  m.CreatedAt,
		})
	}
	return res, nil
}

// CreateReservation stores a reservation request.
func (s *GormStore) CreateReservation(ctx context.Context, r domain.Reservation) error {
	model := ReservationModel{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Date:      r.Date,
		Time:      r.Time,
		Guests:    r.Guests,
		Notes:     r.Notes,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListReservations returns reservations, newest first.
func (s *GormStore) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	var models []ReservationModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Reservation, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Reservation{
			ID:        m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Phone:     m.Phone,
			Date:      m.Date,
			Time:      m.Time,
			Guests:    m.Guests,
			Notes:     m.Notes,
			Status:    domain.ReservationStatus(m.Status),
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

// CreateJobApplication stores a job application.
func (s *GormStore) CreateJobApplication(ctx context.Context, a domain.JobApplication) error {
	model := JobApplicationModel{
		ID:            a.ID,
		PositionID:    a.PositionID,
		PositionTitle: a.PositionTitle,
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		Experience:    a.Experience,
		Message:       a.Message,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListJobApplications returns applications, newest first.
func (s *GormStore) ListJobApplications(ctx context.Context) ([]domain.JobApplication, error) {
	var models []JobApplicationModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.JobApplication, 0, len(models))
	for _, m := range models {
		res = append(res, domain.JobApplication{
			ID:            m.ID,
			PositionID:    m.PositionID,
			PositionTitle: m.PositionTitle,
			Name:          m.Name,
			Email:         m.Email,
			Phone:         m.Phone,
			Experience:    m.Experience,
			Message:       m.Message,
			Status:        domain.ApplicationStatus(m.Status),
			CreatedAt:     m.CreatedAt,
		})
	}
	return res, nil
}

// FormatPrice renders a decimal price with exactly two fraction digits.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
