package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models mapped onto the hosted schema. Table names are an external contract.
type HeroSlideModel struct {
	ID           string `gorm:"primaryKey"`
	Image        string `gorm:"not null"`
	Alt          string
	DisplayOrder int  `gorm:"not null;default:0;index"`
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

func (HeroSlideModel) TableName() string { return "hero_slides" }

type MenuCategoryModel struct {
	ID           string `gorm:"primaryKey"`
	Title        string `gorm:"not null"`
	Icon         string
	DisplayOrder int  `gorm:"not null;default:0;index"`
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

func (MenuCategoryModel) TableName() string { return "menu_categories" }

type MenuItemModel struct {
	ID           string  `gorm:"primaryKey"`
	CategoryID   string  `gorm:"not null;index"`
	Name         string  `gorm:"not null"`
	Price        float64 `gorm:"type:numeric(10,2);not null;default:0"`
	Description  string
	ImageURL     string
	DisplayOrder int  `gorm:"not null;default:0"`
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

func (MenuItemModel) TableName() string { return "menu_items" }

type GalleryItemModel struct {
	ID           string `gorm:"primaryKey"`
	Category     string `gorm:"not null;index"`
	Image        string `gorm:"not null"`
	Alt          string
	DisplayOrder int `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

func (GalleryItemModel) TableName() string { return "gallery_items" }

type AwardModel struct {
	ID           string `gorm:"primaryKey"`
	Title        string `gorm:"not null"`
	Year         string
	Image        string
	Description  string
	DisplayOrder int `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

func (AwardModel) TableName() string { return "awards" }

type PressItemModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Link      string
	Quote     string
	Color     string
	Date      string
	CreatedAt time.Time
}

func (PressItemModel) TableName() string { return "press_items" }

type JobPositionModel struct {
	ID           string `gorm:"primaryKey"`
	Title        string `gorm:"not null"`
	Department   string
	Location     string
	Type         string
	Description  string
	Requirements datatypes.JSONSlice[string]
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

func (JobPositionModel) TableName() string { return "job_positions" }

type VideoModel struct {
	ID           string `gorm:"primaryKey"`
	URL          string `gorm:"not null"`
	IsBackground bool   `gorm:"not null;default:false"`
	IsModal      bool   `gorm:"not null;default:false"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
}

func (VideoModel) TableName() string { return "ocakbasi_videos" }

type AdminUserModel struct {
	ID         string `gorm:"primaryKey"`
	AuthUserID string `gorm:"not null;index"`
	Email      string `gorm:"uniqueIndex;not null"`
	Name       string
	Role       string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (AdminUserModel) TableName() string { return "admin_users" }

type ReservationModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string
	Phone     string `gorm:"not null"`
	Date      string `gorm:"not null"`
	Time      string `gorm:"not null"`
	Guests    int    `gorm:"not null"`
	Notes     string
	Status    string    `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (ReservationModel) TableName() string { return "reservations" }

type JobApplicationModel struct {
	ID            string `gorm:"primaryKey"`
	PositionID    string `gorm:"index"`
	PositionTitle string
	Name          string `gorm:"not null"`
	Email         string `gorm:"not null"`
	Phone         string
	Experience    string
	Message       string
	Status        string    `gorm:"not null;index"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

func (JobApplicationModel) TableName() string { return "job_applications" }
