package domain

import "time"

type GalleryCategory string

const (
	GalleryGuest     GalleryCategory = "guest"
	GallerySignature GalleryCategory = "signature"
)

type AdminRole string

const (
	RoleAdmin  AdminRole = "admin"
	RoleEditor AdminRole = "editor"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

type ApplicationStatus string

const (
	ApplicationNew       ApplicationStatus = "new"
	ApplicationReviewing ApplicationStatus = "reviewing"
	ApplicationInterview ApplicationStatus = "interview"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
)

type HeroSlide struct {
	ID    string `json:"id"`
	Image string `json:"image"`
	Alt   string `json:"alt"`
	Order int    `json:"order"`
}

// MenuCategory is the presentation shape: a category with its active items joined in.
type MenuCategory struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Icon  string     `json:"icon"`
	Items []MenuItem `json:"items"`
}

type MenuItem struct {
	ID          string `json:"id"`
	CategoryID  string `json:"categoryId"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type GalleryItem struct {
	ID       string          `json:"id"`
	Category GalleryCategory `json:"category"`
	Image    string          `json:"image"`
	Alt      string          `json:"alt"`
	Order    int             `json:"order"`
}

type Award struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type PressItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Link  string `json:"link"`
	Quote string `json:"quote"`
	Color string `json:"color"`
	Date  string `json:"date"`
}

type JobPosition struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
}

// Video is a raw row from the videos table.
type Video struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	IsBackground bool   `json:"isBackground"`
	IsModal      bool   `json:"isModal"`
}

// VideoSet holds the embeddable URLs resolved for each playback role.
type VideoSet struct {
	Background string `json:"background"`
	Modal      string `json:"modal"`
}

type AdminUser struct {
	ID         string    `json:"id"`
	AuthUserID string    `json:"authUserId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       AdminRole `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Reservation struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Date      string            `json:"date"`
	Time      string            `json:"time"`
	Guests    int               `json:"guests"`
	Notes     string            `json:"notes,omitempty"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

type JobApplication struct {
	ID            string            `json:"id"`
	PositionID    string            `json:"positionId,omitempty"`
	PositionTitle string            `json:"positionTitle"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	Experience    string            `json:"experience,omitempty"`
	Message       string            `json:"message,omitempty"`
	Status        ApplicationStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}
