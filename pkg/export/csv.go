// Package export renders reservations and job applications as spreadsheet-friendly CSV.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ocakbasi/pkg/domain"
)

// BOM makes spreadsheet applications detect UTF-8.
const BOM = "\ufeff"

// ContentType is sent with every CSV download.
const ContentType = "text/csv; charset=utf-8"

// ToCSV renders a header row followed by rows. Every field is double-quoted,
// embedded quotes are doubled and lines are joined with "\n".
func ToCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	writeRow(&b, headers)
	for _, row := range rows {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

// Write emits the BOM followed by the CSV document.
func Write(w io.Writer, headers []string, rows [][]string) error {
	if _, err := io.WriteString(w, BOM+ToCSV(headers, rows)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Filename builds "<prefix>-YYYY-MM-DD.csv", dated in the same zone as the
// row timestamps.
func Filename(prefix string, at time.Time) string {
	return prefix + "-" + at.In(displayLocation).Format("2006-01-02") + ".csv"
}

// Kind selects which records an export covers.
type Kind string

const (
	KindReservations Kind = "reservations"
	KindApplications Kind = "applications"
)

// FilePrefix returns the download name prefix for k.
func (k Kind) FilePrefix() string {
	switch k {
	case KindReservations:
		return "rezervasyonlar"
	case KindApplications:
		return "basvurular"
	default:
		return string(k)
	}
}

// ParseKind validates a kind from user input.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(raw)); k {
	case KindReservations, KindApplications:
		return k, nil
	default:
		return "", fmt.Errorf("unknown export kind %q", raw)
	}
}

var ReservationHeaders = []string{
	"Ad Soyad", "E-posta", "Telefon", "Tarih", "Saat", "Kişi Sayısı", "Notlar", "Durum", "Oluşturulma Tarihi",
}

var ApplicationHeaders = []string{
	"Ad Soyad", "E-posta", "Telefon", "Pozisyon", "Deneyim", "Mesaj", "Durum", "Başvuru Tarihi",
}

var reservationStatusLabels = map[domain.ReservationStatus]string{
	domain.ReservationPending:   "Beklemede",
	domain.ReservationConfirmed: "Onaylandı",
	domain.ReservationCancelled: "İptal Edildi",
	domain.ReservationCompleted: "Tamamlandı",
}

var applicationStatusLabels = map[domain.ApplicationStatus]string{
	domain.ApplicationNew:       "Yeni",
	domain.ApplicationReviewing: "İnceleniyor",
	domain.ApplicationInterview: "Mülakat",
	domain.ApplicationAccepted:  "Kabul Edildi",
	domain.ApplicationRejected:  "Reddedildi",
}

// ReservationStatusLabel returns the Turkish label, or the raw status when unknown.
func ReservationStatusLabel(s domain.ReservationStatus) string {
	if label, ok := reservationStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ApplicationStatusLabel returns the Turkish label, or the raw status when unknown.
func ApplicationStatusLabel(s domain.ApplicationStatus) string {
	if label, ok := applicationStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Timestamps are rendered in Istanbul local time.
var displayLocation = loadLocation("Europe/Istanbul")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("TRT", 3*60*60)
	}
	return loc
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(displayLocation).Format("02.01.2006 15:04")
}

// ReservationRows maps reservations to CSV rows in header order.
func ReservationRows(items []domain.Reservation) [][]string {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{
			r.Name,
			r.Email,
			r.Phone,
			r.Date,
			r.Time,
			strconv.Itoa(r.Guests),
			r.Notes,
			ReservationStatusLabel(r.Status),
			formatTimestamp(r.CreatedAt),
		})
	}
	return rows
}

// ApplicationRows maps job applications to CSV rows in header order.
func ApplicationRows(items []domain.JobApplication) [][]string {
	rows := make([][]string, 0, len(items))
	for _, a := range items {
		rows = append(rows, []string{
			a.Name,
			a.Email,
			a.Phone,
			a.PositionTitle,
			a.Experience,
			a.Message,
			ApplicationStatusLabel(a.Status),
			formatTimestamp(a.CreatedAt),
		})
	}
	return rows
}
