package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"ocakbasi/pkg/store"
)

// ErrNotConfigured is returned when no submission store is available.
var ErrNotConfigured = errors.New("submission store not configured")

// Document is a rendered export ready to be served or archived.
type Document struct {
	Kind     Kind
	Filename string
	Body     []byte
	Rows     int
}

// Exporter loads submissions and renders them as CSV documents.
type Exporter struct {
	store store.SubmissionStore
	now   func() time.Time
}

// NewExporter constructs an exporter. now may be nil.
func NewExporter(st store.SubmissionStore, now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{store: st, now: now}
}

// Export renders all records of kind, BOM included.
func (e *Exporter) Export(ctx context.Context, kind Kind) (Document, error) {
	if e == nil || e.store == nil {
		return Document{}, ErrNotConfigured
	}
	var (
		headers []string
		rows    [][]string
	)
	switch kind {
	case KindReservations:
		items, err := e.store.ListReservations(ctx)
		if err != nil {
			return Document{}, fmt.Errorf("list reservations: %w", err)
		}
		headers, rows = ReservationHeaders, ReservationRows(items)
	case KindApplications:
		items, err := e.store.ListJobApplications(ctx)
		if err != nil {
			return Document{}, fmt.Errorf("list applications: %w", err)
		}
		headers, rows = ApplicationHeaders, ApplicationRows(items)
	default:
		return Document{}, fmt.Errorf("unknown export kind %q", kind)
	}

	var buf bytes.Buffer
	if err := Write(&buf, headers, rows); err != nil {
		return Document{}, err
	}
	return Document{
		Kind:     kind,
		Filename: Filename(kind.FilePrefix(), e.now()),
		Body:     buf.Bytes(),
		Rows:     len(rows),
	}, nil
}
