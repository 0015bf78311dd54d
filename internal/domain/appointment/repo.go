package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the booking ledger. Implementations must guarantee that
// Create and UpdateSchedule are atomic per (doctor, date, time): of two
// concurrent writes claiming the same slot key among non-cancelled
// appointments, exactly one succeeds and the other fails with ErrSlotTaken.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// UpdateSchedule moves an appointment to a new date/time/duration in
	// place, preserving its identity.
	UpdateSchedule(ctx context.Context, a *Appointment) error
	// ListActiveByDoctorDate returns the doctor's non-cancelled appointments
	// for one calendar date, ordered by time.
	ListActiveByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
