package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/kneecare/kneecare/internal/domain/availability"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Type is the consultation mode.
type Type string

const (
	TypeInPerson Type = "in-person"
	TypeVirtual  Type = "virtual"
)

// Valid reports whether t is a recognized consultation type.
func (t Type) Valid() bool {
	return t == TypeInPerson || t == TypeVirtual
}

// Appointment maps to the appointment table. Date is the calendar day and
// Time the canonical "HH:MM" slot start, both wall-clock in the platform's
// operating timezone. Among non-cancelled appointments of one doctor and day,
// [Time, Time+Duration) intervals never overlap; the table enforces this with
// a partial unique index on (doctor_id, appointment_date, appointment_time).
type Appointment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Date            time.Time  `db:"appointment_date" json:"date"`
	Time            string     `db:"appointment_time" json:"time"`
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"`
	Type            Type       `db:"appointment_type" json:"type"`
	Status          Status     `db:"status" json:"status"`
	Reason          string     `db:"reason" json:"reason,omitempty"`
	Notes           string     `db:"notes" json:"notes,omitempty"`
	AnalysisID      *uuid.UUID `db:"analysis_id" json:"analysis_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// StartAt resolves the appointment's start instant in the given timezone.
func (a *Appointment) StartAt(loc *time.Location) time.Time {
	clock, err := availability.ParseClock(a.Time)
	if err != nil {
		return time.Time{}
	}
	y, m, d := a.Date.Date()
	return time.Date(y, m, d, int(clock)/60, int(clock)%60, 0, 0, loc)
}

// Interval returns the appointment's [start, end) window as minutes since
// midnight. The second value is start+duration even when that crosses
// midnight; comparisons stay within one calendar day.
func (a *Appointment) Interval() (availability.ClockMinutes, availability.ClockMinutes) {
	start, err := availability.ParseClock(a.Time)
	if err != nil {
		return 0, 0
	}
	return start, start + availability.ClockMinutes(a.DurationMinutes)
}

// overlapsWindow reports whether the appointment's interval intersects
// [start, end).
func (a *Appointment) overlapsWindow(start, end availability.ClockMinutes) bool {
	aStart, aEnd := a.Interval()
	return aStart < end && start < aEnd
}

// Slot is a derived, never-persisted view of one bookable interval for a
// given doctor and date. AppointmentID is present only for booked slots and
// only exposed to doctor/admin callers.
type Slot struct {
	Time          string     `json:"time"`
	EndTime       string     `json:"end_time"`
	Booked        bool       `json:"is_booked"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
}
