package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kneecare/kneecare/internal/domain/availability"
)

// TemplateSource supplies the slot shape of a doctor's day. Implemented by
// the availability service.
type TemplateSource interface {
	SlotsFor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]availability.ClockMinutes, error)
	SlotMinutesFor(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error)
}

// BookingEvent identifies a booking for the messaging collaborator.
type BookingEvent struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	Date          string // "2006-01-02"
	Time          string // "HH:MM"
}

// Notifier consumes booking lifecycle events. Delivery is best effort; a
// failed notification never fails the booking.
type Notifier interface {
	BookingCreated(ctx context.Context, ev BookingEvent)
	BookingCancelled(ctx context.Context, ev BookingEvent)
}

type Service struct {
	appts     Repository
	templates TemplateSource
	notifier  Notifier
	loc       *time.Location
	now       func() time.Time
}

func NewService(appts Repository, templates TemplateSource, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		appts:     appts,
		templates: templates,
		notifier:  notifier,
		loc:       loc,
		now:       time.Now,
	}
}

// DaySlots resolves the caller-visible slot list for one doctor and date:
// the generated slot sequence with ledger occupancy applied. Past slots are
// included so clients can render the full day; booking rejects them.
func (s *Service) DaySlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Slot, error) {
	starts, err := s.templates.SlotsFor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if len(starts) == 0 {
		return []Slot{}, nil
	}

	slotMinutes, err := s.templates.SlotMinutesFor(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	booked, err := s.appts.ListActiveByDoctorDate(ctx, doctorID, dateOnly(date))
	if err != nil {
		return nil, err
	}

	step := availability.ClockMinutes(slotMinutes)
	slots := make([]Slot, 0, len(starts))
	for _, start := range starts {
		slot := Slot{Time: start.String(), EndTime: (start + step).String()}
		for _, a := range booked {
			if a.overlapsWindow(start, start+step) {
				slot.Booked = true
				id := a.ID
				slot.AppointmentID = &id
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// BookingRequest is a patient's request to claim one slot.
type BookingRequest struct {
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	Date       time.Time
	Time       string
	Type       Type
	Reason     string
	AnalysisID *uuid.UUID
}

// Book validates the request against the current clock, the doctor's slot
// grid and the booking ledger, then persists the appointment. Validation is
// fail-fast in that order. The insert is the single commit point: the slot
// uniqueness index makes the final overlap check and the write effectively
// atomic, so of two racing bookings for one slot exactly one succeeds and
// the loser sees ErrSlotTaken.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if req.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if req.Type == "" {
		req.Type = TypeInPerson
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("invalid appointment type: %s", req.Type)
	}

	clock, err := availability.ParseClock(req.Time)
	if err != nil {
		return nil, err
	}
	date := dateOnly(req.Date)

	startAt := s.startInstant(date, clock)
	if !startAt.After(s.now()) {
		return nil, ErrPastSlot
	}

	if err := s.checkAlignment(ctx, req.DoctorID, date, clock); err != nil {
		return nil, err
	}

	slotMinutes, err := s.templates.SlotMinutesFor(ctx, req.DoctorID, date)
	if err != nil {
		return nil, err
	}

	// Fresh occupancy re-check at transaction time; stale resolver output is
	// never trusted.
	if err := s.checkOverlap(ctx, req.DoctorID, date, clock, slotMinutes, uuid.Nil); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		Date:            date,
		Time:            clock.String(),
		DurationMinutes: slotMinutes,
		Type:            req.Type,
		Status:          StatusScheduled,
		Reason:          req.Reason,
		AnalysisID:      req.AnalysisID,
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, s.event(a))
	}
	return a, nil
}

// UpdateStatus applies one lifecycle transition. Completed and cancelled are
// terminal; completion requires the start time to have passed, cancellation
// requires it to still be in the future. Cancelling frees the slot interval
// for rebooking.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target Status) (*Appointment, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("invalid status: %s", target)
	}

	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkTransition(a, target); err != nil {
		return nil, err
	}

	if err := s.appts.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}
	a.Status = target

	if target == StatusCancelled && s.notifier != nil {
		s.notifier.BookingCancelled(ctx, s.event(a))
	}
	return a, nil
}

func (s *Service) checkTransition(a *Appointment, target Status) error {
	if a.Status.Terminal() {
		return ErrInvalidTransition
	}
	started := !a.StartAt(s.loc).After(s.now())

	switch target {
	case StatusConfirmed:
		if a.Status != StatusScheduled {
			return ErrInvalidTransition
		}
	case StatusCompleted:
		// Only past appointments can be completed.
		if !started {
			return ErrInvalidTransition
		}
	case StatusCancelled:
		// Cancellation is allowed only before the appointment starts.
		if started {
			return ErrInvalidTransition
		}
	default:
		return ErrInvalidTransition
	}
	return nil
}

// Reschedule moves an appointment to a new slot after re-running the booking
// validations, with the appointment itself excluded from the overlap check.
// The document is updated in place: identity and history are preserved.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, timeStr, reason string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.Terminal() {
		return nil, ErrInvalidTransition
	}

	clock, err := availability.ParseClock(timeStr)
	if err != nil {
		return nil, err
	}
	newDate := dateOnly(date)

	startAt := s.startInstant(newDate, clock)
	if !startAt.After(s.now()) {
		return nil, ErrPastSlot
	}

	if err := s.checkAlignment(ctx, a.DoctorID, newDate, clock); err != nil {
		return nil, err
	}

	slotMinutes, err := s.templates.SlotMinutesFor(ctx, a.DoctorID, newDate)
	if err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, a.DoctorID, newDate, clock, slotMinutes, a.ID); err != nil {
		return nil, err
	}

	a.Date = newDate
	a.Time = clock.String()
	a.DurationMinutes = slotMinutes
	if reason != "" {
		a.Reason = reason
	}
	if err := s.appts.UpdateSchedule(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByDoctor(ctx, doctorID, limit, offset)
}

// checkAlignment requires the requested time to exactly equal one of the
// generated slot starts for the date.
func (s *Service) checkAlignment(ctx context.Context, doctorID uuid.UUID, date time.Time, clock availability.ClockMinutes) error {
	starts, err := s.templates.SlotsFor(ctx, doctorID, date)
	if err != nil {
		return err
	}
	for _, start := range starts {
		if start == clock {
			return nil
		}
	}
	return ErrSlotMisaligned
}

// checkOverlap fetches current occupancy and rejects when the requested
// interval intersects any non-cancelled appointment, excluding excludeID
// (used by reschedule to ignore the appointment being moved).
func (s *Service) checkOverlap(ctx context.Context, doctorID uuid.UUID, date time.Time, clock availability.ClockMinutes, slotMinutes int, excludeID uuid.UUID) error {
	existing, err := s.appts.ListActiveByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return err
	}
	end := clock + availability.ClockMinutes(slotMinutes)
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}
		if other.overlapsWindow(clock, end) {
			return ErrSlotTaken
		}
	}
	return nil
}

func (s *Service) startInstant(date time.Time, clock availability.ClockMinutes) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(clock)/60, int(clock)%60, 0, 0, s.loc)
}

func (s *Service) event(a *Appointment) BookingEvent {
	return BookingEvent{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.Date.Format("2006-01-02"),
		Time:          a.Time,
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
