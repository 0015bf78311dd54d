package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	templates Repository
}

func NewService(templates Repository) *Service {
	return &Service{templates: templates}
}

// WeekdayInput is one row of a doctor's submitted weekly availability.
type WeekdayInput struct {
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	SlotMinutes int    `json:"slot_minutes"`
}

// ReplaceWeek validates and persists a doctor's full weekly template set,
// replacing whatever was stored before. Submitting an empty set clears the
// doctor's availability.
func (s *Service) ReplaceWeek(ctx context.Context, doctorID uuid.UUID, days []WeekdayInput) ([]*Template, error) {
	if doctorID == uuid.Nil {
		return nil, fmt.Errorf("doctor_id is required")
	}

	seen := make(map[int]bool, len(days))
	tpls := make([]*Template, 0, len(days))
	for i, d := range days {
		start, err := ParseClock(d.StartTime)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i, err)
		}
		end, err := ParseClock(d.EndTime)
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i, err)
		}

		t := &Template{
			DoctorID:    doctorID,
			DayOfWeek:   d.DayOfWeek,
			StartTime:   start.String(),
			EndTime:     end.String(),
			SlotMinutes: d.SlotMinutes,
			Active:      true,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("day %d: %w", i, err)
		}
		if seen[d.DayOfWeek] {
			return nil, fmt.Errorf("day %d: duplicate day_of_week %d", i, d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true
		tpls = append(tpls, t)
	}

	if err := s.templates.ReplaceForDoctor(ctx, doctorID, tpls); err != nil {
		return nil, err
	}
	return tpls, nil
}

// WeekFor returns the doctor's stored weekly template set.
func (s *Service) WeekFor(ctx context.Context, doctorID uuid.UUID) ([]*Template, error) {
	return s.templates.ListByDoctor(ctx, doctorID)
}

// SlotsFor expands the doctor's active templates into the slot start times
// for the given date.
func (s *Service) SlotsFor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]ClockMinutes, error) {
	tpls, err := s.templates.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return GenerateSlots(tpls, date)
}

// SlotMinutesFor returns the slot length of the doctor's active template for
// the date's weekday, or 0 when none exists.
func (s *Service) SlotMinutesFor(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	tpls, err := s.templates.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		return 0, err
	}
	weekday := int(date.Weekday())
	for _, t := range tpls {
		if t.Active && t.DayOfWeek == weekday {
			return t.SlotMinutes, nil
		}
	}
	return 0, nil
}
