package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Template maps to the availability_template table: one row per doctor per
// weekday describing the recurring working hours from which bookable slots
// are derived. Times are wall-clock "HH:MM" strings in the platform's
// operating timezone.
type Template struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	SlotMinutes int       `db:"slot_minutes" json:"slot_minutes"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the template invariants: weekday in range, parseable times,
// start strictly before end, positive slot length.
func (t *Template) Validate() error {
	if t.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0-6, got %d", t.DayOfWeek)
	}
	start, err := ParseClock(t.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseClock(t.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start_time %s must be before end_time %s", start, end)
	}
	if t.SlotMinutes <= 0 {
		return fmt.Errorf("slot_minutes must be positive, got %d", t.SlotMinutes)
	}
	return nil
}
