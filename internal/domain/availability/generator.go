package availability

import (
	"errors"
	"time"
)

// ErrDuplicateTemplate is returned when more than one active template row
// exists for the same doctor and weekday. The data invariant allows at most
// one; rather than guess which row is authoritative, slot generation refuses
// and surfaces the integrity violation.
var ErrDuplicateTemplate = errors.New("duplicate active availability template for weekday")

// GenerateSlots expands a doctor's active templates into the ordered slot
// start times for the given date. Slots begin at the template's start time
// and step by the slot length; a trailing window shorter than one slot is
// dropped. No active template for the date's weekday yields an empty result,
// not an error.
func GenerateSlots(tpls []*Template, date time.Time) ([]ClockMinutes, error) {
	weekday := int(date.Weekday())

	var match *Template
	for _, t := range tpls {
		if !t.Active || t.DayOfWeek != weekday {
			continue
		}
		if match != nil {
			return nil, ErrDuplicateTemplate
		}
		match = t
	}
	if match == nil {
		return nil, nil
	}

	start, err := ParseClock(match.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(match.EndTime)
	if err != nil {
		return nil, err
	}

	step := ClockMinutes(match.SlotMinutes)
	var slots []ClockMinutes
	for cur := start; cur+step <= end; cur += step {
		slots = append(slots, cur)
	}
	return slots, nil
}
