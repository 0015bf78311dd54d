package availability

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockMinutes is a wall-clock time of day expressed as minutes since
// midnight in the platform's operating timezone. Slot starts and appointment
// times are compared as ClockMinutes so that the two accepted input formats
// ("14:30" and "02:30 PM") resolve to the same value.
type ClockMinutes int

// ParseClock parses a time-of-day string. Accepted forms are 24-hour "HH:MM"
// and 12-hour "hh:mm AM/PM" (case-insensitive, space optional).
func ParseClock(s string) (ClockMinutes, error) {
	raw := strings.TrimSpace(s)

	upper := strings.ToUpper(raw)
	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(upper, suffix) {
			meridiem = suffix
			raw = strings.TrimSpace(raw[:len(raw)-len(suffix)])
			break
		}
	}

	hhmm := strings.SplitN(raw, ":", 2)
	if len(hhmm) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(hhmm[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: bad hour", s)
	}
	minute, err := strconv.Atoi(hhmm[1])
	if err != nil || len(hhmm[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: bad minute", s)
	}
	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q: minute out of range", s)
	}

	switch meridiem {
	case "":
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("invalid time %q: hour out of range", s)
		}
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid time %q: hour out of range", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid time %q: hour out of range", s)
		}
		if hour != 12 {
			hour += 12
		}
	}

	return ClockMinutes(hour*60 + minute), nil
}

// String formats the time canonically as 24-hour "HH:MM". Generated slots and
// stored appointment times always use this form, so values round-trip exactly.
func (m ClockMinutes) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Format12 renders the time as "hh:mm AM/PM" for user-facing messages.
func (m ClockMinutes) Format12() string {
	hour := int(m) / 60
	minute := int(m) % 60
	meridiem := "AM"
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		hour -= 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%02d:%02d %s", hour, minute, meridiem)
}
