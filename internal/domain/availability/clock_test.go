package availability

import "testing"

func TestParseClock_Formats(t *testing.T) {
	cases := []struct {
		in   string
		want ClockMinutes
	}{
		{"09:00", 9 * 60},
		{"00:00", 0},
		{"23:59", 23*60 + 59},
		{"14:30", 14*60 + 30},
		{"02:30 PM", 14*60 + 30},
		{"2:30 PM", 14*60 + 30},
		{"2:30pm", 14*60 + 30},
		{"12:00 AM", 0},
		{"12:00 PM", 12 * 60},
		{"11:45 pm", 23*60 + 45},
		{" 09:15 ", 9*60 + 15},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseClock_Invalid(t *testing.T) {
	for _, in := range []string{"", "9", "25:00", "09:60", "9:5", "09:00 XM", "13:00 PM", "0:30 AM", "ten thirty"} {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q): expected error", in)
		}
	}
}

func TestClockMinutes_RoundTrip(t *testing.T) {
	// Both accepted input forms must resolve to the same canonical string.
	a, err := ParseClock("02:30 PM")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseClock("14:30")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected equal values, got %d and %d", a, b)
	}
	if a.String() != "14:30" {
		t.Errorf("expected canonical 14:30, got %s", a)
	}

	reparsed, err := ParseClock(a.String())
	if err != nil || reparsed != a {
		t.Errorf("canonical form did not round-trip: %v %v", reparsed, err)
	}
}

func TestClockMinutes_Format12(t *testing.T) {
	cases := map[ClockMinutes]string{
		0:         "12:00 AM",
		9 * 60:    "09:00 AM",
		12 * 60:   "12:00 PM",
		14*60 + 5: "02:05 PM",
	}
	for in, want := range cases {
		if got := in.Format12(); got != want {
			t.Errorf("Format12(%d) = %q, want %q", in, got, want)
		}
	}
}
