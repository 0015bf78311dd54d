package availability

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	byDoctor map[uuid.UUID][]*Template
}

func newMockRepo() *mockRepo {
	return &mockRepo{byDoctor: make(map[uuid.UUID][]*Template)}
}

func (m *mockRepo) ReplaceForDoctor(_ context.Context, doctorID uuid.UUID, tpls []*Template) error {
	for _, t := range tpls {
		t.ID = uuid.New()
		t.DoctorID = doctorID
	}
	m.byDoctor[doctorID] = tpls
	return nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Template, error) {
	return m.byDoctor[doctorID], nil
}

func (m *mockRepo) ListActiveByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Template, error) {
	var active []*Template
	for _, t := range m.byDoctor[doctorID] {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func validWeek() []WeekdayInput {
	return []WeekdayInput{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 30},
		{DayOfWeek: 3, StartTime: "10:00", EndTime: "14:00", SlotMinutes: 45},
	}
}

func TestReplaceWeek_Valid(t *testing.T) {
	svc, repo := newTestService()
	doctorID := uuid.New()

	tpls, err := svc.ReplaceWeek(context.Background(), doctorID, validWeek())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tpls) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(tpls))
	}
	if len(repo.byDoctor[doctorID]) != 2 {
		t.Error("expected templates persisted")
	}
	for _, tpl := range tpls {
		if !tpl.Active {
			t.Error("expected saved templates to be active")
		}
	}
}

func TestReplaceWeek_ReplacesWholeSet(t *testing.T) {
	svc, repo := newTestService()
	doctorID := uuid.New()

	if _, err := svc.ReplaceWeek(context.Background(), doctorID, validWeek()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReplaceWeek(context.Background(), doctorID, []WeekdayInput{
		{DayOfWeek: 5, StartTime: "08:00", EndTime: "12:00", SlotMinutes: 15},
	}); err != nil {
		t.Fatal(err)
	}

	stored := repo.byDoctor[doctorID]
	if len(stored) != 1 || stored[0].DayOfWeek != 5 {
		t.Errorf("expected full replacement with single Friday row, got %+v", stored)
	}
}

func TestReplaceWeek_NormalizesTimes(t *testing.T) {
	svc, _ := newTestService()
	doctorID := uuid.New()

	tpls, err := svc.ReplaceWeek(context.Background(), doctorID, []WeekdayInput{
		{DayOfWeek: 2, StartTime: "09:00 AM", EndTime: "05:00 PM", SlotMinutes: 60},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpls[0].StartTime != "09:00" || tpls[0].EndTime != "17:00" {
		t.Errorf("expected canonical times, got %s-%s", tpls[0].StartTime, tpls[0].EndTime)
	}
}

func TestReplaceWeek_Invalid(t *testing.T) {
	svc, _ := newTestService()
	doctorID := uuid.New()

	cases := map[string][]WeekdayInput{
		"day out of range": {{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 30}},
		"negative day":     {{DayOfWeek: -1, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 30}},
		"start after end":  {{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00", SlotMinutes: 30}},
		"start equals end": {{DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00", SlotMinutes: 30}},
		"zero slot length": {{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 0}},
		"bad time format":  {{DayOfWeek: 1, StartTime: "nine", EndTime: "17:00", SlotMinutes: 30}},
		"duplicate weekday": {
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", SlotMinutes: 30},
			{DayOfWeek: 1, StartTime: "13:00", EndTime: "17:00", SlotMinutes: 30},
		},
	}

	for name, days := range cases {
		if _, err := svc.ReplaceWeek(context.Background(), doctorID, days); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSlotsFor_UsesActiveTemplates(t *testing.T) {
	svc, repo := newTestService()
	doctorID := uuid.New()

	repo.byDoctor[doctorID] = []*Template{
		{DoctorID: doctorID, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00", SlotMinutes: 30, Active: true},
		{DoctorID: doctorID, DayOfWeek: 1, StartTime: "13:00", EndTime: "18:00", SlotMinutes: 30, Active: false},
	}

	slots, err := svc.SlotsFor(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 || slots[0].String() != "09:00" || slots[1].String() != "09:30" {
		t.Errorf("expected [09:00 09:30], got %v", slots)
	}
}

func TestSlotMinutesFor(t *testing.T) {
	svc, repo := newTestService()
	doctorID := uuid.New()
	repo.byDoctor[doctorID] = []*Template{
		{DoctorID: doctorID, DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", SlotMinutes: 45, Active: true},
	}

	got, err := svc.SlotMinutesFor(context.Background(), doctorID, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 45 {
		t.Errorf("expected 45, got %d", got)
	}

	tuesday := monday.AddDate(0, 0, 1)
	got, err = svc.SlotMinutesFor(context.Background(), doctorID, tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0 for weekday without template, got %d", got)
	}
}
