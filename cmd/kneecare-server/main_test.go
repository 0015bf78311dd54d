package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/kneecare/kneecare/internal/domain/identity"
)

type stubPatientRepo struct {
	patient *identity.Patient
}

func (s *stubPatientRepo) Create(context.Context, *identity.Patient) error { return nil }
func (s *stubPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	if s.patient == nil || s.patient.ID != id {
		return nil, identity.ErrNotFound
	}
	return s.patient, nil
}
func (s *stubPatientRepo) Update(context.Context, *identity.Patient) error { return nil }
func (s *stubPatientRepo) List(context.Context, int, int) ([]*identity.Patient, int, error) {
	return nil, 0, nil
}

type stubDoctorRepo struct {
	doctor *identity.Doctor
}

func (s *stubDoctorRepo) Create(context.Context, *identity.Doctor) error { return nil }
func (s *stubDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Doctor, error) {
	if s.doctor == nil || s.doctor.ID != id {
		return nil, identity.ErrNotFound
	}
	return s.doctor, nil
}
func (s *stubDoctorRepo) Update(context.Context, *identity.Doctor) error { return nil }
func (s *stubDoctorRepo) List(context.Context, string, int, int) ([]*identity.Doctor, int, error) {
	return nil, 0, nil
}

func TestContactLookup(t *testing.T) {
	email := "asha@example.com"
	patient := &identity.Patient{ID: uuid.New(), FullName: "Asha Rao", Email: &email}
	doctor := &identity.Doctor{ID: uuid.New(), FullName: "Dr. Meera Shah", Specialization: "orthopedics"}

	svc := identity.NewService(&stubPatientRepo{patient: patient}, &stubDoctorRepo{doctor: doctor})
	lookup := &contactLookup{identitySvc: svc}

	name, addr, err := lookup.PatientContact(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("PatientContact() error = %v", err)
	}
	if name != "Asha Rao" || addr != email {
		t.Errorf("contact = %s <%s>", name, addr)
	}

	dn, err := lookup.DoctorName(context.Background(), doctor.ID)
	if err != nil {
		t.Fatalf("DoctorName() error = %v", err)
	}
	if dn != "Dr. Meera Shah" {
		t.Errorf("doctor name = %s", dn)
	}

	if _, _, err := lookup.PatientContact(context.Background(), uuid.New()); !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestContactLookupNoEmail(t *testing.T) {
	patient := &identity.Patient{ID: uuid.New(), FullName: "Asha Rao"}
	svc := identity.NewService(&stubPatientRepo{patient: patient}, &stubDoctorRepo{})
	lookup := &contactLookup{identitySvc: svc}

	_, addr, err := lookup.PatientContact(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("PatientContact() error = %v", err)
	}
	if addr != "" {
		t.Errorf("addr = %q, want empty", addr)
	}
}
