package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Patient is a patient profile. Its ID doubles as the auth subject, so
// appointments and messages reference it directly.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	FullName       string     `db:"full_name" json:"full_name"`
	Gender         *string    `db:"gender" json:"gender,omitempty"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	Email          *string    `db:"email" json:"email,omitempty"`
	MedicalHistory *string    `db:"medical_history" json:"medical_history,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true, "unknown": true,
}

func (p *Patient) Validate() error {
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return fmt.Errorf("invalid gender: %s", *p.Gender)
	}
	return nil
}

// Doctor is a doctor profile, keyed by the auth subject like Patient.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	FullName        string    `db:"full_name" json:"full_name"`
	Specialization  string    `db:"specialization" json:"specialization"`
	Qualification   *string   `db:"qualification" json:"qualification,omitempty"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	ExperienceYears int       `db:"experience_years" json:"experience_years"`
	ConsultationFee int       `db:"consultation_fee" json:"consultation_fee"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (d *Doctor) Validate() error {
	if d.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if d.Specialization == "" {
		return fmt.Errorf("specialization is required")
	}
	if d.ExperienceYears < 0 {
		return fmt.Errorf("experience_years must not be negative")
	}
	if d.ConsultationFee < 0 {
		return fmt.Errorf("consultation_fee must not be negative")
	}
	return nil
}
