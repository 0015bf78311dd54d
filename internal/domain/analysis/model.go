package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is one scored knee radiograph. Grade is the Kellgren-Lawrence
// grade 0-4 assigned by the model service.
type Analysis struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	ImageID        uuid.UUID  `db:"image_id" json:"image_id"`
	Grade          int        `db:"grade" json:"grade"`
	Label          string     `db:"label" json:"label"`
	Severity       string     `db:"severity" json:"severity"`
	RiskLevel      string     `db:"risk_level" json:"risk_level"`
	Recommendation string     `db:"recommendation" json:"recommendation"`
	Confidence     float64    `db:"confidence" json:"confidence"`
	DoctorNotes    *string    `db:"doctor_notes" json:"doctor_notes,omitempty"`
	ReviewedBy     *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
