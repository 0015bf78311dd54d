package analysis

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("analysis not found")

type Repository interface {
	Create(ctx context.Context, a *Analysis) error
	GetByID(ctx context.Context, id uuid.UUID) (*Analysis, error)
	// SetReview records a doctor's notes on an analysis.
	SetReview(ctx context.Context, id, doctorID uuid.UUID, notes string) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Analysis, int, error)
}
