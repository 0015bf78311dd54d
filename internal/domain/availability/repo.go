package availability

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// ReplaceForDoctor atomically replaces the doctor's entire weekly
	// template set with the given rows.
	ReplaceForDoctor(ctx context.Context, doctorID uuid.UUID, tpls []*Template) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Template, error)
	ListActiveByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Template, error)
}
