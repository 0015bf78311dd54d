package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kneecare/kneecare/internal/platform/imagestore"
	"github.com/kneecare/kneecare/internal/platform/scorer"
)

// Scorer grades one radiograph. Implemented by the scorer client.
type Scorer interface {
	Score(ctx context.Context, filename string, image io.Reader) (*scorer.Result, error)
}

type Service struct {
	repo   Repository
	images imagestore.Store
	scorer Scorer
}

func NewService(repo Repository, images imagestore.Store, sc Scorer) *Service {
	return &Service{repo: repo, images: images, scorer: sc}
}

// Analyze stores the uploaded radiograph, grades it and persists the
// result. The image is kept even if grading fails so the upload is not
// repeated; a stored image without an analysis row is simply unscored.
func (s *Service) Analyze(ctx context.Context, patientID uuid.UUID, filename, contentType string, image io.Reader) (*Analysis, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}

	meta, err := s.images.Put(ctx, imagestore.Metadata{
		FileName:    filename,
		ContentType: contentType,
		PatientID:   patientID,
	}, image)
	if err != nil {
		return nil, err
	}

	stored, _, err := s.images.Get(ctx, meta.ID)
	if err != nil {
		return nil, err
	}
	defer stored.Close()

	res, err := s.scorer.Score(ctx, filename, stored)
	if err != nil {
		log.Error().Err(err).Str("image_id", meta.ID.String()).Msg("radiograph grading failed")
		return nil, err
	}

	a := &Analysis{
		PatientID:      patientID,
		ImageID:        meta.ID,
		Grade:          res.Grade,
		Label:          res.Label,
		Severity:       scorer.Severity(res.Grade),
		RiskLevel:      scorer.RiskLevel(res.Grade),
		Recommendation: scorer.Recommendation(res.Grade),
		Confidence:     res.Confidence,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	return s.repo.GetByID(ctx, id)
}

// Review attaches a doctor's notes to an analysis.
func (s *Service) Review(ctx context.Context, id, doctorID uuid.UUID, notes string) (*Analysis, error) {
	if notes == "" {
		return nil, fmt.Errorf("notes are required")
	}
	if err := s.repo.SetReview(ctx, id, doctorID, notes); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Analysis, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// Image streams the stored radiograph for an analysis.
func (s *Service) Image(ctx context.Context, id uuid.UUID) (io.ReadCloser, *imagestore.Metadata, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s.images.Get(ctx, a.ImageID)
}
