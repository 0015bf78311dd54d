package analysis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kneecare/kneecare/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const analysisCols = `id, patient_id, image_id, grade, label, severity, risk_level,
	recommendation, confidence, doctor_notes, reviewed_by, created_at, updated_at`

func scanAnalysis(row pgx.Row) (*Analysis, error) {
	var a Analysis
	err := row.Scan(&a.ID, &a.PatientID, &a.ImageID, &a.Grade, &a.Label, &a.Severity,
		&a.RiskLevel, &a.Recommendation, &a.Confidence, &a.DoctorNotes, &a.ReviewedBy,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Analysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	got, err := scanAnalysis(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO analysis (id, patient_id, image_id, grade, label, severity, risk_level, recommendation, confidence)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+analysisCols,
		a.ID, a.PatientID, a.ImageID, a.Grade, a.Label, a.Severity, a.RiskLevel, a.Recommendation, a.Confidence))
	if err != nil {
		return err
	}
	*a = *got
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	return scanAnalysis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+analysisCols+` FROM analysis WHERE id = $1`, id))
}

func (r *repoPG) SetReview(ctx context.Context, id, doctorID uuid.UUID, notes string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE analysis SET doctor_notes = $2, reviewed_by = $3, updated_at = NOW()
		WHERE id = $1`, id, notes, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Analysis, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM analysis WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+analysisCols+` FROM analysis WHERE patient_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
