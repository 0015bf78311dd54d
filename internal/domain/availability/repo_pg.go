package availability

import (
	"context"

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

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const tplCols = `id, doctor_id, day_of_week, start_time, end_time, slot_minutes, active, created_at, updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.DoctorID, &t.DayOfWeek, &t.StartTime, &t.EndTime,
		&t.SlotMinutes, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) ReplaceForDoctor(ctx context.Context, doctorID uuid.UUID, tpls []*Template) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.Exec(ctx,
			`DELETE FROM availability_template WHERE doctor_id = $1`, doctorID); err != nil {
			return err
		}
		for _, t := range tpls {
			t.ID = uuid.New()
			t.DoctorID = doctorID
			if _, err := conn.Exec(ctx, `
				INSERT INTO availability_template (id, doctor_id, day_of_week, start_time, end_time, slot_minutes, active)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				t.ID, t.DoctorID, t.DayOfWeek, t.StartTime, t.EndTime, t.SlotMinutes, t.Active); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tplCols+` FROM availability_template WHERE doctor_id = $1 ORDER BY day_of_week`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func (r *repoPG) ListActiveByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Template, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tplCols+` FROM availability_template WHERE doctor_id = $1 AND active ORDER BY day_of_week`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func collectTemplates(rows pgx.Rows) ([]*Template, error) {
	var items []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
