package messaging

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

const convCols = `id, patient_id, doctor_id, last_message_at, created_at`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// EnsureConversation relies on the unique (patient_id, doctor_id) index:
// the upsert makes concurrent first messages converge on one thread.
func (r *repoPG) EnsureConversation(ctx context.Context, patientID, doctorID uuid.UUID) (*Conversation, error) {
	return scanConversation(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO conversation (id, patient_id, doctor_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (patient_id, doctor_id)
		DO UPDATE SET patient_id = EXCLUDED.patient_id
		RETURNING `+convCols,
		uuid.New(), patientID, doctorID))
}

func (r *repoPG) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return scanConversation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+convCols+` FROM conversation WHERE id = $1`, id))
}

func (r *repoPG) ListConversations(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM conversation WHERE patient_id = $1 OR doctor_id = $1`,
		memberID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+convCols+`,
		       (SELECT COUNT(*) FROM message m
		        WHERE m.conversation_id = conversation.id
		          AND m.sender_id <> $1 AND m.read_at IS NULL) AS unread_count
		FROM conversation
		WHERE patient_id = $1 OR doctor_id = $1
		ORDER BY last_message_at DESC LIMIT $2 OFFSET $3`, memberID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.LastMessageAt,
			&c.CreatedAt, &c.UnreadCount); err != nil {
			return nil, 0, err
		}
		items = append(items, &c)
	}
	return items, total, rows.Err()
}

const msgCols = `id, conversation_id, sender_id, body, analysis_id, read_at, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.AnalysisID, &m.ReadAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// CreateMessage inserts the message and bumps the thread's recency stamp
// in one transaction.
func (r *repoPG) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		got, err := scanMessage(r.conn(ctx).QueryRow(ctx, `
			INSERT INTO message (id, conversation_id, sender_id, body, analysis_id)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING `+msgCols,
			m.ID, m.ConversationID, m.SenderID, m.Body, m.AnalysisID))
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrNotFound
			}
			return err
		}
		*m = *got
		_, err = r.conn(ctx).Exec(ctx,
			`UPDATE conversation SET last_message_at = $2 WHERE id = $1`,
			m.ConversationID, m.CreatedAt)
		return err
	})
}

func (r *repoPG) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM message WHERE conversation_id = $1`,
		conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+msgCols+` FROM message WHERE conversation_id = $1
		 ORDER BY created_at LIMIT $2 OFFSET $3`, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *repoPG) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE message SET read_at = NOW()
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL`,
		conversationID, readerID)
	return err
}
