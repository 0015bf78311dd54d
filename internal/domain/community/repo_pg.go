package community

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

const postCols = `p.id, p.author_id, p.author_role, p.title, p.body, p.tags,
	(SELECT COUNT(*) FROM community_reply cr WHERE cr.post_id = p.id) AS reply_count,
	p.created_at, p.updated_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorRole, &p.Title, &p.Body, &p.Tags,
		&p.ReplyCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) CreatePost(ctx context.Context, p *Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	got, err := scanPost(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO community_post AS p (id, author_id, author_role, title, body, tags)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+postCols,
		p.ID, p.AuthorID, p.AuthorRole, p.Title, p.Body, p.Tags))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

func (r *repoPG) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return scanPost(r.conn(ctx).QueryRow(ctx,
		`SELECT `+postCols+` FROM community_post p WHERE p.id = $1`, id))
}

func (r *repoPG) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM community_post WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListPosts(ctx context.Context, limit, offset int) ([]*Post, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM community_post`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+postCols+` FROM community_post p ORDER BY p.created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

const replyCols = `id, post_id, author_id, author_role, body, created_at`

func scanReply(row pgx.Row) (*Reply, error) {
	var rp Reply
	err := row.Scan(&rp.ID, &rp.PostID, &rp.AuthorID, &rp.AuthorRole, &rp.Body, &rp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rp, nil
}

func (r *repoPG) CreateReply(ctx context.Context, rp *Reply) error {
	if rp.ID == uuid.Nil {
		rp.ID = uuid.New()
	}
	got, err := scanReply(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO community_reply (id, post_id, author_id, author_role, body)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+replyCols,
		rp.ID, rp.PostID, rp.AuthorID, rp.AuthorRole, rp.Body))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return err
	}
	*rp = *got
	return nil
}

func (r *repoPG) ListReplies(ctx context.Context, postID uuid.UUID) ([]*Reply, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+replyCols+` FROM community_reply WHERE post_id = $1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reply
	for rows.Next() {
		rp, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rp)
	}
	return items, rows.Err()
}
