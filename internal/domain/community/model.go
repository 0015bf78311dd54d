package community

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Post is a community question or discussion entry.
type Post struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AuthorID   uuid.UUID `db:"author_id" json:"author_id"`
	AuthorRole string    `db:"author_role" json:"author_role"`
	Title      string    `db:"title" json:"title"`
	Body       string    `db:"body" json:"body"`
	Tags       []string  `db:"tags" json:"tags,omitempty"`
	ReplyCount int       `db:"reply_count" json:"reply_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

const maxTitleLen = 200

func (p *Post) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(p.Title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	if p.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// Reply is one answer under a post.
type Reply struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PostID     uuid.UUID `db:"post_id" json:"post_id"`
	AuthorID   uuid.UUID `db:"author_id" json:"author_id"`
	AuthorRole string    `db:"author_role" json:"author_role"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (r *Reply) Validate() error {
	if r.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}
