package community

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("post not found")

type Repository interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	ListPosts(ctx context.Context, limit, offset int) ([]*Post, int, error)

	CreateReply(ctx context.Context, r *Reply) error
	ListReplies(ctx context.Context, postID uuid.UUID) ([]*Reply, error)
}
