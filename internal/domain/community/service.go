package community

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePost(ctx context.Context, p *Post) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.CreatePost(ctx, p)
}

// GetPost returns the post with its replies.
func (s *Service) GetPost(ctx context.Context, id uuid.UUID) (*Post, []*Reply, error) {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	replies, err := s.repo.ListReplies(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, replies, nil
}

// DeletePost removes a post and, via the schema's cascade, its replies.
// Only the author or an admin may delete; the handler enforces the caller,
// the service enforces ownership.
func (s *Service) DeletePost(ctx context.Context, id, callerID uuid.UUID, isAdmin bool) error {
	p, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && p.AuthorID != callerID {
		return fmt.Errorf("only the author may delete a post")
	}
	return s.repo.DeletePost(ctx, id)
}

func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]*Post, int, error) {
	return s.repo.ListPosts(ctx, limit, offset)
}

func (s *Service) Reply(ctx context.Context, r *Reply) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return s.repo.CreateReply(ctx, r)
}
