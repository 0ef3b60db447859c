package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
	"yatube/internal/validation"
)

// CommentService stores comments on posts.
type CommentService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

type AddCommentInput struct {
	UserID uint
	PostID uint
	Text   string
}

// NewCommentService returns a new CommentService.
func NewCommentService(postRepo repository.PostRepository, commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{postRepo: postRepo, commentRepo: commentRepo}
}

// AddComment attaches a comment by in.UserID to the post.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	fe := validation.FieldErrors{}
	fe.Check("text", validation.ValidateCommentText(in.Text))
	if err := fe.Err(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: in.UserID,
		Text:     in.Text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()

	// reload so callers get the author and the stored timestamp
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns the post's comments, newest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID)
}
