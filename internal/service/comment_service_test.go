package service

import (
	"context"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_AddComment(t *testing.T) {
	t.Parallel()
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		if id != 1 {
			return nil, models.NewNotFoundError("Post", id)
		}
		return &models.Post{ID: 1}, nil
	}
	comments := noopCommentRepo()
	var stored *models.Comment
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		c.ID = 11
		stored = c
		return nil
	}
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		require.Equal(t, uint(11), id)
		loaded := *stored
		loaded.Author = models.User{ID: stored.AuthorID, Username: "leo"}
		return &loaded, nil
	}
	svc := NewCommentService(posts, comments)

	got, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 3, PostID: 1, Text: "nice"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint(3), stored.AuthorID)
	assert.Equal(t, uint(1), stored.PostID)
	assert.Equal(t, "leo", got.Author.Username)

	_, err = svc.AddComment(context.Background(), AddCommentInput{UserID: 3, PostID: 1, Text: ""})
	assertErrorCode(t, err, models.CodeValidation)

	_, err = svc.AddComment(context.Background(), AddCommentInput{UserID: 3, PostID: 2, Text: "x"})
	assertErrorCode(t, err, models.CodeNotFound)

	_, err = svc.AddComment(context.Background(), AddCommentInput{PostID: 1, Text: "x"})
	assertErrorCode(t, err, models.CodeUnauthorized)
}
