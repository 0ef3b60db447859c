// Package service holds the business rules behind the HTTP handlers. Every
// call that acts on behalf of a user takes that user's ID explicitly.
package service

import (
	"context"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const invalidGroupChoice = "Select a valid choice. That choice is not one of the available choices."

// PostPage is one page of a post listing.
type PostPage struct {
	Posts []models.Post
	Page  pagination.Page
}

// GroupListing is a page of a group's posts.
type GroupListing struct {
	Group *models.Group
	PostPage
}

// ProfileListing is a page of an author's posts with profile details.
type ProfileListing struct {
	Author         *models.User
	Following      bool
	FollowersCount int64
	FollowingCount int64
	PostPage
}

// PostCount is the author's total number of posts.
func (p *ProfileListing) PostCount() int64 {
	return p.Page.Count
}

// PostDetail is a single post with its comments, newest first.
type PostDetail struct {
	Post            *models.Post
	Comments        []models.Comment
	AuthorPostCount int64
}

type CreatePostInput struct {
	AuthorID uint
	Text     string
	GroupID  *uint
	Image    *ImageUpload
}

type UpdatePostInput struct {
	UserID     uint
	PostID     uint
	Text       string
	GroupID    *uint
	Image      *ImageUpload
	ClearImage bool
}

type PostService struct {
	postRepo    repository.PostRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	commentRepo repository.CommentRepository
	images      ImageStore
	pageSize    int
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	commentRepo repository.CommentRepository,
	images ImageStore,
	pageSize int,
) *PostService {
	if pageSize <= 0 {
		pageSize = pagination.DefaultPageSize
	}
	return &PostService{
		postRepo:    postRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		commentRepo: commentRepo,
		images:      images,
		pageSize:    pageSize,
	}
}

// PageSize is the number of posts per listing page.
func (s *PostService) PageSize() int {
	return s.pageSize
}

func listPostPage(ctx context.Context, repo repository.PostRepository, filter repository.PostFilter, rawPage string, size int) (*PostPage, error) {
	count, err := repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := pagination.Resolve(rawPage, count, size)
	posts, err := repo.List(ctx, filter, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, Page: page}, nil
}

// ListPosts returns a page of all posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, rawPage string) (*PostPage, error) {
	return listPostPage(ctx, s.postRepo, repository.PostFilter{}, rawPage, s.pageSize)
}

// ListGroupPosts returns a page of the group's posts. An unknown slug is NotFound.
func (s *PostService) ListGroupPosts(ctx context.Context, slug, rawPage string) (*GroupListing, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	page, err := listPostPage(ctx, s.postRepo, repository.PostFilter{GroupID: &group.ID}, rawPage, s.pageSize)
	if err != nil {
		return nil, err
	}
	return &GroupListing{Group: group, PostPage: *page}, nil
}

// ListProfilePosts returns a page of the author's posts. Following reports
// whether viewerID follows the author; it is false for anonymous viewers.
func (s *PostService) ListProfilePosts(ctx context.Context, viewerID uint, username, rawPage string) (*ProfileListing, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, models.NewNotFoundError("User", username)
	}

	page, err := listPostPage(ctx, s.postRepo, repository.PostFilter{AuthorID: &author.ID}, rawPage, s.pageSize)
	if err != nil {
		return nil, err
	}
	listing := &ProfileListing{Author: author, PostPage: *page}

	if viewerID != 0 && viewerID != author.ID {
		if listing.Following, err = s.followRepo.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	if listing.FollowersCount, err = s.followRepo.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if listing.FollowingCount, err = s.followRepo.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// GetPostDetail loads the post, its comments and the author's post count.
func (s *PostService) GetPostDetail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPostCount: count}, nil
}

// GetPostForEdit returns the post when userID is its author, Forbidden otherwise.
func (s *PostService) GetPostForEdit(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthor(userID) {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}
	return post, nil
}

func (s *PostService) validatePostForm(ctx context.Context, text string, groupID *uint) (validation.FieldErrors, error) {
	fe := validation.FieldErrors{}
	fe.Check("text", validation.ValidatePostText(text))
	if groupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
			if models.ErrorCode(err) != models.CodeNotFound {
				return nil, err
			}
			fe.Add("group", invalidGroupChoice)
		}
	}
	return fe, nil
}

func (s *PostService) saveImage(ctx context.Context, upload *ImageUpload, fe validation.FieldErrors) (string, error) {
	if upload == nil || s.images == nil {
		return "", nil
	}
	path, err := s.images.Save(ctx, *upload)
	if err != nil {
		fields := validation.Fields(err)
		if fields == nil {
			return "", err
		}
		for field, msgs := range fields {
			for _, msg := range msgs {
				fe.Add(field, msg)
			}
		}
		return "", nil
	}
	return path, nil
}

// CreatePost publishes a post by in.AuthorID. Form problems come back as a
// validation error with per-field messages.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost",
		attribute.Int64("author.id", int64(in.AuthorID)))
	post, err := s.createPost(ctx, in)
	observability.EndSpan(span, err)
	return post, err
}

func (s *PostService) createPost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	fe, err := s.validatePostForm(ctx, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}
	if len(fe) > 0 {
		return nil, fe.Err()
	}
	image, err := s.saveImage(ctx, in.Image, fe)
	if err != nil {
		return nil, err
	}
	if len(fe) > 0 {
		return nil, fe.Err()
	}

	post := &models.Post{
		Text:     in.Text,
		AuthorID: in.AuthorID,
		GroupID:  in.GroupID,
		Image:    image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()
	return post, nil
}

// UpdatePost edits text, group and image. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPostForEdit(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}
	fe, err := s.validatePostForm(ctx, in.Text, in.GroupID)
	if err != nil {
		return nil, err
	}
	if len(fe) > 0 {
		return post, fe.Err()
	}
	image, err := s.saveImage(ctx, in.Image, fe)
	if err != nil {
		return nil, err
	}
	if len(fe) > 0 {
		return post, fe.Err()
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Group = nil
	switch {
	case image != "":
		post.Image = image
	case in.ClearImage:
		post.Image = ""
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the post and its comments. Only the author may delete.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthor(userID) {
		return nil, models.NewForbiddenError("Only the author can delete this post")
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	return post, nil
}
