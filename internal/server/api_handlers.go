package server

import (
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TokenRequest is the body of POST /api/v1/auth/token.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PostListResponse is one page of posts.
type PostListResponse struct {
	Count    int64         `json:"count"`
	Page     int           `json:"page"`
	NumPages int           `json:"num_pages"`
	Results  []models.Post `json:"results"`
}

func postList(page *service.PostPage) PostListResponse {
	results := page.Posts
	if results == nil {
		results = []models.Post{}
	}
	return PostListResponse{
		Count:    page.Page.Count,
		Page:     page.Page.Number,
		NumPages: page.Page.NumPages,
		Results:  results,
	}
}

// APIToken godoc
// @Summary Obtain an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body TokenRequest true "Username and password"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/token [post]
func (s *Server) APIToken(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	token, err := s.authService.IssueToken(user)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(TokenResponse{Token: token.Token, ExpiresAt: token.ExpiresAt})
}

// APIListPosts godoc
// @Summary List posts
// @Description Every post, newest first.
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} PostListResponse
// @Router /posts [get]
func (s *Server) APIListPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), c.Query("page"))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(postList(page))
}

// APIGetPost godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) APIGetPost(c *fiber.Ctx) error {
	id, err := parseAPIID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(post)
}

// APIListComments godoc
// @Summary List a post's comments
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) APIListComments(c *fiber.Ctx) error {
	id, err := parseAPIID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListComments(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return c.JSON(comments)
}

// CommentRequest is the body of POST /api/v1/posts/{id}/comments.
type CommentRequest struct {
	Text string `json:"text"`
}

// APIAddComment godoc
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param comment body CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (s *Server) APIAddComment(c *fiber.Ctx) error {
	id, err := parseAPIID(c, "id")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	userID, _ := middleware.CurrentUserID(c)

	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID: userID,
		PostID: id,
		Text:   req.Text,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// APIListGroups godoc
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {array} models.Group
// @Router /groups [get]
func (s *Server) APIListGroups(c *fiber.Ctx) error {
	groups, err := s.groupService.ListGroups(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	if groups == nil {
		groups = []models.Group{}
	}
	return c.JSON(groups)
}

// APIGetGroup godoc
// @Summary Get a group
// @Tags groups
// @Produce json
// @Param slug path string true "Group slug"
// @Success 200 {object} models.Group
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{slug} [get]
func (s *Server) APIGetGroup(c *fiber.Ctx) error {
	group, err := s.groupService.GetGroup(c.UserContext(), c.Params("slug"))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(group)
}

// APIGroupPosts godoc
// @Summary List a group's posts
// @Tags groups
// @Produce json
// @Param slug path string true "Group slug"
// @Param page query int false "Page number"
// @Success 200 {object} PostListResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /groups/{slug}/posts [get]
func (s *Server) APIGroupPosts(c *fiber.Ctx) error {
	listing, err := s.postService.ListGroupPosts(c.UserContext(), c.Params("slug"), c.Query("page"))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(postList(&listing.PostPage))
}

// APIFeed godoc
// @Summary Posts by followed authors
// @Tags follow
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} PostListResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow [get]
func (s *Server) APIFeed(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	page, err := s.followService.Feed(c.UserContext(), userID, c.Query("page"))
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(postList(page))
}

// APIFollow godoc
// @Summary Follow an author
// @Description Following yourself or an author you already follow is a no-op.
// @Tags follow
// @Param username path string true "Author username"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow/{username} [post]
func (s *Server) APIFollow(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	if err := s.followService.Follow(c.UserContext(), userID, c.Params("username")); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// APIUnfollow godoc
// @Summary Unfollow an author
// @Tags follow
// @Param username path string true "Author username"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow/{username} [delete]
func (s *Server) APIUnfollow(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	if err := s.followService.Unfollow(c.UserContext(), userID, c.Params("username")); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
