package server

import (
	"yatube/internal/middleware"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AddComment stores a comment and returns to the post page. An invalid
// comment is dropped and the visitor lands on the same page.
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, _ := middleware.CurrentUserID(c)

	_, err = s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID: userID,
		PostID: postID,
		Text:   c.FormValue("text"),
	})
	if err != nil && validation.Fields(err) == nil {
		return err
	}
	return c.Redirect(postURL(postID), fiber.StatusFound)
}

// CommentRedirect sends plain visits to the comment URL back to the post.
func (s *Server) CommentRedirect(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	return c.Redirect(postURL(postID), fiber.StatusFound)
}
