package server

import (
	"yatube/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// FollowIndex renders posts by the authors the viewer follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	page, err := s.followService.Feed(c.UserContext(), userID, c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "posts/follow", fiber.Map{
		"Title": "Following",
		"Posts": page.Posts,
		"Page":  page.Page,
	})
}

// ProfileFollow follows the author. Self and repeated follows are no-ops; the
// viewer always lands on the follow feed.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	username := c.Params("username")
	if err := s.followService.Follow(c.UserContext(), userID, username); err != nil {
		return err
	}
	return c.Redirect("/follow/", fiber.StatusFound)
}

// ProfileUnfollow removes the edge if present and returns to the home listing.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	username := c.Params("username")
	if err := s.followService.Unfollow(c.UserContext(), userID, username); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}
