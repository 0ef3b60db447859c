package server

import (
	"log/slog"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ClearPageCache godoc
// @Summary Drop every cached page
// @Tags admin
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/cache/clear [post]
func (s *Server) ClearPageCache(c *fiber.Ctx) error {
	if err := s.pageCache.Clear(c.UserContext()); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	middleware.Logger.InfoContext(c.UserContext(), "page cache cleared")
	return c.SendStatus(fiber.StatusNoContent)
}

// APICreateGroup godoc
// @Summary Create a group
// @Tags groups
// @Accept json
// @Produce json
// @Param group body service.CreateGroupInput true "Group"
// @Success 201 {object} models.Group
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /groups [post]
func (s *Server) APICreateGroup(c *fiber.Ctx) error {
	var in service.CreateGroupInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	group, err := s.groupService.CreateGroup(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "group created", slog.String("slug", group.Slug))
	return c.Status(fiber.StatusCreated).JSON(group)
}

// APIDeleteGroup godoc
// @Summary Delete a group
// @Description The group's posts stay, without a group.
// @Tags groups
// @Param slug path string true "Group slug"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /groups/{slug} [delete]
func (s *Server) APIDeleteGroup(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if err := s.groupService.DeleteGroup(c.UserContext(), slug); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "group deleted", slog.String("slug", slug))
	return c.SendStatus(fiber.StatusNoContent)
}
