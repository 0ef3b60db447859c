package server

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// viewer is the signed-in user as the templates see it.
type viewer struct {
	ID       uint
	Username string
}

func currentViewer(c *fiber.Ctx) *viewer {
	claims, ok := c.Locals("claims").(*middleware.AccessClaims)
	if !ok || claims == nil {
		return nil
	}
	return &viewer{ID: claims.UserID, Username: claims.Username}
}

// render executes a page template inside the base layout.
func (s *Server) render(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	// always present: templates test it with "and", which rejects missing keys
	data["Viewer"] = currentViewer(c)
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = validation.FieldErrors{}
	}
	data["Path"] = c.Path()
	data["Year"] = time.Now().Year()
	return c.Status(status).Render(name, data, baseLayout)
}

// parseID extracts a route parameter as a positive uint. Anything else is
// reported as a missing page.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}

// parseAPIID is parseID for JSON endpoints: on failure it writes a 400 and
// returns errResponseWritten.
func parseAPIID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 32)
	if err != nil || id == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseGroupID reads the optional group choice. An empty value means no
// group; a malformed one becomes an ID no group has, so validation rejects it.
func parseGroupID(raw string) *uint {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		id = 0
	}
	v := uint(id)
	return &v
}

// readImageUpload returns the uploaded image, or nil when none was sent.
func readImageUpload(c *fiber.Ctx, maxBytes int64) (*service.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil || fh == nil || fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}

func (s *Server) maxUploadBytes() int64 {
	mb := s.config.ImageMaxUploadSizeMB
	if mb <= 0 {
		mb = service.DefaultImageMaxUploadSizeMB
	}
	return int64(mb) * 1024 * 1024
}

// indexCacheKey keys the cached home page by viewer and page number.
func indexCacheKey(c *fiber.Ctx) string {
	userID, _ := middleware.CurrentUserID(c)
	return cache.IndexPageKey(userID, c.Query("page"))
}

func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// errorHandler turns handler errors into the 404 and 500 pages, or into JSON
// for API requests.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case models.ErrorCode(err) != "":
		code = models.StatusFor(err)
	}

	if code >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}

	if isAPIRequest(c) {
		if code >= fiber.StatusInternalServerError {
			err = models.NewInternalError(err)
		}
		return models.RespondWithError(c, code, err)
	}

	switch {
	case code == fiber.StatusNotFound:
		return s.render(c, code, "core/404", fiber.Map{"Title": "Page not found"})
	case code == fiber.StatusUnauthorized:
		return c.Redirect(middleware.LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
	case code >= fiber.StatusInternalServerError:
		return s.render(c, code, "core/500", fiber.Map{"Title": "Server error"})
	default:
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(code).SendString(err.Error())
	}
}
