package server

import (
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// signupField describes one input of the signup form.
type signupField struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Required bool
}

func signupFields(in service.SignupInput) []signupField {
	return []signupField{
		{Name: "first_name", Label: "First name", Type: "text", Value: in.FirstName},
		{Name: "last_name", Label: "Last name", Type: "text", Value: in.LastName},
		{Name: "username", Label: "Username", Type: "text", Value: in.Username, Required: true},
		{Name: "email", Label: "Email address", Type: "email", Value: in.Email, Required: true},
		{Name: "password", Label: "Password", Type: "password", Required: true},
	}
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token *service.IssuedToken) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// logIn issues a token for user and stores it in the session cookie.
func (s *Server) logIn(c *fiber.Ctx, user *models.User) error {
	token, err := s.authService.IssueToken(user)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token)
	return nil
}

func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/signup", fiber.Map{
		"Title":  "Sign up",
		"Fields": signupFields(service.SignupInput{}),
	})
}

// Signup registers the user, logs them in and sends them to the home page.
func (s *Server) Signup(c *fiber.Ctx) error {
	in := service.SignupInput{
		FirstName: c.FormValue("first_name"),
		LastName:  c.FormValue("last_name"),
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
	}

	user, err := s.authService.Signup(c.UserContext(), in)
	if err != nil {
		if fields := validation.Fields(err); fields != nil {
			return s.render(c, fiber.StatusOK, "users/signup", fiber.Map{
				"Title":  "Sign up",
				"Fields": signupFields(in),
				"Errors": fields,
			})
		}
		return err
	}

	if err := s.logIn(c, user); err != nil {
		return err
	}
	middleware.Logger.InfoContext(c.UserContext(), "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "users/login", fiber.Map{
		"Title":    "Log in",
		"Next":     c.Query("next"),
		"Username": "",
	})
}

// Login checks the credentials and follows the "next" parameter on success.
func (s *Server) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	next := c.FormValue("next")
	if next == "" {
		next = c.Query("next")
	}

	user, err := s.authService.Authenticate(c.UserContext(), username, c.FormValue("password"))
	if err != nil {
		if models.ErrorCode(err) != models.CodeUnauthorized {
			return err
		}
		return s.render(c, fiber.StatusOK, "users/login", fiber.Map{
			"Title":    "Log in",
			"Next":     next,
			"Username": username,
			"Errors":   validation.FieldErrors{"__all__": {err.Error()}},
		})
	}

	if err := s.logIn(c, user); err != nil {
		return err
	}
	return c.Redirect(middleware.SafeNext(next, "/"), fiber.StatusFound)
}

// Logout revokes the current token and clears the session cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims, ok := c.Locals("claims").(*middleware.AccessClaims); ok {
		if err := s.authService.Revoke(c.UserContext(), claims); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation failed", slog.String("error", err.Error()))
		}
	}
	s.clearSessionCookie(c)
	c.Locals("claims", nil)
	c.Locals("userID", nil)

	return s.render(c, fiber.StatusOK, "users/logged_out", fiber.Map{"Title": "Logged out"})
}
