// Package middleware provides request logging, tracing, metrics, rate limiting and
// authentication helpers shared by the HTTP layer.
package middleware

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenIssuer and TokenAudience are stamped into every access token.
	TokenIssuer   = "yatube-api"
	TokenAudience = "yatube-client"
	// SessionCookie holds the access token for browser sessions.
	SessionCookie = "access_token"
	// LoginPath is where unauthenticated browser requests are sent.
	LoginPath = "/auth/login/"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// ParseAccessToken verifies an HMAC-signed token and returns its claims.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}

	out := &AccessClaims{UserID: uint(userID)}
	out.Username, _ = claims["username"].(string)
	out.JTI, _ = claims["jti"].(string)
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SetCurrentUser stores the authenticated user ID in locals and in the user context.
func SetCurrentUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

// CurrentUserID returns the authenticated user ID, if any.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	return userID, ok && userID != 0
}

// LoginRedirectURL builds the login URL that returns to next after success.
func LoginRedirectURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// RequireAuthenticated redirects anonymous browser requests to the login page,
// carrying the original URL in the "next" parameter.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUserID(c); !ok {
			return c.Redirect(LoginRedirectURL(c.OriginalURL()), fiber.StatusFound)
		}
		return c.Next()
	}
}

// SafeNext returns next when it is a local absolute path, otherwise fallback.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	return next
}
