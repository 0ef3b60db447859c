package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an access token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

const invalidCredentialsMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."

// AuthService registers users, checks credentials and issues access tokens.
type AuthService struct {
	userRepo   repository.UserRepository
	redis      *redis.Client
	secret     string
	tokenTTL   time.Duration
	bcryptCost int
}

type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// IssuedToken is a signed access token and its metadata.
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// NewAuthService returns an AuthService. rdb may be nil, in which case
// logout cannot revoke tokens before they expire.
func NewAuthService(userRepo repository.UserRepository, rdb *redis.Client, secret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		redis:      rdb,
		secret:     secret,
		tokenTTL:   DefaultTokenTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the hashing cost, used by tests and seeding.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

// Signup validates the form, stores the user and returns it.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	fe := validation.FieldErrors{}
	fe.Check("first_name", validation.ValidateName(in.FirstName))
	fe.Check("last_name", validation.ValidateName(in.LastName))
	fe.Check("username", validation.ValidateUsername(in.Username))
	fe.Check("email", validation.ValidateEmail(in.Email))
	fe.Check("password", validation.ValidatePassword(in.Password))
	if in.Password != "" && strings.EqualFold(in.Password, in.Username) {
		fe.Add("password", "The password is too similar to the username.")
	}

	if _, bad := fe["username"]; !bad {
		existing, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			fe.Add("username", "A user with that username already exists.")
		}
	}
	if _, bad := fe["email"]; !bad {
		existing, err := s.userRepo.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			fe.Add("email", "A user with that email already exists.")
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(invalidCredentialsMessage)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(invalidCredentialsMessage)
	}
	return user, nil
}

// IssueToken signs an access token for the user.
func (s *AuthService) IssueToken(user *models.User) (*IssuedToken, error) {
	if s.secret == "" {
		return nil, models.NewInternalError(errors.New("JWT secret not configured"))
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iss":      middleware.TokenIssuer,
		"aud":      middleware.TokenAudience,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      jti,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &IssuedToken{Token: signed, JTI: jti, ExpiresAt: expiresAt}, nil
}

// ResolveToken verifies a raw token and rejects revoked ones and tokens whose
// user no longer exists. Those come back as middleware.ErrInvalidToken; any
// other error is a store failure.
func (s *AuthService) ResolveToken(ctx context.Context, raw string) (*middleware.AccessClaims, error) {
	claims, err := middleware.ParseAccessToken(s.secret, raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, middleware.ErrInvalidToken
	}

	// a deleted account's token must not reach handlers that write rows for it
	if _, err := s.userRepo.GetByID(ctx, claims.UserID); err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil, middleware.ErrInvalidToken
		}
		return nil, err
	}
	return claims, nil
}

// Revoke blocks the token until it would have expired.
func (s *AuthService) Revoke(ctx context.Context, claims *middleware.AccessClaims) error {
	if s.redis == nil || claims == nil || claims.JTI == "" {
		return nil
	}
	return s.redis.Set(ctx, cache.RevokedTokenKey(claims.JTI), "1", cache.RevocationTTL(claims.ExpiresAt)).Err()
}

// IsRevoked reports whether the token ID was logged out.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.redis == nil || jti == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, cache.RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
