package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/validation"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

func TestAuthService_Signup(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	var created *models.User
	users.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 10
		created = u
		return nil
	}
	svc := NewAuthService(users, nil, testSecret).WithBcryptCost(bcrypt.MinCost)

	user, err := svc.Signup(context.Background(), SignupInput{
		FirstName: "Leo", LastName: "Tolstoy", Username: "leo", Email: "leo@example.com", Password: "war-and-peace",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(10), user.ID)
	require.NotNil(t, created)
	assert.NotEqual(t, "war-and-peace", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("war-and-peace")))
}

func TestAuthService_SignupValidation(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.getByUsernameFn = usersByName(&models.User{ID: 1, Username: "taken"})
	users.createFn = func(_ context.Context, _ *models.User) error {
		t.Fatal("create must not be called")
		return nil
	}
	svc := NewAuthService(users, nil, testSecret).WithBcryptCost(bcrypt.MinCost)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "taken", Email: "nope", Password: "123"})
	assertErrorCode(t, err, models.CodeValidation)
	fields := validation.Fields(err)
	assert.Equal(t, []string{"A user with that username already exists."}, fields["username"])
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users := noopUserRepo()
	users.getByUsernameFn = usersByName(&models.User{ID: 5, Username: "leo", Password: string(hash)})
	svc := NewAuthService(users, nil, testSecret)

	user, err := svc.Authenticate(context.Background(), "leo", "correct-pass")
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)

	_, err = svc.Authenticate(context.Background(), "leo", "wrong-pass")
	assertErrorCode(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(context.Background(), "ghost", "correct-pass")
	assertErrorCode(t, err, models.CodeUnauthorized)
}

func TestAuthService_TokenLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	leo := &models.User{ID: 5, Username: "leo"}
	users := noopUserRepo()
	users.getByIDFn = usersByID(leo)
	svc := NewAuthService(users, rdb, testSecret)
	ctx := context.Background()

	issued, err := svc.IssueToken(leo)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), issued.ExpiresAt, time.Minute)

	claims, err := svc.ResolveToken(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, "leo", claims.Username)
	assert.Equal(t, issued.JTI, claims.JTI)

	require.NoError(t, svc.Revoke(ctx, claims))
	assert.True(t, mr.Exists(cache.RevokedTokenKey(issued.JTI)))

	_, err = svc.ResolveToken(ctx, issued.Token)
	assert.ErrorIs(t, err, middleware.ErrInvalidToken)

	_, err = svc.ResolveToken(ctx, "garbage")
	assert.ErrorIs(t, err, middleware.ErrInvalidToken)
}

func TestAuthService_RevokeWithoutRedis(t *testing.T) {
	t.Parallel()
	leo := &models.User{ID: 5, Username: "leo"}
	users := noopUserRepo()
	users.getByIDFn = usersByID(leo)
	svc := NewAuthService(users, nil, testSecret)

	issued, err := svc.IssueToken(leo)
	require.NoError(t, err)
	claims, err := svc.ResolveToken(context.Background(), issued.Token)
	require.NoError(t, err)

	assert.NoError(t, svc.Revoke(context.Background(), claims))
	revoked, err := svc.IsRevoked(context.Background(), claims.JTI)
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = NewAuthService(noopUserRepo(), nil, "").IssueToken(&models.User{ID: 1})
	assertErrorCode(t, err, models.CodeInternal)
}

func TestAuthService_ResolveTokenRejectsDeletedUser(t *testing.T) {
	t.Parallel()
	svc := NewAuthService(noopUserRepo(), nil, testSecret)

	issued, err := svc.IssueToken(&models.User{ID: 9, Username: "gone"})
	require.NoError(t, err)

	_, err = svc.ResolveToken(context.Background(), issued.Token)
	assert.ErrorIs(t, err, middleware.ErrInvalidToken)
}

func TestAuthService_ResolveTokenSurfacesStoreErrors(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) {
		return nil, models.NewInternalError(errors.New("connection refused"))
	}
	svc := NewAuthService(users, nil, testSecret)

	issued, err := svc.IssueToken(&models.User{ID: 9, Username: "leo"})
	require.NoError(t, err)

	_, err = svc.ResolveToken(context.Background(), issued.Token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, middleware.ErrInvalidToken)
	assertErrorCode(t, err, models.CodeInternal)
}
