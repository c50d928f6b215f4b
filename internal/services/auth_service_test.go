package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialfeed/internal/models"
	"socialfeed/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func testAuthOptions() services.AuthOptions {
	return services.AuthOptions{
		BcryptCost:       bcrypt.MinCost,
		RegisterTokenTTL: time.Hour,
		LoginTokenTTL:    2 * time.Hour,
	}
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	publisher := new(MockPublisher)
	authService := services.NewAuthService(mockRepo, testJWTSecret, testAuthOptions(), publisher, nil)

	mockRepo.On("GetByEmail", ctx, "alice@example.com").Return(nil, models.NewNotFoundError("user", "alice@example.com")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*models.User)
		u.ID = "user-1"
	}).Return(nil).Once()
	publisher.On("Publish", ctx, models.EventUserRegistered, mock.AnythingOfType("models.ActivityEvent")).Return(nil).Once()

	res, err := authService.Register(ctx, "Alice", "Alice@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, models.PublicUser{ID: "user-1", Name: "Alice", Email: "alice@example.com"}, res.User)

	claims := parseClaims(t, res.Token)
	assert.Equal(t, "user-1", claims["id"])
	assert.NotContains(t, claims, "email")
	exp := time.Unix(int64(claims["exp"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	created := mockRepo.Calls[1].Arguments.Get(1).(*models.User)
	assert.NotEqual(t, "password123", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("password123")))

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, testAuthOptions(), nil, nil)

	for _, in := range [][3]string{
		{"", "a@example.com", "pw"},
		{"Alice", "", "pw"},
		{"Alice", "a@example.com", ""},
		{"   ", "a@example.com", "pw"},
	} {
		_, err := authService.Register(context.Background(), in[0], in[1], in[2])
		assert.True(t, models.IsCode(err, models.CodeValidation), in)
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, testAuthOptions(), nil, nil)

	mockRepo.On("GetByEmail", ctx, "bob@example.com").Return(&models.User{ID: "1"}, nil).Once()

	_, err := authService.Register(ctx, "Bob", "bob@example.com", "pw")
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.EqualError(t, err, "User already exists")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterRaceSurfacesConflict(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, testAuthOptions(), nil, nil)

	mockRepo.On("GetByEmail", ctx, "bob@example.com").Return(nil, models.NewNotFoundError("user", "bob@example.com")).Once()
	mockRepo.On("Create", ctx, mock.Anything).Return(models.NewConflictError("email taken")).Once()

	_, err := authService.Register(ctx, "Bob", "bob@example.com", "pw")
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, testAuthOptions(), nil, nil)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{ID: "user-123", Name: "Carol", Email: "carol@example.com", Password: string(hashedPassword)}

	mockRepo.On("GetByEmail", ctx, "carol@example.com").Return(user, nil).Twice()

	res, err := authService.Login(ctx, "carol@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user-123", res.User.ID)
	claims := parseClaims(t, res.Token)
	assert.Equal(t, "user-123", claims["id"])
	exp := time.Unix(int64(claims["exp"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), exp, time.Minute)

	_, err = authService.Login(ctx, "carol@example.com", "wrongpassword")
	assert.True(t, models.IsCode(err, models.CodeAuth))

	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, models.NewNotFoundError("user", "nobody@example.com")).Once()
	_, err = authService.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.EqualError(t, err, "User does not exist")

	_, err = authService.Login(ctx, "", "password123")
	assert.True(t, models.IsCode(err, models.CodeValidation))

	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginStoreFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, testAuthOptions(), nil, nil)

	mockRepo.On("GetByEmail", ctx, "dan@example.com").Return(nil, models.NewInternalError(errors.New("db down"))).Once()

	_, err := authService.Login(ctx, "dan@example.com", "pw")
	assert.True(t, models.IsCode(err, models.CodeInternal))
}

func TestAuthService_Authenticate(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, testAuthOptions(), nil, nil)

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	valid := sign(jwt.MapClaims{"id": "user-123", "exp": time.Now().Add(time.Hour).Unix()}, testJWTSecret)
	id, err := authService.Authenticate(valid)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)

	_, err = authService.Authenticate("invalid.token.string")
	assert.True(t, models.IsCode(err, models.CodeAuth))

	wrongSecret := sign(jwt.MapClaims{"id": "user-123", "exp": time.Now().Add(time.Hour).Unix()}, "other")
	_, err = authService.Authenticate(wrongSecret)
	assert.True(t, models.IsCode(err, models.CodeAuth))

	expired := sign(jwt.MapClaims{"id": "user-123", "exp": time.Now().Add(-time.Hour).Unix()}, testJWTSecret)
	_, err = authService.Authenticate(expired)
	assert.True(t, models.IsCode(err, models.CodeAuth))
	assert.Contains(t, err.Error(), "Token has expired")

	noID := sign(jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, testJWTSecret)
	_, err = authService.Authenticate(noID)
	assert.True(t, models.IsCode(err, models.CodeAuth))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"id": "user-123"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = authService.Authenticate(none)
	assert.True(t, models.IsCode(err, models.CodeAuth))
}

func TestAuthService_RegisterKeepsNameAsTyped(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, testAuthOptions(), nil, nil)

	mockRepo.On("GetByEmail", ctx, "tom@example.com").Return(nil, models.NewNotFoundError("user", "tom@example.com")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	res, err := authService.Register(ctx, "Tom & Jerry O'Brien", "tom@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry O'Brien", res.User.Name)
	mockRepo.AssertExpectations(t)
}
