package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialfeed/internal/logger"
	"socialfeed/internal/models"
	"socialfeed/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthOptions tunes hashing cost and token lifetimes.
type AuthOptions struct {
	BcryptCost       int
	RegisterTokenTTL time.Duration
	LoginTokenTTL    time.Duration
}

// DefaultAuthOptions matches the production defaults.
func DefaultAuthOptions() AuthOptions {
	return AuthOptions{
		BcryptCost:       10,
		RegisterTokenTTL: time.Hour,
		LoginTokenTTL:    2 * time.Hour,
	}
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	opts      AuthOptions
	events    activityNotifier
	log       *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, opts AuthOptions, publisher EventPublisher, log *zap.Logger) *AuthService {
	log = logger.OrNop(log)
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		opts:      opts,
		events:    activityNotifier{publisher: publisher, log: log},
		log:       log,
	}
}

// Register creates an account and returns a short-lived token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, models.NewValidationError("Please enter all fields")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, models.NewConflictError("User already exists")
	} else if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		Name:     sanitizeText(name),
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return nil, models.NewConflictError("User already exists")
		}
		return nil, err
	}

	token, err := s.issueToken(user.ID, s.opts.RegisterTokenTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	s.events.notify(ctx, models.ActivityEvent{Type: models.EventUserRegistered, ActorID: user.ID})

	return &AuthResult{Token: token, User: publicUser(user)}, nil
}

// Login verifies credentials and returns a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.NewValidationError("Please enter all fields")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, &models.AppError{Code: models.CodeNotFound, Message: "User does not exist"}
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewAuthError("Invalid credentials")
	}

	token, err := s.issueToken(user.ID, s.opts.LoginTokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: publicUser(user)}, nil
}

// Authenticate validates a token and returns the user ID it carries.
func (s *AuthService) Authenticate(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return "", models.NewAuthError("Token is missing the user identity")
	}
	return id, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, &models.AppError{Code: models.CodeAuth, Message: "Token has expired", Err: err}
		}
		return nil, &models.AppError{Code: models.CodeAuth, Message: "Token is not valid", Err: err}
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, models.NewAuthError("Token is not valid")
}

func (s *AuthService) issueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("failed to generate token: %w", err))
	}
	return tokenString, nil
}

func publicUser(u *models.User) models.PublicUser {
	return models.PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
