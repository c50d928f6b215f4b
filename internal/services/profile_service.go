package services

import (
	"context"
	"strings"
	"time"

	"socialfeed/internal/cache"
	"socialfeed/internal/logger"
	"socialfeed/internal/media"
	"socialfeed/internal/models"
	"socialfeed/internal/repositories"

	"go.uber.org/zap"
)

// AuthorLookup resolves a user's public view. PostService uses it to find
// author names and avatars.
type AuthorLookup interface {
	GetUserInfo(ctx context.Context, userID string) (*models.UserView, error)
}

// ProfileService assembles user profiles with their images inlined.
type ProfileService struct {
	userRepo repositories.UserRepository
	cache    *cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

// NewProfileService creates a new ProfileService. A nil cache disables caching.
func NewProfileService(userRepo repositories.UserRepository, c *cache.Cache, cacheTTL time.Duration, log *zap.Logger) *ProfileService {
	log = logger.OrNop(log)
	return &ProfileService{userRepo: userRepo, cache: c, cacheTTL: cacheTTL, log: log}
}

func userInfoKey(userID string) string {
	return "user-info:" + userID
}

// GetProfile returns the authenticated user's own profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.NewAuthError("Not authorized")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserView(user), nil
}

// GetUserInfo returns any user's profile. Results are cached when a cache is configured.
func (s *ProfileService) GetUserInfo(ctx context.Context, userID string) (*models.UserView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.NewValidationError("userId is required")
	}
	var view models.UserView
	err := s.cache.Aside(ctx, userInfoKey(userID), &view, s.cacheTTL, func() error {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		view = *toUserView(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListUsers returns the directory of all users.
func (s *ProfileService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.UserSummary, len(users))
	for i := range users {
		u := &users[i]
		summaries[i] = models.UserSummary{
			ID:      u.ID,
			Name:    u.Name,
			Bio:     u.Bio,
			Profile: toProfileView(u.Profile),
		}
	}
	return summaries, nil
}

// UpdateProfileImage replaces the user's profile photo.
func (s *ProfileService) UpdateProfileImage(ctx context.Context, userID string, img *media.Image) error {
	if img == nil || len(img.Data) == 0 {
		return models.NewValidationError("No file uploaded")
	}
	if err := s.userRepo.UpdateProfileImage(ctx, userID, img.Data, img.ContentType); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	s.log.Info("profile image updated", zap.String("user_id", userID), zap.Int("bytes", len(img.Data)))
	return nil
}

// Invalidate drops cached profiles for userIDs.
func (s *ProfileService) Invalidate(ctx context.Context, userIDs ...string) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = userInfoKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate user-info cache", zap.Strings("user_ids", userIDs), zap.Error(err))
	}
}

func toProfileView(p models.Profile) models.ProfileView {
	return models.ProfileView{
		ImageURL: media.Encode(p.ImageData, p.ImageContentType),
		Bio:      p.Bio,
		Location: p.Location,
		Website:  p.Website,
	}
}

func toUserView(u *models.User) *models.UserView {
	followers, following := u.Followers, u.Following
	if followers == nil {
		followers = []string{}
	}
	if following == nil {
		following = []string{}
	}
	return &models.UserView{
		ID:         u.ID,
		UserNumber: u.UserNumber,
		Name:       u.Name,
		Email:      u.Email,
		Bio:        u.Bio,
		Gender:     u.Gender,
		Phone:      u.Phone,
		Address:    u.Address,
		Profile:    toProfileView(u.Profile),
		Followers:  followers,
		Following:  following,
		CreatedAt:  u.CreatedAt,
	}
}
