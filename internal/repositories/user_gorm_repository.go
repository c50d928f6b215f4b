package repositories

import (
	"context"
	"errors"
	"fmt"

	"socialfeed/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Concurrent registrations can race for the same user number.
const createUserAttempts = 3

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	var err error
	for attempt := 0; attempt < createUserAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var maxNumber int64
			if err := tx.Model(&models.User{}).Select("COALESCE(MAX(user_number), 0)").Scan(&maxNumber).Error; err != nil {
				return err
			}
			user.UserNumber = maxNumber + 1
			return tx.Create(user).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewInternalError(fmt.Errorf("failed to create user: %w", err))
		}
		if taken, lookupErr := r.emailExists(ctx, user.Email); lookupErr == nil && taken {
			return models.NewConflictError(fmt.Sprintf("email '%s' already registered", user.Email))
		}
	}
	return models.NewInternalError(fmt.Errorf("failed to allocate user number: %w", err))
}

func (r *GORMUserRepository) emailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// GetByID retrieves a user and its follow lists.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("user", id)
		}
		return nil, models.NewInternalError(fmt.Errorf("failed to get user by ID %s: %w", id, err))
	}
	if err := r.loadEdges(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("user", email)
		}
		return nil, models.NewInternalError(fmt.Errorf("failed to get user by email %s: %w", email, err))
	}
	return &user, nil
}

// List returns every user ordered by registration.
func (r *GORMUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("user_number asc").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(fmt.Errorf("failed to list users: %w", err))
	}
	return users, nil
}

// UpdateProfileImage overwrites the stored profile photo.
func (r *GORMUserRepository) UpdateProfileImage(ctx context.Context, id string, data []byte, contentType string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"profile_image_data":         data,
		"profile_image_content_type": contentType,
	})
	if result.Error != nil {
		return models.NewInternalError(fmt.Errorf("failed to update profile image for %s: %w", id, result.Error))
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("user", id)
	}
	return nil
}

// Follow creates the follower -> following edge.
func (r *GORMUserRepository) Follow(ctx context.Context, followerID, followingID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUsers(tx, followerID, followingID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.NewConflictError("You are already following this user.")
		}
		return tx.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error
	})
	return translateGraphError(err, "follow")
}

// Unfollow deletes the follower -> following edge.
func (r *GORMUserRepository) Unfollow(ctx context.Context, followerID, followingID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUsers(tx, followerID, followingID); err != nil {
			return err
		}
		result := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewConflictError("You are not following this user.")
		}
		return nil
	})
	return translateGraphError(err, "unfollow")
}

func requireUsers(tx *gorm.DB, ids ...string) error {
	for _, id := range ids {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewNotFoundError("user", id)
		}
	}
	return nil
}

func translateGraphError(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.NewConflictError("You are already following this user.")
	}
	return models.NewInternalError(fmt.Errorf("failed to %s: %w", op, err))
}

func (r *GORMUserRepository) loadEdges(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx).Model(&models.Follow{})
	user.Followers = []string{}
	user.Following = []string{}
	if err := db.Where("following_id = ?", user.ID).Order("created_at asc").Pluck("follower_id", &user.Followers).Error; err != nil {
		return models.NewInternalError(fmt.Errorf("failed to load followers for %s: %w", user.ID, err))
	}
	db = r.db.WithContext(ctx).Model(&models.Follow{})
	if err := db.Where("follower_id = ?", user.ID).Order("created_at asc").Pluck("following_id", &user.Following).Error; err != nil {
		return models.NewInternalError(fmt.Errorf("failed to load following for %s: %w", user.ID, err))
	}
	return nil
}
