package repositories

import (
	"context"

	"socialfeed/internal/models"
)

// UserRepository defines the interface for user and social graph data access.
type UserRepository interface {
	// Create assigns the user its ID and sequential number and stores it.
	// A taken email is a ConflictError.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfileImage(ctx context.Context, id string, data []byte, contentType string) error
	// Follow records followerID -> followingID in one transaction. Both
	// users must exist and the edge must not.
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
}
