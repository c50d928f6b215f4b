package repositories

import (
	"context"

	"socialfeed/internal/models"
)

// ListOptions narrows what List loads.
type ListOptions struct {
	// IncludeImages loads image bytes; the lightweight listing skips them.
	IncludeImages bool
}

// PostRepository defines the interface for post data access. Comments are
// owned by their post and are only reachable through it.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// List returns all posts newest first, each with comments in append order.
	List(ctx context.Context, opts ListOptions) ([]models.Post, error)
	// IncrementLikes atomically adds one like and returns the new count.
	IncrementLikes(ctx context.Context, id string) (int, error)
	// AppendComment adds comment after the post's existing comments and
	// returns the full ordered sequence.
	AppendComment(ctx context.Context, postID string, comment *models.Comment) ([]models.Comment, error)
}
