package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"socialfeed/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const appendCommentAttempts = 3

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{db: db}
}

func orderedComments(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

// Create inserts a post.
func (r *GORMPostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Comments").Create(post).Error; err != nil {
		return models.NewInternalError(fmt.Errorf("failed to create post: %w", err))
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return nil
}

// GetByID retrieves a post with its comments.
func (r *GORMPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Comments", orderedComments).First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("post", id)
		}
		return nil, models.NewInternalError(fmt.Errorf("failed to get post by ID %s: %w", id, err))
	}
	return &post, nil
}

// List retrieves all posts, newest first.
func (r *GORMPostRepository) List(ctx context.Context, opts ListOptions) ([]models.Post, error) {
	q := r.db.WithContext(ctx).Preload("Comments", orderedComments).Order("created_at desc").Order("id asc")
	if !opts.IncludeImages {
		q = q.Omit("image_data")
	}
	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(fmt.Errorf("failed to list posts: %w", err))
	}
	return posts, nil
}

// IncrementLikes adds one like with a single UPDATE so concurrent likes are never lost.
func (r *GORMPostRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("post", id)
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).Select("likes").Scan(&likes).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, models.NewInternalError(fmt.Errorf("failed to like post %s: %w", id, err))
	}
	return likes, nil
}

// AppendComment stores comment at the next position of postID.
func (r *GORMPostRepository) AppendComment(ctx context.Context, postID string, comment *models.Comment) ([]models.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.Timestamp.IsZero() {
		comment.Timestamp = time.Now()
	}
	comment.PostID = postID

	var comments []models.Comment
	var err error
	for attempt := 0; attempt < appendCommentAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return models.NewNotFoundError("post", postID)
			}
			var maxPosition int
			if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).
				Select("COALESCE(MAX(position), 0)").Scan(&maxPosition).Error; err != nil {
				return err
			}
			comment.Position = maxPosition + 1
			if err := tx.Create(comment).Error; err != nil {
				return err
			}
			return tx.Where("post_id = ?", postID).Order("position asc").Find(&comments).Error
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(fmt.Errorf("failed to comment on post %s: %w", postID, err))
	}
	return comments, nil
}
