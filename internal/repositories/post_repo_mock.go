package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"socialfeed/internal/models"

	"github.com/google/uuid"
)

// MockPostRepository is an in-memory implementation of PostRepository.
type MockPostRepository struct {
	posts map[string]models.Post
	seq   map[string]int64 // insertion order, breaks CreatedAt ties
	next  int64
	mu    sync.RWMutex
}

// NewMockPostRepository creates a new instance of MockPostRepository.
func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{
		posts: make(map[string]models.Post),
		seq:   make(map[string]int64),
	}
}

// Create adds a new post.
func (r *MockPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.UpdatedAt = post.CreatedAt
	post.Comments = []models.Comment{}

	r.next++
	r.seq[post.ID] = r.next
	r.posts[post.ID] = clonePost(*post)
	return nil
}

// GetByID returns a post by its ID.
func (r *MockPostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id)
	}
	post = clonePost(post)
	return &post, nil
}

// List returns all posts, newest first.
func (r *MockPostRepository) List(_ context.Context, opts ListOptions) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	postList := make([]models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		p = clonePost(p)
		if !opts.IncludeImages {
			p.ImageData = nil
		}
		postList = append(postList, p)
	}
	sort.Slice(postList, func(i, j int) bool {
		a, b := postList[i], postList[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.seq[a.ID] > r.seq[b.ID]
	})
	return postList, nil
}

// IncrementLikes adds one like under the write lock.
func (r *MockPostRepository) IncrementLikes(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return 0, models.NewNotFoundError("post", id)
	}
	post.Likes++
	r.posts[id] = post
	return post.Likes, nil
}

// AppendComment appends comment to the post's comment list.
func (r *MockPostRepository) AppendComment(_ context.Context, postID string, comment *models.Comment) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, models.NewNotFoundError("post", postID)
	}
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if comment.Timestamp.IsZero() {
		comment.Timestamp = time.Now()
	}
	comment.PostID = postID
	comment.Position = len(post.Comments) + 1

	post.Comments = append(post.Comments, *comment)
	r.posts[postID] = post
	return append([]models.Comment(nil), post.Comments...), nil
}

// clonePost copies the slices so callers cannot mutate stored state.
func clonePost(p models.Post) models.Post {
	p.ImageData = append([]byte(nil), p.ImageData...)
	p.Comments = append([]models.Comment{}, p.Comments...)
	return p
}
