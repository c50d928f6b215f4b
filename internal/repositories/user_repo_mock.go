package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"socialfeed/internal/models"

	"github.com/google/uuid"
)

type followKey struct {
	follower, following string
}

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users      map[string]models.User
	emails     map[string]string // email -> id
	follows    map[followKey]time.Time
	nextNumber int64
	mu         sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:   make(map[string]models.User),
		emails:  make(map[string]string),
		follows: make(map[followKey]time.Time),
	}
}

// Create adds a new user.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[user.Email]; taken {
		return models.NewConflictError(fmt.Sprintf("email '%s' already registered", user.Email))
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	r.nextNumber++
	user.UserNumber = r.nextNumber
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	r.users[user.ID] = *user
	r.emails[user.Email] = user.ID
	return nil
}

// GetByID returns a user by its ID with its follow lists.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id)
	}
	user.Followers, user.Following = r.edgesLocked(id)
	return &user, nil
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[email]
	if !ok {
		return nil, models.NewNotFoundError("user", email)
	}
	user := r.users[id]
	return &user, nil
}

// List returns all users ordered by registration.
func (r *MockUserRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userList := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		userList = append(userList, u)
	}
	sort.Slice(userList, func(i, j int) bool { return userList[i].UserNumber < userList[j].UserNumber })
	return userList, nil
}

// UpdateProfileImage replaces the stored profile photo.
func (r *MockUserRepository) UpdateProfileImage(_ context.Context, id string, data []byte, contentType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.NewNotFoundError("user", id)
	}
	user.Profile.ImageData = append([]byte(nil), data...)
	user.Profile.ImageContentType = contentType
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

// Follow records followerID -> followingID.
func (r *MockUserRepository) Follow(_ context.Context, followerID, followingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireUsersLocked(followerID, followingID); err != nil {
		return err
	}
	key := followKey{followerID, followingID}
	if _, ok := r.follows[key]; ok {
		return models.NewConflictError("You are already following this user.")
	}
	r.follows[key] = time.Now()
	return nil
}

// Unfollow removes followerID -> followingID.
func (r *MockUserRepository) Unfollow(_ context.Context, followerID, followingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireUsersLocked(followerID, followingID); err != nil {
		return err
	}
	key := followKey{followerID, followingID}
	if _, ok := r.follows[key]; !ok {
		return models.NewConflictError("You are not following this user.")
	}
	delete(r.follows, key)
	return nil
}

func (r *MockUserRepository) requireUsersLocked(ids ...string) error {
	for _, id := range ids {
		if _, ok := r.users[id]; !ok {
			return models.NewNotFoundError("user", id)
		}
	}
	return nil
}

// edgesLocked returns followers and following of id, oldest edge first.
func (r *MockUserRepository) edgesLocked(id string) (followers, following []string) {
	type edge struct {
		other string
		at    time.Time
	}
	var in, out []edge
	for k, at := range r.follows {
		if k.following == id {
			in = append(in, edge{k.follower, at})
		}
		if k.follower == id {
			out = append(out, edge{k.following, at})
		}
	}
	byTime := func(es []edge) []string {
		sort.SliceStable(es, func(i, j int) bool { return es[i].at.Before(es[j].at) })
		ids := make([]string, len(es))
		for i, e := range es {
			ids[i] = e.other
		}
		return ids
	}
	return byTime(in), byTime(out)
}
