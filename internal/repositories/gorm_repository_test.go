package repositories_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"socialfeed/internal/models"
	"socialfeed/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

// stores returns the GORM (in-memory sqlite) and map-backed implementations
// so every behaviour is checked against both.
func stores(t *testing.T) map[string]struct {
	users repositories.UserRepository
	posts repositories.PostRepository
} {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := repositories.OpenDatabase("sqlite", dsn, gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return map[string]struct {
		users repositories.UserRepository
		posts repositories.PostRepository
	}{
		"gorm": {repositories.NewGORMUserRepository(db), repositories.NewGORMPostRepository(db)},
		"mock": {repositories.NewMockUserRepository(), repositories.NewMockPostRepository()},
	}
}

func newUser(name string) *models.User {
	return &models.User{Name: name, Email: name + "@example.com", Password: "hash"}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			alice := newUser("alice")
			require.NoError(t, s.users.Create(ctx, alice))
			bob := newUser("bob")
			require.NoError(t, s.users.Create(ctx, bob))

			assert.NotEmpty(t, alice.ID)
			assert.Equal(t, int64(1), alice.UserNumber)
			assert.Equal(t, int64(2), bob.UserNumber)

			got, err := s.users.GetByID(ctx, alice.ID)
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Name)
			assert.Empty(t, got.Followers)
			assert.Empty(t, got.Following)

			got, err = s.users.GetByEmail(ctx, "bob@example.com")
			require.NoError(t, err)
			assert.Equal(t, bob.ID, got.ID)

			_, err = s.users.GetByID(ctx, "missing")
			assert.True(t, models.IsCode(err, models.CodeNotFound))
			_, err = s.users.GetByEmail(ctx, "missing@example.com")
			assert.True(t, models.IsCode(err, models.CodeNotFound))

			list, err := s.users.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, alice.ID, list[0].ID)
		})
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.users.Create(ctx, newUser("carol")))
			err := s.users.Create(ctx, newUser("carol"))
			assert.True(t, models.IsCode(err, models.CodeConflict))
		})
	}
}

func TestUserRepository_UpdateProfileImage(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			u := newUser("dave")
			require.NoError(t, s.users.Create(ctx, u))

			require.NoError(t, s.users.UpdateProfileImage(ctx, u.ID, []byte{1, 2, 3}, "image/png"))
			require.NoError(t, s.users.UpdateProfileImage(ctx, u.ID, []byte{4, 5}, "image/jpeg"))

			got, err := s.users.GetByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, []byte{4, 5}, got.Profile.ImageData)
			assert.Equal(t, "image/jpeg", got.Profile.ImageContentType)

			err = s.users.UpdateProfileImage(ctx, "missing", []byte{1}, "image/png")
			assert.True(t, models.IsCode(err, models.CodeNotFound))
		})
	}
}

func TestUserRepository_FollowIsSymmetric(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a, b := newUser("erin"), newUser("frank")
			require.NoError(t, s.users.Create(ctx, a))
			require.NoError(t, s.users.Create(ctx, b))

			require.NoError(t, s.users.Follow(ctx, a.ID, b.ID))

			gotA, err := s.users.GetByID(ctx, a.ID)
			require.NoError(t, err)
			gotB, err := s.users.GetByID(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{b.ID}, gotA.Following)
			assert.Empty(t, gotA.Followers)
			assert.Equal(t, []string{a.ID}, gotB.Followers)
			assert.Empty(t, gotB.Following)

			err = s.users.Follow(ctx, a.ID, b.ID)
			assert.True(t, models.IsCode(err, models.CodeConflict))

			err = s.users.Follow(ctx, a.ID, "missing")
			assert.True(t, models.IsCode(err, models.CodeNotFound))

			require.NoError(t, s.users.Unfollow(ctx, a.ID, b.ID))
			gotB, err = s.users.GetByID(ctx, b.ID)
			require.NoError(t, err)
			assert.Empty(t, gotB.Followers)

			err = s.users.Unfollow(ctx, a.ID, b.ID)
			assert.True(t, models.IsCode(err, models.CodeConflict))
		})
	}
}

func TestPostRepository_CreateListOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			base := time.Now().Add(-time.Hour)
			older := &models.Post{UserID: "u1", UserName: "alice", Caption: "older", Likes: 1, CreatedAt: base,
				ImageData: []byte{9}, ImageContentType: "image/png"}
			newer := &models.Post{UserID: "u1", UserName: "alice", Caption: "newer", Likes: 1, CreatedAt: base.Add(time.Minute)}
			require.NoError(t, s.posts.Create(ctx, older))
			require.NoError(t, s.posts.Create(ctx, newer))

			list, err := s.posts.List(ctx, repositories.ListOptions{IncludeImages: true})
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "newer", list[0].Caption)
			assert.Equal(t, "older", list[1].Caption)
			assert.Equal(t, []byte{9}, list[1].ImageData)
			assert.Equal(t, 1, list[1].Likes)
			assert.Equal(t, 0, list[1].Shares)

			light, err := s.posts.List(ctx, repositories.ListOptions{})
			require.NoError(t, err)
			require.Len(t, light, 2)
			assert.Empty(t, light[1].ImageData)

			got, err := s.posts.GetByID(ctx, older.ID)
			require.NoError(t, err)
			assert.Equal(t, "image/png", got.ImageContentType)

			_, err = s.posts.GetByID(ctx, "missing")
			assert.True(t, models.IsCode(err, models.CodeNotFound))
		})
	}
}

func TestPostRepository_IncrementLikes(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := &models.Post{UserID: "u1", Caption: "hi", Likes: models.InitialPostLikes}
			require.NoError(t, s.posts.Create(ctx, p))

			likes, err := s.posts.IncrementLikes(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, likes)

			_, err = s.posts.IncrementLikes(ctx, "missing")
			assert.True(t, models.IsCode(err, models.CodeNotFound))
		})
	}
}

func TestPostRepository_ConcurrentLikesAreNotLost(t *testing.T) {
	ctx := context.Background()
	const n = 20
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := &models.Post{UserID: "u1", Caption: "hot", Likes: models.InitialPostLikes}
			require.NoError(t, s.posts.Create(ctx, p))

			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.posts.IncrementLikes(ctx, p.ID)
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			got, err := s.posts.GetByID(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, models.InitialPostLikes+n, got.Likes)
		})
	}
}

func TestPostRepository_AppendCommentKeepsOrder(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := &models.Post{UserID: "u1", Caption: "thread", Likes: 1}
			require.NoError(t, s.posts.Create(ctx, p))

			for _, text := range []string{"first", "second", "third"} {
				_, err := s.posts.AppendComment(ctx, p.ID, &models.Comment{UserID: "u2", UserName: "bob", Text: text})
				require.NoError(t, err)
			}
			comments, err := s.posts.AppendComment(ctx, p.ID, &models.Comment{UserID: "u3", Text: "fourth"})
			require.NoError(t, err)

			require.Len(t, comments, 4)
			for i, want := range []string{"first", "second", "third", "fourth"} {
				assert.Equal(t, want, comments[i].Text)
				assert.Equal(t, 0, comments[i].Likes)
			}

			got, err := s.posts.GetByID(ctx, p.ID)
			require.NoError(t, err)
			require.Len(t, got.Comments, 4)
			assert.Equal(t, "fourth", got.Comments[3].Text)

			_, err = s.posts.AppendComment(ctx, "missing", &models.Comment{Text: "x"})
			assert.True(t, models.IsCode(err, models.CodeNotFound))
		})
	}
}
