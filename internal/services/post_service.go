package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"socialfeed/internal/logger"
	"socialfeed/internal/media"
	"socialfeed/internal/models"
	"socialfeed/internal/repositories"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FeedOptions bounds the per-post author lookups of the feed.
type FeedOptions struct {
	Concurrency   int
	LookupTimeout time.Duration
}

// CreatePostInput carries a new post. AuthorName may be empty, in which
// case the author's current name is looked up.
type CreatePostInput struct {
	AuthorID   string
	AuthorName string
	Caption    string
	Image      *media.Image
	File       string
}

// AddCommentInput carries a new comment.
type AddCommentInput struct {
	AuthorID   string
	AuthorName string
	Text       string
}

// PostService handles post creation, listing and engagement.
type PostService struct {
	postRepo repositories.PostRepository
	authors  AuthorLookup
	feed     FeedOptions
	events   activityNotifier
	log      *zap.Logger
}

// NewPostService creates a new PostService.
func NewPostService(postRepo repositories.PostRepository, authors AuthorLookup, feed FeedOptions, publisher EventPublisher, log *zap.Logger) *PostService {
	log = logger.OrNop(log)
	if feed.Concurrency < 1 {
		feed.Concurrency = 1
	}
	if feed.LookupTimeout <= 0 {
		feed.LookupTimeout = 2 * time.Second
	}
	return &PostService{
		postRepo: postRepo,
		authors:  authors,
		feed:     feed,
		events:   activityNotifier{publisher: publisher, log: log},
		log:      log,
	}
}

// CreatePost stores a new post authored by in.AuthorID.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	if strings.TrimSpace(in.AuthorID) == "" {
		return nil, models.NewAuthError("Not authorized")
	}

	authorName := sanitizeText(in.AuthorName)
	if authorName == "" {
		author, err := s.authors.GetUserInfo(ctx, in.AuthorID)
		if err != nil {
			return nil, err
		}
		authorName = author.Name
	}

	post := &models.Post{
		UserID:   in.AuthorID,
		UserName: authorName,
		Caption:  sanitizeText(in.Caption),
		File:     strings.TrimSpace(in.File),
		Likes:    models.InitialPostLikes,
		Shares:   0,
	}
	if in.Image != nil {
		post.ImageData = in.Image.Data
		post.ImageContentType = in.Image.ContentType
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.log.Info("post created", zap.String("post_id", post.ID), zap.String("user_id", post.UserID))
	s.events.notify(ctx, models.ActivityEvent{Type: models.EventPostCreated, ActorID: post.UserID, PostID: post.ID})

	return toPostView(post), nil
}

// ListPosts returns every post newest first without images.
func (s *PostService) ListPosts(ctx context.Context) ([]models.PostListItem, error) {
	posts, err := s.postRepo.List(ctx, repositories.ListOptions{})
	if err != nil {
		return nil, err
	}
	items := make([]models.PostListItem, len(posts))
	for i := range posts {
		p := &posts[i]
		comments := p.Comments
		if comments == nil {
			comments = []models.Comment{}
		}
		items[i] = models.PostListItem{
			ID:        p.ID,
			UserID:    p.UserID,
			UserName:  p.UserName,
			Caption:   p.Caption,
			Likes:     p.Likes,
			Shares:    p.Shares,
			Comments:  comments,
			CreatedAt: p.CreatedAt,
			Timestamp: humanize.Time(p.CreatedAt),
		}
	}
	return items, nil
}

// ListPostsWithMedia builds the feed: every post with its image and the
// author's avatar. Author lookups run concurrently; one that fails or times
// out leaves that item's avatar empty and marks it degraded instead of
// failing the feed. Items keep the store's order.
func (s *PostService) ListPostsWithMedia(ctx context.Context) ([]models.FeedItem, error) {
	posts, err := s.postRepo.List(ctx, repositories.ListOptions{IncludeImages: true})
	if err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, len(posts))
	for i := range posts {
		items[i] = toFeedItem(&posts[i])
	}

	var g errgroup.Group
	g.SetLimit(s.feed.Concurrency)
	for i := range posts {
		i := i
		g.Go(func() error {
			author, err := s.lookupAuthor(ctx, posts[i].UserID)
			if err != nil {
				s.recordLookupFailure(posts[i].ID, posts[i].UserID, err)
				items[i].Degraded = true
				return nil
			}
			items[i].Avatar = author.Profile.ImageURL
			return nil
		})
	}
	_ = g.Wait()

	return items, nil
}

// lookupAuthor bounds a single author lookup by the feed timeout even if
// the lookup itself ignores its context.
func (s *PostService) lookupAuthor(ctx context.Context, userID string) (*models.UserView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.feed.LookupTimeout)
	defer cancel()

	type result struct {
		view *models.UserView
		err  error
	}
	done := make(chan result, 1)
	go func() {
		view, err := s.authors.GetUserInfo(ctx, userID)
		done <- result{view, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, models.NewDependencyError("author profile", r.err)
		}
		return r.view, nil
	case <-ctx.Done():
		return nil, models.NewDependencyError("author profile", ctx.Err())
	}
}

func (s *PostService) recordLookupFailure(postID, userID string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, context.Canceled):
		reason = "canceled"
	default:
		var appErr *models.AppError
		if errors.As(errors.Unwrap(err), &appErr) && appErr.Code == models.CodeNotFound {
			reason = "not_found"
		}
	}
	FeedAuthorLookupFailures.WithLabelValues(reason).Inc()
	s.log.Warn("feed author lookup failed",
		zap.String("post_id", postID),
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Error(err))
}

// GetImage returns a post's image as a data URI.
func (s *PostService) GetImage(ctx context.Context, postID string) (string, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	uri := media.Encode(post.ImageData, post.ImageContentType)
	if uri == nil {
		return "", models.NewNotFoundError("image for post", postID)
	}
	return *uri, nil
}

// LikePost adds one like and returns the new count.
func (s *PostService) LikePost(ctx context.Context, postID string) (int, error) {
	likes, err := s.postRepo.IncrementLikes(ctx, postID)
	if err != nil {
		return 0, err
	}
	s.events.notify(ctx, models.ActivityEvent{Type: models.EventPostLiked, PostID: postID, Likes: likes})
	return likes, nil
}

// AddComment appends a comment and returns the post's full comment list.
func (s *PostService) AddComment(ctx context.Context, postID string, in AddCommentInput) ([]models.Comment, error) {
	text := sanitizeText(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}

	authorName := sanitizeText(in.AuthorName)
	if authorName == "" && in.AuthorID != "" {
		if author, err := s.authors.GetUserInfo(ctx, in.AuthorID); err == nil {
			authorName = author.Name
		}
	}

	comment := &models.Comment{
		UserID:    in.AuthorID,
		UserName:  authorName,
		Text:      text,
		Likes:     0,
		Timestamp: time.Now(),
	}
	comments, err := s.postRepo.AppendComment(ctx, postID, comment)
	if err != nil {
		return nil, err
	}

	s.events.notify(ctx, models.ActivityEvent{Type: models.EventPostCommented, ActorID: in.AuthorID, PostID: postID})
	return comments, nil
}

func toPostView(p *models.Post) *models.PostView {
	comments := p.Comments
	if comments == nil {
		comments = []models.Comment{}
	}
	return &models.PostView{
		ID:        p.ID,
		UserID:    p.UserID,
		UserName:  p.UserName,
		Caption:   p.Caption,
		Image:     media.Encode(p.ImageData, p.ImageContentType),
		File:      p.File,
		Likes:     p.Likes,
		Shares:    p.Shares,
		Comments:  comments,
		CreatedAt: p.CreatedAt,
	}
}

func toFeedItem(p *models.Post) models.FeedItem {
	comments := make([]models.FeedComment, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = models.FeedComment{
			UserID:    c.UserID,
			UserName:  c.UserName,
			Comment:   c.Text,
			Likes:     c.Likes,
			Timestamp: humanize.Time(c.Timestamp),
		}
	}
	return models.FeedItem{
		PostID:    p.ID,
		UserID:    p.UserID,
		UserName:  p.UserName,
		Caption:   p.Caption,
		Likes:     p.Likes,
		Comments:  comments,
		ImageSrc:  media.Encode(p.ImageData, p.ImageContentType),
		Timestamp: humanize.Time(p.CreatedAt),
	}
}
