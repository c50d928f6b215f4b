package handlers

import (
	"socialfeed/internal/logger"
	"socialfeed/internal/media"
	"socialfeed/internal/middleware"
	"socialfeed/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// PostHandler handles HTTP requests for posts.
type PostHandler struct {
	service      *services.PostService
	decoder      media.Decoder
	authRequired fiber.Handler
	log          *zap.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service *services.PostService, authRequired fiber.Handler, maxUploadBytes int64, log *zap.Logger) *PostHandler {
	log = logger.OrNop(log)
	return &PostHandler{
		service:      service,
		decoder:      media.Decoder{MaxBytes: maxUploadBytes},
		authRequired: authRequired,
		log:          log,
	}
}

// RegisterRoutes registers the post routes under /posts.
func (h *PostHandler) RegisterRoutes(router fiber.Router) {
	posts := router.Group("/posts")
	posts.Post("/create-post", h.authRequired, h.HandleCreatePost)
	posts.Get("/", h.HandleListPosts)
	posts.Get("/all-posts", h.HandleFeed)
	posts.Get("/image/:id", h.HandleGetImage)
	posts.Post("/:id/likes", h.HandleLikePost)
	posts.Post("/:id/comment", h.HandleAddComment)
}

// HandleCreatePost creates a post from a multipart form with an optional "image".
func (h *PostHandler) HandleCreatePost(c *fiber.Ctx) error {
	var img *media.Image
	if fh, err := c.FormFile("image"); err == nil {
		img, err = h.decoder.Decode(fh, media.PostImageTypes...)
		if err != nil {
			return respondError(c, h.log, err)
		}
	}

	post, err := h.service.CreatePost(c.UserContext(), services.CreatePostInput{
		AuthorID:   middleware.CurrentUserID(c),
		AuthorName: utils.CopyString(c.FormValue("userName")),
		Caption:    utils.CopyString(c.FormValue("caption")),
		Image:      img,
		File:       utils.CopyString(c.FormValue("file")),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleListPosts returns the lightweight post listing.
func (h *PostHandler) HandleListPosts(c *fiber.Ctx) error {
	posts, err := h.service.ListPosts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(posts)
}

// HandleFeed returns every post with its image and author avatar.
func (h *PostHandler) HandleFeed(c *fiber.Ctx) error {
	feed, err := h.service.ListPostsWithMedia(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(feed)
}

// HandleGetImage returns a post's image as a data URI.
func (h *PostHandler) HandleGetImage(c *fiber.Ctx) error {
	uri, err := h.service.GetImage(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"imageSrc": uri})
}

// HandleLikePost adds one like.
func (h *PostHandler) HandleLikePost(c *fiber.Ctx) error {
	likes, err := h.service.LikePost(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"likes": likes})
}

// CommentRequest represents the request body for a comment.
type CommentRequest struct {
	UserID   string `json:"userId" form:"userId"`
	UserName string `json:"userName" form:"userName"`
	Comment  string `json:"comment" form:"comment"`
}

// HandleAddComment appends a comment and returns the post's comments.
func (h *PostHandler) HandleAddComment(c *fiber.Ctx) error {
	var req CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	comments, err := h.service.AddComment(c.UserContext(), utils.CopyString(c.Params("id")), services.AddCommentInput{
		AuthorID:   req.UserID,
		AuthorName: req.UserName,
		Text:       req.Comment,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(comments)
}
