package handlers

import (
	"socialfeed/internal/logger"
	"socialfeed/internal/media"
	"socialfeed/internal/middleware"
	"socialfeed/internal/models"
	"socialfeed/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for accounts, profiles and follows.
type UserHandler struct {
	authService    *services.AuthService
	profileService *services.ProfileService
	graphService   *services.SocialGraphService
	validate       *validator.Validate
	decoder        media.Decoder
	authRequired   fiber.Handler
	authLimiter    fiber.Handler
	log            *zap.Logger
}

// UserHandlerDeps groups the collaborators of UserHandler.
type UserHandlerDeps struct {
	AuthService    *services.AuthService
	ProfileService *services.ProfileService
	GraphService   *services.SocialGraphService
	AuthRequired   fiber.Handler
	AuthLimiter    fiber.Handler // optional, guards register and login
	MaxUploadBytes int64
	Log            *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(deps UserHandlerDeps) *UserHandler {
	log := logger.OrNop(deps.Log)
	limiter := deps.AuthLimiter
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &UserHandler{
		authService:    deps.AuthService,
		profileService: deps.ProfileService,
		graphService:   deps.GraphService,
		validate:       validator.New(),
		decoder:        media.Decoder{MaxBytes: deps.MaxUploadBytes},
		authRequired:   deps.AuthRequired,
		authLimiter:    limiter,
		log:            log,
	}
}

// RegisterRoutes registers the user routes under /users.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	users := router.Group("/users")
	users.Post("/register", h.authLimiter, h.HandleRegister)
	users.Post("/login", h.authLimiter, h.HandleLogin)
	users.Get("/profile", h.authRequired, h.HandleGetProfile)
	users.Get("/user-info", h.HandleGetUserInfo)
	users.Post("/upload", h.authRequired, h.HandleUploadProfileImage)
	users.Post("/follow", h.authRequired, h.HandleFollow)
	users.Post("/unfollow", h.authRequired, h.HandleUnfollow)
	users.Get("/get-all", h.authRequired, h.HandleListUsers)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleRegister handles new user registration.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.authService.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	res, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		// Unknown accounts are a 400 on this route, not a 404.
		if models.IsCode(err, models.CodeNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: "User does not exist",
				Code:  models.CodeNotFound,
			})
		}
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}

// HandleGetProfile returns the caller's own profile.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	view, err := h.profileService.GetProfile(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(view)
}

// HandleGetUserInfo returns any user's profile by ?userId=.
func (h *UserHandler) HandleGetUserInfo(c *fiber.Ctx) error {
	view, err := h.profileService.GetUserInfo(c.UserContext(), c.Query("userId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(view)
}

// HandleUploadProfileImage stores the multipart "file" as the caller's photo.
func (h *UserHandler) HandleUploadProfileImage(c *fiber.Ctx) error {
	// A missing part is reported by the service as "No file uploaded".
	fh, _ := c.FormFile("file")

	img, err := h.decoder.Decode(fh, media.ProfileImageTypes...)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.profileService.UpdateProfileImage(c.UserContext(), middleware.CurrentUserID(c), img); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"msg": "Profile image uploaded successfully"})
}

// FollowRequest names the follow edge. UserID defaults to the caller.
type FollowRequest struct {
	UserID       string `json:"userId" form:"userId"`
	TargetUserID string `json:"targetUserId" form:"targetUserId" validate:"required"`
}

func (h *UserHandler) parseFollow(c *fiber.Ctx) (string, string, error) {
	var req FollowRequest
	if err := c.BodyParser(&req); err != nil {
		return "", "", models.NewValidationError("Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return "", "", models.NewValidationError("targetUserId is required")
	}
	caller := middleware.CurrentUserID(c)
	if req.UserID != "" && req.UserID != caller {
		return "", "", models.NewAuthError("Cannot change follows for another user")
	}
	return caller, req.TargetUserID, nil
}

// HandleFollow makes the caller follow targetUserId.
func (h *UserHandler) HandleFollow(c *fiber.Ctx) error {
	userID, targetID, err := h.parseFollow(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.graphService.Follow(c.UserContext(), userID, targetID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Successfully followed the user!"})
}

// HandleUnfollow removes the caller from targetUserId's followers.
func (h *UserHandler) HandleUnfollow(c *fiber.Ctx) error {
	userID, targetID, err := h.parseFollow(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.graphService.Unfollow(c.UserContext(), userID, targetID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Successfully unfollowed the user!"})
}

// HandleListUsers returns the user directory.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.profileService.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(users)
}
