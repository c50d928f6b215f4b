package middleware

import (
	"strings"

	"socialfeed/internal/logger"
	"socialfeed/internal/models"
	"socialfeed/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// UserIDKey is the c.Locals key holding the authenticated user ID.
const UserIDKey = "user_id"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(authService *services.AuthService, log *zap.Logger) fiber.Handler {
	log = logger.OrNop(log)
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return models.RespondWithError(c, models.NewAuthError("Not authorized, no token"))
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return models.RespondWithError(c, models.NewAuthError("Authorization header format must be 'Bearer <token>'"))
		}

		userID, err := authService.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			log.Debug("jwt validation failed", zap.String("path", utils.CopyString(c.Path())), zap.Error(err))
			return models.RespondWithError(c, err)
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// CurrentUserID returns the ID stored by AuthRequired, or "".
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
