package handlers

import (
	"errors"
	"fmt"

	"socialfeed/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// respondError logs unexpected failures and writes the standard error body.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	if code := models.ErrorCode(err); code == models.CodeInternal || code == models.CodeDependency {
		log.Error("request failed",
			zap.String("method", utils.CopyString(c.Method())),
			zap.String("path", utils.CopyString(c.Path())),
			zap.Error(err))
	}
	return models.RespondWithError(c, err)
}

// validationFailed reports struct validation errors field by field.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return models.RespondWithError(c, models.NewValidationError(err.Error()))
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Please enter all fields",
		"code":   models.CodeValidation,
		"fields": errorMessages,
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.NewValidationError(fmt.Sprintf("Invalid request body: %v", err)))
}
