package models

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// StatusForCode maps an AppError code to its HTTP status. Conflicts are
// reported as 400 to match the public API.
func StatusForCode(code string) int {
	switch code {
	case CodeValidation, CodeConflict:
		return http.StatusBadRequest
	case CodeAuth:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError writes err as a standardized error body. Internal
// details are never exposed; only the AppError message and code are.
func RespondWithError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError(err)
	}
	status := StatusForCode(appErr.Code)
	message := appErr.Message
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error: message,
		Code:  appErr.Code,
	})
}
