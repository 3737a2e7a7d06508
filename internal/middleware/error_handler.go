package middleware

import (
	"errors"

	"satfolio-backend/internal/pkg/apperr"
	"satfolio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Classified errors keep their
// stable code and details; everything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	details := map[string]interface{}{}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return response.AppError(c, ae)
	}
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, message, code, details)
}
