package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // validation_error, store_error, lookup_error, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errorFor maps the domain error taxonomy onto HTTP responses. Server-side
// failures are logged; their details stay out of the response body.
func errorFor(c *fiber.Ctx, err error) error {
	logger := LoggerFromCtx(c.UserContext())

	switch {
	case errors.Is(err, domain.ErrValidation):
		return newError(c, fiber.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrConfiguration):
		logger.Error("misconfigured", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusInternalServerError, "configuration_error", "server is not configured")
	case errors.Is(err, domain.ErrStore):
		logger.Error("store query failed", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusInternalServerError, "store_error", "places query failed")
	case errors.Is(err, domain.ErrLookup):
		logger.Error("article lookup failed", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusBadGateway, "lookup_error", "article source unavailable")
	default:
		logger.Error("request failed", "path", c.Path(), "error", err)
		return newError(c, fiber.StatusInternalServerError, "internal_error", "internal error")
	}
}
