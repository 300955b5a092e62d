package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/citygrid/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int               `json:"status"`
	Code      string            `json:"code"`    // bad_request, not_found, internal_error
	Message   string            `json:"message"` // Human-readable message
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code string, message string) error {
	return sendError(c, APIError{Status: status, Code: code, Message: message})
}

func sendError(c *fiber.Ctx, e APIError) error {
	e.RequestID = RequestIDFromCtx(c.UserContext())
	if e.RequestID == "" {
		e.RequestID, _ = c.Locals("requestid").(string)
	}
	return c.Status(e.Status).JSON(e)
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errValidation returns a 400 error listing the offending fields.
func errValidation(c *fiber.Ctx, fields map[string]string) error {
	return sendError(c, APIError{
		Status:  fiber.StatusBadRequest,
		Code:    "bad_request",
		Message: "invalid input",
		Fields:  fields,
	})
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// serviceError maps a use case error onto the matching response. Internal
// failures are logged and answered with a generic message.
func serviceError(c *fiber.Ctx, err error) error {
	return mapServiceError(c, err, false)
}

// serviceErrorDetail is serviceError for endpoints whose clients expect the
// failure text in the 500 body.
func serviceErrorDetail(c *fiber.Ctx, err error) error {
	return mapServiceError(c, err, true)
}

func mapServiceError(c *fiber.Ctx, err error, detail bool) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errValidation(c, verr.Fields)
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "not found")
	case errors.Is(err, domain.ErrNoIDs):
		return errBadRequest(c, "no ids provided")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
		if detail {
			return errInternal(c, err.Error())
		}
		return errInternal(c, "internal server error")
	}
}
