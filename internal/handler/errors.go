package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/middleware"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

// writeError maps a service error onto the API error envelope. Unexpected
// errors are logged and reported as a generic 500 carrying fallback.
func writeError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", invalidDetail(err))
	case errors.Is(err, model.ErrUnauthorized):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, model.ErrForbidden):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", "Insufficient role")
	case errors.Is(err, model.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, model.ErrFeatureDisabled):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Feature not available"})
	}

	logger.Log.Error().Err(err).
		Str("method", c.Method()).
		Str("route", c.Route().Path).
		Msg("request failed")
	return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", fallback)
}

// invalidDetail drops the operation prefixes of a wrapped validation error,
// e.g. "record vote: invalid input: vote must be ..." becomes
// "invalid input: vote must be ...".
func invalidDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, model.ErrInvalidInput.Error()); i >= 0 {
		return msg[i:]
	}
	return msg
}
