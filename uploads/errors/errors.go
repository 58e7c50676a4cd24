// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package errors

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/contentjoy/content-approval-app-sub001/uploads/services"
)

// HandleInvalidRequestError handles invalid request errors
func HandleInvalidRequestError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error":   "INVALID_REQUEST",
		"message": message,
	})
}

// HandleMissingFieldError handles a missing required form field
func HandleMissingFieldError(c *fiber.Ctx, field string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error":   "MISSING_FIELD",
		"message": "Missing required field: " + field,
	})
}

// HandleServiceError maps chunk service errors to HTTP responses
func HandleServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"error":   "SESSION_NOT_FOUND",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrInvalidChunkIndex),
		errors.Is(err, services.ErrInvalidTotalCount):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":   "INVALID_CHUNK_INDEX",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrEmptyPayload):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":   "EMPTY_PAYLOAD",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrChunkTooLarge):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":   "CHUNK_TOO_LARGE",
			"message": err.Error(),
		})
	}

	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error":   "STORAGE_FAILURE",
		"message": err.Error(),
	})
}
