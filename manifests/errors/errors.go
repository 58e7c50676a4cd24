// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package errors

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/contentjoy/content-approval-app-sub001/manifests/services"
	"github.com/contentjoy/content-approval-app-sub001/transfers/drive"
)

// HandleInvalidRequestError handles malformed request bodies
func HandleInvalidRequestError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error":   "INVALID_REQUEST",
		"message": message,
	})
}

// HandleServiceError maps manifest service errors to HTTP responses
func HandleServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUploadNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"error":   "UPLOAD_NOT_FOUND",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrMissingUploadID),
		errors.Is(err, services.ErrInvalidExpectedFiles):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrIncompletePartSet):
		// Not a server fault: the caller retries once the remaining
		// transfers land.
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"error":   "INCOMPLETE_PART_SET",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrManifestWriteFailure):
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error":   "MANIFEST_WRITE_FAILURE",
			"message": "Failed to create manifest file",
		})
	case errors.Is(err, drive.ErrAuthFailure):
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error":   "AUTH_FAILURE",
			"message": "Authentication failed",
		})
	}

	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error":   "FINALIZE_FAILURE",
		"message": err.Error(),
	})
}
