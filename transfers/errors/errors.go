// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package errors

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/contentjoy/content-approval-app-sub001/transfers/drive"
	"github.com/contentjoy/content-approval-app-sub001/transfers/services"
)

// HandleInvalidRequestError handles malformed request bodies
func HandleInvalidRequestError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error":   "INVALID_REQUEST",
		"message": message,
	})
}

// HandleServiceError maps transfer service errors to HTTP responses.
// Remote protocol failures keep the cold-storage status and body in the
// details field so operators can diagnose without server log access.
func HandleServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMissingFileName),
		errors.Is(err, services.ErrInvalidSize),
		errors.Is(err, services.ErrMissingFolderID),
		errors.Is(err, services.ErrMissingUploadURL),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrInvalidChunkData):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":   "INVALID_REQUEST",
			"message": err.Error(),
		})
	case errors.Is(err, drive.ErrAuthFailure):
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error":   "AUTH_FAILURE",
			"message": "Authentication failed",
		})
	}

	var protocolErr *drive.ProtocolError
	if errors.As(err, &protocolErr) {
		code := "TRANSFER_FAILURE"
		switch protocolErr.Kind {
		case drive.KindInit:
			code = "INIT_FAILURE"
		case drive.KindAuth:
			code = "AUTH_FAILURE"
		case drive.KindPermanent:
			code = "PERMANENT_FAILURE"
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error":   code,
			"message": "Cold storage request failed",
			"details": fiber.Map{
				"status": protocolErr.StatusCode,
				"body":   protocolErr.Body,
			},
		})
	}

	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error":   "TRANSFER_FAILURE",
		"message": err.Error(),
	})
}
