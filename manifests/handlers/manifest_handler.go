// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"github.com/gofiber/fiber/v2"

	manifestErrors "github.com/contentjoy/content-approval-app-sub001/manifests/errors"
	"github.com/contentjoy/content-approval-app-sub001/manifests/models"
	"github.com/contentjoy/content-approval-app-sub001/manifests/services"
)

// ManifestHandler handles upload registration and finalization
type ManifestHandler struct {
	manifestService services.ManifestService
}

// NewManifestHandler creates a new ManifestHandler with injected dependencies
func NewManifestHandler(manifestService services.ManifestService) *ManifestHandler {
	return &ManifestHandler{
		manifestService: manifestService,
	}
}

// Register declares an upload and its expected slot count
// POST /uploads/register
func (h *ManifestHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return manifestErrors.HandleInvalidRequestError(c, "Invalid request body")
	}

	upload, err := h.manifestService.RegisterUpload(c.Context(), &req)
	if err != nil {
		return manifestErrors.HandleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}

// Finalize reconciles an upload and writes its manifest
// POST /uploads/:uploadId/finalize
func (h *ManifestHandler) Finalize(c *fiber.Ctx) error {
	uploadID := c.Params("uploadId")
	if uploadID == "" {
		return manifestErrors.HandleInvalidRequestError(c, "uploadId is required")
	}

	resp, err := h.manifestService.Finalize(c.Context(), uploadID)
	if err != nil {
		return manifestErrors.HandleServiceError(c, err)
	}
	return c.JSON(resp)
}
