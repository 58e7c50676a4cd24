// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	transferErrors "github.com/contentjoy/content-approval-app-sub001/transfers/errors"
	"github.com/contentjoy/content-approval-app-sub001/transfers/models"
	"github.com/contentjoy/content-approval-app-sub001/transfers/services"
)

// TransferHandler handles the resumable transfer HTTP surface
type TransferHandler struct {
	transferService services.TransferService
}

// NewTransferHandler creates a new TransferHandler with injected dependencies
func NewTransferHandler(transferService services.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
	}
}

// Start begins a resumable transfer, short-circuiting on a dedupe hit
// POST /transfers/resumable/start
func (h *TransferHandler) Start(c *fiber.Ctx) error {
	var req models.StartTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return transferErrors.HandleInvalidRequestError(c, "Invalid request body")
	}

	resp, err := h.transferService.Start(c.Context(), &req)
	if err != nil {
		return transferErrors.HandleServiceError(c, err)
	}
	return c.JSON(resp)
}

// PutRange forwards one sequential slice to the session URL
// POST /transfers/resumable/put
func (h *TransferHandler) PutRange(c *fiber.Ctx) error {
	var req models.PutRangeRequest
	if err := c.BodyParser(&req); err != nil {
		return transferErrors.HandleInvalidRequestError(c, "Invalid request body")
	}

	resp, err := h.transferService.PutRange(c.Context(), &req)
	if err != nil {
		return transferErrors.HandleServiceError(c, err)
	}
	return c.JSON(resp)
}

// Verify checks destination presence by name and size, or probes listing
// permission when no name is given
// GET /transfers/verify?parentId=&name=&sizeBytes=
func (h *TransferHandler) Verify(c *fiber.Ctx) error {
	folderID := c.Query("parentId")
	name := c.Query("name")

	sizeBytes, err := strconv.ParseInt(c.Query("sizeBytes", "0"), 10, 64)
	if err != nil {
		return transferErrors.HandleInvalidRequestError(c, "sizeBytes must be an integer")
	}

	result, err := h.transferService.Verify(c.Context(), folderID, name, sizeBytes)
	if err != nil {
		return transferErrors.HandleServiceError(c, err)
	}

	// An empty name degrades to a permission probe: the listing itself
	// succeeding is the answer.
	if name == "" {
		return c.JSON(models.ProbeResponse{OK: true, CanList: true})
	}
	return c.JSON(result)
}
