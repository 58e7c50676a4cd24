// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"io"
	"mime/multipart"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"

	uploadErrors "github.com/contentjoy/content-approval-app-sub001/uploads/errors"
	"github.com/contentjoy/content-approval-app-sub001/uploads/models"
	"github.com/contentjoy/content-approval-app-sub001/uploads/services"
)

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// ChunkHandler handles the chunked upload HTTP surface
type ChunkHandler struct {
	chunkService services.ChunkService
}

// NewChunkHandler creates a new ChunkHandler with injected dependencies
func NewChunkHandler(chunkService services.ChunkService) *ChunkHandler {
	return &ChunkHandler{
		chunkService: chunkService,
	}
}

// UploadChunk handles one chunk of a session
// POST /uploads/chunk
func (h *ChunkHandler) UploadChunk(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return uploadErrors.HandleInvalidRequestError(c, "Invalid multipart form")
	}

	values := url.Values{}
	for key, vals := range form.Value {
		for _, v := range vals {
			values.Add(key, v)
		}
	}

	var req models.ChunkUploadRequest
	if err := formDecoder.Decode(&req, values); err != nil {
		return uploadErrors.HandleInvalidRequestError(c, "Malformed form fields")
	}

	// Missing required fields are terminal: the client must not retry the
	// same request.
	switch {
	case req.SessionID == "":
		return uploadErrors.HandleMissingFieldError(c, "sessionId")
	case req.ChunkIndex == nil:
		return uploadErrors.HandleMissingFieldError(c, "chunkIndex")
	case req.TotalChunks == nil:
		return uploadErrors.HandleMissingFieldError(c, "totalChunks")
	case req.FileName == "":
		return uploadErrors.HandleMissingFieldError(c, "originalFileName")
	}

	files := form.File["chunk"]
	if len(files) == 0 {
		return uploadErrors.HandleMissingFieldError(c, "chunk")
	}

	payload, err := readFormFile(files[0])
	if err != nil {
		return uploadErrors.HandleInvalidRequestError(c, "Failed to read chunk payload")
	}

	chunk := &models.Chunk{
		SessionID:   req.SessionID,
		ChunkIndex:  *req.ChunkIndex,
		TotalChunks: *req.TotalChunks,
		FileName:    req.FileName,
		FileType:    req.FileType,
		GymSlug:     req.GymSlug,
		GymName:     req.GymName,
		FolderID:    req.FolderID,
		UploadID:    req.UploadID,
		SlotName:    req.SlotName,
		Payload:     payload,
	}

	status, err := h.chunkService.StoreChunk(c.Context(), chunk)
	if err != nil {
		return uploadErrors.HandleServiceError(c, err)
	}

	message := "Chunk accepted"
	if status.IsComplete {
		message = "All chunks received"
	}

	return c.JSON(models.ChunkUploadResponse{
		Success:        true,
		SessionID:      status.SessionID,
		ChunkIndex:     chunk.ChunkIndex,
		ReceivedChunks: status.ReceivedChunks,
		TotalChunks:    status.TotalChunks,
		IsComplete:     status.IsComplete,
		Message:        message,
	})
}

// SessionStatus reports session progress for polling clients
// GET /uploads/session?sessionId=...
func (h *ChunkHandler) SessionStatus(c *fiber.Ctx) error {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		return uploadErrors.HandleMissingFieldError(c, "sessionId")
	}

	status, err := h.chunkService.SessionStatus(c.Context(), sessionID)
	if err != nil {
		return uploadErrors.HandleServiceError(c, err)
	}

	return c.JSON(status)
}

// Cleanup triggers an idle-session sweep
// POST /uploads/maintenance/cleanup
func (h *ChunkHandler) Cleanup(c *fiber.Ctx) error {
	removed, err := h.chunkService.CleanupIdleSessions(c.Context())
	if err != nil {
		return c.JSON(fiber.Map{"ok": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"ok": true, "removedChunks": removed})
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
