// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package uploads

import (
	"github.com/gofiber/fiber/v2"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/uploads/handlers"
)

// UploadHandlers holds all the handlers this router needs.
type UploadHandlers struct {
	ChunkHandler *handlers.ChunkHandler
}

// RegisterRoutes is the single entry point for setting up upload routes.
func RegisterRoutes(app *fiber.App, handlers *UploadHandlers, cfg *platformconfig.Config) {
	if handlers == nil || handlers.ChunkHandler == nil {
		panic("UploadHandlers is required")
	}

	uploadRoutes := app.Group("/uploads")

	uploadRoutes.Post("/chunk", handlers.ChunkHandler.UploadChunk)
	uploadRoutes.Get("/session", handlers.ChunkHandler.SessionStatus)
	uploadRoutes.Post("/maintenance/cleanup", handlers.ChunkHandler.Cleanup)
}
