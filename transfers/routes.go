// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transfers

import (
	"github.com/gofiber/fiber/v2"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/transfers/handlers"
)

// TransferHandlers holds all the handlers this router needs.
type TransferHandlers struct {
	TransferHandler *handlers.TransferHandler
}

// RegisterRoutes is the single entry point for setting up transfer routes.
func RegisterRoutes(app *fiber.App, handlers *TransferHandlers, cfg *platformconfig.Config) {
	if handlers == nil || handlers.TransferHandler == nil {
		panic("TransferHandlers is required")
	}

	transferRoutes := app.Group("/transfers")

	transferRoutes.Post("/resumable/start", handlers.TransferHandler.Start)
	transferRoutes.Post("/resumable/put", handlers.TransferHandler.PutRange)
	transferRoutes.Get("/verify", handlers.TransferHandler.Verify)
}
