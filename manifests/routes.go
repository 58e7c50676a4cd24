// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package manifests

import (
	"github.com/gofiber/fiber/v2"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
	"github.com/contentjoy/content-approval-app-sub001/manifests/handlers"
)

// ManifestHandlers holds all the handlers this router needs.
type ManifestHandlers struct {
	ManifestHandler *handlers.ManifestHandler
}

// RegisterRoutes is the single entry point for setting up manifest routes.
func RegisterRoutes(app *fiber.App, handlers *ManifestHandlers, cfg *platformconfig.Config) {
	if handlers == nil || handlers.ManifestHandler == nil {
		panic("ManifestHandlers is required")
	}

	uploadRoutes := app.Group("/uploads")

	uploadRoutes.Post("/register", handlers.ManifestHandler.Register)
	uploadRoutes.Post("/:uploadId/finalize", handlers.ManifestHandler.Finalize)
}
