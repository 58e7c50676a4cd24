// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	"github.com/contentjoy/content-approval-app-sub001/manifests/models"
)

// ManifestService reconciles uploads: it flushes buffered chunk sessions to
// the destination, checks the part set, and writes the manifest.
type ManifestService interface {
	// RegisterUpload declares an upload and its expected slot count.
	RegisterUpload(ctx context.Context, req *models.RegisterUploadRequest) (*models.Upload, error)

	// RecordPart persists one completed transfer as a slot of an upload.
	RecordPart(ctx context.Context, uploadID, slotName, fileName, storageFileID string, sizeBytes int64, mimeType string) error

	// Finalize flushes complete chunk sessions, verifies the part set, and
	// writes the manifest. Idempotent for an already-complete upload.
	Finalize(ctx context.Context, uploadID string) (*models.FinalizeResponse, error)
}
