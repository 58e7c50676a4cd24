// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"

	"github.com/contentjoy/content-approval-app-sub001/manifests/models"
)

// Repository persists uploads and their recorded parts.
type Repository interface {
	// UpsertUpload creates an upload row or refreshes its declared
	// metadata. Completion state is never touched here.
	UpsertUpload(ctx context.Context, upload *models.Upload) error

	// GetUpload returns the upload, or nil when unknown.
	GetUpload(ctx context.Context, uploadID string) (*models.Upload, error)

	// UpsertPart records one part; a re-recorded slot replaces the
	// previous row.
	UpsertPart(ctx context.Context, part *models.UploadFile) error

	// PartsForUpload returns the recorded parts ordered by slot name.
	PartsForUpload(ctx context.Context, uploadID string) ([]*models.UploadFile, error)

	// MarkComplete stores the manifest reference and flips the upload to
	// complete.
	MarkComplete(ctx context.Context, uploadID, manifestFileID, manifestFileName string) error
}
